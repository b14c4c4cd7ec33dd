// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// Pmt
//
// ----------------------------------------
// Program Map Table
// <iso13818-1.pdf> <2.4.4.8> <page 64/174>
// table_id                 [8b]  *
// section_syntax_indicator [1b]
// 0                        [1b]
// reserved                 [2b]
// section_length           [12b] **
// program_number           [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// reserved                 [3b]
// PCR_PID                  [13b] **
// reserved                 [4b]
// program_info_length      [12b] **
// -----loop-----
// stream_type              [8b]  *
// reserved                 [3b]
// elementary_PID           [13b] **
// reserved                 [4b]
// ES_info_length           [12b] **
// --------------
// CRC32                    [32b] ****
// ----------------------------------------
//
type Pmt struct {
	TableId              uint8
	SectionLength        uint16
	ProgramNumber        uint16
	VersionNumber        uint8
	CurrentNextIndicator uint8
	SectionNumber        uint8
	LastSectionNumber    uint8
	PcrPid               uint16
	ProgramInfoLength    uint16
	ProgramElements      []PmtProgramElement
	Crc32                uint32
}

type PmtProgramElement struct {
	StreamType   uint8
	Pid          uint16
	EsInfoLength uint16
}

// pmtMinSectionLength 9字节固定字段加4字节CRC
const pmtMinSectionLength = 13

// ParsePmt
//
// @param b: 以table_id开头，不包含pointer_field
//
// 描述符直接跳过
//
func ParsePmt(b []byte) (pmt Pmt, err error) {
	sh, bc, err := parsePsiSectionHeader(b, pmtMinSectionLength, "mpegts.ParsePmt")
	if err != nil {
		return pmt, err
	}
	pmt.TableId = sh.tableId
	pmt.SectionLength = sh.sectionLength
	pmt.ProgramNumber = sh.tableIdExtension
	pmt.VersionNumber = sh.versionNumber
	pmt.CurrentNextIndicator = sh.currentNextIndicator
	pmt.SectionNumber = sh.sectionNumber
	pmt.LastSectionNumber = sh.lastSectionNumber

	v, _ := bc.ReadUint16()
	pmt.PcrPid = v & maxPid
	v, _ = bc.ReadUint16()
	pmt.ProgramInfoLength = v & 0x0FFF
	if err = bc.Skip(int(pmt.ProgramInfoLength)); err != nil {
		return pmt, err
	}

	for bc.Left() > 4 {
		var ppe PmtProgramElement
		if ppe.StreamType, err = bc.ReadUint8(); err != nil {
			return pmt, err
		}
		if v, err = bc.ReadUint16(); err != nil {
			return pmt, err
		}
		ppe.Pid = v & maxPid
		if v, err = bc.ReadUint16(); err != nil {
			return pmt, err
		}
		ppe.EsInfoLength = v & 0x0FFF
		if err = bc.Skip(int(ppe.EsInfoLength)); err != nil {
			return pmt, err
		}
		pmt.ProgramElements = append(pmt.ProgramElements, ppe)
	}
	pmt.Crc32, err = bc.ReadUint32()
	return pmt, err
}

func (pmt *Pmt) SearchPid(pid uint16) *PmtProgramElement {
	for i := range pmt.ProgramElements {
		if pmt.ProgramElements[i].Pid == pid {
			return &pmt.ProgramElements[i]
		}
	}
	return nil
}
