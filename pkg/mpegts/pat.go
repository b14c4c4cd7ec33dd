// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/lalts/pkg/base"
)

// Pat
//
// ---------------------------------------------------------------------------------------------------
// Program association section
// <iso13818-1.pdf> <2.4.4.3> <page 61/174>
// table_id                 [8b] *
// section_syntax_indicator [1b]
// '0'                      [1b]
// reserved                 [2b]
// section_length           [12b] **
// transport_stream_id      [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// -----loop-----
// program_number           [16b] **
// reserved                 [3b]
// program_map_PID          [13b] ** if program_number == 0 then network_PID else then program_map_PID
// --------------
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------
type Pat struct {
	TableId              uint8
	SectionLength        uint16
	TransportStreamId    uint16
	VersionNumber        uint8
	CurrentNextIndicator uint8
	SectionNumber        uint8
	LastSectionNumber    uint8
	ProgramElements      []PatProgramElement
	Crc32                uint32
}

type PatProgramElement struct {
	ProgramNumber uint16
	Pid           uint16 // program_number为0时是network_PID
}

// patMinSectionLength 5字节固定字段加4字节CRC
const patMinSectionLength = 9

// ParsePat
//
// @param b: 以table_id开头，不包含pointer_field
//
// 注意，CRC_32只解析，不校验
//
func ParsePat(b []byte) (pat Pat, err error) {
	sh, bc, err := parsePsiSectionHeader(b, patMinSectionLength, "mpegts.ParsePat")
	if err != nil {
		return pat, err
	}
	pat.TableId = sh.tableId
	pat.SectionLength = sh.sectionLength
	pat.TransportStreamId = sh.tableIdExtension
	pat.VersionNumber = sh.versionNumber
	pat.CurrentNextIndicator = sh.currentNextIndicator
	pat.SectionNumber = sh.sectionNumber
	pat.LastSectionNumber = sh.lastSectionNumber

	for bc.Left() > 4 {
		var ppe PatProgramElement
		if ppe.ProgramNumber, err = bc.ReadUint16(); err != nil {
			return pat, err
		}
		v, err := bc.ReadUint16()
		if err != nil {
			return pat, err
		}
		ppe.Pid = v & maxPid
		pat.ProgramElements = append(pat.ProgramElements, ppe)
	}
	pat.Crc32, err = bc.ReadUint32()
	return pat, err
}

func (pat *Pat) SearchPid(pid uint16) bool {
	for _, ppe := range pat.ProgramElements {
		if ppe.ProgramNumber != 0 && pid == ppe.Pid {
			return true
		}
	}
	return false
}

// ----- private -------------------------------------------------------------------------------------------------------

type psiSectionHeader struct {
	tableId              uint8
	sectionLength        uint16
	tableIdExtension     uint16
	versionNumber        uint8
	currentNextIndicator uint8
	sectionNumber        uint8
	lastSectionNumber    uint8
}

// parsePsiSectionHeader 解析PAT和PMT共有的8字节
//
// @return bc: 位置在固定字段之后，结尾在CRC_32之后
//
func parsePsiSectionHeader(b []byte, minSectionLength uint16, msg string) (h psiSectionHeader, bc *base.ByteCursor, err error) {
	if len(b) < 3 {
		return h, nil, base.NewErrTruncated(3, len(b), msg)
	}
	h.tableId = b[0]
	h.sectionLength = (uint16(b[1])<<8 | uint16(b[2])) & 0x0FFF
	if h.sectionLength < minSectionLength {
		return h, nil, base.NewErrMalformed("%s: section_length too small. section_length=%d", msg, h.sectionLength)
	}
	total := 3 + int(h.sectionLength)
	if len(b) < total {
		return h, nil, base.NewErrTruncated(total, len(b), msg)
	}

	bc = base.NewByteCursor(b[3:total])
	h.tableIdExtension, _ = bc.ReadUint16()
	v, _ := bc.ReadUint8()
	h.versionNumber = (v >> 1) & 0x1F
	h.currentNextIndicator = v & 0x01
	h.sectionNumber, _ = bc.ReadUint8()
	h.lastSectionNumber, _ = bc.ReadUint8()
	return h, bc, nil
}
