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
	"github.com/q191201771/naza/pkg/bele"
)

// PsiSection 用于生成PAT和PMT
//
// 只生成单节目、不带描述符的表，一个section放在一个TS packet里
//
type PsiSection struct {
	pointerField uint8

	tableId              uint8
	tableIdExtension     uint16 // PAT为transport_stream_id，PMT为program_number
	versionNumber        uint8
	currentNextIndicator uint8
	sectionNumber        uint8
	lastSectionNumber    uint8

	patData []PatProgramElement

	pmtPcrPid uint16
	pmtData   []PmtProgramElement
}

const (
	defaultTransportStreamId uint16 = 1
	defaultProgramNumber     uint16 = 1
)

func NewPatSection(pmtPid uint16) *PsiSection {
	return &PsiSection{
		tableId:              TableIdPat,
		tableIdExtension:     defaultTransportStreamId,
		currentNextIndicator: 1,
		patData: []PatProgramElement{
			{ProgramNumber: defaultProgramNumber, Pid: pmtPid},
		},
	}
}

// NewPmtSection PCR使用视频的PID
func NewPmtSection(videoPid, audioPid uint16) *PsiSection {
	return &PsiSection{
		tableId:              TableIdPmt,
		tableIdExtension:     defaultProgramNumber,
		currentNextIndicator: 1,
		pmtPcrPid:            videoPid,
		pmtData: []PmtProgramElement{
			{StreamType: StreamTypeAvc, Pid: videoPid},
			{StreamType: StreamTypeAac, Pid: audioPid},
		},
	}
}

// Pack
//
// @return: pointer_field + section，section的最后4字节为CRC_32
//
func (psi *PsiSection) Pack() []byte {
	sectionLength := psi.calcSectionLength()
	bc := base.NewByteCursor(make([]byte, 0, 1+3+int(sectionLength)))

	bc.WriteUint8(psi.pointerField)

	// table_id, section_syntax_indicator 1, '0', reserved '11', section_length
	bc.WriteUint8(psi.tableId)
	bc.WriteUint16(0xB000 | sectionLength)

	// reserved '11', version_number, current_next_indicator
	bc.WriteUint16(psi.tableIdExtension)
	bc.WriteUint8(0xC0 | (psi.versionNumber&0x1F)<<1 | psi.currentNextIndicator&0x01)
	bc.WriteUint8(psi.sectionNumber)
	bc.WriteUint8(psi.lastSectionNumber)

	switch psi.tableId {
	case TableIdPat:
		psi.writePatSection(bc)
	case TableIdPmt:
		psi.writePmtSection(bc)
	}

	b := bc.Bytes()
	crc := CalcCrc32(0xFFFFFFFF, b[1:])
	bc.WriteUint32(0)
	b = bc.Bytes()
	bele.BePutUint32(b[len(b)-4:], crc)
	return b
}

// calcSectionLength section_length之后的所有字节，包含CRC_32
func (psi *PsiSection) calcSectionLength() (length uint16) {
	// table_id_extension + version等 + section_number + last_section_number
	length = 5

	switch psi.tableId {
	case TableIdPat:
		length += uint16(4 * len(psi.patData))
	case TableIdPmt:
		// PCR_PID + program_info_length
		length += 4 + uint16(5*len(psi.pmtData))
	}

	length += 4 // crc32
	return
}

func (psi *PsiSection) writePatSection(bc *base.ByteCursor) {
	for _, pe := range psi.patData {
		bc.WriteUint16(pe.ProgramNumber)
		bc.WriteUint16(0xE000 | pe.Pid&maxPid)
	}
}

func (psi *PsiSection) writePmtSection(bc *base.ByteCursor) {
	bc.WriteUint16(0xE000 | psi.pmtPcrPid&maxPid)
	bc.WriteUint16(0xF000) // program_info_length 0

	for _, pe := range psi.pmtData {
		bc.WriteUint8(pe.StreamType)
		bc.WriteUint16(0xE000 | pe.Pid&maxPid)
		bc.WriteUint16(0xF000) // ES_info_length 0
	}
}

// packPsiPacket 把一个section放进一个TS packet，剩余部分用0xFF填充
func packPsiPacket(out []byte, pid uint16, cc uint8, section []byte) {
	packTsPacketHeader(out, pid, true, cc)
	n := copy(out[PacketHeaderSize:PacketSize], section)
	for i := PacketHeaderSize + n; i < PacketSize; i++ {
		out[i] = 0xFF
	}
}
