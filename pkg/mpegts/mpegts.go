// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import "fmt"

// 每个TS packet固定188字节，以0x47开头
const (
	PacketSize       = 188
	PacketHeaderSize = 4
)

const SyncByte uint8 = 0x47

// PID
const (
	PidPat   uint16 = 0
	PidPmt   uint16 = 0x1001
	PidVideo uint16 = 0x100
	PidAudio uint16 = 0x101

	// PidNull 空包
	PidNull uint16 = 0x1FFF

	maxPid uint16 = 0x1FFF
)

// stream_id
// <iso13818-1.pdf> <Table 2-18 - Stream_id assignments> <page 52/174>
const (
	StreamIdPrivateStream1 uint8 = 0xBD
	StreamIdAudio          uint8 = 0xC0 // 110x xxxx
	StreamIdVideo          uint8 = 0xE0 // 1110 xxxx

	streamIdAudioMin uint8 = 0xC0
	streamIdVideoMax uint8 = 0xEF
)

// stream_type
// <iso13818-1.pdf> <Table 2-29 - Stream type assignments> <page 66/174>
const (
	StreamTypeAac uint8 = 0x0F
	StreamTypeAvc uint8 = 0x1B
)

// table_id
const (
	TableIdPat uint8 = 0x00
	TableIdPmt uint8 = 0x02
)

// adaptation_field_control
const (
	afcPayloadOnly           uint8 = 1
	afcAdaptationOnly        uint8 = 2
	afcAdaptationWithPayload uint8 = 3
)

// DefaultPcrDelay PCR比DTS提前的量，单位90kHz，即700毫秒
const DefaultPcrDelay uint64 = 63000

// ---------------------------------------------------------------------------------------------------------------------

// PidKind PID表中每个PID的类型
type PidKind uint8

const (
	PidKindReserved PidKind = iota
	PidKindPat
	PidKindPmt
	PidKindVideo
	PidKindAudio
)

func (k PidKind) String() string {
	switch k {
	case PidKindPat:
		return "Pat"
	case PidKindPmt:
		return "Pmt"
	case PidKindVideo:
		return "Video"
	case PidKindAudio:
		return "Audio"
	case PidKindReserved:
		return "Reserved"
	}
	return fmt.Sprintf("PidKind(%d)", uint8(k))
}

// PidKindOfStreamType PMT中stream_type到PID类型的映射
func PidKindOfStreamType(streamType uint8) PidKind {
	switch streamType {
	case StreamTypeAvc:
		return PidKindVideo
	case StreamTypeAac:
		return PidKindAudio
	}
	return PidKindReserved
}
