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
	"github.com/q191201771/naza/pkg/nazabits"
)

// TsPacketHeader
//
// ------------------------------------------------
// <iso13818-1.pdf> <2.4.3.2> <page 36/174>
// sync_byte                    [8b]  * always 0x47
// transport_error_indicator    [1b]
// payload_unit_start_indicator [1b]
// transport_priority           [1b]
// PID                          [13b] **
// transport_scrambling_control [2b]
// adaptation_field_control     [2b]
// continuity_counter           [4b]  *
// ------------------------------------------------
type TsPacketHeader struct {
	Sync             uint8
	Err              uint8
	PayloadUnitStart uint8
	Prio             uint8
	Pid              uint16
	Scra             uint8
	Adaptation       uint8 // adaptation_field_control
	Cc               uint8
}

// ParseTsPacketHeader 解析4字节TS Packet header
func ParseTsPacketHeader(b []byte) (h TsPacketHeader, err error) {
	if len(b) < PacketHeaderSize {
		return h, base.NewErrTruncated(PacketHeaderSize, len(b), "mpegts.ParseTsPacketHeader")
	}
	if b[0] != SyncByte {
		return h, base.NewErrDesync(b[0])
	}

	br := nazabits.NewBitReader(b)
	h.Sync, _ = br.ReadBits8(8)
	h.Err, _ = br.ReadBits8(1)
	h.PayloadUnitStart, _ = br.ReadBits8(1)
	h.Prio, _ = br.ReadBits8(1)
	h.Pid, _ = br.ReadBits16(13)
	h.Scra, _ = br.ReadBits8(2)
	h.Adaptation, _ = br.ReadBits8(2)
	h.Cc, _ = br.ReadBits8(4)
	return h, nil
}

func (h *TsPacketHeader) HasAdaptation() bool {
	return h.Adaptation == afcAdaptationOnly || h.Adaptation == afcAdaptationWithPayload
}

// HasPayload adaptation_field_control为1或3时才有payload，只有这种packet才会增加continuity_counter
func (h *TsPacketHeader) HasPayload() bool {
	return h.Adaptation == afcPayloadOnly || h.Adaptation == afcAdaptationWithPayload
}

// packTsPacketHeader 写入4字节，adaptation_field_control固定为只有payload，需要时由调用方再修改
func packTsPacketHeader(out []byte, pid uint16, pusi bool, cc uint8) {
	out[0] = SyncByte
	out[1] = uint8((pid >> 8) & 0x1F)
	if pusi {
		out[1] |= 0x40
	}
	out[2] = uint8(pid & 0xFF)
	out[3] = afcPayloadOnly<<4 | (cc & 0x0F)
}
