// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"errors"
	"testing"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
)

func TestCalcCrc32(t *testing.T) {
	assert.Equal(t, uint32(0x0376E6E7), CalcCrc32(0xFFFFFFFF, []byte("123456789")))
}

func TestPackPts(t *testing.T) {
	golden := []uint64{0, 1, 1 << 32, 1<<33 - 1, 90000, 1040}
	out := make([]byte, 5)
	for _, v := range golden {
		packPts(out, 2, v)
		// 三个marker bit都必须是1
		assert.Equal(t, uint8(1), out[0]&0x01)
		assert.Equal(t, uint8(1), out[2]&0x01)
		assert.Equal(t, uint8(1), out[4]&0x01)
		assert.Equal(t, uint8(2), out[0]>>4)
		assert.Equal(t, v, readTimestamp(out))
	}

	// 超过33位的部分被截断
	packPts(out, 3, 1<<33)
	assert.Equal(t, uint64(0), readTimestamp(out))
}

func TestPcr(t *testing.T) {
	out := make([]byte, 6)
	for _, v := range []uint64{0, 1, 63000, 1<<33 - 1} {
		packPcr(out, v)
		pcrBase, pcrExt, err := readPcr(base.NewByteCursor(out))
		assert.Equal(t, nil, err)
		assert.Equal(t, v, pcrBase)
		assert.Equal(t, uint16(0), pcrExt)
	}
}

func TestFillStuff(t *testing.T) {
	// 没有Adaptation，填充1字节时只有adaptation_field_length
	packet := make([]byte, PacketSize)
	packTsPacketHeader(packet, PidAudio, false, 3)
	wpos := fillStuff(packet, PacketHeaderSize, 1)
	assert.Equal(t, 5, wpos)
	assert.Equal(t, uint8(0x30|3), packet[3])
	assert.Equal(t, uint8(0), packet[4])

	// 没有Adaptation，填充多字节
	packet = make([]byte, PacketSize)
	packTsPacketHeader(packet, PidAudio, true, 0)
	n := packPesHeader(packet[PacketHeaderSize:], StreamIdAudio, 100, 9000, 9000)
	assert.Equal(t, 14, n)
	wpos = fillStuff(packet, PacketHeaderSize+n, 10)
	assert.Equal(t, PacketHeaderSize+n+10, wpos)
	assert.Equal(t, uint8(9), packet[4])
	assert.Equal(t, uint8(0), packet[5])
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, packet[6:14])
	assert.Equal(t, []byte{0, 0, 1, StreamIdAudio}, packet[14:18])

	af, afLen, err := ParseAdaptationField(packet[PacketHeaderSize:], afcAdaptationWithPayload)
	assert.Equal(t, nil, err)
	assert.Equal(t, 10, afLen)
	assert.Equal(t, false, af.PcrFlag)

	// 已有Adaptation，PCR保持不变
	packet = make([]byte, PacketSize)
	packTsPacketHeader(packet, PidVideo, true, 0)
	packet[3] |= 0x20
	packet[4] = 7
	packet[5] = 0x50
	packPcr(packet[6:], 12345)
	n = packPesHeader(packet[12:], StreamIdVideo, 100, 9000, 9000)
	wpos = fillStuff(packet, 12+n, 20)
	assert.Equal(t, 12+n+20, wpos)
	af, afLen, err = ParseAdaptationField(packet[PacketHeaderSize:], afcAdaptationWithPayload)
	assert.Equal(t, nil, err)
	assert.Equal(t, 28, afLen)
	assert.Equal(t, true, af.PcrFlag)
	assert.Equal(t, true, af.RandomAccessIndicator)
	assert.Equal(t, uint64(12345), af.PcrBase)
	assert.Equal(t, []byte{0, 0, 1, StreamIdVideo}, packet[32:36])
}

func TestParseAdaptationField(t *testing.T) {
	// PCR + OPCR + splice_countdown + private data + extension(ltw)
	b := []byte{
		0, // adaptation_field_length，最后填
		0x80 | 0x10 | 0x08 | 0x04 | 0x02 | 0x01,
	}
	pcr := make([]byte, 6)
	packPcr(pcr, 90000)
	b = append(b, pcr...)
	packPcr(pcr, 45000)
	b = append(b, pcr...)
	b = append(b, 0xFE)                  // splice_countdown -2
	b = append(b, 2, 0xAA, 0xBB)         // private data
	b = append(b, 3, 0x80, 0x80|0x01, 2) // extension: ltw valid, offset 0x102
	b = append(b, 0xFF, 0xFF)            // stuffing
	b[0] = uint8(len(b) - 1)

	af, n, err := ParseAdaptationField(b, afcAdaptationWithPayload)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, true, af.DiscontinuityIndicator)
	assert.Equal(t, uint64(90000), af.PcrBase)
	assert.Equal(t, uint64(90000*300), af.Pcr())
	assert.Equal(t, uint64(45000), af.OpcrBase)
	assert.Equal(t, int8(-2), af.SpliceCountdown)
	assert.Equal(t, []byte{0xAA, 0xBB}, af.PrivateData)
	assert.Equal(t, true, af.LtwValid)
	assert.Equal(t, uint16(0x102), af.LtwOffset)

	// adaptation only必须是183
	_, _, err = ParseAdaptationField([]byte{100}, afcAdaptationOnly)
	assert.Equal(t, true, errors.Is(err, base.ErrAdaptation))
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))
	_, _, err = ParseAdaptationField([]byte{183}, afcAdaptationWithPayload)
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))

	// 字段超出adaptation_field_length
	_, _, err = ParseAdaptationField([]byte{3, 0x10, 0, 0}, afcAdaptationWithPayload)
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))

	// 声明长度超过实际数据
	_, _, err = ParseAdaptationField([]byte{10, 0x00}, afcAdaptationWithPayload)
	assert.Equal(t, true, errors.Is(err, base.ErrTruncated))
}
