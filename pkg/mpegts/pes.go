// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"fmt"

	"github.com/q191201771/lalts/pkg/base"
)

// PesHeader
//
// -----------------------------------------------------------
// <iso13818-1.pdf>
// <2.4.3.6 PES packet> <page 49/174>
// <Table E.1 - PES packet header example> <page 142/174>
// <F.0.2 PES packet> <page 144/174>
// packet_start_code_prefix  [24b] *** always 0x00, 0x00, 0x01
// stream_id                 [8b]  *
// PES_packet_length         [16b] **
// '10'                      [2b]
// PES_scrambling_control    [2b]
// PES_priority              [1b]
// data_alignment_indicator  [1b]
// copyright                 [1b]
// original_or_copy          [1b]  *
// PTS_DTS_flags             [2b]
// ESCR_flag                 [1b]
// ES_rate_flag              [1b]
// DSM_trick_mode_flag       [1b]
// additional_copy_info_flag [1b]
// PES_CRC_flag              [1b]
// PES_extension_flag        [1b]  *
// PES_header_data_length    [8b]  *
// -----------------------------------------------------------
type PesHeader struct {
	StreamId         uint8
	PacketLength     uint16 // PES_packet_length，0表示长度不定，只有视频允许
	HeaderDataLength uint8

	ScramblingControl uint8
	Priority          bool
	DataAlignment     bool
	Copyright         bool
	OriginalOrCopy    bool

	PtsDtsFlags            uint8
	EscrFlag               bool
	EsRateFlag             bool
	DsmTrickModeFlag       bool
	AdditionalCopyInfoFlag bool
	CrcFlag                bool
	ExtensionFlag          bool

	Pts uint64
	Dts uint64 // 没有DTS时等于PTS

	EscrBase             uint64
	EscrExt              uint16
	EsRate               uint32
	TrickMode            uint8
	AdditionalCopyInfo   uint8
	PreviousPesPacketCrc uint16

	// PES_extension
	PrivateData                  []byte
	PackHeader                   []byte
	ProgramPacketSequenceCounter uint8
	PStdBufferScale              uint8
	PStdBufferSize               uint16
	Extension2                   []byte
}

const (
	pesFixedHeaderSize = 9 // 到PES_header_data_length为止

	ptsDtsFlagsPts     uint8 = 0x2
	ptsDtsFlagsPtsDts  uint8 = 0x3
	ptsDtsFlagsIllegal uint8 = 0x1

	pesPrivateDataSize = 16
)

// ParsePesHeader
//
// @param b: 以packet_start_code_prefix开头
//
// @return n: PES头的总长度，即 9 + PES_header_data_length，b[n:]为PES payload
//
func ParsePesHeader(b []byte) (h PesHeader, n int, err error) {
	if len(b) < pesFixedHeaderSize {
		return h, 0, base.NewErrTruncated(pesFixedHeaderSize, len(b), "mpegts.ParsePesHeader")
	}
	if b[0] != 0 || b[1] != 0 || b[2] != 1 {
		return h, 0, fmt.Errorf("%w. prefix=%x", base.ErrPesStartCode, b[:3])
	}

	bc := base.NewByteCursor(b)
	_ = bc.Skip(3)
	h.StreamId, _ = bc.ReadUint8()
	if !isSupportedStreamId(h.StreamId) {
		return h, 0, fmt.Errorf("%w. stream_id=0x%x", base.ErrPesStreamId, h.StreamId)
	}
	h.PacketLength, _ = bc.ReadUint16()

	v, _ := bc.ReadUint8()
	h.ScramblingControl = (v >> 4) & 0x3
	h.Priority = v&0x08 != 0
	h.DataAlignment = v&0x04 != 0
	h.Copyright = v&0x02 != 0
	h.OriginalOrCopy = v&0x01 != 0

	v, _ = bc.ReadUint8()
	h.PtsDtsFlags = v >> 6
	h.EscrFlag = v&0x20 != 0
	h.EsRateFlag = v&0x10 != 0
	h.DsmTrickModeFlag = v&0x08 != 0
	h.AdditionalCopyInfoFlag = v&0x04 != 0
	h.CrcFlag = v&0x02 != 0
	h.ExtensionFlag = v&0x01 != 0

	h.HeaderDataLength, _ = bc.ReadUint8()
	n = pesFixedHeaderSize + int(h.HeaderDataLength)
	if h.PacketLength != 0 && int(h.PacketLength) < 3+int(h.HeaderDataLength) {
		return h, n, base.NewErrMalformed("mpegts: PES_packet_length less than header. PES_packet_length=%d, PES_header_data_length=%d",
			h.PacketLength, h.HeaderDataLength)
	}
	if len(b) < n {
		return h, n, base.NewErrTruncated(n, len(b), "mpegts.ParsePesHeader header data")
	}
	if h.PtsDtsFlags == ptsDtsFlagsIllegal {
		return h, n, base.NewErrMalformed("mpegts: illegal PTS_DTS_flags. flags=%d", h.PtsDtsFlags)
	}

	// 可选字段只能在PES_header_data_length范围内解析，剩下的是stuffing_byte
	if err = h.parseOptional(base.NewByteCursor(b[pesFixedHeaderSize:n])); err != nil {
		return h, n, base.NewErrMalformed("mpegts: PES optional header overflow. stream_id=0x%x, err=%s", h.StreamId, err.Error())
	}
	return h, n, nil
}

// DeclaredPayloadSize PES payload的声明长度
//
// @return bounded: PES_packet_length为0时为false，表示长度不定，此时size为0
//                  为true时size可能为0，即PES只有头没有payload
//
func (h *PesHeader) DeclaredPayloadSize() (size int, bounded bool) {
	if h.PacketLength == 0 {
		return 0, false
	}
	return int(h.PacketLength) - 3 - int(h.HeaderDataLength), true
}

func (h *PesHeader) IsAudio() bool {
	return h.StreamId&0xE0 == StreamIdAudio
}

func (h *PesHeader) IsVideo() bool {
	return h.StreamId&0xF0 == StreamIdVideo
}

func (h *PesHeader) parseOptional(bc *base.ByteCursor) error {
	if h.PtsDtsFlags&ptsDtsFlagsPts != 0 {
		b, err := bc.ReadBytes(5)
		if err != nil {
			return err
		}
		h.Pts = readTimestamp(b)
		h.Dts = h.Pts
	}
	if h.PtsDtsFlags == ptsDtsFlagsPtsDts {
		b, err := bc.ReadBytes(5)
		if err != nil {
			return err
		}
		h.Dts = readTimestamp(b)
	}

	if h.EscrFlag {
		// reserved [2b] ESCR_base[32..30] [3b] marker [1b] ESCR_base[29..15] [15b] marker [1b]
		// ESCR_base[14..0] [15b] marker [1b] ESCR_extension [9b] marker [1b]
		hi, err := bc.ReadUint16()
		if err != nil {
			return err
		}
		lo, err := bc.ReadUint32()
		if err != nil {
			return err
		}
		v := uint64(hi)<<32 | uint64(lo)
		h.EscrBase = (v>>43)&0x7<<30 | (v>>27)&0x7FFF<<15 | (v>>11)&0x7FFF
		h.EscrExt = uint16((v >> 1) & 0x1FF)
	}
	if h.EsRateFlag {
		// marker [1b] ES_rate [22b] marker [1b]
		v, err := bc.ReadUint24()
		if err != nil {
			return err
		}
		h.EsRate = (v >> 1) & 0x3FFFFF
	}
	if h.DsmTrickModeFlag {
		v, err := bc.ReadUint8()
		if err != nil {
			return err
		}
		h.TrickMode = v
	}
	if h.AdditionalCopyInfoFlag {
		v, err := bc.ReadUint8()
		if err != nil {
			return err
		}
		h.AdditionalCopyInfo = v & 0x7F
	}
	if h.CrcFlag {
		v, err := bc.ReadUint16()
		if err != nil {
			return err
		}
		h.PreviousPesPacketCrc = v
	}
	if h.ExtensionFlag {
		return h.parseExtension(bc)
	}
	return nil
}

// PES_private_data_flag                [1b]
// pack_header_field_flag               [1b]
// program_packet_sequence_counter_flag [1b]
// P-STD_buffer_flag                    [1b]
// reserved                             [3b]
// PES_extension_flag_2                 [1b]
func (h *PesHeader) parseExtension(bc *base.ByteCursor) error {
	flags, err := bc.ReadUint8()
	if err != nil {
		return err
	}
	if flags&0x80 != 0 {
		if h.PrivateData, err = bc.ReadBytes(pesPrivateDataSize); err != nil {
			return err
		}
	}
	if flags&0x40 != 0 {
		l, err := bc.ReadUint8()
		if err != nil {
			return err
		}
		if h.PackHeader, err = bc.ReadBytes(int(l)); err != nil {
			return err
		}
	}
	if flags&0x20 != 0 {
		v, err := bc.ReadUint16()
		if err != nil {
			return err
		}
		h.ProgramPacketSequenceCounter = uint8((v >> 8) & 0x7F)
	}
	if flags&0x10 != 0 {
		// '01' [2b] P-STD_buffer_scale [1b] P-STD_buffer_size [13b]
		v, err := bc.ReadUint16()
		if err != nil {
			return err
		}
		h.PStdBufferScale = uint8((v >> 13) & 0x1)
		h.PStdBufferSize = v & 0x1FFF
	}
	if flags&0x01 != 0 {
		// marker [1b] PES_extension_field_length [7b]
		v, err := bc.ReadUint8()
		if err != nil {
			return err
		}
		if h.Extension2, err = bc.ReadBytes(int(v & 0x7F)); err != nil {
			return err
		}
	}
	return nil
}

// isSupportedStreamId 音频 0xC0~0xDF，视频 0xE0~0xEF，以及private_stream_1
func isSupportedStreamId(sid uint8) bool {
	return (sid >= streamIdAudioMin && sid <= streamIdVideoMax) || sid == StreamIdPrivateStream1
}

// packPesHeader 写入PES头，返回写入的字节数
//
// @param payloadSize: PES payload的大小，超过PES_packet_length能表示的范围时写0
//
// pesHeaderDataLength PES_header_data_length，只有PTS时为5，PTS和DTS都有时为10
func pesHeaderDataLength(pts, dts uint64) int {
	if dts != pts {
		return 10
	}
	return 5
}

// calcPesPacketLength PES Header剩余3字节 + PTS/DTS长度 + 整个帧的长度
//
// 返回值可能大于0xFFFF，由调用方决定如何处理
//
func calcPesPacketLength(payloadSize int, pts, dts uint64) int {
	return payloadSize + pesHeaderDataLength(pts, dts) + 3
}

func packPesHeader(out []byte, sid uint8, payloadSize int, pts, dts uint64) int {
	// -----PES Header------------
	// packet_start_code_prefix
	// stream_id
	// PES_packet_length
	// '10'
	// PES_scrambling_control    0
	// PES_priority              0
	// data_alignment_indicator  0
	// copyright                 0
	// original_or_copy          0
	// PTS_DTS_flags
	// ESCR_flag                 0
	// ES_rate_flag              0
	// DSM_trick_mode_flag       0
	// additional_copy_info_flag 0
	// PES_CRC_flag              0
	// PES_extension_flag        0
	// PES_header_data_length
	// ---------------------------
	headerSize := uint8(pesHeaderDataLength(pts, dts))
	flags := ptsDtsFlagsPts << 6
	if dts != pts {
		flags = ptsDtsFlagsPtsDts << 6
	}

	pesSize := calcPesPacketLength(payloadSize, pts, dts)
	if pesSize > 0xFFFF {
		pesSize = 0
	}

	out[0] = 0x00 // packet_start_code_prefix 24-bits
	out[1] = 0x00 //
	out[2] = 0x01 //
	out[3] = sid
	out[4] = uint8(pesSize >> 8)
	out[5] = uint8(pesSize & 0xFF)
	out[6] = 0x80 // 除了reserve的'10'，其他字段都是0
	out[7] = flags
	out[8] = headerSize
	wpos := pesFixedHeaderSize

	packPts(out[wpos:], flags>>6, pts)
	wpos += 5
	if dts != pts {
		packPts(out[wpos:], 1, dts)
		wpos += 5
	}
	return wpos
}

// packPts 写入5字节，DTS也使用这个函数打包
//
// '0010' or '0011' or '0001' [4b]
// PTS [32..30]               [3b]
// marker_bit                 [1b]
// PTS [29..15]               [15b]
// marker_bit                 [1b]
// PTS [14..0]                [15b]
// marker_bit                 [1b]
//
func packPts(out []byte, fb uint8, pts uint64) {
	var val uint64
	out[0] = (fb << 4) | (uint8(pts>>29) & 0x0E) | 1

	val = (((pts >> 15) & 0x7FFF) << 1) | 1
	out[1] = uint8(val >> 8)
	out[2] = uint8(val)

	val = ((pts & 0x7FFF) << 1) | 1
	out[3] = uint8(val >> 8)
	out[4] = uint8(val)
}

// readTimestamp 读取5字节的PTS/DTS，packPts的逆操作
func readTimestamp(b []byte) (pts uint64) {
	pts |= uint64((b[0]>>1)&0x07) << 30
	pts |= (uint64(b[1])<<8 | uint64(b[2])) >> 1 << 15
	pts |= (uint64(b[3])<<8 | uint64(b[4])) >> 1
	return
}
