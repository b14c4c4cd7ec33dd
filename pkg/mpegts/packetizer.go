// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"bytes"
	"fmt"

	"github.com/q191201771/lalts/pkg/aac"
	"github.com/q191201771/lalts/pkg/avc"
	"github.com/q191201771/lalts/pkg/base"
)

type TsPacketizerOption struct {
	PmtPid   uint16
	VideoPid uint16
	AudioPid uint16

	// PcrDelay PCR = dts - PcrDelay，小于0时取0。单位90kHz
	PcrDelay uint64

	// SpsPpsEveryIdr
	//
	// false: 只有SPS/PPS和上一次输出的不同时，才在IDR前插入
	// true:  每个IDR前都插入，切片场景下每个片段都能独立解码
	//
	SpsPpsEveryIdr bool
}

var defaultTsPacketizerOption = TsPacketizerOption{
	PmtPid:         PidPmt,
	VideoPid:       PidVideo,
	AudioPid:       PidAudio,
	PcrDelay:       DefaultPcrDelay,
	SpsPpsEveryIdr: false,
}

type ModTsPacketizerOption func(option *TsPacketizerOption)

// TsPacketizer 将Frame打包成188字节的TS packet
//
// 每个session一个，非并发安全
//
type TsPacketizer struct {
	uniqueKey string
	option    TsPacketizerOption

	ccMap map[uint16]uint8

	lastSps []byte
	lastPps []byte

	videoOut []byte // AnnexB格式的帧，复用内存
	audioOut []byte // ADTS格式的帧，复用内存
}

func NewTsPacketizer(modOptions ...ModTsPacketizerOption) *TsPacketizer {
	option := defaultTsPacketizerOption
	for _, fn := range modOptions {
		fn(&option)
	}

	uk := base.GenUkTsPacketizer()
	Log.Debugf("[%s] lifecycle new ts packetizer. option=%+v", uk, option)
	return &TsPacketizer{
		uniqueKey: uk,
		option:    option,
		ccMap:     make(map[uint16]uint8),
		videoOut:  make([]byte, 0, 1024*1024),
	}
}

func (p *TsPacketizer) UniqueKey() string {
	return p.uniqueKey
}

// PackPatPmt 生成PAT和PMT两个TS packet，共376字节
//
// 需要在媒体数据之前输出，切片场景下每个片段的开头都需要
//
func (p *TsPacketizer) PackPatPmt() []byte {
	out := make([]byte, PacketSize*2)
	packPsiPacket(out, PidPat, p.nextCc(PidPat), NewPatSection(p.option.PmtPid).Pack())
	packPsiPacket(out[PacketSize:], p.option.PmtPid, p.nextCc(p.option.PmtPid),
		NewPmtSection(p.option.VideoPid, p.option.AudioPid).Pack())
	return out
}

// Pack
//
// 还没有编码配置时（Frame.Config为nil），直接丢弃，返回nil, nil
//
// @return: 若干个188字节的TS packet，内存块为独立申请，调用结束后内部不再持有
//
func (p *TsPacketizer) Pack(frame *base.Frame) ([]byte, error) {
	switch cfg := frame.Config.(type) {
	case nil:
		return nil, nil
	case *avc.SeqHeader:
		if cfg == nil {
			return nil, nil
		}
		raw := p.packAnnexb(frame, cfg)
		return p.packPes(p.option.VideoPid, StreamIdVideo, frame.Key, frame.Dts, frame.Pts, raw), nil
	case *aac.AscContext:
		if cfg == nil {
			return nil, nil
		}
		raw := p.packAdts(frame, cfg)
		// 音频不允许PES_packet_length为0
		if calcPesPacketLength(len(raw), frame.Pts, frame.Dts) > 0xFFFF {
			return nil, base.NewErrMalformed("mpegts: audio PES too large. size=%d", len(raw))
		}
		return p.packPes(p.option.AudioPid, StreamIdAudio, frame.Key, frame.Dts, frame.Pts, raw), nil
	}
	return nil, base.NewErrUnsupportedCodec(fmt.Sprintf("mpegts: codec config %T", frame.Config))
}

// packAnnexb
//
// 1. 帧中包含IDR，但是没有SPS/PPS，并且SPS/PPS和上一次输出的不同时，在IDR前插入AUD（首个nalu为slice或SEI时）、SPS、PPS
// 2. 第一个nalu使用4字节起始码，其余使用3字节
//
func (p *TsPacketizer) packAnnexb(frame *base.Frame, sh *avc.SeqHeader) []byte {
	var hasIdr, hasSpsPps bool
	var firstType uint8
	for i, s := range frame.Samples {
		if len(s.Payload) == 0 {
			continue
		}
		t := avc.ParseNaluType(s.Payload[0])
		if i == 0 {
			firstType = t
		}
		switch t {
		case avc.NaluTypeIdrSlice:
			hasIdr = true
		case avc.NaluTypeSps:
			hasSpsPps = true
			p.lastSps = append(p.lastSps[:0], s.Payload...)
		case avc.NaluTypePps:
			hasSpsPps = true
			p.lastPps = append(p.lastPps[:0], s.Payload...)
		}
	}

	out := p.videoOut[:0]
	if hasIdr && !hasSpsPps && p.shouldInsertSpsPps(sh) {
		switch firstType {
		case avc.NaluTypeSlice, avc.NaluTypeIdrSlice, avc.NaluTypeSei:
			out = avc.AppendNaluAnnexb(out, avc.AudNalu)
		}
		out = avc.AppendNaluAnnexb(out, sh.Sps)
		out = avc.AppendNaluAnnexb(out, sh.Pps)
		p.lastSps = append(p.lastSps[:0], sh.Sps...)
		p.lastPps = append(p.lastPps[:0], sh.Pps...)
	}
	for _, s := range frame.Samples {
		if len(s.Payload) == 0 {
			continue
		}
		out = avc.AppendNaluAnnexb(out, s.Payload)
	}
	p.videoOut = out
	return out
}

func (p *TsPacketizer) shouldInsertSpsPps(sh *avc.SeqHeader) bool {
	if len(sh.Sps) == 0 || len(sh.Pps) == 0 {
		return false
	}
	return p.option.SpsPpsEveryIdr || !bytes.Equal(sh.Sps, p.lastSps) || !bytes.Equal(sh.Pps, p.lastPps)
}

// packAdts 每个raw frame前加一个ADTS头
func (p *TsPacketizer) packAdts(frame *base.Frame, ascCtx *aac.AscContext) []byte {
	out := p.audioOut[:0]
	for _, s := range frame.Samples {
		out = append(out, ascCtx.PackAdtsHeader(s.Size())...)
		out = append(out, s.Payload...)
	}
	p.audioOut = out
	return out
}

var zeroPacket [PacketSize]byte

// packPes 将一个PES切分成多个TS packet
func (p *TsPacketizer) packPes(pid uint16, sid uint8, key bool, dts, pts uint64, raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}

	// 预估packet数量，不够时append会自动扩容
	buf := make([]byte, 0, (len(raw)/(PacketSize-PacketHeaderSize)+2)*PacketSize)

	lpos := 0        // 当前输入帧的处理位置
	rpos := len(raw) // 当前输入帧大小
	first := true    // 是否为帧的首个packet

	for lpos != rpos {
		buf = append(buf, zeroPacket[:]...)
		packet := buf[len(buf)-PacketSize:] // 当前输出packet

		// 每个packet都需要添加TS Header，adaptation_field_control先设置成无Adaptation
		packTsPacketHeader(packet, pid, first, p.nextCc(pid))
		wpos := PacketHeaderSize // 当前输出packet的写入位置

		if first {
			if key {
				// 关键帧的首个packet需要添加Adaptation
				// -----Adaptation-----------------------
				// adaptation_field_length
				// discontinuity_indicator              0
				// random_access_indicator              1
				// elementary_stream_priority_indicator 0
				// PCR_flag                             1
				// OPCR_flag                            0
				// splicing_point_flag                  0
				// transport_private_data_flag          0
				// adaptation_field_extension_flag      0
				// program_clock_reference_base
				// reserved
				// program_clock_reference_extension
				// --------------------------------------
				packet[3] |= 0x20 // adaptation_field_control 设置Adaptation
				packet[4] = 7     // adaptation_field_length
				packet[5] = 0x50  // random_access_indicator + PCR_flag
				packPcr(packet[6:], p.pcr(dts))
				wpos += 8
			}

			// 帧的首个packet需要添加PES Header
			wpos += packPesHeader(packet[wpos:], sid, rpos, pts, dts)
			first = false
		}

		// 把帧的内容切割放入packet中
		bodySize := PacketSize - wpos // 当前TS packet，可写入大小
		inSize := rpos - lpos         // 整个帧剩余待打包大小

		if bodySize <= inSize {
			// 当前packet写不完这个帧，或者刚好够写完
			copy(packet[wpos:], raw[lpos:lpos+bodySize])
			lpos += bodySize
			continue
		}

		// 当前packet可以写完这个帧，并且还有空闲空间
		// 此时，真实数据挪最后，中间用0xFF填充到Adaptation中
		wpos = fillStuff(packet, wpos, bodySize-inSize)
		copy(packet[wpos:], raw[lpos:])
		lpos = rpos
	}

	return buf
}

func (p *TsPacketizer) pcr(dts uint64) uint64 {
	if dts < p.option.PcrDelay {
		return 0
	}
	return dts - p.option.PcrDelay
}

// nextCc 返回当前值，然后加1
func (p *TsPacketizer) nextCc(pid uint16) uint8 {
	cc := p.ccMap[pid]
	p.ccMap[pid] = (cc + 1) & 0x0F
	return cc
}

// fillStuff 在PES body之前插入stuffSize字节的填充，填充位于Adaptation中
//
// 注意，此时有两种情况
// 1. 原本有Adaptation，增加adaptation_field_length
// 2. 原本没有Adaptation，新建一个
//
// @param wpos: 当前已写入的位置
//
// @return: 插入填充后的写入位置
//
func fillStuff(packet []byte, wpos int, stuffSize int) int {
	if packet[3]&0x20 != 0 {
		// packet[4]: adaptation_field_length
		// start: adaptation之后，比如PES Header的开始位置
		start := 5 + int(packet[4])
		copy(packet[start+stuffSize:], packet[start:wpos])
		for i := 0; i < stuffSize; i++ {
			packet[start+i] = 0xFF
		}
		packet[4] += uint8(stuffSize)
		return wpos + stuffSize
	}

	packet[3] |= 0x20
	start := PacketHeaderSize
	copy(packet[start+stuffSize:], packet[start:wpos])
	packet[4] = uint8(stuffSize - 1) // adaptation_field_length
	if stuffSize >= 2 {
		// 只有1字节时只写adaptation_field_length
		packet[5] = 0
		for i := 6; i < start+stuffSize; i++ {
			packet[i] = 0xFF
		}
	}
	return wpos + stuffSize
}
