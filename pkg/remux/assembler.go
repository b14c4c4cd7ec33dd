// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package remux

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/q191201771/lalts/pkg/aac"
	"github.com/q191201771/lalts/pkg/avc"
	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabytes"
)

type StreamState uint8

const (
	StreamStateAwaitingSequenceHeader StreamState = iota
	StreamStateStreaming
)

func (s StreamState) String() string {
	switch s {
	case StreamStateAwaitingSequenceHeader:
		return "AwaitingSequenceHeader"
	case StreamStateStreaming:
		return "Streaming"
	}
	return fmt.Sprintf("StreamState(%d)", uint8(s))
}

// FrameAssembler 将flv tag body转换成 base.Frame
//
// 音频和视频各自维护编码配置，收到序列头后进入 StreamStateStreaming
// 新的序列头会替换编码配置，已经输出的Frame仍然指向旧的配置
//
type FrameAssembler struct {
	uniqueKey string

	videoSh *avc.SeqHeader
	ascCtx  *aac.AscContext
}

func NewFrameAssembler() *FrameAssembler {
	uk := base.GenUkFrameAssembler()
	Log.Debugf("[%s] lifecycle new frame assembler.", uk)
	return &FrameAssembler{
		uniqueKey: uk,
	}
}

func (a *FrameAssembler) UniqueKey() string {
	return a.uniqueKey
}

func (a *FrameAssembler) VideoState() StreamState {
	if a.videoSh == nil {
		return StreamStateAwaitingSequenceHeader
	}
	return StreamStateStreaming
}

func (a *FrameAssembler) AudioState() StreamState {
	if a.ascCtx == nil {
		return StreamStateAwaitingSequenceHeader
	}
	return StreamStateStreaming
}

// VideoConfig 还没有收到序列头时为nil
func (a *FrameAssembler) VideoConfig() *avc.SeqHeader {
	return a.videoSh
}

func (a *FrameAssembler) AudioConfig() *aac.AscContext {
	return a.ascCtx
}

// OnVideoTag
//
// @param ts: flv tag的时间戳，即dts，单位毫秒
// @param b:  flv video tag body，Frame.Samples引用这块内存
//
// @return: 序列头以及end of sequence返回nil, nil
//
func (a *FrameAssembler) OnVideoTag(ts uint32, b []byte) (*base.Frame, error) {
	if len(b) < base.RtmpAvcVideoHeaderSize {
		return nil, base.NewErrTruncated(base.RtmpAvcVideoHeaderSize, len(b), "remux.FrameAssembler.OnVideoTag")
	}

	frameType := b[0] >> 4
	codecId := b[0] & 0xF
	if codecId != base.RtmpCodecIdAvc {
		return nil, base.NewErrUnsupportedCodec(fmt.Sprintf("remux: video codec id %d", codecId))
	}

	// CompositionTime SI24
	cts := int64(int32(bele.BeUint24(b[2:])<<8) >> 8)

	switch b[1] {
	case base.RtmpAvcPacketTypeSeqHeader:
		sh, err := avc.ParseSeqHeader(b[base.RtmpAvcVideoHeaderSize:])
		if err != nil {
			return nil, err
		}
		if a.videoSh == nil {
			Log.Debugf("[%s] video state %s -> %s. sps=%s", a.uniqueKey,
				StreamStateAwaitingSequenceHeader, StreamStateStreaming, hex.EncodeToString(sh.Sps))
		}
		a.videoSh = sh
		return nil, nil
	case base.RtmpAvcPacketTypeEndSequence:
		return nil, nil
	case base.RtmpAvcPacketTypeNalu:
		// noop
	default:
		return nil, base.NewErrMalformed("remux: avc packet type %d", b[1])
	}

	if a.videoSh == nil {
		return nil, base.ErrSequenceHeaderMissing
	}

	// 同一个流中可能混杂AnnexB和长度前缀两种格式，每个tag单独判断
	samples, err := a.videoSh.DemuxNaluPayload(b[base.RtmpAvcVideoHeaderSize:])
	if err != nil {
		Log.Warnf("[%s] demux nalu failed. err=%+v, payload=%s", a.uniqueKey, err, hex.Dump(nazabytes.Prefix(b, 32)))
		return nil, err
	}

	// 有的流，seq header中的sps和pps是错误的，需要从nalu中获取sps pps并更新
	key := frameType == base.RtmpFrameTypeKey
	var sps, pps []byte
	for _, s := range samples {
		if len(s.Payload) == 0 {
			continue
		}
		switch avc.ParseNaluType(s.Payload[0]) {
		case avc.NaluTypeSps:
			sps = s.Payload
		case avc.NaluTypePps:
			pps = s.Payload
		case avc.NaluTypeIdrSlice:
			key = true
		}
	}
	a.updateSpsPps(sps, pps)

	dts := int64(ts)
	pts := dts + cts
	if pts < 0 {
		Log.Warnf("[%s] negative pts. dts=%d, cts=%d", a.uniqueKey, dts, cts)
		pts = dts
	}

	return &base.Frame{
		Dts:     uint64(dts) * 90,
		Pts:     uint64(pts) * 90,
		Key:     key,
		Config:  a.videoSh,
		Samples: samples,
	}, nil
}

// OnAudioTag
//
// @param ts: flv tag的时间戳，单位毫秒
// @param b:  flv audio tag body，Frame.Samples引用这块内存
//
// @return: 序列头返回nil, nil
//
func (a *FrameAssembler) OnAudioTag(ts uint32, b []byte) (*base.Frame, error) {
	var shCtx aac.SequenceHeaderContext
	if err := shCtx.Unpack(b); err != nil {
		return nil, err
	}
	if shCtx.SoundFormat != base.RtmpSoundFormatAac {
		return nil, base.NewErrUnsupportedCodec(fmt.Sprintf("remux: sound format %d", shCtx.SoundFormat))
	}

	switch shCtx.AacPacketType {
	case base.RtmpAacPacketTypeSeqHeader:
		ascCtx, err := aac.NewAscContext(b[base.RtmpAacAudioHeaderSize:])
		if err != nil {
			return nil, err
		}
		if a.ascCtx == nil {
			Log.Debugf("[%s] audio state %s -> %s. asc=%+v", a.uniqueKey,
				StreamStateAwaitingSequenceHeader, StreamStateStreaming, *ascCtx)
		}
		a.ascCtx = ascCtx
		return nil, nil
	case base.RtmpAacPacketTypeRaw:
		// noop
	default:
		return nil, base.NewErrMalformed("remux: aac packet type %d", shCtx.AacPacketType)
	}

	if a.ascCtx == nil {
		return nil, base.ErrSequenceHeaderMissing
	}
	sample, err := aac.DemuxRawFrame(a.ascCtx, b[base.RtmpAacAudioHeaderSize:])
	if err != nil {
		return nil, err
	}

	dts := uint64(ts) * 90
	return &base.Frame{
		Dts:     dts,
		Pts:     dts,
		Config:  a.ascCtx,
		Samples: []base.Sample{sample},
	}, nil
}

// updateSpsPps nalu中带了完整的sps和pps，并且和当前配置不同时，生成新的配置
func (a *FrameAssembler) updateSpsPps(sps, pps []byte) {
	if len(sps) < 4 || len(pps) == 0 {
		return
	}
	if bytes.Equal(sps, a.videoSh.Sps) && bytes.Equal(pps, a.videoSh.Pps) {
		return
	}

	Log.Debugf("[%s] update sps pps by nalu. sps=%s, pps=%s", a.uniqueKey, hex.EncodeToString(sps), hex.EncodeToString(pps))
	sh := *a.videoSh
	sh.Profile = sps[1]
	sh.ProfileCompatibility = sps[2]
	sh.Level = sps[3]
	sh.Sps = append([]byte(nil), sps...)
	sh.Pps = append([]byte(nil), pps...)
	a.videoSh = &sh
}
