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

	"github.com/q191201771/lalts/pkg/aac"
	"github.com/q191201771/lalts/pkg/avc"
	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/lalts/pkg/mpegts"
	"github.com/q191201771/naza/pkg/bele"
)

type OnRtmpMsg func(msg base.RtmpMsg)

// Mpegts2RtmpRemuxer 输入mpegts流，输出rtmp/flv格式的音视频数据
//
// 视频：一个PES转换为一个video tag，AnnexB转换为AVCC，sps或pps变化时先输出新的序列头
// 音频：一个PES中可能有多个ADTS frame，每个frame转换为一个audio tag，时间戳按采样数递增
//
type Mpegts2RtmpRemuxer struct {
	uniqueKey string

	depacketizer *mpegts.TsDepacketizer
	onRtmpMsg    OnRtmpMsg

	sps []byte
	pps []byte
	asc []byte

	videoSeqHeaderSent bool
	nalus              [][]byte
}

func NewMpegts2RtmpRemuxer(modOptions ...mpegts.ModTsDepacketizerOption) *Mpegts2RtmpRemuxer {
	uk := base.GenUkMpegts2RtmpRemuxer()
	r := &Mpegts2RtmpRemuxer{
		uniqueKey: uk,
	}
	r.depacketizer = mpegts.NewTsDepacketizer(modOptions...).WithOnMessage(r.FeedElementaryMessage)
	Log.Infof("[%s] lifecycle new mpegts2rtmp remuxer. depacketizer=%s", uk, r.depacketizer.UniqueKey())
	return r
}

// WithOnRtmpMsg
//
// 回调中msg.Payload为独立申请的内存块，上层可以持有
//
func (r *Mpegts2RtmpRemuxer) WithOnRtmpMsg(fn OnRtmpMsg) *Mpegts2RtmpRemuxer {
	r.onRtmpMsg = fn
	return r
}

func (r *Mpegts2RtmpRemuxer) UniqueKey() string {
	return r.uniqueKey
}

// Feed 输入任意长度的mpegts流，见 mpegts.TsDepacketizer.Feed
func (r *Mpegts2RtmpRemuxer) Feed(b []byte) error {
	return r.depacketizer.Feed(b)
}

// Flush 输入流结束时调用，见 mpegts.TsDepacketizer.Flush
func (r *Mpegts2RtmpRemuxer) Flush() error {
	return r.depacketizer.Flush()
}

// FeedElementaryMessage 也可以直接输入已经组装好的PES，比如使用其他的TS解析器时
func (r *Mpegts2RtmpRemuxer) FeedElementaryMessage(msg *mpegts.ElementaryMessage) {
	switch msg.CodecKind() {
	case base.CodecKindAvc:
		r.feedVideo(msg)
	case base.CodecKindAac:
		r.feedAudio(msg)
	default:
		Log.Debugf("[%s] ignore elementary message. msg=%s", r.uniqueKey, msg.String())
	}
}

// ---------------------------------------------------------------------------------------------------------------------

func (r *Mpegts2RtmpRemuxer) feedVideo(msg *mpegts.ElementaryMessage) {
	dts := uint32(msg.Dts / 90)
	var cts uint32
	if msg.Pts > msg.Dts {
		cts = uint32((msg.Pts - msg.Dts) / 90)
	}

	key := false
	spsppsChanged := false
	r.nalus = r.nalus[0:0]
	for _, nalu := range avc.SplitNaluAnnexb(msg.Payload) {
		switch avc.ParseNaluType(nalu[0]) {
		case avc.NaluTypeAud:
			// aud 过滤掉，flv中不需要
			continue
		case avc.NaluTypeSps:
			if !bytes.Equal(r.sps, nalu) {
				r.sps = append(r.sps[0:0], nalu...)
				spsppsChanged = true
			}
			continue
		case avc.NaluTypePps:
			if !bytes.Equal(r.pps, nalu) {
				r.pps = append(r.pps[0:0], nalu...)
				spsppsChanged = true
			}
			continue
		case avc.NaluTypeIdrSlice:
			key = true
		}
		r.nalus = append(r.nalus, nalu)
	}

	if spsppsChanged && len(r.sps) != 0 && len(r.pps) != 0 {
		sh, err := avc.BuildSeqHeader(r.sps, r.pps)
		if err != nil {
			Log.Warnf("[%s] build avc seq header failed. err=%+v", r.uniqueKey, err)
		} else {
			r.videoSeqHeaderSent = true
			r.emit(base.RtmpTypeIdVideo, dts, sh)
		}
	}

	if len(r.nalus) == 0 {
		return
	}
	if !r.videoSeqHeaderSent {
		Log.Warnf("[%s] drop video before seq header. msg=%s", r.uniqueKey, msg.String())
		return
	}

	avcc := avc.JoinNaluAvcc(r.nalus...)
	payload := make([]byte, base.RtmpAvcVideoHeaderSize+len(avcc))
	if key {
		payload[0] = base.RtmpAvcKeyFrame
	} else {
		payload[0] = base.RtmpAvcInterFrame
	}
	payload[1] = base.RtmpAvcPacketTypeNalu
	bele.BePutUint24(payload[2:], cts)
	copy(payload[base.RtmpAvcVideoHeaderSize:], avcc)
	r.emit(base.RtmpTypeIdVideo, dts, payload)
}

func (r *Mpegts2RtmpRemuxer) feedAudio(msg *mpegts.ElementaryMessage) {
	i := 0
	err := aac.IterateAdts(msg.Payload, func(ctx *aac.AdtsHeaderContext, sample base.Sample) {
		// 至少1字节才能解码
		if sample.Size() == 0 {
			return
		}

		asc := ctx.AscCtx.Pack()
		if !bytes.Equal(asc, r.asc) {
			sh, err := aac.MakeAudioDataSeqHeaderWithAsc(asc)
			if err != nil {
				Log.Warnf("[%s] make aac seq header failed. err=%+v", r.uniqueKey, err)
				return
			}
			r.asc = asc
			r.emit(base.RtmpTypeIdAudio, uint32(msg.Dts/90), sh)
		}

		// 一个PES中的多个frame，时间戳按采样数推算
		dts := msg.Dts
		if sampleRate, err := ctx.AscCtx.GetSamplingFrequency(); err == nil {
			dts += uint64(i) * aac.SamplesPerFrame * 90000 / uint64(sampleRate)
		}
		i++

		r.emit(base.RtmpTypeIdAudio, uint32(dts/90), aac.MakeAudioDataRaw(sample.Payload))
	})
	if err != nil {
		Log.Warnf("[%s] iterate adts failed. err=%+v, msg=%s", r.uniqueKey, err, msg.String())
	}
}

func (r *Mpegts2RtmpRemuxer) emit(typeId uint8, timestampMs uint32, payload []byte) {
	if r.onRtmpMsg == nil {
		return
	}
	r.onRtmpMsg(base.MakeRtmpMsg(typeId, timestampMs, payload))
}
