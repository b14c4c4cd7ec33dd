// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package remux

import (
	"errors"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/lalts/pkg/mpegts"
)

const calcPatPmtQueueSize = 16

type IRtmp2MpegtsRemuxerObserver interface {
	// OnPatPmt
	//
	// @param b: PAT和PMT两个TS packet，上层可以持有
	//
	OnPatPmt(b []byte)

	// OnTsPackets
	//
	// @param tsPackets:
	//  - mpegts数据，由一个或多个188字节的ts数据组成
	//  - 回调结束后，remux.Rtmp2MpegtsRemuxer 不再使用这块内存块
	//
	// @param frame: 时间戳已经过修正，Samples引用输入的rtmp msg
	//
	// @param boundary: 是否到达边界处，根据该字段，上层可判断诸如：
	//  - hls是否允许开启新的ts文件切片
	//  - 新的ts播放流从该位置开始播放
	//
	OnTsPackets(tsPackets []byte, frame *base.Frame, boundary bool)
}

type Rtmp2MpegtsRemuxerOption struct {
	// AacSyncMs 见 AacTimestampCorrector ，0表示不修正
	AacSyncMs int

	// ZeroBasedTimestamp 是否将时间戳转换为从零开始
	ZeroBasedTimestamp bool

	PacketizerOption mpegts.TsPacketizerOption

	// DebugDumpMaxNum 日志级别为debug时，出错打印原始数据的最大次数
	DebugDumpMaxNum int
}

var defaultRtmp2MpegtsRemuxerOption = Rtmp2MpegtsRemuxerOption{
	AacSyncMs:          DefaultAacSyncMs,
	ZeroBasedTimestamp: true,
	PacketizerOption: mpegts.TsPacketizerOption{
		PmtPid:   mpegts.PidPmt,
		VideoPid: mpegts.PidVideo,
		AudioPid: mpegts.PidAudio,
		PcrDelay: mpegts.DefaultPcrDelay,
	},
	DebugDumpMaxNum: 8,
}

type ModRtmp2MpegtsRemuxerOption func(option *Rtmp2MpegtsRemuxerOption)

// Rtmp2MpegtsRemuxer 输入rtmp流，输出mpegts流
//
type Rtmp2MpegtsRemuxer struct {
	UniqueKey string

	option     Rtmp2MpegtsRemuxerOption
	observer   IRtmp2MpegtsRemuxerObserver
	filter     *rtmp2MpegtsFilter
	assembler  *FrameAssembler
	corrector  *AacTimestampCorrector
	tsFilter   Rtmp2MpegtsTimestampFilter
	packetizer *mpegts.TsPacketizer

	logDump base.LogDump
}

func NewRtmp2MpegtsRemuxer(observer IRtmp2MpegtsRemuxerObserver, modOptions ...ModRtmp2MpegtsRemuxerOption) *Rtmp2MpegtsRemuxer {
	option := defaultRtmp2MpegtsRemuxerOption
	for _, fn := range modOptions {
		fn(&option)
	}

	packetizer := mpegts.NewTsPacketizer(func(o *mpegts.TsPacketizerOption) {
		*o = option.PacketizerOption
	})

	uk := base.GenUkRtmp2MpegtsRemuxer()
	r := &Rtmp2MpegtsRemuxer{
		UniqueKey:  uk,
		option:     option,
		observer:   observer,
		assembler:  NewFrameAssembler(),
		corrector:  NewAacTimestampCorrector(option.AacSyncMs),
		packetizer: packetizer,
		logDump:    base.NewLogDump(Log, option.DebugDumpMaxNum),
	}
	r.tsFilter.Init(uk)
	r.filter = newRtmp2MpegtsFilter(calcPatPmtQueueSize, r)
	Log.Infof("[%s] lifecycle new rtmp2mpegts remuxer. assembler=%s, packetizer=%s",
		uk, r.assembler.UniqueKey(), r.packetizer.UniqueKey())
	return r
}

// FeedRtmpMessage
//
// 单个msg出错只打日志，不影响后续的msg
//
// @param msg: msg.Payload 调用结束后，函数内部不会持有这块内存
//
func (s *Rtmp2MpegtsRemuxer) FeedRtmpMessage(msg base.RtmpMsg) {
	s.filter.Push(msg)
}

// Dispose 输入流结束时调用，输出还在缓存中的数据
func (s *Rtmp2MpegtsRemuxer) Dispose() {
	s.filter.Drain()
	Log.Infof("[%s] lifecycle dispose rtmp2mpegts remuxer.", s.UniqueKey)
}

// ----- implement of iRtmp2MpegtsFilterObserver ----------------------------------------------------------------------

// onPatPmt onPop
//
// 实现 iRtmp2MpegtsFilterObserver
//
func (s *Rtmp2MpegtsRemuxer) onPatPmt(hasVideo, hasAudio bool) {
	Log.Debugf("[%s] onPatPmt. video=%t, audio=%t", s.UniqueKey, hasVideo, hasAudio)
	s.observer.OnPatPmt(s.packetizer.PackPatPmt())
}

func (s *Rtmp2MpegtsRemuxer) onPop(msg base.RtmpMsg) {
	var frame *base.Frame
	var err error
	switch msg.Header.MsgTypeId {
	case base.RtmpTypeIdAudio:
		frame, err = s.assembler.OnAudioTag(msg.Header.TimestampAbs, msg.Payload)
	case base.RtmpTypeIdVideo:
		frame, err = s.assembler.OnVideoTag(msg.Header.TimestampAbs, msg.Payload)
	default:
		return
	}
	if err != nil {
		if errors.Is(err, base.ErrUnsupportedCodec) {
			Log.Debugf("[%s] ignore msg. err=%+v, header=%+v", s.UniqueKey, err, msg.Header)
			return
		}
		Log.Warnf("[%s] assemble frame failed. err=%+v, header=%+v", s.UniqueKey, err, msg.Header)
		s.logDump.OutBytes(s.UniqueKey, msg.Payload)
		return
	}
	if frame == nil {
		return
	}

	s.onFrame(frame)
}

// ---------------------------------------------------------------------------------------------------------------------

func (s *Rtmp2MpegtsRemuxer) onFrame(frame *base.Frame) {
	isAudio := frame.CodecKind() == base.CodecKindAac

	if isAudio {
		if sampleRate, err := s.assembler.AudioConfig().GetSamplingFrequency(); err == nil {
			frame.Dts = s.corrector.Correct(frame.Dts, sampleRate)
			frame.Pts = frame.Dts
		}
	}

	if s.option.ZeroBasedTimestamp {
		s.tsFilter.Do(frame)
	}

	var boundary bool
	if isAudio {
		// 为了考虑没有视频的情况也能切片，所以这里判断没有视频序列头时，也建议生成fragment
		boundary = s.assembler.VideoState() == StreamStateAwaitingSequenceHeader
		// 没有视频时由音频携带PCR
		frame.Key = boundary
	} else {
		boundary = frame.Key
	}
	packets, err := s.packetizer.Pack(frame)
	if err != nil {
		Log.Warnf("[%s] pack frame failed. err=%+v, frame=%s", s.UniqueKey, err, frame.String())
		return
	}
	if len(packets) == 0 {
		return
	}

	s.observer.OnTsPackets(packets, frame, boundary)
}
