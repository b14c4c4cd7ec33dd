// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package remux 在flv tag和mpegts之间做转封装
//
// 两个方向：
//   rtmp/flv -> FrameAssembler -> AacTimestampCorrector -> 时间戳过滤 -> mpegts.TsPacketizer
//   mpegts   -> mpegts.TsDepacketizer -> Mpegts2RtmpRemuxer -> rtmp/flv
//
package remux

import "github.com/q191201771/lalts/pkg/base"

var (
	_ iRtmp2MpegtsFilterObserver  = &Rtmp2MpegtsRemuxer{}
	_ IRtmp2MpegtsRemuxerObserver = &Rtmp2MpegtsRemuxerObserverFunc{}
)

// Rtmp2MpegtsRemuxerObserverFunc 用函数实现 IRtmp2MpegtsRemuxerObserver，为nil的回调直接忽略
type Rtmp2MpegtsRemuxerObserverFunc struct {
	OnPatPmtFn    func(b []byte)
	OnTsPacketsFn func(tsPackets []byte, frame *base.Frame, boundary bool)
}

func (o *Rtmp2MpegtsRemuxerObserverFunc) OnPatPmt(b []byte) {
	if o.OnPatPmtFn != nil {
		o.OnPatPmtFn(b)
	}
}

func (o *Rtmp2MpegtsRemuxerObserverFunc) OnTsPackets(tsPackets []byte, frame *base.Frame, boundary bool) {
	if o.OnTsPacketsFn != nil {
		o.OnTsPacketsFn(tsPackets, frame, boundary)
	}
}
