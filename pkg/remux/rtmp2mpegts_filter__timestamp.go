// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package remux

import (
	"math"

	"github.com/q191201771/lalts/pkg/base"
)

// Rtmp2MpegtsTimestampFilter 将时间戳转换为从零开始的时间戳
//
// 音频和视频共用一个base，即第一个到达的帧的dts，保证音视频之间的相对时间不变
// 比base还小的时间戳被修正为0
//
type Rtmp2MpegtsTimestampFilter struct {
	uk string

	basicDts uint64
}

func (f *Rtmp2MpegtsTimestampFilter) Init(uk string) {
	f.uk = uk
	f.basicDts = math.MaxUint64
}

// Do
//
// @param frame: 直接修改frame中的dts和pts
//
func (f *Rtmp2MpegtsTimestampFilter) Do(frame *base.Frame) {
	if f.basicDts == math.MaxUint64 {
		f.basicDts = frame.Dts
	}
	if frame.Dts < f.basicDts {
		Log.Warnf("[%s] dts invalid. dts=%d, base=%d, frame=%s", f.uk, frame.Dts, f.basicDts, frame.String())
	}
	frame.Dts = subSafe(frame.Dts, f.basicDts)
	frame.Pts = subSafe(frame.Pts, f.basicDts)
}

func subSafe(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return 0
}
