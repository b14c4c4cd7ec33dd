// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package remux

import (
	"github.com/q191201771/lalts/pkg/base"
)

// rtmp2MpegtsFilter
//
// 缓存流起始的一些数据，判断流中是否存在音频、视频，然后通知上层输出PAT PMT
//
// 一旦判断结束，该队列变成直进直出，不再有实际缓存
//
type rtmp2MpegtsFilter struct {
	maxMsgSize int
	data       []base.RtmpMsg
	observer   iRtmp2MpegtsFilterObserver

	hasAudio bool
	hasVideo bool
	done     bool
}

type iRtmp2MpegtsFilterObserver interface {
	// onPatPmt 该回调一定发生在数据回调之前，并且只回调一次
	onPatPmt(hasVideo, hasAudio bool)

	onPop(msg base.RtmpMsg)
}

// newRtmp2MpegtsFilter
//
// @param maxMsgSize: 最大缓存多少个包
//
func newRtmp2MpegtsFilter(maxMsgSize int, observer iRtmp2MpegtsFilterObserver) *rtmp2MpegtsFilter {
	return &rtmp2MpegtsFilter{
		maxMsgSize: maxMsgSize,
		data:       make([]base.RtmpMsg, maxMsgSize)[0:0],
		observer:   observer,
	}
}

// Push
//
// @param msg: 函数调用结束后，内部不持有该内存块
//
func (q *rtmp2MpegtsFilter) Push(msg base.RtmpMsg) {
	if q.done {
		q.observer.onPop(msg)
		return
	}

	switch msg.Header.MsgTypeId {
	case base.RtmpTypeIdAudio:
		q.hasAudio = true
	case base.RtmpTypeIdVideo:
		q.hasVideo = true
	default:
		return
	}
	q.data = append(q.data, msg.Clone())

	if q.hasVideo && q.hasAudio {
		q.Drain()
		return
	}

	if len(q.data) >= q.maxMsgSize {
		q.Drain()
		return
	}
}

// Drain 结束判断，输出缓存的数据。输入流结束时也需要调用
func (q *rtmp2MpegtsFilter) Drain() {
	if q.done {
		return
	}
	q.done = true
	if !q.hasVideo && !q.hasAudio {
		return
	}

	q.observer.onPatPmt(q.hasVideo, q.hasAudio)
	for i := range q.data {
		q.observer.onPop(q.data[i])
	}
	q.data = nil
}
