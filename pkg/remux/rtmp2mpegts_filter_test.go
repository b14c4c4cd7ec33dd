// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package remux

import (
	"testing"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
)

type qo struct {
	patPmtCount int
	hasVideo    bool
	hasAudio    bool
	poped       []base.RtmpMsg
}

func (q *qo) onPatPmt(hasVideo, hasAudio bool) {
	q.patPmtCount++
	q.hasVideo = hasVideo
	q.hasAudio = hasAudio
}

func (q *qo) onPop(msg base.RtmpMsg) {
	// 弹出时patPmt一定已经回调过
	if q.patPmtCount == 0 {
		panic("pop before patpmt")
	}
	q.poped = append(q.poped, msg)
}

func TestRtmp2MpegtsFilter(t *testing.T) {
	goldenRtmpMsg := []base.RtmpMsg{
		base.MakeRtmpMsg(base.RtmpTypeIdAudio, 0, []byte{0xAF}),
		base.MakeRtmpMsg(base.RtmpTypeIdMetadata, 0, []byte{0x02}),
		base.MakeRtmpMsg(base.RtmpTypeIdVideo, 0, []byte{0x17}),
		base.MakeRtmpMsg(base.RtmpTypeIdVideo, 40, []byte{0x27}),
	}

	q := &qo{}
	f := newRtmp2MpegtsFilter(8, q)
	for i := range goldenRtmpMsg {
		f.Push(goldenRtmpMsg[i])
	}
	f.Drain()

	assert.Equal(t, 1, q.patPmtCount)
	assert.Equal(t, true, q.hasVideo)
	assert.Equal(t, true, q.hasAudio)
	// 判断结束前的metadata被丢弃
	assert.Equal(t, []base.RtmpMsg{goldenRtmpMsg[0], goldenRtmpMsg[2], goldenRtmpMsg[3]}, q.poped)
}

func TestRtmp2MpegtsFilterQueueFull(t *testing.T) {
	q := &qo{}
	f := newRtmp2MpegtsFilter(2, q)
	f.Push(base.MakeRtmpMsg(base.RtmpTypeIdVideo, 0, []byte{0x17}))
	assert.Equal(t, 0, q.patPmtCount)
	f.Push(base.MakeRtmpMsg(base.RtmpTypeIdVideo, 40, []byte{0x27}))
	assert.Equal(t, 1, q.patPmtCount)
	assert.Equal(t, true, q.hasVideo)
	assert.Equal(t, false, q.hasAudio)
	assert.Equal(t, 2, len(q.poped))

	f.Push(base.MakeRtmpMsg(base.RtmpTypeIdAudio, 60, []byte{0xAF}))
	assert.Equal(t, 1, q.patPmtCount)
	assert.Equal(t, 3, len(q.poped))
}

func TestRtmp2MpegtsFilterEmpty(t *testing.T) {
	q := &qo{}
	f := newRtmp2MpegtsFilter(8, q)
	f.Drain()
	f.Drain()
	assert.Equal(t, 0, q.patPmtCount)
}
