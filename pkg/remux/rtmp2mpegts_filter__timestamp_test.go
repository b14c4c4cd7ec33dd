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

func TestRtmp2MpegtsTimestampFilter_Do(t *testing.T) {
	var f Rtmp2MpegtsTimestampFilter
	f.Init("test")
	in := []*base.Frame{
		{Dts: 90000, Pts: 97200},
		{Dts: 93600, Pts: 100800},
		{Dts: 93060, Pts: 93060}, // audio
		{Dts: 97200, Pts: 115200},
		{Dts: 88200, Pts: 88200}, // 比base还小
		{Dts: 100800, Pts: 100800},
	}
	expected := []*base.Frame{
		{Dts: 0, Pts: 7200},
		{Dts: 3600, Pts: 10800},
		{Dts: 3060, Pts: 3060},
		{Dts: 7200, Pts: 25200},
		{Dts: 0, Pts: 0},
		{Dts: 10800, Pts: 10800},
	}

	for i := range in {
		f.Do(in[i])
		assert.Equal(t, expected[i].Dts, in[i].Dts)
		assert.Equal(t, expected[i].Pts, in[i].Pts)
	}
}
