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

	"github.com/q191201771/naza/pkg/assert"
)

func TestAacTimestampCorrector(t *testing.T) {
	c := NewAacTimestampCorrector(DefaultAacSyncMs)

	var prev uint64
	for i := uint64(0); i < 1000; i++ {
		// flv的毫秒时间戳
		flvPts := i * 1024 * 1000 / 44100 * 90
		pts := c.Correct(flvPts, 44100)
		assert.Equal(t, i*1024*90000/44100, pts)

		var diff uint64
		if pts > flvPts {
			diff = pts - flvPts
		} else {
			diff = flvPts - pts
		}
		assert.Equal(t, true, diff <= DefaultAacSyncMs*90)
		if i > 0 {
			assert.Equal(t, true, pts > prev)
		}
		prev = pts
	}

	// 跳变后以flv时间戳为新的起点
	assert.Equal(t, uint64(900000), c.Correct(900000, 44100))
	assert.Equal(t, uint64(900000+2089), c.Correct(900000+23*90, 44100))
	assert.Equal(t, uint64(900000+4179), c.Correct(900000+46*90, 44100))
}

func TestAacTimestampCorrectorDisabled(t *testing.T) {
	c := NewAacTimestampCorrector(0)
	for _, v := range []uint64{0, 2070, 4140, 6300, 100} {
		assert.Equal(t, v, c.Correct(v, 44100))
	}

	c = NewAacTimestampCorrector(DefaultAacSyncMs)
	assert.Equal(t, uint64(2070), c.Correct(2070, 0))
}
