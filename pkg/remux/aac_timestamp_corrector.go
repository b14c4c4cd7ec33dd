// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package remux

import "github.com/q191201771/lalts/pkg/aac"

const DefaultAacSyncMs = 100

// AacTimestampCorrector 修正AAC的时间戳
//
// flv的时间戳精度为毫秒，aac 44100的每帧时长为23.22毫秒，直接乘90换算成mpegts的时间戳后，帧间隔在2070和2160之间抖动，
// 部分播放器（比如iOS）会出现声音异常
// 所以按采样数推算时间戳，推算值和flv时间戳相差在syncMs以内时使用推算值，否则以flv时间戳为新的起点
//
// 参考 nginx-rtmp-module ngx_rtmp_hls_audio
//
type AacTimestampCorrector struct {
	syncMs int64

	basePts   int64
	nbSamples int64
}

// NewAacTimestampCorrector
//
// @param syncMs: 为0时不做修正
//
func NewAacTimestampCorrector(syncMs int) *AacTimestampCorrector {
	return &AacTimestampCorrector{
		syncMs: int64(syncMs),
	}
}

// Correct
//
// @param flvPts:     单位90kHz
// @param sampleRate: 采样率，比如44100
//
// @return: 单位90kHz
//
func (c *AacTimestampCorrector) Correct(flvPts uint64, sampleRate int) uint64 {
	if c.syncMs == 0 || sampleRate <= 0 {
		return flvPts
	}

	// 假定每帧固定1024个采样，不考虑960的情况
	estPts := c.basePts + c.nbSamples*90000*aac.SamplesPerFrame/int64(sampleRate)
	dpts := estPts - int64(flvPts)

	if dpts <= c.syncMs*90 && dpts >= -c.syncMs*90 {
		c.nbSamples++
		return uint64(estPts)
	}

	Log.Debugf("aac resync. dpts=%d, pts=%d, base=%d, nb_samples=%d, sample_rate=%d",
		dpts, flvPts, c.basePts, c.nbSamples, sampleRate)
	c.basePts = int64(flvPts)
	c.nbSamples = 1
	return flvPts
}
