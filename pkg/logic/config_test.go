// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic_test

import (
	"testing"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/lalts/pkg/logic"
	"github.com/q191201771/lalts/pkg/mpegts"
	"github.com/q191201771/lalts/pkg/remux"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazalog"
)

func TestLoadConf(t *testing.T) {
	config, err := logic.LoadConf("../../conf/lalts.conf.json")
	assert.Equal(t, nil, err)
	assert.Equal(t, base.ConfVersion, config.ConfVersion)
	assert.Equal(t, 100, config.Remux.AacSyncMs)
	assert.Equal(t, 700, config.Remux.PcrDelayMs)
	assert.Equal(t, uint16(256), config.Remux.VideoPid)
	assert.Equal(t, 12032, config.Demux.ReadBufSize)
	assert.Equal(t, "./logs/lalts.log", config.LogConfig.Filename)

	_, err = logic.LoadConf("../../conf/not_exist.conf.json")
	assert.IsNotNil(t, err)
}

func TestParseConfDefault(t *testing.T) {
	config, err := logic.ParseConf([]byte(`{"remux": {"aac_sync_ms": 0}}`))
	assert.Equal(t, nil, err)
	// 显式配置的0值不会被默认值覆盖
	assert.Equal(t, 0, config.Remux.AacSyncMs)
	assert.Equal(t, 700, config.Remux.PcrDelayMs)
	assert.Equal(t, mpegts.PidVideo, config.Remux.VideoPid)
	assert.Equal(t, mpegts.PidAudio, config.Remux.AudioPid)
	assert.Equal(t, true, config.Remux.ZeroBasedTimestamp)
	assert.Equal(t, 16, config.Demux.MaxDesyncCount)
	assert.Equal(t, nazalog.LevelInfo, config.LogConfig.Level)
	assert.Equal(t, true, config.LogConfig.IsToStdout)

	var option remux.Rtmp2MpegtsRemuxerOption
	config.Rtmp2MpegtsRemuxerOption()(&option)
	assert.Equal(t, 0, option.AacSyncMs)
	assert.Equal(t, uint64(63000), option.PacketizerOption.PcrDelay)
	assert.Equal(t, mpegts.PidVideo, option.PacketizerOption.VideoPid)

	var dopt mpegts.TsDepacketizerOption
	config.TsDepacketizerOption()(&dopt)
	assert.Equal(t, 16, dopt.MaxDesyncCount)
}

func TestParseConfInvalid(t *testing.T) {
	golden := []string{
		`{`,
		`{"remux": {"aac_sync_ms": -1}}`,
		`{"remux": {"pcr_delay_ms": -1}}`,
		`{"remux": {"video_pid": 300, "audio_pid": 300}}`,
		`{"demux": {"read_buf_size": 100}}`,
	}
	for _, item := range golden {
		_, err := logic.ParseConf([]byte(item))
		assert.IsNotNil(t, err, item)
	}
}
