// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package logic 各app共用的配置文件加载
package logic

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/lalts/pkg/mpegts"
	"github.com/q191201771/lalts/pkg/remux"
	"github.com/q191201771/naza/pkg/nazajson"
	"github.com/q191201771/naza/pkg/nazalog"
)

type Config struct {
	ConfVersion string      `json:"conf_version"`
	Remux       RemuxConfig `json:"remux"`
	Demux       DemuxConfig `json:"demux"`
	SrtConfig   SrtConfig   `json:"srt"`

	LogConfig nazalog.Option `json:"log"`
}

type RemuxConfig struct {
	AacSyncMs          int    `json:"aac_sync_ms"`
	PcrDelayMs         int    `json:"pcr_delay_ms"`
	VideoPid           uint16 `json:"video_pid"`
	AudioPid           uint16 `json:"audio_pid"`
	SpsPpsEveryIdr     bool   `json:"sps_pps_every_idr"`
	ZeroBasedTimestamp bool   `json:"zero_based_timestamp"`
}

type DemuxConfig struct {
	ReadBufSize    int `json:"read_buf_size"`
	MaxDesyncCount int `json:"max_desync_count"`
}

type SrtConfig struct {
	LatencyMs int    `json:"latency_ms"`
	StreamId  string `json:"stream_id"`
}

// LoadConfAndInitLog 加载配置文件并初始化全局日志
func LoadConfAndInitLog(confFile string) (*Config, error) {
	config, err := LoadConf(confFile)
	if err != nil {
		return nil, err
	}

	if err = nazalog.Init(func(option *nazalog.Option) {
		*option = config.LogConfig
	}); err != nil {
		return nil, err
	}
	nazalog.Infof("load conf file succ. filename=%s, content=%+v", confFile, config)
	return config, nil
}

func LoadConf(confFile string) (*Config, error) {
	rawContent, err := ioutil.ReadFile(confFile)
	if err != nil {
		return nil, err
	}
	return ParseConf(rawContent)
}

// ParseConf 解析配置内容，不存在的配置项使用默认值
func ParseConf(rawContent []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(rawContent, &config); err != nil {
		return nil, err
	}

	j, err := nazajson.New(rawContent)
	if err != nil {
		return nil, err
	}

	// 检查配置版本号是否匹配
	if config.ConfVersion != "" && config.ConfVersion != base.ConfVersion {
		nazalog.Warnf("config version invalid. conf version of lalts=%s, conf version of config file=%s",
			base.ConfVersion, config.ConfVersion)
	}

	// 配置不存在时，设置默认值
	if !j.Exist("remux.aac_sync_ms") {
		config.Remux.AacSyncMs = remux.DefaultAacSyncMs
	}
	if !j.Exist("remux.pcr_delay_ms") {
		config.Remux.PcrDelayMs = int(mpegts.DefaultPcrDelay / 90)
	}
	if !j.Exist("remux.video_pid") {
		config.Remux.VideoPid = mpegts.PidVideo
	}
	if !j.Exist("remux.audio_pid") {
		config.Remux.AudioPid = mpegts.PidAudio
	}
	if !j.Exist("remux.zero_based_timestamp") {
		config.Remux.ZeroBasedTimestamp = true
	}
	if !j.Exist("demux.read_buf_size") {
		config.Demux.ReadBufSize = 188 * 64
	}
	if !j.Exist("demux.max_desync_count") {
		config.Demux.MaxDesyncCount = 16
	}
	if !j.Exist("srt.latency_ms") {
		config.SrtConfig.LatencyMs = 120
	}
	if !j.Exist("log.level") {
		config.LogConfig.Level = nazalog.LevelInfo
	}
	if !j.Exist("log.is_to_stdout") {
		config.LogConfig.IsToStdout = true
	}
	if !j.Exist("log.short_file_flag") {
		config.LogConfig.ShortFileFlag = true
	}
	if !j.Exist("log.assert_behavior") {
		config.LogConfig.AssertBehavior = nazalog.AssertError
	}

	// 检查配置项的合法性
	if config.Remux.AacSyncMs < 0 {
		return nil, fmt.Errorf("invalid remux.aac_sync_ms. value=%d", config.Remux.AacSyncMs)
	}
	if config.Remux.PcrDelayMs < 0 {
		return nil, fmt.Errorf("invalid remux.pcr_delay_ms. value=%d", config.Remux.PcrDelayMs)
	}
	if config.Remux.VideoPid == config.Remux.AudioPid {
		return nil, fmt.Errorf("remux.video_pid and remux.audio_pid must differ. value=%d", config.Remux.VideoPid)
	}
	if config.Demux.ReadBufSize < mpegts.PacketSize {
		return nil, fmt.Errorf("invalid demux.read_buf_size. value=%d", config.Demux.ReadBufSize)
	}

	return &config, nil
}

// Rtmp2MpegtsRemuxerOption 根据配置生成封装方向的选项
func (c *Config) Rtmp2MpegtsRemuxerOption() remux.ModRtmp2MpegtsRemuxerOption {
	return func(option *remux.Rtmp2MpegtsRemuxerOption) {
		option.AacSyncMs = c.Remux.AacSyncMs
		option.ZeroBasedTimestamp = c.Remux.ZeroBasedTimestamp
		option.PacketizerOption.VideoPid = c.Remux.VideoPid
		option.PacketizerOption.AudioPid = c.Remux.AudioPid
		option.PacketizerOption.PcrDelay = uint64(c.Remux.PcrDelayMs) * 90
		option.PacketizerOption.SpsPpsEveryIdr = c.Remux.SpsPpsEveryIdr
	}
}

// TsDepacketizerOption 根据配置生成解析方向的选项
func (c *Config) TsDepacketizerOption() mpegts.ModTsDepacketizerOption {
	return func(option *mpegts.TsDepacketizerOption) {
		option.MaxDesyncCount = c.Demux.MaxDesyncCount
	}
}
