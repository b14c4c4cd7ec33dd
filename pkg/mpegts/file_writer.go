// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"os"

	"github.com/q191201771/lalts/pkg/base"
)

// FileWriter 将TS packet写入文件，实现了 io.Writer
type FileWriter struct {
	fp *os.File

	packetCount int
}

func (fw *FileWriter) Create(filename string) (err error) {
	fw.fp, err = os.Create(filename)
	return
}

func (fw *FileWriter) Write(b []byte) (n int, err error) {
	if fw.fp == nil {
		return 0, base.ErrMpegtsFileNotOpen
	}
	n, err = fw.fp.Write(b)
	fw.packetCount += n / PacketSize
	return
}

func (fw *FileWriter) Dispose() error {
	if fw.fp == nil {
		return base.ErrMpegtsFileNotOpen
	}
	return fw.fp.Close()
}

func (fw *FileWriter) Name() string {
	if fw.fp == nil {
		return ""
	}
	return fw.fp.Name()
}

// PacketCount 已写入的TS packet数量
func (fw *FileWriter) PacketCount() int {
	return fw.packetCount
}
