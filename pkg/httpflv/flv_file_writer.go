// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package httpflv

import (
	"bufio"
	"os"

	"github.com/q191201771/lalts/pkg/base"
)

const flvFileWriterBufSize = 64 * 1024

// FlvFileWriter 带缓冲的flv文件写入
//
// 第一次写tag前如果还没有写过flv头，会自动写入
// 数据在 Dispose 时落盘
//
type FlvFileWriter struct {
	fp *os.File
	bw *bufio.Writer

	headerDone bool
	tagCount   int
	written    int64
}

func (ffw *FlvFileWriter) Open(filename string) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	ffw.fp = fp
	ffw.bw = bufio.NewWriterSize(fp, flvFileWriterBufSize)
	ffw.headerDone = false
	ffw.tagCount = 0
	ffw.written = 0
	return nil
}

// WriteRaw 原样写入，不检查内容
func (ffw *FlvFileWriter) WriteRaw(b []byte) error {
	if ffw.bw == nil {
		return base.ErrHttpflvFileNotOpen
	}
	n, err := ffw.bw.Write(b)
	ffw.written += int64(n)
	return err
}

// WriteFlvHeader 重复调用只写一次
func (ffw *FlvFileWriter) WriteFlvHeader() error {
	if ffw.headerDone {
		return nil
	}
	if err := ffw.WriteRaw(FlvHeader); err != nil {
		return err
	}
	ffw.headerDone = true
	return nil
}

func (ffw *FlvFileWriter) WriteTag(tag Tag) error {
	if err := ffw.WriteFlvHeader(); err != nil {
		return err
	}
	if err := ffw.WriteRaw(tag.Raw); err != nil {
		return err
	}
	ffw.tagCount++
	return nil
}

func (ffw *FlvFileWriter) TagCount() int {
	return ffw.tagCount
}

// WrittenBytes 包含flv头，包含还在缓冲中的数据
func (ffw *FlvFileWriter) WrittenBytes() int64 {
	return ffw.written
}

// Dispose 将缓冲中的数据落盘并关闭文件，之后的写操作返回 base.ErrHttpflvFileNotOpen
func (ffw *FlvFileWriter) Dispose() error {
	if ffw.bw == nil {
		return base.ErrHttpflvFileNotOpen
	}
	ferr := ffw.bw.Flush()
	cerr := ffw.fp.Close()
	ffw.bw = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}

func (ffw *FlvFileWriter) Name() string {
	if ffw.fp == nil {
		return ""
	}
	return ffw.fp.Name()
}
