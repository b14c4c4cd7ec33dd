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
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/q191201771/lalts/pkg/base"
)

type FlvFileReader struct {
	fp *os.File
	rd *bufio.Reader
}

func (ffr *FlvFileReader) Open(filename string) (err error) {
	if ffr.fp, err = os.Open(filename); err != nil {
		return
	}
	ffr.rd = bufio.NewReaderSize(ffr.fp, readBufSize)
	return
}

// ReadFlvHeader 读取13字节的flv头，包含PreviousTagSize0
func (ffr *FlvFileReader) ReadFlvHeader() ([]byte, error) {
	if ffr.rd == nil {
		return nil, base.ErrHttpflvFileNotOpen
	}
	flvHeader := make([]byte, flvHeaderSize)
	if _, err := io.ReadFull(ffr.rd, flvHeader); err != nil {
		return nil, err
	}
	if !bytes.Equal(flvHeader[:3], FlvHeader[:3]) {
		return flvHeader, base.ErrHttpflvNotFlv
	}
	return flvHeader, nil
}

func (ffr *FlvFileReader) ReadTag() (Tag, error) {
	if ffr.rd == nil {
		return Tag{}, base.ErrHttpflvFileNotOpen
	}
	return ReadTag(ffr.rd)
}

func (ffr *FlvFileReader) Dispose() {
	if ffr.fp != nil {
		_ = ffr.fp.Close()
	}
}

// ReadAllTagsFromFlvFile 一次性读取文件中所有的tag
//
// 文件末尾不完整的tag被忽略
//
func ReadAllTagsFromFlvFile(filename string) ([]Tag, error) {
	var ffr FlvFileReader
	if err := ffr.Open(filename); err != nil {
		return nil, err
	}
	defer ffr.Dispose()

	if _, err := ffr.ReadFlvHeader(); err != nil {
		return nil, err
	}

	var tags []Tag
	for {
		tag, err := ffr.ReadTag()
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				Log.Warnf("incomplete flv tag at end of file. file=%s, tags=%d", filename, len(tags))
			}
			return tags, nil
		}
		tags = append(tags, tag)
	}
}
