// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package httpflv

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
)

func TestPackHttpflvTag(t *testing.T) {
	body := []byte{0xAF, 0x00, 0x12, 0x10}
	raw := PackHttpflvTag(TagTypeAudio, 0x12345678, body)
	assert.Equal(t, []byte{0x08, 0x00, 0x00, 0x04, 0x34, 0x56, 0x78, 0x12, 0x00, 0x00, 0x00}, raw[:TagHeaderSize])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x0F}, raw[len(raw)-PrevTagSizeFieldSize:])

	tag, err := ReadTag(bytes.NewReader(raw))
	assert.Equal(t, nil, err)
	assert.Equal(t, TagTypeAudio, tag.Header.Type)
	assert.Equal(t, uint32(4), tag.Header.DataSize)
	assert.Equal(t, uint32(0x12345678), tag.Header.Timestamp)
	assert.Equal(t, body, tag.Payload())
	assert.Equal(t, true, tag.IsAacSeqHeader())
	assert.Equal(t, false, tag.IsAvcKeySeqHeader())

	tag.ModTagTimestamp(1000)
	again, err := ReadTag(bytes.NewReader(tag.Raw))
	assert.Equal(t, nil, err)
	assert.Equal(t, uint32(1000), again.Header.Timestamp)

	_, err = ReadTag(bytes.NewReader(raw[:len(raw)-1]))
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	_, err = ReadTag(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

func TestFlvFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.flv")

	var ffw FlvFileWriter
	assert.Equal(t, base.ErrHttpflvFileNotOpen, ffw.WriteFlvHeader())
	assert.Equal(t, nil, ffw.Open(filename))
	assert.Equal(t, filename, ffw.Name())
	assert.Equal(t, nil, ffw.WriteFlvHeader())

	video := []byte{0x17, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x65}
	audio := []byte{0xAF, 0x01, 0x21}
	assert.Equal(t, nil, ffw.WriteTag(Tag{Raw: PackHttpflvTag(TagTypeVideo, 40, video)}))
	assert.Equal(t, nil, ffw.WriteTag(Tag{Raw: PackHttpflvTag(TagTypeAudio, 46, audio)}))
	// 末尾写入半个tag
	assert.Equal(t, nil, ffw.WriteRaw(PackHttpflvTag(TagTypeAudio, 69, audio)[:5]))
	assert.Equal(t, nil, ffw.Dispose())

	tags, err := ReadAllTagsFromFlvFile(filename)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(tags))
	assert.Equal(t, true, tags[0].IsAvcKeyNalu())
	assert.Equal(t, uint32(40), tags[0].Header.Timestamp)
	assert.Equal(t, video, tags[0].Payload())
	assert.Equal(t, uint32(46), tags[1].Header.Timestamp)
	assert.Equal(t, audio, tags[1].Payload())
}

// 没有显式写flv头时，第一个tag之前自动写入
func TestFlvFileWriterAutoHeader(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "auto.flv")

	var ffw FlvFileWriter
	assert.Equal(t, nil, ffw.Open(filename))
	audio := []byte{0xAF, 0x01, 0x21, 0x22}
	tag := Tag{Raw: PackHttpflvTag(TagTypeAudio, 23, audio)}
	assert.Equal(t, nil, ffw.WriteTag(tag))
	assert.Equal(t, nil, ffw.WriteFlvHeader())
	assert.Equal(t, nil, ffw.WriteTag(tag))
	assert.Equal(t, 2, ffw.TagCount())
	assert.Equal(t, int64(len(FlvHeader)+2*len(tag.Raw)), ffw.WrittenBytes())

	assert.Equal(t, nil, ffw.Dispose())
	assert.Equal(t, base.ErrHttpflvFileNotOpen, ffw.Dispose())
	assert.Equal(t, base.ErrHttpflvFileNotOpen, ffw.WriteTag(tag))

	content, err := os.ReadFile(filename)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(FlvHeader)+2*len(tag.Raw), len(content))

	tags, err := ReadAllTagsFromFlvFile(filename)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(tags))
}

func TestFlvFileNotFlv(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bad.flv")
	assert.Equal(t, nil, os.WriteFile(filename, []byte("GIF89a-not-a-flv-file"), 0644))

	_, err := ReadAllTagsFromFlvFile(filename)
	assert.Equal(t, base.ErrHttpflvNotFlv, err)

	var ffr FlvFileReader
	_, err = ffr.ReadTag()
	assert.Equal(t, base.ErrHttpflvFileNotOpen, err)
}
