// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "fmt"

type CodecKind uint8

const (
	CodecKindUnknown CodecKind = iota
	CodecKindAvc
	CodecKindAac
)

func (k CodecKind) String() string {
	switch k {
	case CodecKindAvc:
		return "AVC"
	case CodecKindAac:
		return "AAC"
	}
	return fmt.Sprintf("CodecKind(%d)", uint8(k))
}

// CodecConfig 流的编码配置，由序列头解析得到
//
// 只有两种实现，avc.SeqHeader 和 aac.AscContext，使用方通过type switch区分
// 每路流持有一份，只有收到新的序列头时才会被替换
//
type CodecConfig interface {
	CodecKind() CodecKind
}

// Sample 一个NALU，或者一个AAC raw frame
type Sample struct {
	Payload  []byte
	IsBFrame bool
}

func (s Sample) Size() int {
	return len(s.Payload)
}

// Frame 一个tag解析后得到的帧
//
// Dts和Pts的单位都是90kHz，即毫秒*90
//
type Frame struct {
	Dts uint64
	Pts uint64
	Key bool

	// Config 不持有，指向流的编码配置
	Config CodecConfig

	// Samples 视频为不带起始码和长度前缀的NALU，音频为不带ADTS头的raw frame
	Samples []Sample
}

func (f *Frame) CodecKind() CodecKind {
	if f.Config == nil {
		return CodecKindUnknown
	}
	return f.Config.CodecKind()
}

// Size Samples的总字节数
func (f *Frame) Size() (n int) {
	for _, s := range f.Samples {
		n += s.Size()
	}
	return
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{kind=%s, dts=%d, pts=%d, key=%t, samples=%d, size=%d}",
		f.CodecKind(), f.Dts, f.Pts, f.Key, len(f.Samples), f.Size())
}
