// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package httpflv flv文件的读写
package httpflv

import "github.com/q191201771/lalts/pkg/base"

// spec-video_file_format_spec_v10.pdf
// FLV header
//   Signature          UI8 'F'
//   Signature          UI8 'L'
//   Signature          UI8 'V'
//   Version            UI8 1
//   TypeFlagsReserved  UB[5]
//   TypeFlagsAudio     UB[1]
//   TypeFlagsReserved  UB[1]
//   TypeFlagsVideo     UB[1]
//   DataOffset         UI32 9
// PreviousTagSize0     UI32 0
//
// FLV tag
//   TagType            UI8
//   DataSize           UI24
//   Timestamp          UI24
//   TimestampExtended  UI8
//   StreamID           UI24 always 0
//   Data
// PreviousTagSize      UI32 11 + DataSize

const (
	TagHeaderSize int = 11

	flvHeaderSize        = 13
	PrevTagSizeFieldSize = 4
)

const (
	TagTypeMetadata = base.RtmpTypeIdMetadata
	TagTypeVideo    = base.RtmpTypeIdVideo
	TagTypeAudio    = base.RtmpTypeIdAudio
)
