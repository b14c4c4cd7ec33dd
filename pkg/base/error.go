// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// 错误分为四类，调用方通过 errors.Is 判断类别，再决定是丢弃当前帧、丢弃当前session，还是打日志后继续
//
// ErrTruncated        字段声明的长度超过了实际可读的字节数。补充更多输入后可恢复，不会导致session结束
// ErrMalformed        字段违反了格式约束。只丢弃当前帧或当前packet，session继续
// ErrDesync           TS packet的sync_byte不是0x47。调用方需要向后扫描重新同步，或者在连续失败后结束session
// ErrUnsupportedCodec 不支持的编码类型。该路流被TS路径忽略，不影响另一路流
//

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var (
	ErrTruncated        = errors.New("lalts: truncated")
	ErrMalformed        = errors.New("lalts: malformed")
	ErrDesync           = errors.New("lalts: desync")
	ErrUnsupportedCodec = errors.New("lalts: unsupported codec")
)

func NewErrTruncated(need, actual int, msg string) error {
	return fmt.Errorf("%w. need=%d, actual=%d, msg=%s", ErrTruncated, need, actual, msg)
}

func NewErrMalformed(format string, v ...interface{}) error {
	return fmt.Errorf("%w. %s", ErrMalformed, fmt.Sprintf(format, v...))
}

func NewErrDesync(b byte) error {
	return fmt.Errorf("%w. sync_byte=0x%x", ErrDesync, b)
}

func NewErrUnsupportedCodec(msg string) error {
	return fmt.Errorf("%w. %s", ErrUnsupportedCodec, msg)
}

// ----- pkg/avc -------------------------------------------------------------------------------------------------------

var (
	ErrAvcLengthSize = fmt.Errorf("%w: lalts.avc: illegal nalu length size", ErrMalformed)
	ErrAvcSpsPpsNum  = fmt.Errorf("%w: lalts.avc: sps/pps num not 1", ErrMalformed)
)

// ----- pkg/aac -------------------------------------------------------------------------------------------------------

var (
	ErrSamplingFrequencyIndex = fmt.Errorf("%w: lalts.aac: invalid sampling frequency index", ErrMalformed)
	ErrAdtsSyncword           = fmt.Errorf("%w: lalts.aac: invalid adts syncword", ErrMalformed)
	ErrMissingSequenceHeader  = fmt.Errorf("%w: lalts.aac: missing sequence header", ErrMalformed)
)

// ----- pkg/mpegts ----------------------------------------------------------------------------------------------------

var (
	ErrPesStartCode  = fmt.Errorf("%w: lalts.mpegts: invalid pes packet_start_code_prefix", ErrMalformed)
	ErrPesStreamId   = fmt.Errorf("%w: lalts.mpegts: unsupported stream_id", ErrMalformed)
	ErrPesAudioEmpty = fmt.Errorf("%w: lalts.mpegts: zero PES_packet_length for audio", ErrMalformed)
	ErrAdaptation    = fmt.Errorf("%w: lalts.mpegts: invalid adaptation_field_length", ErrMalformed)

	ErrMpegtsFileNotOpen = errors.New("lalts.mpegts: file not open")
)

// ----- pkg/remux -----------------------------------------------------------------------------------------------------

var ErrSequenceHeaderMissing = fmt.Errorf("%w: lalts.remux: sequence header missing", ErrMalformed)

// ----- pkg/httpflv ---------------------------------------------------------------------------------------------------

var (
	ErrHttpflvNotFlv      = errors.New("lalts.httpflv: invalid flv header")
	ErrHttpflvFileNotOpen = errors.New("lalts.httpflv: file not open")
)

// ---------------------------------------------------------------------------------------------------------------------
