// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/unique"

const (
	UkPreRtmp2MpegtsRemuxer = "RTMP2MPEGTS"
	UkPreMpegts2RtmpRemuxer = "MPEGTS2RTMP"
	UkPreTsPacketizer       = "TSPACKER"
	UkPreTsDepacketizer     = "TSUNPACKER"
	UkPreFrameAssembler     = "ASSEMBLER"
)

func GenUkRtmp2MpegtsRemuxer() string {
	return siUkRtmp2MpegtsRemuxer.GenUniqueKey()
}

func GenUkMpegts2RtmpRemuxer() string {
	return siUkMpegts2RtmpRemuxer.GenUniqueKey()
}

func GenUkTsPacketizer() string {
	return siUkTsPacketizer.GenUniqueKey()
}

func GenUkTsDepacketizer() string {
	return siUkTsDepacketizer.GenUniqueKey()
}

func GenUkFrameAssembler() string {
	return siUkFrameAssembler.GenUniqueKey()
}

var (
	siUkRtmp2MpegtsRemuxer *unique.SingleGenerator
	siUkMpegts2RtmpRemuxer *unique.SingleGenerator
	siUkTsPacketizer       *unique.SingleGenerator
	siUkTsDepacketizer     *unique.SingleGenerator
	siUkFrameAssembler     *unique.SingleGenerator
)

func init() {
	siUkRtmp2MpegtsRemuxer = unique.NewSingleGenerator(UkPreRtmp2MpegtsRemuxer)
	siUkMpegts2RtmpRemuxer = unique.NewSingleGenerator(UkPreMpegts2RtmpRemuxer)
	siUkTsPacketizer = unique.NewSingleGenerator(UkPreTsPacketizer)
	siUkTsDepacketizer = unique.NewSingleGenerator(UkPreTsDepacketizer)
	siUkFrameAssembler = unique.NewSingleGenerator(UkPreFrameAssembler)
}
