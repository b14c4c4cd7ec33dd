// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// PSI的CRC_32
//
// <iso13818-1.pdf> <Annex A - CRC Decoder Model>
// 多项式0x04C11DB7，不反转输入输出，初始值0xFFFFFFFF，结果不异或
// 注意，和 hash/crc32 中的IEEE（反转）不是一个东西
//

const crc32MpegPoly uint32 = 0x04C11DB7

var crc32MpegTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ crc32MpegPoly
			} else {
				crc <<= 1
			}
		}
		crc32MpegTable[i] = crc
	}
}

// CalcCrc32 首次调用时crc传入0xFFFFFFFF
func CalcCrc32(crc uint32, buffer []byte) uint32 {
	for _, b := range buffer {
		crc = (crc << 8) ^ crc32MpegTable[byte(crc>>24)^b]
	}
	return crc
}
