// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"fmt"

	"github.com/q191201771/lalts/pkg/base"
)

// AdaptationField
//
// ----------------------------------------------------------
// <iso13818-1.pdf> <Table 2-6> <page 40/174>
// adaptation_field_length              [8b] * 不包括自己这1字节
// discontinuity_indicator              [1b]
// random_access_indicator              [1b]
// elementary_stream_priority_indicator [1b]
// PCR_flag                             [1b]
// OPCR_flag                            [1b]
// splicing_point_flag                  [1b]
// transport_private_data_flag          [1b]
// adaptation_field_extension_flag      [1b] *
// -----if PCR_flag == 1-----
// program_clock_reference_base         [33b]
// reserved                             [6b]
// program_clock_reference_extension    [9b] ******
// -----if OPCR_flag == 1-----
// original_program_clock_reference_base      [33b]
// reserved                                   [6b]
// original_program_clock_reference_extension [9b] ******
// -----if splicing_point_flag == 1-----
// splice_countdown                     [8b] *
// -----if transport_private_data_flag == 1-----
// transport_private_data_length        [8b] *
// private_data_byte                    [n*8b]
// -----if adaptation_field_extension_flag == 1-----
// adaptation_field_extension_length    [8b] *
// ltw_flag                             [1b]
// piecewise_rate_flag                  [1b]
// seamless_splice_flag                 [1b]
// reserved                             [5b] *
// ...
// ----------------------------------------------------------
type AdaptationField struct {
	Length uint8

	DiscontinuityIndicator            bool
	RandomAccessIndicator             bool
	ElementaryStreamPriorityIndicator bool
	PcrFlag                           bool
	OpcrFlag                          bool
	SplicingPointFlag                 bool
	TransportPrivateDataFlag          bool
	ExtensionFlag                     bool

	PcrBase  uint64 // 33位，90kHz
	PcrExt   uint16 // 9位，27MHz
	OpcrBase uint64
	OpcrExt  uint16

	SpliceCountdown int8
	PrivateData     []byte

	// 扩展部分
	LtwValid       bool
	LtwOffset      uint16
	PiecewiseRate  uint32
	SpliceType     uint8
	DtsNextAu      uint64
	hasLtw         bool
	hasPiecewise   bool
	hasSeamless    bool
	extensionBytes int
}

// ParseAdaptationField
//
// @param b:   TS packet中紧跟4字节header之后的数据
// @param afc: adaptation_field_control
//
// @return n: adaptation field占用的总字节数，包含adaptation_field_length这1字节
//
func ParseAdaptationField(b []byte, afc uint8) (af AdaptationField, n int, err error) {
	if len(b) < 1 {
		return af, 0, base.NewErrTruncated(1, 0, "mpegts.ParseAdaptationField")
	}
	af.Length = b[0]
	n = 1 + int(af.Length)

	// 只有adaptation没有payload时，长度必须是183
	// adaptation和payload都有时，至少要给payload留1字节
	switch afc {
	case afcAdaptationOnly:
		if af.Length != 183 {
			return af, n, fmt.Errorf("%w. afc=%d, length=%d", base.ErrAdaptation, afc, af.Length)
		}
	case afcAdaptationWithPayload:
		if af.Length > 182 {
			return af, n, fmt.Errorf("%w. afc=%d, length=%d", base.ErrAdaptation, afc, af.Length)
		}
	}
	if len(b) < n {
		return af, n, base.NewErrTruncated(n, len(b), "mpegts.ParseAdaptationField")
	}
	if af.Length == 0 {
		return af, n, nil
	}

	// 后续字段不能超出adaptation_field_length声明的范围，剩余的stuffing_byte直接跳过
	bc := base.NewByteCursor(b[1:n])
	flags, _ := bc.ReadUint8()
	af.DiscontinuityIndicator = flags&0x80 != 0
	af.RandomAccessIndicator = flags&0x40 != 0
	af.ElementaryStreamPriorityIndicator = flags&0x20 != 0
	af.PcrFlag = flags&0x10 != 0
	af.OpcrFlag = flags&0x08 != 0
	af.SplicingPointFlag = flags&0x04 != 0
	af.TransportPrivateDataFlag = flags&0x02 != 0
	af.ExtensionFlag = flags&0x01 != 0

	if af.PcrFlag {
		if af.PcrBase, af.PcrExt, err = readPcr(bc); err != nil {
			return af, n, adaptationOverflow(err)
		}
	}
	if af.OpcrFlag {
		if af.OpcrBase, af.OpcrExt, err = readPcr(bc); err != nil {
			return af, n, adaptationOverflow(err)
		}
	}
	if af.SplicingPointFlag {
		v, err := bc.ReadUint8()
		if err != nil {
			return af, n, adaptationOverflow(err)
		}
		af.SpliceCountdown = int8(v)
	}
	if af.TransportPrivateDataFlag {
		l, err := bc.ReadUint8()
		if err != nil {
			return af, n, adaptationOverflow(err)
		}
		if af.PrivateData, err = bc.ReadBytes(int(l)); err != nil {
			return af, n, adaptationOverflow(err)
		}
	}
	if af.ExtensionFlag {
		if err = af.parseExtension(bc); err != nil {
			return af, n, adaptationOverflow(err)
		}
	}
	return af, n, nil
}

// Pcr 换算成27MHz
func (af *AdaptationField) Pcr() uint64 {
	return af.PcrBase*300 + uint64(af.PcrExt)
}

func (af *AdaptationField) parseExtension(bc *base.ByteCursor) error {
	l, err := bc.ReadUint8()
	if err != nil {
		return err
	}
	ext, err := bc.ReadBytes(int(l))
	if err != nil {
		return err
	}
	af.extensionBytes = int(l)
	if l == 0 {
		return nil
	}

	ebc := base.NewByteCursor(ext)
	flags, _ := ebc.ReadUint8()
	af.hasLtw = flags&0x80 != 0
	af.hasPiecewise = flags&0x40 != 0
	af.hasSeamless = flags&0x20 != 0

	if af.hasLtw {
		// ltw_valid_flag [1b] ltw_offset [15b]
		v, err := ebc.ReadUint16()
		if err != nil {
			return err
		}
		af.LtwValid = v&0x8000 != 0
		af.LtwOffset = v & 0x7FFF
	}
	if af.hasPiecewise {
		// reserved [2b] piecewise_rate [22b]
		v, err := ebc.ReadUint24()
		if err != nil {
			return err
		}
		af.PiecewiseRate = v & 0x3FFFFF
	}
	if af.hasSeamless {
		// splice_type [4b] DTS_next_AU[32..30] [3b] marker [1b] ...
		b, err := ebc.ReadBytes(5)
		if err != nil {
			return err
		}
		af.SpliceType = b[0] >> 4
		af.DtsNextAu = readTimestamp(b)
	}
	// reserved 字段不关心
	return nil
}

func adaptationOverflow(err error) error {
	return fmt.Errorf("%w. field overflow: %s", base.ErrAdaptation, err.Error())
}

// readPcr 6字节，base [33b] reserved [6b] extension [9b]
func readPcr(bc *base.ByteCursor) (pcrBase uint64, pcrExt uint16, err error) {
	hi, err := bc.ReadUint32()
	if err != nil {
		return 0, 0, err
	}
	lo, err := bc.ReadUint16()
	if err != nil {
		return 0, 0, err
	}
	v := uint64(hi)<<16 | uint64(lo)
	pcrBase = v >> 15
	pcrExt = uint16(v & 0x1FF)
	return pcrBase, pcrExt, nil
}

// packPcr 写入6字节，extension固定为0
func packPcr(out []byte, pcr uint64) {
	out[0] = uint8(pcr >> 25)
	out[1] = uint8(pcr >> 17)
	out[2] = uint8(pcr >> 9)
	out[3] = uint8(pcr >> 1)
	out[4] = uint8(pcr<<7) | 0x7e
	out[5] = 0
}
