// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import (
	"encoding/hex"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/nazabits"
	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/naza/pkg/nazaerrors"
)

// Context sps中与展示相关的字段，只用于日志和统计
type Context struct {
	Profile uint8
	Level   uint8
	Width   uint32
	Height  uint32
}

type Sps struct {
	ProfileIdc uint8
	LevelIdc   uint8
	SpsId      uint32

	ChromaFormatIdc uint32

	Log2MaxFrameNumMinus4 uint32
	PicOrderCntType       uint32

	NumRefFrames                uint32
	PicWidthInMbsMinusOne       uint32
	PicHeightInMapUnitsMinusOne uint32
	FrameMbsOnlyFlag            uint8

	FrameCroppingFlag     uint8
	FrameCropLeftOffset   uint32
	FrameCropRightOffset  uint32
	FrameCropTopOffset    uint32
	FrameCropBottomOffset uint32
}

// ParseSps
//
// 宽高只处理常见的profile，解析失败时宽高为0，不返回错误
//
// @param payload: 不包含起始码或长度前缀
//
func ParseSps(payload []byte) (ctx Context, err error) {
	br := nazabits.NewBitReader(payload)
	var sps Sps
	if err = parseSpsBasic(&br, &sps); err != nil {
		Log.Errorf("parseSpsBasic failed. err=%+v, payload=%s", err, hex.Dump(nazabytes.Prefix(payload, 128)))
		return
	}
	ctx.Profile = sps.ProfileIdc
	ctx.Level = sps.LevelIdc

	if err := parseSpsBeta(&br, &sps); err != nil {
		Log.Debugf("parseSpsBeta failed. err=%+v", err)
		return ctx, nil
	}
	ctx.Width = (sps.PicWidthInMbsMinusOne+1)*16 - (sps.FrameCropLeftOffset+sps.FrameCropRightOffset)*2
	ctx.Height = (2-uint32(sps.FrameMbsOnlyFlag))*(sps.PicHeightInMapUnitsMinusOne+1)*16 - (sps.FrameCropTopOffset+sps.FrameCropBottomOffset)*2
	return
}

// <ISO_IEC_14496-10-AVC-2003.pdf> <7.3.2.1 Sequence parameter set RBSP syntax>
func parseSpsBasic(br *nazabits.BitReader, sps *Sps) error {
	t, err := br.ReadBits8(8)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	if ParseNaluType(t) != NaluTypeSps {
		return base.NewErrMalformed("avc: not sps. type=%d", ParseNaluType(t))
	}

	if sps.ProfileIdc, err = br.ReadBits8(8); err != nil {
		return nazaerrors.Wrap(err)
	}
	// constraint_set0_flag ~ reserved_zero_5bits
	if _, err = br.ReadBits8(8); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.LevelIdc, err = br.ReadBits8(8); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.SpsId, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.SpsId >= 32 {
		return base.NewErrMalformed("avc: invalid sps id. id=%d", sps.SpsId)
	}
	return nil
}

func parseSpsBeta(br *nazabits.BitReader, sps *Sps) error {
	var err error

	// 100 High profile
	if sps.ProfileIdc == 100 {
		if sps.ChromaFormatIdc, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if sps.ChromaFormatIdc == 3 {
			// residual_colour_transform_flag
			if _, err = br.ReadBits8(1); err != nil {
				return nazaerrors.Wrap(err)
			}
		}
		// bit_depth_luma_minus8, bit_depth_chroma_minus8
		if _, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if _, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		// qpprime_y_zero_transform_bypass_flag
		if _, err = br.ReadBits8(1); err != nil {
			return nazaerrors.Wrap(err)
		}
		flag, err := br.ReadBits8(1)
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		if flag == 1 {
			// TODO(chef): 解析seq_scaling_list，目前遇到带scaling matrix的sps直接放弃解析宽高
			return base.NewErrUnsupportedCodec("avc: seq_scaling_matrix_present_flag")
		}
	} else {
		sps.ChromaFormatIdc = 1
	}

	if sps.Log2MaxFrameNumMinus4, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.PicOrderCntType, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}

	switch sps.PicOrderCntType {
	case 0:
		// log2_max_pic_order_cnt_lsb_minus4
		if _, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
	case 2:
		// noop
	default:
		return base.NewErrUnsupportedCodec("avc: pic_order_cnt_type 1")
	}

	if sps.NumRefFrames, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	// gaps_in_frame_num_value_allowed_flag
	if _, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.PicWidthInMbsMinusOne, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.PicHeightInMapUnitsMinusOne, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.FrameMbsOnlyFlag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.FrameMbsOnlyFlag == 0 {
		// mb_adaptive_frame_field_flag
		if _, err = br.ReadBits8(1); err != nil {
			return nazaerrors.Wrap(err)
		}
	}
	// direct_8x8_inference_flag
	if _, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}

	if sps.FrameCroppingFlag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.FrameCroppingFlag == 1 {
		if sps.FrameCropLeftOffset, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if sps.FrameCropRightOffset, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if sps.FrameCropTopOffset, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if sps.FrameCropBottomOffset, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
	}
	return nil
}
