// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import (
	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"
)

// AnnexB:
//   keywords: MPEG-TS
//   nalu with start code.
//   e.g. 00 00 00 01 SPS 00 00 00 01 PPS 00 00 00 01 IDR 00 00 00 01 IDR 00 00 00 01 SLICE
//
// AVCC(IBMF):
//   keywords: RTMP, FLV
//   nalu with length prefix.
//   e.g. SPS_LEN SPS PPS_LEN PPS IDR_LEN IDR SLICE_LEN SLICE
//

var (
	NaluStartCode3 = []byte{0x0, 0x0, 0x1}
	NaluStartCode4 = []byte{0x0, 0x0, 0x0, 0x1}

	// AudNalu access_unit_delimiter_rbsp, primary_pic_type=7(I, SI, P, SP, B), rbsp_trailing_bits
	AudNalu = []byte{0x09, 0xf0}
)

var NaluTypeMapping = map[uint8]string{
	1: "SLICE",
	5: "IDR",
	6: "SEI",
	7: "SPS",
	8: "PPS",
	9: "AUD",
}

var SliceTypeMapping = map[uint8]string{
	0: "P",
	1: "B",
	2: "I",
	3: "SP",
	4: "SI",
	5: "P",
	6: "B",
	7: "I",
	8: "SP",
	9: "SI",
}

const (
	NaluTypeSlice    uint8 = 1
	NaluTypeIdrSlice uint8 = 5
	NaluTypeSei      uint8 = 6
	NaluTypeSps      uint8 = 7
	NaluTypePps      uint8 = 8
	NaluTypeAud      uint8 = 9 // Access Unit Delimiter
)

const (
	SliceTypeP  uint8 = 0
	SliceTypeB  uint8 = 1
	SliceTypeI  uint8 = 2
	SliceTypeSP uint8 = 3
	SliceTypeSI uint8 = 4
)

// ParseNaluType
//
// @param v: nalu的第一个字节
//
func ParseNaluType(v uint8) uint8 {
	return v & 0x1f
}

func ParseNaluTypeReadable(v uint8) string {
	ret, ok := NaluTypeMapping[ParseNaluType(v)]
	if !ok {
		return "unknown"
	}
	return ret
}

// ParseSliceType
//
// @param nalu: 不包含起始码或长度前缀
//
// @return: 0~4, 5~9会映射回0~4
//
func ParseSliceType(nalu []byte) (uint8, error) {
	if len(nalu) < 2 {
		return 0, base.NewErrTruncated(2, len(nalu), "avc.ParseSliceType")
	}

	// <ISO_IEC_14496-10-AVC-2003.pdf> <7.3.3 Slice header syntax>
	// first_mb_in_slice ue(v)
	// slice_type        ue(v)
	br := nazabits.NewBitReader(nalu[1:])
	if _, err := br.ReadGolomb(); err != nil {
		return 0, base.NewErrTruncated(1, len(nalu), "avc.ParseSliceType first_mb_in_slice")
	}
	sliceType, err := br.ReadGolomb()
	if err != nil {
		return 0, base.NewErrTruncated(1, len(nalu), "avc.ParseSliceType slice_type")
	}
	if sliceType > 9 {
		return 0, base.NewErrMalformed("avc: invalid slice_type. slice_type=%d", sliceType)
	}
	return uint8(sliceType % 5), nil
}

// IsBFrame 非IDR的slice，并且slice_type为B
func IsBFrame(nalu []byte) bool {
	if len(nalu) == 0 || ParseNaluType(nalu[0]) != NaluTypeSlice {
		return false
	}
	t, err := ParseSliceType(nalu)
	return err == nil && t == SliceTypeB
}

// ----- seq header ----------------------------------------------------------------------------------------------------

// SeqHeader AVCDecoderConfigurationRecord
//
// <ISO_IEC_14496-15.pdf> <5.2.4.1.1 Syntax>
// configurationVersion   [8b]
// AVCProfileIndication   [8b]
// profile_compatibility  [8b]
// AVCLevelIndication     [8b]
// reserved '111111'      [6b]
// lengthSizeMinusOne     [2b]
// reserved '111'         [3b]
// numOfSequenceParameterSets [5b]
// -----loop-----
// sequenceParameterSetLength [16b]
// sequenceParameterSetNALUnit
// --------------
// numOfPictureParameterSets [8b]
// -----loop-----
// pictureParameterSetLength [16b]
// pictureParameterSetNALUnit
// --------------
//
type SeqHeader struct {
	ConfigurationVersion uint8
	Profile              uint8
	ProfileCompatibility uint8
	Level                uint8

	// LengthSizeMinusOne 只能是0, 1, 3，分别对应1, 2, 4字节的长度前缀
	LengthSizeMinusOne uint8

	Sps []byte
	Pps []byte
}

func (sh *SeqHeader) CodecKind() base.CodecKind {
	return base.CodecKindAvc
}

// NaluLengthSize 长度前缀的字节数
func (sh *SeqHeader) NaluLengthSize() int {
	return int(sh.LengthSizeMinusOne) + 1
}

// ParseSeqHeader
//
// @param b: AVCDecoderConfigurationRecord，不包含flv tag body的头部5字节
//
// @return: 返回的SeqHeader中的Sps和Pps为拷贝，不引用b
//
func ParseSeqHeader(b []byte) (*SeqHeader, error) {
	bc := base.NewByteCursor(b)
	if !bc.Require(6) {
		return nil, base.NewErrTruncated(6, len(b), "avc.ParseSeqHeader")
	}

	var sh SeqHeader
	sh.ConfigurationVersion, _ = bc.ReadUint8()
	sh.Profile, _ = bc.ReadUint8()
	sh.ProfileCompatibility, _ = bc.ReadUint8()
	sh.Level, _ = bc.ReadUint8()

	v, _ := bc.ReadUint8()
	sh.LengthSizeMinusOne = v & 0x03
	if sh.LengthSizeMinusOne == 2 {
		return nil, base.ErrAvcLengthSize
	}

	v, _ = bc.ReadUint8()
	if numOfSps := v & 0x1f; numOfSps != 1 {
		Log.Warnf("avc seq header sps num not 1. num=%d", numOfSps)
		return nil, base.ErrAvcSpsPpsNum
	}
	sps, err := readParamSet(bc)
	if err != nil {
		return nil, err
	}

	numOfPps, err := bc.ReadUint8()
	if err != nil {
		return nil, err
	}
	if numOfPps&0x1f != 1 {
		Log.Warnf("avc seq header pps num not 1. num=%d", numOfPps&0x1f)
		return nil, base.ErrAvcSpsPpsNum
	}
	pps, err := readParamSet(bc)
	if err != nil {
		return nil, err
	}

	sh.Sps = append([]byte(nil), sps...)
	sh.Pps = append([]byte(nil), pps...)
	return &sh, nil
}

// BuildSeqHeader 用sps和pps构造flv tag body，包含头部5字节
//
// lengthSizeMinusOne固定为3
//
func BuildSeqHeader(sps, pps []byte) ([]byte, error) {
	if len(sps) < 4 {
		return nil, base.NewErrTruncated(4, len(sps), "avc.BuildSeqHeader sps")
	}
	if len(pps) == 0 {
		return nil, base.NewErrTruncated(1, 0, "avc.BuildSeqHeader pps")
	}

	bc := base.NewByteCursor(make([]byte, 0, 16+len(sps)+len(pps)))
	bc.WriteUint8(base.RtmpAvcKeyFrame)
	bc.WriteUint8(base.RtmpAvcPacketTypeSeqHeader)
	bc.WriteUint24(0) // cts

	bc.WriteUint8(1)      // configurationVersion
	bc.WriteUint8(sps[1]) // AVCProfileIndication
	bc.WriteUint8(sps[2]) // profile_compatibility
	bc.WriteUint8(sps[3]) // AVCLevelIndication
	bc.WriteUint8(0xFF)   // reserved '111111' + lengthSizeMinusOne 3

	bc.WriteUint8(0xE1) // reserved '111' + numOfSequenceParameterSets 1
	bc.WriteUint16(uint16(len(sps)))
	bc.WriteBytes(sps)

	bc.WriteUint8(1) // numOfPictureParameterSets
	bc.WriteUint16(uint16(len(pps)))
	bc.WriteBytes(pps)
	return bc.Bytes(), nil
}

// ----- nalu payload --------------------------------------------------------------------------------------------------

// PayloadFormat flv video tag中nalu的封装格式
type PayloadFormat uint8

const (
	PayloadFormatGuess PayloadFormat = iota
	PayloadFormatAnnexb
	PayloadFormatAvcc
)

// DemuxNaluPayload 将一个flv video tag中的nalu数据拆分成多个nalu
//
// 有的推流端会在flv中塞AnnexB格式的数据，所以这里两种都兼容，每个tag单独判断
//
// 以起始码开头时按AnnexB处理
// 长度在[256, 511]之间的4字节长度前缀，比如00 00 01 2c，也满足起始码的特征，
// 所以只有当AnnexB拆分出的nalu头不合法，并且能按长度前缀完整解析时，才改用长度前缀格式
//
// @param b: 不包含flv tag body的头部5字节
//
// @return: Sample引用b的内存
//
func (sh *SeqHeader) DemuxNaluPayload(b []byte) ([]base.Sample, error) {
	samples, _, err := sh.DemuxNaluPayloadWithFormat(b, PayloadFormatGuess)
	return samples, err
}

// DemuxNaluPayloadWithFormat
//
// @param format: 为 PayloadFormatGuess 时，行为和 DemuxNaluPayload 相同
//
// @return actual: 实际使用的格式
//
func (sh *SeqHeader) DemuxNaluPayloadWithFormat(b []byte, format PayloadFormat) (samples []base.Sample, actual PayloadFormat, err error) {
	var nalus [][]byte
	actual = format
	switch format {
	case PayloadFormatAnnexb:
		nalus = SplitNaluAnnexb(b)
	case PayloadFormatAvcc:
		nalus, err = SplitNaluAvcc(b, sh.NaluLengthSize())
	default:
		nalus, actual, err = sh.guessSplit(b)
	}
	if err != nil {
		return nil, actual, err
	}

	samples = make([]base.Sample, 0, len(nalus))
	for _, nalu := range nalus {
		samples = append(samples, base.Sample{
			Payload:  nalu,
			IsBFrame: IsBFrame(nalu),
		})
	}
	return samples, actual, nil
}

func (sh *SeqHeader) guessSplit(b []byte) ([][]byte, PayloadFormat, error) {
	if ok, _ := StartsWithAnnexb(b); !ok {
		nalus, err := SplitNaluAvcc(b, sh.NaluLengthSize())
		return nalus, PayloadFormatAvcc, err
	}

	nalus := SplitNaluAnnexb(b)
	if IsPlausibleNalus(nalus) {
		return nalus, PayloadFormatAnnexb, nil
	}
	if avccNalus, err := SplitNaluAvcc(b, sh.NaluLengthSize()); err == nil && len(avccNalus) != 0 {
		return avccNalus, PayloadFormatAvcc, nil
	}
	return nalus, PayloadFormatAnnexb, nil
}

// IsPlausibleNalus 粗略检查一组nalu的头部字节是否像真实的码流
//
// 每个nalu非空，forbidden_zero_bit为0，nal_unit_type不为0
// 第一个nalu的类型在[1, 9]之间，并且nal_ref_idc和类型匹配，
// 比如IDR、SPS、PPS的nal_ref_idc不为0，SEI、AUD的nal_ref_idc为0
//
func IsPlausibleNalus(nalus [][]byte) bool {
	if len(nalus) == 0 {
		return false
	}
	for _, nalu := range nalus {
		if len(nalu) == 0 || nalu[0]&0x80 != 0 || ParseNaluType(nalu[0]) == 0 {
			return false
		}
	}

	first := nalus[0][0]
	refIdc := (first >> 5) & 0x03
	switch ParseNaluType(first) {
	case NaluTypeIdrSlice, NaluTypeSps, NaluTypePps:
		return refIdc != 0
	case NaluTypeSei, NaluTypeAud:
		return refIdc == 0
	case NaluTypeSlice, 2, 3, 4:
		return true
	}
	return false
}

// StartsWithAnnexb 是否以 N[00] 00 00 01 开头，N>=0
//
// @return n: 起始码的长度
//
func StartsWithAnnexb(b []byte) (ok bool, n int) {
	for i := 0; i+2 < len(b); i++ {
		if b[i] != 0 || b[i+1] != 0 {
			return false, 0
		}
		if b[i+2] == 1 {
			return true, i + 3
		}
	}
	return false, 0
}

// SplitNaluAnnexb
//
// 下一个起始码之前的0x00会被当作起始码的一部分，不包含在nalu中
// 长度为0的nalu被丢弃
//
func SplitNaluAnnexb(b []byte) (nalus [][]byte) {
	pos := 0
	for pos < len(b) {
		ok, n := StartsWithAnnexb(b[pos:])
		if !ok {
			return
		}
		start := pos + n

		end := len(b)
		for i := start; i+2 < len(b); i++ {
			if b[i] == 0 && b[i+1] == 0 && b[i+2] == 1 {
				end = i
				break
			}
		}
		pos = end
		for end > start && b[end-1] == 0 {
			end--
		}
		if end > start {
			nalus = append(nalus, b[start:end])
		}
	}
	return
}

// SplitNaluAvcc
//
// @param lengthSize: 长度前缀的字节数，只能是1, 2, 4
//
func SplitNaluAvcc(b []byte, lengthSize int) (nalus [][]byte, err error) {
	err = IterateNaluAvcc(b, lengthSize, func(nalu []byte) {
		nalus = append(nalus, nalu)
	})
	return
}

// IterateNaluAvcc 遍历长度前缀格式的nalu流
//
// 有错误时已经回调的nalu不撤回
//
func IterateNaluAvcc(b []byte, lengthSize int, handler func(nalu []byte)) error {
	if lengthSize != 1 && lengthSize != 2 && lengthSize != 4 {
		return base.ErrAvcLengthSize
	}

	bc := base.NewByteCursor(b)
	for !bc.Empty() {
		var naluLen int64
		switch lengthSize {
		case 4:
			v, err := bc.ReadUint32()
			if err != nil {
				return err
			}
			// 有符号数，负数说明格式有问题，见 https://github.com/ossrs/srs/issues/183
			naluLen = int64(int32(v))
		case 2:
			v, err := bc.ReadUint16()
			if err != nil {
				return err
			}
			naluLen = int64(v)
		default:
			v, _ := bc.ReadUint8()
			naluLen = int64(v)
		}
		if naluLen < 0 {
			return base.NewErrMalformed("avc: negative nalu length. len=%d, pos=%d", naluLen, bc.Pos())
		}
		nalu, err := bc.ReadBytes(int(naluLen))
		if err != nil {
			return base.NewErrMalformed("avc: nalu length overflow. len=%d, left=%d", naluLen, bc.Left())
		}
		handler(nalu)
	}
	return nil
}

// JoinNaluAvcc 使用4字节长度前缀拼接
func JoinNaluAvcc(nalus ...[]byte) []byte {
	n := len(nalus) * 4
	for _, item := range nalus {
		n += len(item)
	}
	ret := make([]byte, n)

	pos := 0
	for _, item := range nalus {
		bele.BePutUint32(ret[pos:], uint32(len(item)))
		pos += 4
		copy(ret[pos:], item)
		pos += len(item)
	}
	return ret
}

// JoinNaluAnnexb 第一个nalu使用4字节起始码，其余的使用3字节起始码
func JoinNaluAnnexb(nalus ...[]byte) []byte {
	var out []byte
	for _, nalu := range nalus {
		out = AppendNaluAnnexb(out, nalu)
	}
	return out
}

// AppendNaluAnnexb out为空时使用4字节起始码，否则使用3字节起始码
func AppendNaluAnnexb(out []byte, nalu []byte) []byte {
	if len(out) == 0 {
		out = append(out, NaluStartCode4...)
	} else {
		out = append(out, NaluStartCode3...)
	}
	return append(out, nalu...)
}

// ----- private -------------------------------------------------------------------------------------------------------

func readParamSet(bc *base.ByteCursor) ([]byte, error) {
	l, err := bc.ReadUint16()
	if err != nil {
		return nil, err
	}
	return bc.ReadBytes(int(l))
}
