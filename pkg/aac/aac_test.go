// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package aac_test

import (
	"errors"
	"testing"

	"github.com/q191201771/lalts/pkg/aac"
	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
)

// AAC-LC 44100 stereo
var (
	goldenAsc        = []byte{0x12, 0x10}
	goldenAdtsHeader = []byte{0xFF, 0xF1, 0x50, 0x80, 0x0D, 0x7F, 0xFC} // frame_length=107
)

func makeRaw(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = uint8(i)
	}
	return b
}

func TestAscContext(t *testing.T) {
	ascCtx, err := aac.NewAscContext(goldenAsc)
	assert.Equal(t, nil, err)
	assert.Equal(t, aac.AacObjectTypeLc, ascCtx.AudioObjectType)
	assert.Equal(t, uint8(aac.AscSamplingFrequencyIndex44100), ascCtx.SamplingFrequencyIndex)
	assert.Equal(t, uint8(2), ascCtx.ChannelConfiguration)
	assert.Equal(t, goldenAsc, ascCtx.Pack())
	assert.Equal(t, base.CodecKindAac, ascCtx.CodecKind())

	sf, err := ascCtx.GetSamplingFrequency()
	assert.Equal(t, nil, err)
	assert.Equal(t, 44100, sf)

	ascCtx, err = aac.NewAscContext([]byte{0x11, 0x90})
	assert.Equal(t, nil, err)
	sf, err = ascCtx.GetSamplingFrequency()
	assert.Equal(t, nil, err)
	assert.Equal(t, 48000, sf)
}

func TestAscContextInvalid(t *testing.T) {
	// samplingFrequencyIndex 15
	_, err := aac.NewAscContext([]byte{0x17, 0x90})
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))
	assert.Equal(t, true, errors.Is(err, base.ErrSamplingFrequencyIndex))

	_, err = aac.NewAscContext([]byte{0x12})
	assert.Equal(t, true, errors.Is(err, base.ErrTruncated))

	// samplingFrequencyIndex 13 是保留值
	ascCtx, err := aac.NewAscContext([]byte{0x16, 0x90})
	assert.Equal(t, nil, err)
	_, err = ascCtx.GetSamplingFrequency()
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))
}

func TestPackAdtsHeader(t *testing.T) {
	ascCtx, _ := aac.NewAscContext(goldenAsc)
	assert.Equal(t, goldenAdtsHeader, ascCtx.PackAdtsHeader(100))

	err := ascCtx.PackToAdtsHeader(make([]byte, 6), 100)
	assert.Equal(t, true, errors.Is(err, base.ErrTruncated))

	// HE-AAC的ADTS profile写为LC
	he := aac.AscContext{AudioObjectType: aac.AacObjectTypeHe, SamplingFrequencyIndex: 4, ChannelConfiguration: 2}
	assert.Equal(t, goldenAdtsHeader, he.PackAdtsHeader(100))
}

func TestParseAdts(t *testing.T) {
	raw := makeRaw(100)
	buf := append(append([]byte{}, goldenAdtsHeader...), raw...)
	buf = append(buf, 0xFF)

	sample, consumed, err := aac.ParseAdts(buf)
	assert.Equal(t, nil, err)
	assert.Equal(t, 107, consumed)
	assert.Equal(t, raw, sample.Payload)
	assert.Equal(t, 100, sample.Size())

	ctx, err := aac.NewAdtsHeaderContext(buf)
	assert.Equal(t, nil, err)
	assert.Equal(t, aac.AscContext{AudioObjectType: 2, SamplingFrequencyIndex: 4, ChannelConfiguration: 2}, ctx.AscCtx)
	assert.Equal(t, uint16(107), ctx.AdtsLength)
	assert.Equal(t, aac.AdtsHeaderLength, ctx.HeaderLength())
}

func TestParseAdtsInvalid(t *testing.T) {
	// frame_length超过剩余长度
	buf := append(append([]byte{}, goldenAdtsHeader...), makeRaw(50)...)
	_, _, err := aac.ParseAdts(buf)
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))

	// frame_length小于头长度
	ascCtx, _ := aac.NewAscContext(goldenAsc)
	h := make([]byte, aac.AdtsHeaderLength)
	_ = ascCtx.PackToAdtsHeader(h, -2)
	_, _, err = aac.ParseAdts(append(h, makeRaw(10)...))
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))

	// syncword
	_, _, err = aac.ParseAdts([]byte{0xFF, 0x01, 0x50, 0x80, 0x0D, 0x7F, 0xFC})
	assert.Equal(t, true, errors.Is(err, base.ErrAdtsSyncword))

	_, _, err = aac.ParseAdts(goldenAdtsHeader[:6])
	assert.Equal(t, true, errors.Is(err, base.ErrTruncated))
}

func TestIterateAdts(t *testing.T) {
	ascCtx, _ := aac.NewAscContext(goldenAsc)
	var buf []byte
	for _, n := range []int{10, 20, 30} {
		buf = append(buf, ascCtx.PackAdtsHeader(n)...)
		buf = append(buf, makeRaw(n)...)
	}

	var sizes []int
	err := aac.IterateAdts(buf, func(ctx *aac.AdtsHeaderContext, sample base.Sample) {
		assert.Equal(t, *ascCtx, ctx.AscCtx)
		sizes = append(sizes, sample.Size())
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, []int{10, 20, 30}, sizes)

	err = aac.IterateAdts(buf[:len(buf)-1], func(ctx *aac.AdtsHeaderContext, sample base.Sample) {})
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))
}

func TestDemuxRawFrame(t *testing.T) {
	_, err := aac.DemuxRawFrame(nil, []byte{1, 2, 3})
	assert.Equal(t, true, errors.Is(err, base.ErrMissingSequenceHeader))
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))

	ascCtx, _ := aac.NewAscContext(goldenAsc)
	sample, err := aac.DemuxRawFrame(ascCtx, []byte{1, 2, 3})
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte{1, 2, 3}, sample.Payload)
}

func TestSeqHeader(t *testing.T) {
	b, err := aac.MakeAudioDataSeqHeaderWithAdtsHeader(goldenAdtsHeader)
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte{0xaf, 0x00, 0x12, 0x10}, b)

	var shCtx aac.SequenceHeaderContext
	assert.Equal(t, nil, shCtx.Unpack(b))
	assert.Equal(t, base.RtmpSoundFormatAac, shCtx.SoundFormat)
	assert.Equal(t, uint8(3), shCtx.SoundRate)
	assert.Equal(t, uint8(1), shCtx.SoundSize)
	assert.Equal(t, uint8(1), shCtx.SoundType)
	assert.Equal(t, base.RtmpAacPacketTypeSeqHeader, shCtx.AacPacketType)

	assert.Equal(t, []byte{0xaf, 0x01, 0x07}, aac.MakeAudioDataRaw([]byte{0x07}))

	// MP3
	assert.Equal(t, nil, shCtx.Unpack([]byte{0x2f}))
	assert.Equal(t, uint8(2), shCtx.SoundFormat)

	assert.Equal(t, true, errors.Is(shCtx.Unpack([]byte{0xaf}), base.ErrTruncated))
}
