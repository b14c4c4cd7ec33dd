// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package remux

import (
	"errors"
	"testing"

	"github.com/q191201771/lalts/pkg/aac"
	"github.com/q191201771/lalts/pkg/avc"
	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
)

func TestFrameAssemblerVideo(t *testing.T) {
	a := NewFrameAssembler()
	assert.Equal(t, StreamStateAwaitingSequenceHeader, a.VideoState())

	idr := makeNalu(0x65, 100)
	nalu := makeVideoNaluMsg(40, 40, true, idr)

	frame, err := a.OnVideoTag(nalu.Header.TimestampAbs, nalu.Payload)
	assert.Equal(t, true, errors.Is(err, base.ErrSequenceHeaderMissing))
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))
	assert.Equal(t, (*base.Frame)(nil), frame)

	sh := makeVideoSeqHeaderMsg(t, 0, goldenSps, goldenPps)
	frame, err = a.OnVideoTag(0, sh.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, (*base.Frame)(nil), frame)
	assert.Equal(t, StreamStateStreaming, a.VideoState())
	assert.Equal(t, goldenSps, a.VideoConfig().Sps)
	assert.Equal(t, goldenPps, a.VideoConfig().Pps)

	frame, err = a.OnVideoTag(nalu.Header.TimestampAbs, nalu.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint64(40*90), frame.Dts)
	assert.Equal(t, uint64(80*90), frame.Pts)
	assert.Equal(t, true, frame.Key)
	assert.Equal(t, base.CodecKindAvc, frame.CodecKind())
	assert.Equal(t, 1, len(frame.Samples))
	assert.Equal(t, idr, frame.Samples[0].Payload)

	// frame type为inter，但是包含IDR
	inter := makeVideoNaluMsg(80, 0, false, makeNalu(0x06, 10), idr)
	frame, err = a.OnVideoTag(inter.Header.TimestampAbs, inter.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, frame.Key)
	assert.Equal(t, 2, len(frame.Samples))

	// end of sequence
	frame, err = a.OnVideoTag(120, []byte{0x17, 0x02, 0x00, 0x00, 0x00})
	assert.Equal(t, nil, err)
	assert.Equal(t, (*base.Frame)(nil), frame)
}

func TestFrameAssemblerNegativeCts(t *testing.T) {
	a := NewFrameAssembler()
	sh := makeVideoSeqHeaderMsg(t, 0, goldenSps, goldenPps)
	_, err := a.OnVideoTag(0, sh.Payload)
	assert.Equal(t, nil, err)

	// cts -40
	msg := makeVideoNaluMsg(100, 0xFFFFD8, false, makeNalu(0x41, 10))
	frame, err := a.OnVideoTag(msg.Header.TimestampAbs, msg.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint64(100*90), frame.Dts)
	assert.Equal(t, uint64(60*90), frame.Pts)

	// pts小于0时使用dts
	msg = makeVideoNaluMsg(10, 0xFFFFD8, false, makeNalu(0x41, 10))
	frame, err = a.OnVideoTag(msg.Header.TimestampAbs, msg.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint64(10*90), frame.Pts)
}

// 长度前缀为2字节，以及AnnexB格式的payload，得到的nalu和4字节长度前缀相同
func TestFrameAssemblerNaluFraming(t *testing.T) {
	sei := makeNalu(0x06, 10)
	idr := makeNalu(0x65, 300)

	sh := makeVideoSeqHeaderMsg(t, 0, goldenSps, goldenPps)
	// lengthSizeMinusOne 3 -> 1
	sh.Payload[base.RtmpAvcVideoHeaderSize+4] = 0xFD

	a := NewFrameAssembler()
	_, err := a.OnVideoTag(0, sh.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, a.VideoConfig().NaluLengthSize())

	payload := []byte{base.RtmpAvcKeyFrame, base.RtmpAvcPacketTypeNalu, 0, 0, 0}
	payload = append(payload, 0x00, byte(len(sei)))
	payload = append(payload, sei...)
	payload = append(payload, byte(len(idr)>>8), byte(len(idr)))
	payload = append(payload, idr...)
	frame, err := a.OnVideoTag(0, payload)
	assert.Equal(t, nil, err)
	assert.IsNotNil(t, frame)
	if frame == nil {
		return
	}
	assert.Equal(t, 2, len(frame.Samples))
	assert.Equal(t, sei, frame.Samples[0].Payload)
	assert.Equal(t, idr, frame.Samples[1].Payload)

	annexb := []byte{base.RtmpAvcKeyFrame, base.RtmpAvcPacketTypeNalu, 0, 0, 0}
	annexb = append(annexb, avc.JoinNaluAnnexb(sei, idr)...)
	frame2, err := a.OnVideoTag(0, annexb)
	assert.Equal(t, nil, err)
	if frame2 != nil {
		assert.Equal(t, frame.Samples, frame2.Samples)
	}

	// 长度溢出
	payload[len(payload)-len(idr)-2] = 0xFF
	_, err = a.OnVideoTag(0, payload)
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))
}

// 长度前缀格式的tag之后出现AnnexB格式的tag，以及再切换回来
func TestFrameAssemblerMixedNaluFraming(t *testing.T) {
	a := NewFrameAssembler()
	sh := makeVideoSeqHeaderMsg(t, 0, goldenSps, goldenPps)
	_, err := a.OnVideoTag(0, sh.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, 4, a.VideoConfig().NaluLengthSize())

	sei := makeNalu(0x06, 10)
	idr := makeNalu(0x65, 300)
	slice := makeNalu(0x41, 20)

	for i := 0; i < 3; i++ {
		msg := makeVideoNaluMsg(uint32(i*40), 0, true, sei, idr)
		frame, err := a.OnVideoTag(msg.Header.TimestampAbs, msg.Payload)
		assert.Equal(t, nil, err)
		if frame != nil {
			assert.Equal(t, 2, len(frame.Samples))
			assert.Equal(t, idr, frame.Samples[1].Payload)
		}
	}

	annexb := []byte{base.RtmpAvcInterFrame, base.RtmpAvcPacketTypeNalu, 0, 0, 0}
	annexb = append(annexb, avc.JoinNaluAnnexb(slice)...)
	frame, err := a.OnVideoTag(120, annexb)
	assert.Equal(t, nil, err)
	if frame != nil {
		assert.Equal(t, 1, len(frame.Samples))
		assert.Equal(t, slice, frame.Samples[0].Payload)
		assert.Equal(t, false, frame.Key)
	}

	msg := makeVideoNaluMsg(160, 0, false, slice)
	frame, err = a.OnVideoTag(msg.Header.TimestampAbs, msg.Payload)
	assert.Equal(t, nil, err)
	if frame != nil {
		assert.Equal(t, 1, len(frame.Samples))
		assert.Equal(t, slice, frame.Samples[0].Payload)
	}
}

func TestFrameAssemblerInbandSpsPps(t *testing.T) {
	a := NewFrameAssembler()
	sh := makeVideoSeqHeaderMsg(t, 0, goldenSps, goldenPps)
	_, err := a.OnVideoTag(0, sh.Payload)
	assert.Equal(t, nil, err)
	old := a.VideoConfig()

	msg := makeVideoNaluMsg(40, 0, true, goldenSps, goldenPps2, makeNalu(0x65, 10))
	frame, err := a.OnVideoTag(msg.Header.TimestampAbs, msg.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, goldenPps2, a.VideoConfig().Pps)
	assert.Equal(t, goldenSps, a.VideoConfig().Sps)
	assert.Equal(t, a.VideoConfig(), frame.Config.(*avc.SeqHeader))
	// 旧的配置不被修改
	assert.Equal(t, goldenPps, old.Pps)
}

func TestFrameAssemblerAudio(t *testing.T) {
	a := NewFrameAssembler()
	assert.Equal(t, StreamStateAwaitingSequenceHeader, a.AudioState())

	raw := makeAudioRawMsg(23, 100)
	_, err := a.OnAudioTag(raw.Header.TimestampAbs, raw.Payload)
	assert.Equal(t, true, errors.Is(err, base.ErrSequenceHeaderMissing))

	sh := makeAudioSeqHeaderMsg(t, 0)
	frame, err := a.OnAudioTag(0, sh.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, (*base.Frame)(nil), frame)
	assert.Equal(t, StreamStateStreaming, a.AudioState())
	assert.Equal(t, aac.AacObjectTypeLc, a.AudioConfig().AudioObjectType)

	frame, err = a.OnAudioTag(raw.Header.TimestampAbs, raw.Payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint64(23*90), frame.Dts)
	assert.Equal(t, frame.Dts, frame.Pts)
	assert.Equal(t, false, frame.Key)
	assert.Equal(t, base.CodecKindAac, frame.CodecKind())
	assert.Equal(t, raw.Payload[2:], frame.Samples[0].Payload)
}

func TestFrameAssemblerError(t *testing.T) {
	a := NewFrameAssembler()

	_, err := a.OnVideoTag(0, []byte{0x17, 0x01})
	assert.Equal(t, true, errors.Is(err, base.ErrTruncated))

	// hevc
	_, err = a.OnVideoTag(0, []byte{0x1C, 0x01, 0x00, 0x00, 0x00})
	assert.Equal(t, true, errors.Is(err, base.ErrUnsupportedCodec))

	_, err = a.OnVideoTag(0, []byte{0x17, 0x05, 0x00, 0x00, 0x00})
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))

	// mp3
	_, err = a.OnAudioTag(0, []byte{0x2F, 0xFF, 0xFB})
	assert.Equal(t, true, errors.Is(err, base.ErrUnsupportedCodec))

	_, err = a.OnAudioTag(0, nil)
	assert.Equal(t, true, errors.Is(err, base.ErrTruncated))

	_, err = a.OnAudioTag(0, []byte{0xAF})
	assert.Equal(t, true, errors.Is(err, base.ErrTruncated))

	// samplingFrequencyIndex 15
	_, err = a.OnAudioTag(0, []byte{0xAF, 0x00, 0x17, 0x90})
	assert.Equal(t, true, errors.Is(err, base.ErrMalformed))
}
