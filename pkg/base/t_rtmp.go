// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/bele"

const (
	// RtmpTypeIdAudio spec-rtmp_specification_1.0.pdf
	// 7.1. Types of Messages
	RtmpTypeIdAudio    uint8 = 8
	RtmpTypeIdVideo    uint8 = 9
	RtmpTypeIdMetadata uint8 = 18 // RtmpTypeIdDataMessageAmf0

	// RtmpFrameTypeKey spec-video_file_format_spec_v10.pdf
	// Video tags
	//   VIDEODATA
	//     FrameType UB[4]
	//     CodecId   UB[4]
	//   AVCVIDEOPACKET
	//     AVCPacketType   UI8
	//     CompositionTime SI24
	//     Data            UI8[n]
	RtmpFrameTypeKey   uint8 = 1
	RtmpFrameTypeInter uint8 = 2

	RtmpCodecIdAvc uint8 = 7

	// RtmpAvcPacketTypeSeqHeader RtmpAvcPacketTypeNalu
	// 注意，按照标准文档上描述，PacketType还有可能为2：
	// 2: AVC end of sequence (lower level NALU sequence ender is not required or supported)
	//
	RtmpAvcPacketTypeSeqHeader   uint8 = 0
	RtmpAvcPacketTypeNalu        uint8 = 1
	RtmpAvcPacketTypeEndSequence uint8 = 2

	RtmpAvcKeyFrame   = RtmpFrameTypeKey<<4 | RtmpCodecIdAvc
	RtmpAvcInterFrame = RtmpFrameTypeInter<<4 | RtmpCodecIdAvc

	// RtmpSoundFormatAac spec-video_file_format_spec_v10.pdf
	// Audio tags
	//   AUDIODATA
	//     SoundFormat UB[4]
	//     SoundRate   UB[2]
	//     SoundSize   UB[1]
	//     SoundType   UB[1]
	//   AACAUDIODATA
	//     AACPacketType UI8
	//     Data          UI8[n]
	RtmpSoundFormatAac         uint8 = 10 // 注意，视频的CodecId是后4位，音频是前4位
	RtmpAacPacketTypeSeqHeader uint8 = 0
	RtmpAacPacketTypeRaw       uint8 = 1

	// RtmpAacAudioDataByte1 AAC固定使用 44kHz, 16bit, stereo，即 0xaf
	RtmpAacAudioDataByte1 = RtmpSoundFormatAac<<4 | 0x0F

	RtmpAvcVideoHeaderSize = 5
	RtmpAacAudioHeaderSize = 2
)

type RtmpHeader struct {
	MsgLen       uint32 // 不包含header的大小
	MsgTypeId    uint8  // 8 audio 9 video 18 metadata
	TimestampAbs uint32 // dts, 流上的绝对时间戳，单位毫秒
}

// RtmpMsg FLV tag或者RTMP message，Payload为FLV tag body格式
type RtmpMsg struct {
	Header  RtmpHeader
	Payload []byte
}

func MakeRtmpMsg(typeId uint8, timestampMs uint32, payload []byte) RtmpMsg {
	return RtmpMsg{
		Header: RtmpHeader{
			MsgLen:       uint32(len(payload)),
			MsgTypeId:    typeId,
			TimestampAbs: timestampMs,
		},
		Payload: payload,
	}
}

func (msg RtmpMsg) IsAvcKeySeqHeader() bool {
	return msg.Header.MsgTypeId == RtmpTypeIdVideo && len(msg.Payload) >= 2 &&
		msg.Payload[0] == RtmpAvcKeyFrame && msg.Payload[1] == RtmpAvcPacketTypeSeqHeader
}

func (msg RtmpMsg) IsAvcKeyNalu() bool {
	return msg.Header.MsgTypeId == RtmpTypeIdVideo && len(msg.Payload) >= 2 &&
		msg.Payload[0] == RtmpAvcKeyFrame && msg.Payload[1] == RtmpAvcPacketTypeNalu
}

func (msg RtmpMsg) IsAacSeqHeader() bool {
	return msg.Header.MsgTypeId == RtmpTypeIdAudio && len(msg.Payload) >= 2 &&
		(msg.Payload[0]>>4) == RtmpSoundFormatAac && msg.Payload[1] == RtmpAacPacketTypeSeqHeader
}

func (msg RtmpMsg) VideoCodecId() uint8 {
	return msg.Payload[0] & 0xF
}

func (msg RtmpMsg) AudioCodecId() uint8 {
	return msg.Payload[0] >> 4
}

func (msg RtmpMsg) Clone() (ret RtmpMsg) {
	ret.Header = msg.Header
	ret.Payload = make([]byte, len(msg.Payload))
	copy(ret.Payload, msg.Payload)
	return
}

func (msg RtmpMsg) Dts() uint32 {
	return msg.Header.TimestampAbs
}

// Pts
//
// 注意，只有视频才能调用该函数获取pts，音频的dts和pts都直接使用 RtmpMsg.Header.TimestampAbs
//
func (msg RtmpMsg) Pts() uint32 {
	return msg.Header.TimestampAbs + bele.BeUint24(msg.Payload[2:])
}
