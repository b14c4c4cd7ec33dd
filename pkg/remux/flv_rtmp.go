// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package remux

import (
	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/lalts/pkg/httpflv"
)

// flv tag和rtmp message之间只是头部的表示不同，body完全一样

// FlvTag2RtmpMsg
//
// flv文件中的tag可能被截断，DataSize和Raw的实际长度不一致时返回 base.ErrTruncated
//
// @return msg: msg.Payload引用tag.Raw的内存，不拷贝
//
func FlvTag2RtmpMsg(tag httpflv.Tag) (msg base.RtmpMsg, err error) {
	need := httpflv.TagHeaderSize + int(tag.Header.DataSize) + httpflv.PrevTagSizeFieldSize
	if len(tag.Raw) < need {
		return msg, base.NewErrTruncated(need, len(tag.Raw), "remux.FlvTag2RtmpMsg")
	}

	msg.Header.MsgTypeId = tag.Header.Type
	msg.Header.MsgLen = tag.Header.DataSize
	msg.Header.TimestampAbs = tag.Header.Timestamp
	msg.Payload = tag.Raw[httpflv.TagHeaderSize : httpflv.TagHeaderSize+int(tag.Header.DataSize)]
	return msg, nil
}

// RtmpMsg2FlvTag
//
// @return: tag.Raw为新申请的内存，包含11字节头和4字节prev tag size
//
func RtmpMsg2FlvTag(msg base.RtmpMsg) httpflv.Tag {
	return httpflv.Tag{
		Header: httpflv.TagHeader{
			Type:      msg.Header.MsgTypeId,
			DataSize:  uint32(len(msg.Payload)),
			Timestamp: msg.Header.TimestampAbs,
		},
		Raw: httpflv.PackHttpflvTag(msg.Header.MsgTypeId, msg.Header.TimestampAbs, msg.Payload),
	}
}
