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
	"testing"

	"github.com/q191201771/naza/pkg/assert"
)

func TestByteCursor(t *testing.T) {
	bc := NewByteCursor(nil)
	bc.WriteUint8(1)
	bc.WriteUint16(0x0203)
	bc.WriteUint24(0x040506)
	bc.WriteUint32(0x0708090a)
	bc.WriteUint64(0x0b0c0d0e0f101112)
	bc.WriteBytes([]byte{0x13, 0x14})
	assert.Equal(t, 20, bc.Pos())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 0xa, 0xb, 0xc, 0xd, 0xe, 0xf, 0x10, 0x11, 0x12, 0x13, 0x14}, bc.Bytes())

	rc := NewByteCursor(bc.Bytes())
	v8, err := rc.ReadUint8()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(1), v8)
	v16, err := rc.ReadUint16()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x0203), v16)
	v24, err := rc.ReadUint24()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint32(0x040506), v24)
	v32, err := rc.ReadUint32()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint32(0x0708090a), v32)
	v64, err := rc.ReadUint64()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint64(0x0b0c0d0e0f101112), v64)
	b, err := rc.ReadBytes(2)
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte{0x13, 0x14}, b)
	assert.Equal(t, true, rc.Empty())
}

func TestByteCursorTruncated(t *testing.T) {
	bc := NewByteCursor([]byte{1, 2, 3})
	_, err := bc.ReadUint32()
	assert.Equal(t, true, errors.Is(err, ErrTruncated))
	// 失败的读取不移动位置
	assert.Equal(t, 0, bc.Pos())

	_, err = bc.ReadUint24()
	assert.Equal(t, nil, err)
	_, err = bc.ReadUint8()
	assert.Equal(t, true, errors.Is(err, ErrTruncated))
	_, err = bc.ReadBytes(1)
	assert.Equal(t, true, errors.Is(err, ErrTruncated))
	_, err = bc.ReadBytes(-1)
	assert.Equal(t, true, errors.Is(err, ErrTruncated))
	assert.Equal(t, false, bc.Require(1))
	assert.Equal(t, true, bc.Require(0))
}

func TestByteCursorSkip(t *testing.T) {
	bc := NewByteCursor([]byte{0x47, 0x40, 0x00})
	v, err := bc.ReadUint8()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(0x47), v)
	assert.Equal(t, nil, bc.Skip(-1))
	assert.Equal(t, 0, bc.Pos())

	err = bc.Skip(-1)
	assert.Equal(t, true, errors.Is(err, ErrTruncated))
	err = bc.Skip(4)
	assert.Equal(t, true, errors.Is(err, ErrTruncated))
	assert.Equal(t, nil, bc.Skip(3))
	assert.Equal(t, 0, bc.Left())

	p, err := NewByteCursor([]byte{9}).PeekUint8()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(9), p)
}
