// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"github.com/q191201771/naza/pkg/bele"
)

// ByteCursor 在一块内存上按大端序读写
//
// 所有多字节读取前都会检查剩余长度，不够时返回 ErrTruncated，不会越界
// 写入时内存不够会自动扩容
//
type ByteCursor struct {
	b   []byte
	pos int
}

// NewByteCursor
//
// @param b: 内部直接持有，不拷贝
//
func NewByteCursor(b []byte) *ByteCursor {
	return &ByteCursor{
		b: b,
	}
}

// Require 从当前位置开始，是否还有至少n字节可读
func (bc *ByteCursor) Require(n int) bool {
	return n >= 0 && bc.pos+n <= len(bc.b)
}

// Skip
//
// @param n: 可以为负数，表示回退。比如先读1字节看类型，再回退重新按类型解析
//
func (bc *ByteCursor) Skip(n int) error {
	np := bc.pos + n
	if np < 0 || np > len(bc.b) {
		return NewErrTruncated(n, bc.Left(), "ByteCursor.Skip")
	}
	bc.pos = np
	return nil
}

func (bc *ByteCursor) Pos() int {
	return bc.pos
}

func (bc *ByteCursor) Left() int {
	return len(bc.b) - bc.pos
}

func (bc *ByteCursor) Empty() bool {
	return bc.pos >= len(bc.b)
}

// Bytes 整块内存，不受当前位置影响
func (bc *ByteCursor) Bytes() []byte {
	return bc.b
}

// Remaining 从当前位置到结尾
func (bc *ByteCursor) Remaining() []byte {
	return bc.b[bc.pos:]
}

// ----- read ----------------------------------------------------------------------------------------------------------

func (bc *ByteCursor) ReadUint8() (uint8, error) {
	if !bc.Require(1) {
		return 0, NewErrTruncated(1, bc.Left(), "ByteCursor.ReadUint8")
	}
	v := bc.b[bc.pos]
	bc.pos++
	return v, nil
}

// PeekUint8 读取但不移动位置
func (bc *ByteCursor) PeekUint8() (uint8, error) {
	if !bc.Require(1) {
		return 0, NewErrTruncated(1, bc.Left(), "ByteCursor.PeekUint8")
	}
	return bc.b[bc.pos], nil
}

func (bc *ByteCursor) ReadUint16() (uint16, error) {
	if !bc.Require(2) {
		return 0, NewErrTruncated(2, bc.Left(), "ByteCursor.ReadUint16")
	}
	v := bele.BeUint16(bc.b[bc.pos:])
	bc.pos += 2
	return v, nil
}

func (bc *ByteCursor) ReadUint24() (uint32, error) {
	if !bc.Require(3) {
		return 0, NewErrTruncated(3, bc.Left(), "ByteCursor.ReadUint24")
	}
	v := bele.BeUint24(bc.b[bc.pos:])
	bc.pos += 3
	return v, nil
}

func (bc *ByteCursor) ReadUint32() (uint32, error) {
	if !bc.Require(4) {
		return 0, NewErrTruncated(4, bc.Left(), "ByteCursor.ReadUint32")
	}
	v := bele.BeUint32(bc.b[bc.pos:])
	bc.pos += 4
	return v, nil
}

func (bc *ByteCursor) ReadUint64() (uint64, error) {
	if !bc.Require(8) {
		return 0, NewErrTruncated(8, bc.Left(), "ByteCursor.ReadUint64")
	}
	v := bele.BeUint64(bc.b[bc.pos:])
	bc.pos += 8
	return v, nil
}

// ReadBytes
//
// @return: 指向内部内存块，调用方如果需要长期持有，需自行拷贝
//
func (bc *ByteCursor) ReadBytes(n int) ([]byte, error) {
	if !bc.Require(n) {
		return nil, NewErrTruncated(n, bc.Left(), "ByteCursor.ReadBytes")
	}
	v := bc.b[bc.pos : bc.pos+n]
	bc.pos += n
	return v, nil
}

// ----- write ---------------------------------------------------------------------------------------------------------

func (bc *ByteCursor) WriteUint8(v uint8) {
	bc.grow(1)
	bc.b[bc.pos] = v
	bc.pos++
}

func (bc *ByteCursor) WriteUint16(v uint16) {
	bc.grow(2)
	bele.BePutUint16(bc.b[bc.pos:], v)
	bc.pos += 2
}

func (bc *ByteCursor) WriteUint24(v uint32) {
	bc.grow(3)
	bele.BePutUint24(bc.b[bc.pos:], v)
	bc.pos += 3
}

func (bc *ByteCursor) WriteUint32(v uint32) {
	bc.grow(4)
	bele.BePutUint32(bc.b[bc.pos:], v)
	bc.pos += 4
}

func (bc *ByteCursor) WriteUint64(v uint64) {
	bc.grow(8)
	bele.BePutUint64(bc.b[bc.pos:], v)
	bc.pos += 8
}

func (bc *ByteCursor) WriteBytes(v []byte) {
	bc.grow(len(v))
	copy(bc.b[bc.pos:], v)
	bc.pos += len(v)
}

// ----- private -------------------------------------------------------------------------------------------------------

func (bc *ByteCursor) grow(n int) {
	need := bc.pos + n
	if need <= len(bc.b) {
		return
	}
	if need <= cap(bc.b) {
		bc.b = bc.b[:need]
		return
	}
	nb := make([]byte, need, need*2)
	copy(nb, bc.b)
	bc.b = nb
}
