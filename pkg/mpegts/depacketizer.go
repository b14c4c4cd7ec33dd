// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/naza/pkg/nazabytes"
)

// ElementaryMessage 一个PES的payload，比如一帧AnnexB格式的视频，或者一个或多个ADTS frame
type ElementaryMessage struct {
	Pid        uint16
	Kind       PidKind
	StreamType uint8
	StreamId   uint8

	Dts uint64 // 90kHz
	Pts uint64 // 90kHz

	// Key 首个TS packet的random_access_indicator
	Key bool

	// Bounded PES_packet_length不为0
	// 为false时长度不定，直到下一个payload_unit_start_indicator
	Bounded bool

	// DeclaredSize PES头中声明的payload长度，Bounded为false时为0
	DeclaredSize int

	Payload []byte
}

func (msg *ElementaryMessage) CodecKind() base.CodecKind {
	switch msg.StreamType {
	case StreamTypeAvc:
		return base.CodecKindAvc
	case StreamTypeAac:
		return base.CodecKindAac
	}
	return base.CodecKindUnknown
}

// Completed 长度确定的PES，数据已经收齐
func (msg *ElementaryMessage) Completed() bool {
	return msg.Bounded && len(msg.Payload) >= msg.DeclaredSize
}

func (msg *ElementaryMessage) String() string {
	return fmt.Sprintf("ElementaryMessage{pid=0x%x, kind=%s, sid=0x%x, dts=%d, pts=%d, key=%t, bounded=%t, declared=%d, size=%d}",
		msg.Pid, msg.Kind, msg.StreamId, msg.Dts, msg.Pts, msg.Key, msg.Bounded, msg.DeclaredSize, len(msg.Payload))
}

// PidEntry PID表中的一项
type PidEntry struct {
	Pid        uint16
	Kind       PidKind
	StreamType uint8 // 只有Video和Audio有效

	cc      uint8
	ccValid bool

	msg *ElementaryMessage // 正在组装的PES
}

type OnElementaryMessage func(msg *ElementaryMessage)

type TsDepacketizerOption struct {
	// MaxDesyncCount 连续多少次sync_byte错误后 Feed 返回 ErrDesync，0表示一直重新同步
	MaxDesyncCount int

	// DebugDumpMaxNum 日志级别为debug时，出错打印原始数据的最大次数
	DebugDumpMaxNum int
}

var defaultTsDepacketizerOption = TsDepacketizerOption{
	MaxDesyncCount:  16,
	DebugDumpMaxNum: 8,
}

type ModTsDepacketizerOption func(option *TsDepacketizerOption)

// TsDepacketizer 解析TS流，按PID组装PES
//
// 每个session一个，非并发安全
//
type TsDepacketizer struct {
	uniqueKey string
	option    TsDepacketizerOption

	onMessage OnElementaryMessage

	pids map[uint16]*PidEntry

	buf         *nazabytes.Buffer // 不足一个TS packet的数据留到下次 Feed
	desyncCount int

	logDump base.LogDump
}

func NewTsDepacketizer(modOptions ...ModTsDepacketizerOption) *TsDepacketizer {
	option := defaultTsDepacketizerOption
	for _, fn := range modOptions {
		fn(&option)
	}

	uk := base.GenUkTsDepacketizer()
	Log.Debugf("[%s] lifecycle new ts depacketizer. option=%+v", uk, option)
	pids := make(map[uint16]*PidEntry)
	pids[PidPat] = &PidEntry{Pid: PidPat, Kind: PidKindPat}
	return &TsDepacketizer{
		uniqueKey: uk,
		option:    option,
		pids:      pids,
		buf:       nazabytes.NewBuffer(PacketSize * 64),
		logDump:   base.NewLogDump(Log, option.DebugDumpMaxNum),
	}
}

// WithOnMessage 每组装好一个PES回调一次，回调结束后内部不再持有msg
func (d *TsDepacketizer) WithOnMessage(fn OnElementaryMessage) *TsDepacketizer {
	d.onMessage = fn
	return d
}

func (d *TsDepacketizer) UniqueKey() string {
	return d.uniqueKey
}

// Feed 输入任意长度的TS流
//
// 单个packet解析失败只打日志并丢弃该packet
// 只有连续失去同步超过 TsDepacketizerOption.MaxDesyncCount 次时才返回 ErrDesync
//
// @param b: 函数调用结束后，内部不持有该内存块
//
func (d *TsDepacketizer) Feed(b []byte) error {
	d.buf.Write(b)

	for d.buf.Len() >= PacketSize {
		rb := d.buf.Bytes()
		if rb[0] != SyncByte {
			d.desyncCount++
			Log.Warnf("[%s] ts desync. count=%d, byte=0x%x", d.uniqueKey, d.desyncCount, rb[0])
			if d.option.MaxDesyncCount > 0 && d.desyncCount > d.option.MaxDesyncCount {
				return base.NewErrDesync(rb[0])
			}

			// 向后找到下一个0x47
			i := bytes.IndexByte(rb, SyncByte)
			if i < 0 {
				d.buf.Reset()
				return nil
			}
			d.buf.Skip(i)
			continue
		}
		d.desyncCount = 0

		if err := d.DecodePacket(rb[:PacketSize]); err != nil {
			Log.Warnf("[%s] decode ts packet failed. err=%+v", d.uniqueKey, err)
			d.logDump.OutBytes("ts packet", rb[:PacketSize])
		}
		d.buf.Skip(PacketSize)
	}
	return nil
}

// DecodePacket 解析一个188字节的TS packet
//
// @param packet: 函数调用结束后，内部不持有该内存块
//
func (d *TsDepacketizer) DecodePacket(packet []byte) error {
	if len(packet) < PacketSize {
		return base.NewErrTruncated(PacketSize, len(packet), "mpegts.DecodePacket")
	}
	h, err := ParseTsPacketHeader(packet)
	if err != nil {
		return err
	}
	if h.Pid == PidNull {
		return nil
	}

	pos := PacketHeaderSize
	var af AdaptationField
	if h.HasAdaptation() {
		var n int
		if af, n, err = ParseAdaptationField(packet[pos:PacketSize], h.Adaptation); err != nil {
			return err
		}
		pos += n
	}

	entry, ok := d.pids[h.Pid]
	if !ok {
		// 没在PAT/PMT中出现过的PID直接忽略
		return nil
	}

	if h.HasPayload() {
		if entry.ccValid && !af.DiscontinuityIndicator {
			expected := (entry.cc + 1) & 0x0F
			if h.Cc == entry.cc {
				// 重复的packet
				Log.Debugf("[%s] duplicate ts packet. pid=0x%x, cc=%d", d.uniqueKey, h.Pid, h.Cc)
				return nil
			}
			if h.Cc != expected {
				Log.Warnf("[%s] ts continuity_counter discontinuity. pid=0x%x, expected=%d, actual=%d",
					d.uniqueKey, h.Pid, expected, h.Cc)
				entry.msg = nil
			}
		}
		entry.cc = h.Cc
		entry.ccValid = true
	}

	if !h.HasPayload() || pos >= PacketSize {
		return nil
	}
	payload := packet[pos:PacketSize]

	switch entry.Kind {
	case PidKindPat:
		return d.decodePat(h, payload)
	case PidKindPmt:
		return d.decodePmt(h, payload)
	case PidKindVideo, PidKindAudio:
		return d.decodePes(entry, h, &af, payload)
	}
	return nil
}

// Flush 输入结束
//
// 长度不定的PES直接回调
// 长度确定但数据不完整的PES丢弃，并返回 ErrTruncated
//
func (d *TsDepacketizer) Flush() error {
	var err error
	for _, pid := range d.sortedPids() {
		entry := d.pids[pid]
		msg := entry.msg
		if msg == nil {
			continue
		}
		if !msg.Bounded {
			if len(msg.Payload) != 0 {
				d.emit(entry)
			}
			entry.msg = nil
			continue
		}
		Log.Warnf("[%s] drop incomplete pes when flush. msg=%s", d.uniqueKey, msg.String())
		err = base.NewErrTruncated(msg.DeclaredSize, len(msg.Payload), "mpegts.TsDepacketizer.Flush")
		entry.msg = nil
	}
	d.buf.Reset()
	return err
}

// StreamPids PMT中发现的音视频PID
func (d *TsDepacketizer) StreamPids() map[uint16]PidKind {
	ret := make(map[uint16]PidKind)
	for pid, entry := range d.pids {
		if entry.Kind == PidKindVideo || entry.Kind == PidKindAudio {
			ret[pid] = entry.Kind
		}
	}
	return ret
}

// PidKindOf 没有注册过的PID返回 PidKindReserved, false
func (d *TsDepacketizer) PidKindOf(pid uint16) (PidKind, bool) {
	entry, ok := d.pids[pid]
	if !ok {
		return PidKindReserved, false
	}
	return entry.Kind, true
}

// ----- private -------------------------------------------------------------------------------------------------------

func (d *TsDepacketizer) decodePat(h TsPacketHeader, payload []byte) error {
	section, err := psiSection(h, payload)
	if section == nil || err != nil {
		return err
	}
	pat, err := ParsePat(section)
	if err != nil {
		return err
	}
	for _, ppe := range pat.ProgramElements {
		if ppe.ProgramNumber == 0 {
			// network_PID
			continue
		}
		d.register(ppe.Pid, PidKindPmt, 0)
	}
	return nil
}

func (d *TsDepacketizer) decodePmt(h TsPacketHeader, payload []byte) error {
	section, err := psiSection(h, payload)
	if section == nil || err != nil {
		return err
	}
	pmt, err := ParsePmt(section)
	if err != nil {
		return err
	}
	for _, ppe := range pmt.ProgramElements {
		d.register(ppe.Pid, PidKindOfStreamType(ppe.StreamType), ppe.StreamType)
	}
	return nil
}

// register 重复的PAT/PMT不会重置已有PID的状态
func (d *TsDepacketizer) register(pid uint16, kind PidKind, streamType uint8) {
	if entry, ok := d.pids[pid]; ok && entry.Kind == kind && entry.StreamType == streamType {
		return
	}
	Log.Infof("[%s] register pid. pid=0x%x, kind=%s, stream_type=0x%x", d.uniqueKey, pid, kind, streamType)
	d.pids[pid] = &PidEntry{
		Pid:        pid,
		Kind:       kind,
		StreamType: streamType,
	}
}

// decodePes
//
// 1. 没有正在组装的PES时，只接受payload_unit_start_indicator为1的packet，解析PES头
// 2. 正在组装时收到新的开始，长度不定的PES回调，长度确定但不完整的PES丢弃
// 3. 长度确定的PES收齐后回调
//
func (d *TsDepacketizer) decodePes(entry *PidEntry, h TsPacketHeader, af *AdaptationField, payload []byte) error {
	var dropErr error
	if entry.msg != nil && h.PayloadUnitStart == 1 {
		if !entry.msg.Bounded {
			d.emit(entry)
		} else {
			Log.Warnf("[%s] drop incomplete pes. msg=%s", d.uniqueKey, entry.msg.String())
			dropErr = base.NewErrTruncated(entry.msg.DeclaredSize, len(entry.msg.Payload), "mpegts.decodePes")
			entry.msg = nil
		}
	}

	if entry.msg == nil {
		if h.PayloadUnitStart == 0 {
			// 丢失了PES的开头，等待下一个开始
			return dropErr
		}

		ph, n, err := ParsePesHeader(payload)
		if err != nil {
			return err
		}
		if ph.PacketLength == 0 && entry.Kind == PidKindAudio {
			return fmt.Errorf("%w. pid=0x%x", base.ErrPesAudioEmpty, entry.Pid)
		}

		msg := &ElementaryMessage{
			Pid:        entry.Pid,
			Kind:       entry.Kind,
			StreamType: entry.StreamType,
			StreamId:   ph.StreamId,
			Dts:        ph.Dts,
			Pts:        ph.Pts,
			Key:        af.RandomAccessIndicator,
		}
		msg.DeclaredSize, msg.Bounded = ph.DeclaredPayloadSize()
		if msg.Bounded {
			msg.Payload = make([]byte, 0, msg.DeclaredSize)
		}
		entry.msg = msg
		payload = payload[n:]
	}

	// 长度确定的PES收齐后，剩下的是stuffing
	msg := entry.msg
	if msg.Bounded {
		if need := msg.DeclaredSize - len(msg.Payload); len(payload) > need {
			payload = payload[:need]
		}
	}
	msg.Payload = append(msg.Payload, payload...)

	if msg.Completed() {
		d.emit(entry)
	}
	return dropErr
}

func (d *TsDepacketizer) emit(entry *PidEntry) {
	msg := entry.msg
	entry.msg = nil
	if d.onMessage != nil {
		d.onMessage(msg)
	}
}

func (d *TsDepacketizer) sortedPids() []uint16 {
	pids := make([]uint16, 0, len(d.pids))
	for pid := range d.pids {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool {
		return pids[i] < pids[j]
	})
	return pids
}

// psiSection 跳过pointer_field
//
// 只处理section在一个packet内的情况，不是section开头的packet返回nil
//
func psiSection(h TsPacketHeader, payload []byte) ([]byte, error) {
	if h.PayloadUnitStart == 0 {
		return nil, nil
	}
	pointerField := int(payload[0])
	if 1+pointerField >= len(payload) {
		return nil, base.NewErrTruncated(1+pointerField+1, len(payload), "mpegts.psiSection")
	}
	return payload[1+pointerField:], nil
}
