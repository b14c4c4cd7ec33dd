// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/asticode/go-astits"
	"github.com/q191201771/lalts/pkg/mpegts"
	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/naza/pkg/nazalog"
)

// 分别使用 mpegts.TsDepacketizer 和 astits 解析同一个ts文件，逐个PES比较结果
//
// Example:
//   ./bin/tscmp -i ./testdata/test.ts
//

type pes struct {
	pid     uint16
	dts     uint64
	pts     uint64
	payload []byte
}

func main() {
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	defer nazalog.Sync()

	filename, maxDiff := parseFlag()
	content, err := ioutil.ReadFile(filename)
	nazalog.Assert(nil, err)

	ours := demuxByLalts(content)
	theirs := demuxByAstits(content)
	nazalog.Infof("file=%s, size=%d, pids of lalts=%d, pids of astits=%d", filename, len(content), len(ours), len(theirs))

	diff := 0
	for pid, l := range theirs {
		r := ours[pid]
		if len(l) != len(r) {
			nazalog.Warnf("pes count not match. pid=0x%x, astits=%d, lalts=%d", pid, len(l), len(r))
		}
		n := len(l)
		if n > len(r) {
			n = len(r)
		}
		for i := 0; i < n && diff < maxDiff; i++ {
			if l[i].dts == r[i].dts && l[i].pts == r[i].pts && bytes.Equal(l[i].payload, r[i].payload) {
				continue
			}
			diff++
			nazalog.Warnf("pes not match. pid=0x%x, index=%d, astits=(%d, %d, %d), lalts=(%d, %d, %d)",
				pid, i, l[i].dts, l[i].pts, len(l[i].payload), r[i].dts, r[i].pts, len(r[i].payload))
			nazalog.Debugf("astits:\n%s", hex.Dump(nazabytes.Prefix(l[i].payload, 64)))
			nazalog.Debugf("lalts:\n%s", hex.Dump(nazabytes.Prefix(r[i].payload, 64)))
		}
		nazalog.Infof("pid=0x%x, pes=%d", pid, len(l))
	}
	for pid := range ours {
		if _, ok := theirs[pid]; !ok {
			nazalog.Warnf("pid only found by lalts. pid=0x%x, pes=%d", pid, len(ours[pid]))
		}
	}

	if diff == 0 {
		nazalog.Infof("all pes match.")
	}
}

func demuxByLalts(content []byte) map[uint16][]pes {
	ret := make(map[uint16][]pes)
	d := mpegts.NewTsDepacketizer().WithOnMessage(func(msg *mpegts.ElementaryMessage) {
		ret[msg.Pid] = append(ret[msg.Pid], pes{
			pid:     msg.Pid,
			dts:     msg.Dts,
			pts:     msg.Pts,
			payload: msg.Payload,
		})
	})
	if err := d.Feed(content); err != nil {
		nazalog.Errorf("[%s] feed failed. err=%+v", d.UniqueKey(), err)
	}
	if err := d.Flush(); err != nil {
		nazalog.Warnf("[%s] flush failed. err=%+v", d.UniqueKey(), err)
	}
	return ret
}

func demuxByAstits(content []byte) map[uint16][]pes {
	ret := make(map[uint16][]pes)
	dmx := astits.NewDemuxer(context.Background(), bytes.NewReader(content))
	for {
		data, err := dmx.NextData()
		if err != nil {
			if err != astits.ErrNoMorePackets {
				nazalog.Warnf("astits demux failed. err=%+v", err)
			}
			break
		}
		if data.PES == nil || data.PES.Header.OptionalHeader == nil || data.PES.Header.OptionalHeader.PTS == nil {
			continue
		}
		oh := data.PES.Header.OptionalHeader
		item := pes{
			pid:     data.FirstPacket.Header.PID,
			pts:     uint64(oh.PTS.Base),
			payload: data.PES.Data,
		}
		item.dts = item.pts
		if oh.DTS != nil {
			item.dts = uint64(oh.DTS.Base)
		}
		ret[item.pid] = append(ret[item.pid], item)
	}
	return ret
}

func parseFlag() (string, int) {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	i := flag.String("i", "", "specify ts file")
	m := flag.Int("m", 16, "max number of mismatched pes to print")
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		os.Exit(0)
	}
	if *i == "" {
		flag.Usage()
		os.Exit(1)
	}
	return *i, *m
}
