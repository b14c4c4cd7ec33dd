// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/lalts/pkg/httpflv"
	"github.com/q191201771/lalts/pkg/logic"
	"github.com/q191201771/lalts/pkg/mpegts"
	"github.com/q191201771/lalts/pkg/remux"
	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
)

// 将flv文件转换为ts文件
//
// Example:
//   ./bin/flv2ts -i ./testdata/test.flv -o ./testdata/out.ts
//   ./bin/flv2ts -i ./testdata/test.flv -o ./testdata/out.ts -c ./conf/lalts.conf.json
//

func main() {
	defer nazalog.Sync()

	inFlvFile, outTsFile, confFile := parseFlag()
	config := loadConfOrDefault(confFile)
	nazalog.Infof("%s, bininfo: %s", base.LaltsFullInfo, bininfo.StringifySingleLine())

	var fw mpegts.FileWriter
	err := fw.Create(outTsFile)
	nazalog.Assert(nil, err)
	defer fw.Dispose()

	observer := &remux.Rtmp2MpegtsRemuxerObserverFunc{
		OnPatPmtFn: func(b []byte) {
			_, err := fw.Write(b)
			nazalog.Assert(nil, err)
		},
		OnTsPacketsFn: func(tsPackets []byte, frame *base.Frame, boundary bool) {
			_, err := fw.Write(tsPackets)
			nazalog.Assert(nil, err)
		},
	}
	remuxer := remux.NewRtmp2MpegtsRemuxer(observer, config.Rtmp2MpegtsRemuxerOption())

	var ffr httpflv.FlvFileReader
	err = ffr.Open(inFlvFile)
	nazalog.Assert(nil, err)
	defer ffr.Dispose()
	_, err = ffr.ReadFlvHeader()
	nazalog.Assert(nil, err)

	var tagCount int
	for {
		tag, err := ffr.ReadTag()
		if err == io.EOF {
			break
		}
		if err != nil {
			nazalog.Warnf("read flv tag failed, stop. err=%+v", err)
			break
		}
		msg, err := remux.FlvTag2RtmpMsg(tag)
		if err != nil {
			nazalog.Warnf("convert flv tag failed, stop. err=%+v", err)
			break
		}
		tagCount++
		remuxer.FeedRtmpMessage(msg)
	}
	remuxer.Dispose()

	nazalog.Infof("done. in=%s, tags=%d, out=%s, packets=%d", inFlvFile, tagCount, fw.Name(), fw.PacketCount())
}

func loadConfOrDefault(confFile string) *logic.Config {
	if confFile != "" {
		config, err := logic.LoadConfAndInitLog(confFile)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "load conf failed. file=%s, err=%+v\n", confFile, err)
			os.Exit(1)
		}
		return config
	}

	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	config, err := logic.ParseConf([]byte("{}"))
	nazalog.Assert(nil, err)
	return config
}

func parseFlag() (inFlvFile, outTsFile, confFile string) {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	i := flag.String("i", "", "specify input flv file")
	o := flag.String("o", "", "specify output ts file")
	c := flag.String("c", "", "specify conf file, optional")
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		os.Exit(0)
	}
	if *i == "" || *o == "" {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  %s -i ./testdata/test.flv -o ./testdata/out.ts
  %s -i ./testdata/test.flv -o ./testdata/out.ts -c ./conf/lalts.conf.json
`, os.Args[0], os.Args[0])
		os.Exit(1)
	}
	return *i, *o, *c
}
