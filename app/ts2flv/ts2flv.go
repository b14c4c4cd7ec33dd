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
	"github.com/q191201771/lalts/pkg/remux"
	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
)

// 将ts文件转换为flv文件
//
// Example:
//   ./bin/ts2flv -i ./testdata/test.ts -o ./testdata/out.flv
//

func main() {
	defer nazalog.Sync()

	inTsFile, outFlvFile, confFile := parseFlag()
	config := loadConfOrDefault(confFile)
	nazalog.Infof("%s, bininfo: %s", base.LaltsFullInfo, bininfo.StringifySingleLine())

	var ffw httpflv.FlvFileWriter
	err := ffw.Open(outFlvFile)
	nazalog.Assert(nil, err)
	defer ffw.Dispose()
	err = ffw.WriteFlvHeader()
	nazalog.Assert(nil, err)

	remuxer := remux.NewMpegts2RtmpRemuxer(config.TsDepacketizerOption()).WithOnRtmpMsg(func(msg base.RtmpMsg) {
		err := ffw.WriteTag(remux.RtmpMsg2FlvTag(msg))
		nazalog.Assert(nil, err)
	})

	fp, err := os.Open(inTsFile)
	nazalog.Assert(nil, err)
	defer fp.Close()

	buf := make([]byte, config.Demux.ReadBufSize)
	for {
		n, err := fp.Read(buf)
		if n > 0 {
			if ferr := remuxer.Feed(buf[:n]); ferr != nil {
				nazalog.Errorf("[%s] feed failed, stop. err=%+v", remuxer.UniqueKey(), ferr)
				break
			}
		}
		if err == io.EOF {
			break
		}
		nazalog.Assert(nil, err)
	}
	if err = remuxer.Flush(); err != nil {
		nazalog.Warnf("[%s] flush failed. err=%+v", remuxer.UniqueKey(), err)
	}

	nazalog.Infof("done. in=%s, out=%s, tags=%d, bytes=%d", inTsFile, ffw.Name(), ffw.TagCount(), ffw.WrittenBytes())
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

func parseFlag() (inTsFile, outFlvFile, confFile string) {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	i := flag.String("i", "", "specify input ts file")
	o := flag.String("o", "", "specify output flv file")
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
  %s -i ./testdata/test.ts -o ./testdata/out.flv
`, os.Args[0])
		os.Exit(1)
	}
	return *i, *o, *c
}
