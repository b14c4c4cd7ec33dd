// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/haivision/srtgo"
	"github.com/q191201771/lalts/pkg/base"
	"github.com/q191201771/lalts/pkg/httpflv"
	"github.com/q191201771/lalts/pkg/logic"
	"github.com/q191201771/lalts/pkg/remux"
	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
	"golang.org/x/sync/errgroup"
)

// 以caller模式从srt服务拉取ts流，转换为flv存储为文件
//
// Example:
//   ./bin/srtpull2flv -i "srt://127.0.0.1:6001?streamid=%23!::r=live/test,m=request" -o ./testdata/out.flv
//

func main() {
	defer nazalog.Sync()

	inUrl, outFlvFile, confFile := parseFlag()
	config := loadConfOrDefault(confFile)
	nazalog.Infof("%s, bininfo: %s", base.LaltsFullInfo, bininfo.StringifySingleLine())

	srtgo.InitSRT()
	defer srtgo.CleanupSRT()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := pull(ctx, config, inUrl, outFlvFile)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, srtgo.EConnLost):
		nazalog.Infof("srt connection lost.")
	default:
		nazalog.Errorf("pull failed. err=%+v", err)
		os.Exit(1)
	}
}

func pull(ctx context.Context, config *logic.Config, inUrl string, outFlvFile string) error {
	socket, err := dial(config, inUrl)
	if err != nil {
		return err
	}

	var ffw httpflv.FlvFileWriter
	if err = ffw.Open(outFlvFile); err != nil {
		socket.Close()
		return err
	}
	defer ffw.Dispose()
	if err = ffw.WriteFlvHeader(); err != nil {
		socket.Close()
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	chunkCh := make(chan []byte, 64)

	// 读取srt数据
	g.Go(func() error {
		defer close(chunkCh)
		for {
			// live模式下每次读取一个完整的srt包
			buf := make([]byte, socket.PacketSize())
			n, err := socket.Read(buf)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			select {
			case chunkCh <- buf[:n]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// socket的Read是阻塞的，退出时通过关闭socket唤醒
	g.Go(func() error {
		<-ctx.Done()
		socket.Close()
		return ctx.Err()
	})

	// 解析ts并写flv文件
	g.Go(func() error {
		var werr error
		remuxer := remux.NewMpegts2RtmpRemuxer(config.TsDepacketizerOption()).WithOnRtmpMsg(func(msg base.RtmpMsg) {
			if werr == nil {
				werr = ffw.WriteTag(remux.RtmpMsg2FlvTag(msg))
			}
		})
		nazalog.Infof("[%s] start pull. url=%s, out=%s", remuxer.UniqueKey(), inUrl, ffw.Name())

		for chunk := range chunkCh {
			if err := remuxer.Feed(chunk); err != nil {
				return err
			}
			if werr != nil {
				return werr
			}
		}
		if err := remuxer.Flush(); err != nil {
			nazalog.Warnf("[%s] flush failed. err=%+v", remuxer.UniqueKey(), err)
		}
		nazalog.Infof("[%s] pull done.", remuxer.UniqueKey())
		return werr
	})

	return g.Wait()
}

func dial(config *logic.Config, inUrl string) (*srtgo.SrtSocket, error) {
	u, err := url.Parse(inUrl)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "srt" {
		return nil, fmt.Errorf("invalid srt url. url=%s", inUrl)
	}
	port, err := strconv.ParseUint(u.Port(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid srt port. url=%s, err=%w", inUrl, err)
	}

	options := make(map[string]string)
	options["mode"] = "caller"
	options["transtype"] = "live"
	options["latency"] = strconv.Itoa(config.SrtConfig.LatencyMs)
	streamId := config.SrtConfig.StreamId
	if v := u.Query().Get("streamid"); v != "" {
		streamId = v
	}
	if streamId != "" {
		options["streamid"] = streamId
	}

	socket := srtgo.NewSrtSocket(u.Hostname(), uint16(port), options)
	if socket == nil {
		return nil, fmt.Errorf("create srt socket failed. url=%s", inUrl)
	}
	if err = socket.Connect(); err != nil {
		socket.Close()
		return nil, err
	}
	nazalog.Infof("srt connect succ. host=%s, port=%d, streamid=%s", u.Hostname(), port, streamId)
	return socket, nil
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

func parseFlag() (inUrl, outFlvFile, confFile string) {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	i := flag.String("i", "", "specify srt pull url")
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
  %s -i "srt://127.0.0.1:6001?streamid=%%23!::r=live/test,m=request" -o ./testdata/out.flv
`, os.Args[0])
		os.Exit(1)
	}
	return *i, *o, *c
}
