package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/msp.go/pkg/bridge/mqtt"
	"github.com/robotalks/msp.go/pkg/config"
	fx "github.com/robotalks/msp.go/pkg/framework"
	"github.com/robotalks/msp.go/pkg/msp"
)

var (
	remote   bool
	poll     string
	interval = 100 * time.Millisecond
)

func init() {
	config.SetupFlags()
	flag.BoolVar(&remote, "remote", remote, "Monitor frames published by mspbridge instead of the port.")
	flag.StringVar(&poll, "poll", poll, "Comma separated commands to request periodically.")
	flag.DurationVar(&interval, "interval", interval, "Polling interval.")
}

func printFrame(f *msp.Frame) {
	fmt.Printf("%s %s %s %s(%d) [%d] % x\n",
		time.Now().Format("15:04:05.000000"),
		f.Version, f.Direction, f.Code.Name(), uint16(f.Code), len(f.Payload), f.Payload)
}

func parsePoll() (codes []msp.Code) {
	if poll == "" {
		return
	}
	for _, name := range strings.Split(poll, ",") {
		code, err := msp.ParseCode(name)
		if err != nil {
			glog.Exit(err)
		}
		codes = append(codes, code)
	}
	return
}

func pollLoop(conn *msp.Conn, codes []msp.Code) fx.Runnable {
	return fx.RunnableFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				for _, code := range codes {
					if err := conn.Send(code, nil); err != nil {
						return err
					}
				}
			}
		}
	})
}

func monitorRemote(conf *config.Config) {
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(conf.MQTTURL)
	if err != nil {
		glog.Exit(err)
	}
	ps := mqtt.NewPubSub(opts, topicPrefix)
	ps.Sub("+/"+mqtt.TopicFrames+"#", func(topic string, payload []byte) {
		var rec mqtt.FrameRecord
		if err := rec.Unmarshal(payload); err != nil {
			glog.Warningf("%s: bad record: %v", topic, err)
			return
		}
		version := msp.V1
		if rec.Version == 2 {
			version = msp.V2
		}
		printFrame(&msp.Frame{Version: version, Direction: rec.Direction, Code: rec.Code, Payload: rec.Payload})
	})
	token := ps.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		glog.Exit(err)
	}
	<-(chan struct{})(nil)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := config.MustNewConfig()
	if remote {
		monitorRemote(conf)
		return
	}

	conn, closer := conf.MustConnect()
	conn.Handler = msp.HandleFrameFunc(func(_ context.Context, f *msp.Frame) {
		printFrame(f)
	})
	runner := fx.NewRunner().HandleSignals().Go(
		fx.NamedRun(conn.Name(), fx.RunnableFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, closer, func() error {
				return conn.Run(ctx)
			})
		})),
	)
	if codes := parsePoll(); len(codes) > 0 {
		runner.Go(fx.NamedRun("poll", pollLoop(conn, codes)))
	}
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
	stats := conn.Stats()
	glog.Infof("received=%d checksum-errors=%d framing-errors=%d",
		stats.Received, stats.ChecksumErrors, stats.FramingErrors)
}
