package main

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/msp.go/pkg/bridge/mqtt"
	"github.com/robotalks/msp.go/pkg/config"
	fx "github.com/robotalks/msp.go/pkg/framework"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := config.MustNewConfig()
	conn, closer := conf.MustConnect()
	deviceID := conf.ResolveDeviceID()
	bridge, err := mqtt.New(conf.MQTTURL, deviceID, conn)
	if err != nil {
		glog.Exit(err)
	}
	conn.Handler = bridge
	glog.Infof("bridging %s as %s", conf.Port, deviceID)

	err = fx.NewRunner().HandleSignals().Go(
		fx.NamedRun(conn.Name(), fx.RunnableFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, closer, func() error {
				return conn.Run(ctx)
			})
		})),
		bridge,
	).Wait()
	if err != nil {
		glog.Exit(err)
	}
}
