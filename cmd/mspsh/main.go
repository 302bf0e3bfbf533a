package main

import (
	"github.com/robotalks/msp.go/pkg/cli/sh"
	"github.com/robotalks/msp.go/pkg/config"

	_ "github.com/robotalks/msp.go/pkg/cli/cmds/fc"
)

//go-build: CGO_ENABLED=0

func init() {
	config.SetupFlags()
}

func main() {
	sh.Main()
}
