package fc

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/msp.go/pkg/cli/sh"
	"github.com/robotalks/msp.go/pkg/msp"
)

func show(c *ishell.Context, v fmt.Stringer) {
	if sh.ShellFrom(c).OutputJSON {
		sh.PrintJSON(c, v)
		return
	}
	c.Println(v.String())
}

type channels []uint16

func (ch channels) String() string {
	items := make([]string, len(ch))
	for n, val := range ch {
		items[n] = fmt.Sprintf("%d:%d", n+1, val)
	}
	return strings.Join(items, " ")
}

var (
	// VersionCmd queries firmware identity.
	VersionCmd = ishell.Cmd{
		Name:    "fc.version",
		Aliases: []string{"fcv"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var ver Version
			steps := []struct {
				code   msp.Code
				decode func([]byte) error
			}{
				{msp.CmdAPIVersion, ver.DecodeAPIVersion},
				{msp.CmdFCVariant, ver.DecodeVariant},
				{msp.CmdFCVersion, ver.DecodeFCVersion},
			}
			for _, step := range steps {
				payload, err := sh.DoRequest(c, step.code, nil)
				if err != nil {
					return
				}
				if err = step.decode(payload); err != nil {
					c.Err(err)
					return
				}
			}
			show(c, &ver)
		}),
	}

	// AttitudeCmd queries the attitude.
	AttitudeCmd = ishell.Cmd{
		Name:    "fc.attitude",
		Aliases: []string{"fca"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			payload, err := sh.DoRequest(c, msp.CmdAttitude, nil)
			if err != nil {
				return
			}
			att, err := DecodeAttitude(payload)
			if err != nil {
				c.Err(err)
				return
			}
			show(c, att)
		}),
	}

	// RCCmd queries RC channel values.
	RCCmd = ishell.Cmd{
		Name: "fc.rc",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			payload, err := sh.DoRequest(c, msp.CmdRC, nil)
			if err != nil {
				return
			}
			show(c, channels(DecodeRC(payload)))
		}),
	}
)

func init() {
	sh.AddCmds(
		&VersionCmd,
		&AttitudeCmd,
		&RCCmd,
	)
}
