package sh

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/msp.go/pkg/msp"
	"github.com/robotalks/msp.go/pkg/transport"
)

// PrintJSON prints v as JSON.
func PrintJSON(c *ishell.Context, v interface{}) error {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(string(out))
	return nil
}

// DoRequest sends a request and waits for the result.
// Errors are printed before returned.
func DoRequest(c *ishell.Context, code msp.Code, payload []byte) ([]byte, error) {
	res := <-ShellFrom(c).Conn().Do(code, payload).ResultChan()
	if res.Err != nil {
		c.Err(res.Err)
	}
	return res.Data, res.Err
}

// PrintResult prints a result in the output format of the shell.
func PrintResult(c *ishell.Context, res msp.Result) {
	if ShellFrom(c).OutputJSON {
		PrintJSON(c, NewResultOutput(res))
		return
	}
	c.Println(FormatResult(res))
}

var (
	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			var port string
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := ShellFrom(c).Connect(port); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := transport.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				PrintJSON(c, ports)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// CmdsCmd lists known command codes.
	CmdsCmd = ishell.Cmd{
		Name: "cmds",
		Help: "",
		Func: func(c *ishell.Context) {
			codes := msp.Codes()
			if ShellFrom(c).OutputJSON {
				names := make(map[string]msp.Code, len(codes))
				for _, code := range codes {
					names[code.Name()] = code
				}
				PrintJSON(c, names)
				return
			}
			for _, code := range codes {
				c.Printf("%5d 0x%04x V%d %s\n", code, uint16(code), versionNum(code), code.Name())
			}
		},
	}

	// EncodeCmd prints the encoded request frame.
	EncodeCmd = ishell.Cmd{
		Name: "encode",
		Help: "CODE [PAYLOAD...]",
		Func: func(c *ishell.Context) {
			code, payload, err := ParseCodeAndPayload(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			b, err := msp.Encode(code, payload)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(FormatHex(b))
		},
	}

	// SendCmd sends a request without waiting for response.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "CODE [PAYLOAD...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			code, payload, err := ParseCodeAndPayload(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err = ShellFrom(c).Conn().Send(code, payload); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// ReqCmd sends a request and prints the response.
	ReqCmd = ishell.Cmd{
		Name:    "req",
		Aliases: []string{"r"},
		Help:    "CODE [PAYLOAD...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			code, payload, err := ParseCodeAndPayload(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			PrintResult(c, <-ShellFrom(c).Conn().Do(code, payload).ResultChan())
		}),
	}

	// StatsCmd prints connection counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			stats := ShellFrom(c).Conn().Stats()
			if ShellFrom(c).OutputJSON {
				PrintJSON(c, &stats)
				return
			}
			c.Printf("sent=%d received=%d in-flight=%d pending=%d\n",
				stats.Sent, stats.Received, stats.InFlight, stats.Pending)
			c.Printf("errors: write=%d checksum=%d framing=%d timeout=%d\n",
				stats.WriteErrors, stats.ChecksumErrors, stats.FramingErrors, stats.Timeouts)
		}),
	}

	// TimeoutCmd shows or sets the response timeout.
	TimeoutCmd = ishell.Cmd{
		Name: "timeout",
		Help: "[MILLISECONDS]",
		Func: MustBeConnected(func(c *ishell.Context) {
			conn := ShellFrom(c).Conn()
			if len(c.Args) > 0 {
				ms, err := strconv.Atoi(c.Args[0])
				if err != nil || ms <= 0 {
					c.Err(fmt.Errorf("invalid timeout %q", c.Args[0]))
					return
				}
				conn.Timeout = time.Duration(ms) * time.Millisecond
			}
			c.Println(conn.Timeout)
		}),
	}
)

func versionNum(code msp.Code) int {
	if code.Version() == msp.V2 {
		return 2
	}
	return 1
}
