package sh

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/msp.go/pkg/config"
	"github.com/robotalks/msp.go/pkg/msp"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell   *ishell.Shell
	Config  *config.Config
	Session *Session
}

// Session is a connected device with Conn running.
type Session struct {
	Port   string
	Conn   *msp.Conn
	Cancel func()

	closer io.Closer
	done   chan struct{}
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&PortsCmd,
		&CmdsCmd,
		&EncodeCmd,
		&SendCmd,
		&ReqCmd,
		&StatsCmd,
		&TimeoutCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Conn returns the connection of current session, nil if not connected.
func (s *Shell) Conn() *msp.Conn {
	if s.Session == nil {
		return nil
	}
	return s.Session.Conn
}

// Connect opens port (Config.Port if empty) and starts reading.
func (s *Shell) Connect(port string) error {
	conf := *s.Config
	if port != "" {
		conf.Port = port
	}
	conn, closer, err := conf.Connect()
	if err != nil {
		return err
	}
	sess := &Session{Port: conf.Port, Conn: conn, closer: closer, done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	sess.Cancel = cancel
	s.Disconnect()
	s.Session = sess
	go func() {
		defer close(sess.done)
		if err := conn.Run(ctx); err != nil && err != context.Canceled {
			glog.Warningf("%s: %v", sess.Port, err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", sess.Port))
	return nil
}

// Disconnect closes current session.
func (s *Shell) Disconnect() {
	if sess := s.Session; sess != nil {
		sess.Cancel()
		// unblocks the pending read.
		sess.closer.Close()
		<-sess.done
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(""); err != nil {
			glog.Exitf("connect %q failed: %v", s.Config.Port, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(config.MustNewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
