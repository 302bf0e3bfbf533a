package msp

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// FrameHandler is called when a valid frame is received.
type FrameHandler interface {
	HandleFrame(context.Context, *Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}

const readBufferSize = 256

// Stats is a snapshot of Conn counters.
type Stats struct {
	Sent           uint64
	Received       uint64
	WriteErrors    uint64
	ChecksumErrors uint64
	FramingErrors  uint64
	Timeouts       uint64
	InFlight       int64
	Pending        int
}

// Conn sends requests and dispatches received frames over a byte stream.
type Conn struct {
	sent           uint64
	received       uint64
	writeErrors    uint64
	checksumErrors uint64
	framingErrors  uint64
	inFlight       int64

	ReadWriter io.ReadWriter
	Handler    FrameHandler
	// Timeout is used by Do, DefaultTimeout if zero.
	Timeout time.Duration

	parser   Parser
	queue    *Queue
	sendLock sync.Mutex
}

// NewConn creates a Conn.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		ReadWriter: rw,
		Timeout:    DefaultTimeout,
		queue:      NewQueue(),
	}
}

// Name implements framework.Named.
func (c *Conn) Name() string {
	return "msp"
}

// Send sends a request without waiting for response.
func (c *Conn) Send(code Code, payload []byte) error {
	b, err := Encode(code, payload)
	if err != nil {
		return err
	}
	return c.write(code, b)
}

// Do sends a request and returns a Request for the response.
func (c *Conn) Do(code Code, payload []byte) *Request {
	return c.DoTimeout(code, payload, c.Timeout)
}

// DoTimeout is Do with a specific timeout.
func (c *Conn) DoTimeout(code Code, payload []byte, timeout time.Duration) *Request {
	b, err := Encode(code, payload)
	if err != nil {
		return failedRequest(code, err)
	}
	// registered before writing, the response may arrive before Write returns.
	req := c.queue.Add(code, timeout)
	if err = c.write(code, b); err != nil {
		c.queue.Fail(req, err)
	}
	return req
}

// Call sends a request and waits for the response payload.
func (c *Conn) Call(ctx context.Context, code Code, payload []byte) ([]byte, error) {
	return c.Do(code, payload).Wait(ctx)
}

// InFlight returns the number of sent frames not yet answered by a
// received frame. It's advisory only.
func (c *Conn) InFlight() int64 {
	return atomic.LoadInt64(&c.inFlight)
}

// Stats returns a snapshot of counters.
func (c *Conn) Stats() Stats {
	return Stats{
		Sent:           atomic.LoadUint64(&c.sent),
		Received:       atomic.LoadUint64(&c.received),
		WriteErrors:    atomic.LoadUint64(&c.writeErrors),
		ChecksumErrors: atomic.LoadUint64(&c.checksumErrors),
		FramingErrors:  atomic.LoadUint64(&c.framingErrors),
		Timeouts:       c.queue.Expired(),
		InFlight:       c.InFlight(),
		Pending:        c.queue.Len(),
	}
}

// Run reads from ReadWriter and dispatches frames until ctx is done
// or the read fails.
func (c *Conn) Run(ctx context.Context) error {
	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			c.Feed(ctx, chunk)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Feed parses received bytes and dispatches completed frames.
// It's used by Run and must not be called concurrently.
func (c *Conn) Feed(ctx context.Context, data []byte) {
	for _, b := range data {
		if pr := c.parser.Parse(b); !pr.IsEmpty() {
			c.applyParseResult(ctx, pr)
		}
	}
}

func (c *Conn) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.ReadWriter.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunkCh <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (c *Conn) write(code Code, b []byte) error {
	c.sendLock.Lock()
	_, err := c.ReadWriter.Write(b)
	c.sendLock.Unlock()
	if err != nil {
		atomic.AddUint64(&c.writeErrors, 1)
		glog.Warningf("write %s failed: %v", code.Name(), err)
		return &WriteError{Code: code, Err: err}
	}
	atomic.AddUint64(&c.sent, 1)
	atomic.AddInt64(&c.inFlight, 1)
	return nil
}

func (c *Conn) applyParseResult(ctx context.Context, pr ParseResult) {
	switch err := pr.Err.(type) {
	case nil:
	case *ChecksumError:
		atomic.AddUint64(&c.checksumErrors, 1)
		glog.V(2).Infof("drop frame: %v", err)
		return
	default:
		atomic.AddUint64(&c.framingErrors, 1)
		glog.V(2).Infof("resync: %v", err)
		return
	}
	atomic.AddUint64(&c.received, 1)
	atomic.AddInt64(&c.inFlight, -1)
	if glog.V(3) {
		glog.Infof("RCV %s", pr.Frame)
	}
	if h := c.Handler; h != nil {
		h.HandleFrame(ctx, pr.Frame)
	}
	if !c.queue.Resolve(pr.Frame) {
		glog.V(2).Infof("no pending request for %s", pr.Frame.Code.Name())
	}
}
