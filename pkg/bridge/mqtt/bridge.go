// Package mqtt mirrors MSP traffic to an MQTT broker.
//
// Topics, relative to <prefix><device-id>/:
//
//   status               "online"/"offline", retained
//   frames/<CODE_NAME>   FrameRecord of each received frame
//   req                  RequestRecord sent by remote clients
//   rsp                  ResponseRecord answering a RequestRecord
package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/msp.go/pkg/msp"
)

// Topics relative to the device.
const (
	TopicStatus = "status"
	TopicFrames = "frames/"
	TopicReq    = "req"
	TopicRsp    = "rsp"
)

// Status values.
var (
	StatusOnline  = []byte("online")
	StatusOffline = []byte("offline")
)

// Requester sends correlated requests, implemented by msp.Conn.
type Requester interface {
	DoTimeout(code msp.Code, payload []byte, timeout time.Duration) *msp.Request
}

// Bridge publishes frames and serves requests over MQTT.
type Bridge struct {
	PubSub    *PubSub
	DeviceID  string
	Requester Requester
	// Timeout is used when a RequestRecord doesn't specify one.
	Timeout time.Duration

	now func() time.Time
}

// New creates a Bridge connecting to brokerURL.
func New(brokerURL, deviceID string, requester Requester) (*Bridge, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url: %w", err)
	}
	if deviceID == "" {
		return nil, fmt.Errorf("device id required")
	}
	opts.SetBinaryWill(topicPrefix+deviceID+"/"+TopicStatus, StatusOffline, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("msp:" + deviceID)
	}
	return NewWithPubSub(NewPubSub(opts, topicPrefix), deviceID, requester), nil
}

// NewWithPubSub creates a Bridge over an existing PubSub.
func NewWithPubSub(ps *PubSub, deviceID string, requester Requester) *Bridge {
	b := &Bridge{
		PubSub:    ps,
		DeviceID:  deviceID,
		Requester: requester,
		Timeout:   msp.DefaultTimeout,
		now:       time.Now,
	}
	ps.OnConnect = func(*PubSub) { b.onConnected() }
	return b
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt-bridge"
}

func (b *Bridge) topic(name string) string {
	return b.DeviceID + "/" + name
}

// HandleFrame implements msp.FrameHandler.
func (b *Bridge) HandleFrame(_ context.Context, f *msp.Frame) {
	payload, err := FrameRecordOf(f, b.now().UnixNano()).Marshal()
	if err != nil {
		glog.Errorf("encode frame %s failed: %v", f.Code.Name(), err)
		return
	}
	b.PubSub.Pub(b.topic(TopicFrames+f.Code.Name()), payload)
}

// Run connects to the broker and serves until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	token := b.PubSub.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect failed: %w", err)
	}
	<-ctx.Done()
	b.PubSub.PubWith(b.topic(TopicStatus), StatusOffline, 1, true).Wait()
	b.PubSub.Close()
	return nil
}

func (b *Bridge) onConnected() {
	b.PubSub.Sub(b.topic(TopicReq), b.handleRequest)
	b.PubSub.PubWith(b.topic(TopicStatus), StatusOnline, 1, true)
}

func (b *Bridge) handleRequest(_ string, payload []byte) {
	var req RequestRecord
	if err := req.Unmarshal(payload); err != nil {
		glog.Warningf("drop malformed request: %v", err)
		return
	}
	timeout := b.Timeout
	if req.TimeoutMS > 0 {
		timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	glog.V(2).Infof("REQ %s %s", req.ID, req.Code.Name())
	pending := b.Requester.DoTimeout(req.Code, req.Payload, timeout)
	// paho calls handlers in order, the response is awaited separately.
	go b.respond(req.ID, pending)
}

func (b *Bridge) respond(id string, pending *msp.Request) {
	rsp := &ResponseRecord{ID: id, Code: pending.Code()}
	res := <-pending.ResultChan()
	if res.Err != nil {
		rsp.Error = res.Err.Error()
	} else {
		rsp.Payload = res.Data
	}
	payload, err := rsp.Marshal()
	if err != nil {
		glog.Errorf("encode response %s failed: %v", id, err)
		return
	}
	b.PubSub.Pub(b.topic(TopicRsp), payload)
}
