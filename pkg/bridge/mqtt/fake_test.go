package mqtt

import (
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
)

type published struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

type fakeClient struct {
	lock      sync.Mutex
	subs      []string
	connected int
	pubCh     chan published
}

func newFakeClient() *fakeClient {
	return &fakeClient{pubCh: make(chan published, 16)}
}

func (c *fakeClient) Connect() paho.Token {
	c.lock.Lock()
	c.connected++
	c.lock.Unlock()
	return &paho.DummyToken{}
}

func (c *fakeClient) Disconnect(uint) {}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.pubCh <- published{Topic: topic, QoS: qos, Retained: retained, Payload: payload.([]byte)}
	return &paho.DummyToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.lock.Lock()
	c.subs = append(c.subs, topic)
	c.lock.Unlock()
	return &paho.DummyToken{}
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token {
	c.lock.Lock()
	for topic := range filters {
		c.subs = append(c.subs, topic)
	}
	c.lock.Unlock()
	return &paho.DummyToken{}
}

func (c *fakeClient) subscriptions() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]string(nil), c.subs...)
}

func (c *fakeClient) nextPub(t *testing.T) published {
	select {
	case p := <-c.pubCh:
		return p
	case <-time.After(time.Second):
		require.FailNow(t, "nothing published")
	}
	return published{}
}
