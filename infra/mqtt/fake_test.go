package mqtt

import (
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type publishCall struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeBroker stands in for the paho client. Subscriptions keep their
// handler so tests can deliver messages through deliver.
type fakeBroker struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	handlers    map[string]paho.MessageHandler
	qos         map[string]byte
	published   []publishCall
	publishErrs []error
	connectErr  error
	connected   bool
}

var _ paho.Client = (*fakeBroker)(nil)

func useFakeBroker(t *testing.T) *fakeBroker {
	t.Helper()
	fb := &fakeBroker{handlers: map[string]paho.MessageHandler{}, qos: map[string]byte{}}
	prev := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient {
		fb.opts = o
		return fb
	}
	t.Cleanup(func() { newMQTTClient = prev })
	return fb
}

func (f *fakeBroker) deliver(topic string, payload []byte) {
	f.mu.Lock()
	var h paho.MessageHandler
	for filter, fn := range f.handlers {
		if topicMatches(filter, topic) {
			h = fn
		}
	}
	f.mu.Unlock()
	if h != nil {
		h(nil, fakeMessage{topic: topic, payload: payload})
	}
}

func (f *fakeBroker) calls() []publishCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishCall(nil), f.published...)
}

func (f *fakeBroker) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeBroker) Connect() paho.Token {
	if f.connectErr != nil {
		return fakeToken{err: f.connectErr}
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	if f.opts != nil && f.opts.OnConnect != nil {
		f.opts.OnConnect(f)
	}
	return fakeToken{}
}

func (f *fakeBroker) Disconnect(uint) {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

func (f *fakeBroker) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := payload.([]byte)
	f.published = append(f.published, publishCall{topic, qos, retained, b})
	if len(f.publishErrs) > 0 {
		err := f.publishErrs[0]
		f.publishErrs = f.publishErrs[1:]
		return fakeToken{err: err}
	}
	return fakeToken{}
}

func (f *fakeBroker) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	f.mu.Lock()
	f.handlers[topic] = cb
	f.qos[topic] = qos
	f.mu.Unlock()
	return fakeToken{}
}

func (f *fakeBroker) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return fakeToken{}
}
func (f *fakeBroker) Unsubscribe(...string) paho.Token        { return fakeToken{} }
func (f *fakeBroker) AddRoute(string, paho.MessageHandler)    {}
func (f *fakeBroker) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (f *fakeBroker) IsConnectionOpen() bool                  { return f.IsConnected() }

// topicMatches supports the single-level + wildcard.
func topicMatches(filter, topic string) bool {
	fp, tp := splitTopic(filter), splitTopic(topic)
	if len(fp) != len(tp) {
		return false
	}
	for i := range fp {
		if fp[i] != "+" && fp[i] != tp[i] {
			return false
		}
	}
	return true
}

func splitTopic(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

type fakeToken struct{ err error }

func (fakeToken) Wait() bool                     { return true }
func (fakeToken) WaitTimeout(time.Duration) bool { return true }
func (fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (fakeMessage) Duplicate() bool   { return false }
func (fakeMessage) Qos() byte         { return 1 }
func (fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string   { return m.topic }
func (fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte { return m.payload }
func (fakeMessage) Ack()              {}
