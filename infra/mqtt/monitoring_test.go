package mqtt

import (
	"fmt"
	"testing"
	"time"

	coremon "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishErrorCaptured(t *testing.T) {
	fb := useFakeBroker(t)
	fb.publishErrs = []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.Publish("ecodrive/runs/p/status", []byte("{}"), true); err == nil {
		t.Fatalf("expected error")
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["topic"] != "ecodrive/runs/p/status" || mon.tags["module"] != "mqtt" {
		t.Fatalf("tags not set")
	}
}
