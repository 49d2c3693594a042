package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor restores the
// no-op default.
func Init(m Monitor) {
	mu.Lock()
	defer mu.Unlock()
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	get().CaptureException(err, tags)
}

// CapturePanic reports a recovered panic value as an error and returns it.
func CapturePanic(r any, tags map[string]string) error {
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", r)
	}
	get().CaptureException(err, tags)
	return err
}

// Recover captures panics in goroutines.
func Recover() {
	get().Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
