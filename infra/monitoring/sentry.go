package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/config"
	coremon "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/monitoring"
)

// NewSentryMonitor reports to Sentry when cfg carries a DSN and returns a
// NopMonitor otherwise.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
		Tags:             map[string]string{"service": "ecodrive-planner"},
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

// CaptureException sends err with tags. Cancelled and timed-out contexts
// are expected outcomes of a run and are not reported. A process_id tag
// groups the events of one run together.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if id := tags["process_id"]; id != "" {
			scope.SetContext("run", sentry.Context{"process_id": id})
			scope.SetFingerprint([]string{"{{ default }}", id})
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) Recover() {
	r := recover()
	if r == nil {
		return
	}
	sentry.CurrentHub().Recover(r)
	sentry.Flush(2 * time.Second)
	panic(r)
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
