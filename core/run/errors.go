package run

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a request rejected before the run starts.
	ErrConfiguration = errors.New("invalid run configuration")
	// ErrDataUnavailable marks a request whose route or vehicle could not
	// be loaded.
	ErrDataUnavailable = errors.New("run data unavailable")
	// ErrCancelled is returned by Execute when the run was cancelled.
	ErrCancelled = errors.New("run cancelled")
	// ErrUnknownRun is returned for process ids that were never submitted.
	ErrUnknownRun = errors.New("unknown run")
	// ErrRunActive is returned when a process id is already running.
	ErrRunActive = errors.New("run already active")
	// ErrRunFinished is returned when cancelling a run that already ended.
	ErrRunFinished = errors.New("run already finished")
)

// ConfigError reports the offending request field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }
