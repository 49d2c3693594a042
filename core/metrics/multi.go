package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks. Every sink is called; the
// errors are joined.
func (m *MultiSink) RecordRun(rec RunRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordGeneration forwards to the sinks that track progress.
func (m *MultiSink) RecordGeneration(rec GenerationRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(GenerationRecorder); ok {
			if err := r.RecordGeneration(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordStore forwards to the sinks that track storage.
func (m *MultiSink) RecordStore(rec StoreRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(StoreRecorder); ok {
			if err := r.RecordStore(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
