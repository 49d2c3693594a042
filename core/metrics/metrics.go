package metrics

import "time"

// RunRecord summarizes a finished run.
type RunRecord struct {
	ProcessID       string
	RouteID         string
	VehicleID       string
	Status          string
	Evaluations     int
	Generations     int
	FrontSize       int
	Persisted       int
	Feasible        bool
	BestEmissionsKg float64
	BestEnergyKWh   float64
	Duration        time.Duration
	Time            time.Time
}

// MetricsSink records optimization runs for observability purposes.
type MetricsSink interface {
	RecordRun(rec RunRecord) error
}

// GenerationRecord is a snapshot taken after an optimizer generation.
type GenerationRecord struct {
	ProcessID       string
	Generation      int
	Evaluations     int
	FrontSize       int
	Feasible        bool
	BestEmissionsKg float64
	BestEnergyKWh   float64
	Time            time.Time
}

// GenerationRecorder is implemented by sinks that track search progress.
type GenerationRecorder interface {
	RecordGeneration(rec GenerationRecord) error
}

// StoreRecord describes one solution store operation.
type StoreRecord struct {
	Backend   string
	Operation string
	Count     int
	Err       bool
	Latency   time.Duration
	Time      time.Time
}

// StoreRecorder is implemented by sinks that track storage operations.
type StoreRecorder interface {
	RecordStore(rec StoreRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error               { return nil }
func (NopSink) RecordGeneration(GenerationRecord) error { return nil }
func (NopSink) RecordStore(StoreRecord) error           { return nil }
