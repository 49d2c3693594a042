package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/metrics"
)

// PromSink records run metrics in Prometheus collectors.
type PromSink struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	evaluations *prometheus.CounterVec
	frontSize   *prometheus.GaugeVec
	bestEm      *prometheus.GaugeVec
	bestEnergy  *prometheus.GaugeVec
	storeOps    *prometheus.CounterVec
	storeLat    *prometheus.HistogramVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// that are already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecodrive_runs_total",
			Help: "Finished optimization runs by status",
		}, []string{"status", "feasible"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecodrive_run_duration_seconds",
			Help:    "Wall time of optimization runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"status"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecodrive_evaluations_total",
			Help: "Encodings evaluated by finished runs",
		}, []string{"route_id"}),
		frontSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecodrive_front_size",
			Help: "Size of the current non-dominated front",
		}, []string{"process_id"}),
		bestEm: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecodrive_best_emissions_kg",
			Help: "Lowest penalized emissions on the current front",
		}, []string{"process_id"}),
		bestEnergy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecodrive_best_energy_kwh",
			Help: "Lowest energy on the current front",
		}, []string{"process_id"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecodrive_store_operations_total",
			Help: "Solution store operations",
		}, []string{"backend", "operation", "error"}),
		storeLat: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecodrive_store_latency_seconds",
			Help:    "Solution store operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.evaluations, err = register(reg, s.evaluations); err != nil {
		return nil, err
	}
	if s.frontSize, err = register(reg, s.frontSize); err != nil {
		return nil, err
	}
	if s.bestEm, err = register(reg, s.bestEm); err != nil {
		return nil, err
	}
	if s.bestEnergy, err = register(reg, s.bestEnergy); err != nil {
		return nil, err
	}
	if s.storeOps, err = register(reg, s.storeOps); err != nil {
		return nil, err
	}
	if s.storeLat, err = register(reg, s.storeLat); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the run and observes its duration. Per-process gauges
// are removed once the run is over.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	s.runs.WithLabelValues(rec.Status, strconv.FormatBool(rec.Feasible)).Inc()
	s.duration.WithLabelValues(rec.Status).Observe(rec.Duration.Seconds())
	s.evaluations.WithLabelValues(rec.RouteID).Add(float64(rec.Evaluations))
	s.frontSize.DeleteLabelValues(rec.ProcessID)
	s.bestEm.DeleteLabelValues(rec.ProcessID)
	s.bestEnergy.DeleteLabelValues(rec.ProcessID)
	return nil
}

// RecordGeneration updates the per-process progress gauges.
func (s *PromSink) RecordGeneration(rec coremetrics.GenerationRecord) error {
	s.frontSize.WithLabelValues(rec.ProcessID).Set(float64(rec.FrontSize))
	s.bestEm.WithLabelValues(rec.ProcessID).Set(rec.BestEmissionsKg)
	s.bestEnergy.WithLabelValues(rec.ProcessID).Set(rec.BestEnergyKWh)
	return nil
}

// RecordStore counts a store operation.
func (s *PromSink) RecordStore(rec coremetrics.StoreRecord) error {
	s.storeOps.WithLabelValues(rec.Backend, rec.Operation, strconv.FormatBool(rec.Err)).Inc()
	s.storeLat.WithLabelValues(rec.Backend, rec.Operation).Observe(rec.Latency.Seconds())
	return nil
}
