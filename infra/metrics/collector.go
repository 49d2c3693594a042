package metrics

import (
	"context"
	"time"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	coremetrics "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/metrics"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/optimizer"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

// StartEventCollector subscribes to the run bus and forwards events to
// sink. Progress events after a replacement step become generation records,
// sampled every `every` generations; terminal events become run records.
// It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.RunEvent], sink coremetrics.MetricsSink, every int, log logger.Logger) {
	if bus == nil || sink == nil {
		return
	}
	log = logger.OrNop(log)
	if every < 1 {
		every = 1
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := collect(ev, sink, every); err != nil {
					log.Warnf("metrics for run %s: %v", ev.ProcessID, err)
				}
			}
		}
	}()
}

func collect(ev events.RunEvent, sink coremetrics.MetricsSink, every int) error {
	switch {
	case ev.Kind == events.KindProgress && ev.Phase == string(optimizer.PhaseReplace):
		r, ok := sink.(coremetrics.GenerationRecorder)
		if !ok || ev.Generation%every != 0 {
			return nil
		}
		return r.RecordGeneration(coremetrics.GenerationRecord{
			ProcessID:       ev.ProcessID,
			Generation:      ev.Generation,
			Evaluations:     ev.Evaluations,
			FrontSize:       ev.FrontSize,
			Feasible:        ev.Feasible,
			BestEmissionsKg: ev.BestEmissionsKg,
			BestEnergyKWh:   ev.BestEnergyKWh,
			Time:            ev.Time,
		})
	case ev.Kind.Terminal():
		return sink.RecordRun(coremetrics.RunRecord{
			ProcessID:       ev.ProcessID,
			RouteID:         ev.RouteID,
			VehicleID:       ev.VehicleID,
			Status:          string(ev.Kind),
			Evaluations:     ev.Evaluations,
			Generations:     ev.Generation,
			FrontSize:       ev.FrontSize,
			Persisted:       ev.Persisted,
			Feasible:        ev.Feasible,
			BestEmissionsKg: ev.BestEmissionsKg,
			BestEnergyKWh:   ev.BestEnergyKWh,
			Duration:        time.Duration(ev.Duration * float64(time.Second)),
			Time:            ev.Time,
		})
	}
	return nil
}
