package optimizer

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/monitoring"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/solution"
)

// Decoder turns an encoding into a trajectory. *solution.Simulator is the
// production implementation.
type Decoder interface {
	Decode(solution.Encoding) (solution.Trajectory, error)
}

type evaluator struct {
	sim     *solution.Simulator
	decoder Decoder
	repair  bool
	workers int
	log     logger.Logger
	process string
}

// evaluate decodes a batch. Results keep the order of encs whatever the
// number of workers.
func (ev *evaluator) evaluate(encs []solution.Encoding) []Individual {
	out := make([]Individual, len(encs))
	if ev.workers < 2 {
		for i, e := range encs {
			out[i] = ev.one(e)
		}
		return out
	}
	var g errgroup.Group
	g.SetLimit(ev.workers)
	for i, e := range encs {
		i, e := i, e
		g.Go(func() error {
			out[i] = ev.one(e)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// one decodes e, retrying once on failure. A second failure degrades the
// encoding to infeasible.
func (ev *evaluator) one(e solution.Encoding) Individual {
	tr, err := ev.decode(e)
	if err != nil {
		ev.log.Warnf("evaluation of %s failed, retrying: %v", e.Key(), err)
		tr, err = ev.decode(e)
	}
	if err != nil {
		ev.log.Errorf("evaluation of %s failed twice: %v", e.Key(), err)
		monitoring.CaptureException(err, map[string]string{"process_id": ev.process})
		return Individual{Encoding: e, Trajectory: solution.Trajectory{Violation: math.Inf(1)}}
	}
	if !tr.Feasible && ev.repair {
		fixed, ftr, rerr := ev.sim.Repair(e)
		if rerr == nil {
			return Individual{Encoding: fixed, Trajectory: ftr}
		}
		ev.log.Warnf("repair of %s failed: %v", e.Key(), rerr)
	}
	return Individual{Encoding: e, Trajectory: tr}
}

func (ev *evaluator) decode(e solution.Encoding) (tr solution.Trajectory, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode panic: %v", r)
		}
	}()
	return ev.decoder.Decode(e)
}
