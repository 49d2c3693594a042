package run

import (
	"context"
	"time"

	"github.com/looplab/fsm"
)

// State is the lifecycle position of a run.
type State string

const (
	StatePending    State = "pending"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateInfeasible State = "infeasible"
	StateCancelled  State = "cancelled"
	StateFailed     State = "failed"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateInfeasible, StateCancelled, StateFailed:
		return true
	}
	return false
}

// Status is the externally visible state of a run.
type Status struct {
	ProcessID      string     `json:"process_id"`
	RouteID        string     `json:"route_id"`
	VehicleID      string     `json:"vehicle_id"`
	State          State      `json:"state"`
	Phase          string     `json:"phase,omitempty"`
	Generation     int        `json:"generation"`
	Evaluations    int        `json:"evaluations"`
	MaxEvaluations int        `json:"max_evaluations"`
	FrontSize      int        `json:"front_size"`
	Feasible       bool       `json:"feasible"`
	SolutionIDs    []string   `json:"solution_ids"`
	Error          string     `json:"error,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

const (
	evStart      = "start"
	evComplete   = "complete"
	evInfeasible = "infeasible"
	evCancel     = "cancel"
	evFail       = "fail"
)

// lifecycle guards the state transitions of a run.
type lifecycle struct {
	machine *fsm.FSM
}

func newLifecycle(onEnter func(State)) *lifecycle {
	live := []string{string(StatePending), string(StateRunning)}
	m := fsm.NewFSM(
		string(StatePending),
		fsm.Events{
			{Name: evStart, Src: []string{string(StatePending)}, Dst: string(StateRunning)},
			{Name: evComplete, Src: []string{string(StateRunning)}, Dst: string(StateCompleted)},
			{Name: evInfeasible, Src: []string{string(StateRunning)}, Dst: string(StateInfeasible)},
			{Name: evCancel, Src: live, Dst: string(StateCancelled)},
			{Name: evFail, Src: live, Dst: string(StateFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if onEnter != nil {
					onEnter(State(e.Dst))
				}
			},
		},
	)
	return &lifecycle{machine: m}
}

// fire applies event. Transitions do not depend on the run context so a
// cancelled run can still reach its terminal state.
func (l *lifecycle) fire(event string) error {
	return l.machine.Event(context.Background(), event)
}

func (l *lifecycle) current() State { return State(l.machine.Current()) }
