package events

import "time"

// Kind classifies a RunEvent.
type Kind string

const (
	KindSubmitted  Kind = "submitted"
	KindStarted    Kind = "started"
	KindProgress   Kind = "progress"
	KindCompleted  Kind = "completed"
	KindInfeasible Kind = "infeasible"
	KindCancelled  Kind = "cancelled"
	KindFailed     Kind = "failed"
)

// Terminal reports whether no further events follow for the run.
func (k Kind) Terminal() bool {
	switch k {
	case KindCompleted, KindInfeasible, KindCancelled, KindFailed:
		return true
	}
	return false
}

// RunEvent describes the state of an optimization run at one point in time.
type RunEvent struct {
	ProcessID       string    `json:"process_id"`
	RouteID         string    `json:"route_id"`
	VehicleID       string    `json:"vehicle_id"`
	Kind            Kind      `json:"kind"`
	Phase           string    `json:"phase,omitempty"`
	Generation      int       `json:"generation"`
	Evaluations     int       `json:"evaluations"`
	MaxEvaluations  int       `json:"max_evaluations"`
	FrontSize       int       `json:"front_size"`
	Feasible        bool      `json:"feasible"`
	BestEmissionsKg float64   `json:"best_emissions_kg"`
	BestEnergyKWh   float64   `json:"best_energy_kwh"`
	Persisted       int       `json:"persisted,omitempty"`
	Duration        float64   `json:"duration_seconds,omitempty"`
	Error           string    `json:"error,omitempty"`
	Time            time.Time `json:"time"`
}
