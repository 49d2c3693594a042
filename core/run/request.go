package run

import (
	"errors"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/optimizer"
)

// Request asks for one optimization of a route with a vehicle.
type Request struct {
	ProcessID            string  `json:"processId"`
	RouteID              string  `json:"route_id"`
	VehicleID            string  `json:"vehicle_id"`
	MaxEvaluations       int     `json:"maxEvaluations"`
	PopulationSize       int     `json:"populationSize"`
	OffspringSize        int     `json:"offspringSize"`
	CrossoverProbability float64 `json:"crossoverProbability"`
	NeighborhoodSize     int     `json:"neighborhoodSize"`
	TakeStops            bool    `json:"takeStops"`
	MutationProbability  float64 `json:"mutationProbability,omitempty"`
	Seed                 int64   `json:"seed"`
	// InitialSOC is the charge at departure as a fraction of capacity.
	InitialSOC    float64 `json:"initialSoc"`
	Workers       int     `json:"workers,omitempty"`
	HeuristicSeed bool    `json:"heuristicSeed,omitempty"`
	Repair        bool    `json:"repair,omitempty"`
}

// DefaultRequest holds the parameters used when a caller leaves them out.
func DefaultRequest() Request {
	return Request{
		MaxEvaluations:       5000,
		PopulationSize:       50,
		OffspringSize:        10,
		CrossoverProbability: 0.9,
		NeighborhoodSize:     5,
		Seed:                 1,
		InitialSOC:           1,
	}
}

// Validate rejects requests the optimizer cannot run. Errors wrap
// ErrConfiguration.
func (r Request) Validate() error {
	switch {
	case r.RouteID == "":
		return &ConfigError{"route_id", "is required"}
	case r.VehicleID == "":
		return &ConfigError{"vehicle_id", "is required"}
	case r.InitialSOC < 0 || r.InitialSOC > 1:
		return &ConfigError{"initialSoc", "must be within [0,1]"}
	}
	if err := r.OptimizerConfig().Validate(); err != nil {
		var fe *optimizer.FieldError
		if errors.As(err, &fe) {
			return &ConfigError{fe.Field, fe.Reason}
		}
		return &ConfigError{"optimizer", err.Error()}
	}
	return nil
}

// OptimizerConfig extracts the search parameters.
func (r Request) OptimizerConfig() optimizer.Config {
	return optimizer.Config{
		PopulationSize:       r.PopulationSize,
		OffspringSize:        r.OffspringSize,
		CrossoverProbability: r.CrossoverProbability,
		NeighborhoodSize:     r.NeighborhoodSize,
		MaxEvaluations:       r.MaxEvaluations,
		MutationProbability:  r.MutationProbability,
		Seed:                 r.Seed,
		Workers:              r.Workers,
		HeuristicSeed:        r.HeuristicSeed,
		Repair:               r.Repair,
		ProcessID:            r.ProcessID,
	}
}
