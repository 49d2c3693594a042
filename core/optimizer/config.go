package optimizer

import "fmt"

// Config parameterizes one optimizer run.
type Config struct {
	PopulationSize       int     `json:"populationSize"`
	OffspringSize        int     `json:"offspringSize"`
	CrossoverProbability float64 `json:"crossoverProbability"`
	NeighborhoodSize     int     `json:"neighborhoodSize"`
	MaxEvaluations       int     `json:"maxEvaluations"`
	// MutationProbability is the per-gene flip probability. Zero means
	// 1/segmentCount.
	MutationProbability float64 `json:"mutationProbability,omitempty"`
	Seed                int64   `json:"seed"`
	// Workers bounds concurrent evaluations inside a generation. Values
	// below 2 evaluate sequentially.
	Workers       int    `json:"workers,omitempty"`
	HeuristicSeed bool   `json:"heuristicSeed,omitempty"`
	Repair        bool   `json:"repair,omitempty"`
	ProcessID     string `json:"processId"`
}

// FieldError reports an invalid configuration field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

// Validate rejects configurations the optimizer cannot run.
func (c Config) Validate() error {
	switch {
	case c.PopulationSize < 1:
		return &FieldError{"populationSize", "must be at least 1"}
	case c.OffspringSize < 1:
		return &FieldError{"offspringSize", "must be at least 1"}
	case c.CrossoverProbability < 0 || c.CrossoverProbability > 1:
		return &FieldError{"crossoverProbability", "must be within [0,1]"}
	case c.NeighborhoodSize < 1:
		return &FieldError{"neighborhoodSize", "must be at least 1"}
	case c.MaxEvaluations < 1:
		return &FieldError{"maxEvaluations", "must be at least 1"}
	case c.MutationProbability < 0 || c.MutationProbability > 1:
		return &FieldError{"mutationProbability", "must be within [0,1]"}
	case c.Workers < 0:
		return &FieldError{"workers", "must not be negative"}
	}
	return nil
}
