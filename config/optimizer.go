package config

import (
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
)

// OptimizerConfig holds the parameters applied to requests that leave them
// out, plus the manager limits.
type OptimizerConfig struct {
	MaxEvaluations       int     `json:"max_evaluations"`
	PopulationSize       int     `json:"population_size"`
	OffspringSize        int     `json:"offspring_size"`
	CrossoverProbability float64 `json:"crossover_probability"`
	NeighborhoodSize     int     `json:"neighborhood_size"`
	MutationProbability  float64 `json:"mutation_probability"`
	Seed                 int64   `json:"seed"`
	Workers              int     `json:"workers"`
	HeuristicSeed        bool    `json:"heuristic_seed"`
	Repair               bool    `json:"repair"`
	// MaxConcurrent bounds the runs executing at once. Zero means no limit.
	MaxConcurrent int64 `json:"max_concurrent"`
}

// SetDefaults copies unset values from run.DefaultRequest.
func (c *OptimizerConfig) SetDefaults() {
	d := run.DefaultRequest()
	if c.MaxEvaluations == 0 {
		c.MaxEvaluations = d.MaxEvaluations
	}
	if c.PopulationSize == 0 {
		c.PopulationSize = d.PopulationSize
	}
	if c.OffspringSize == 0 {
		c.OffspringSize = d.OffspringSize
	}
	if c.CrossoverProbability == 0 {
		c.CrossoverProbability = d.CrossoverProbability
	}
	if c.NeighborhoodSize == 0 {
		c.NeighborhoodSize = d.NeighborhoodSize
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
}

// Request returns the base request decoded API bodies are merged into.
func (c OptimizerConfig) Request() run.Request {
	r := run.DefaultRequest()
	r.MaxEvaluations = c.MaxEvaluations
	r.PopulationSize = c.PopulationSize
	r.OffspringSize = c.OffspringSize
	r.CrossoverProbability = c.CrossoverProbability
	r.NeighborhoodSize = c.NeighborhoodSize
	r.MutationProbability = c.MutationProbability
	r.Seed = c.Seed
	r.Workers = c.Workers
	r.HeuristicSeed = c.HeuristicSeed
	r.Repair = c.Repair
	return r
}

// Validate checks the defaults with a placeholder route and vehicle.
func (c OptimizerConfig) Validate() error {
	r := c.Request()
	r.RouteID, r.VehicleID = "-", "-"
	return r.Validate()
}
