package metrics

import "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// GenerationEvery samples progress records: only every n-th generation
	// is forwarded to sinks. Zero forwards all of them.
	GenerationEvery int `json:"generation_every" yaml:"generation_every"`
}
