package store

import "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/factory"

var registry = factory.NewRegistry[SolutionStore]()

// Register adds a store backend factory identified by name.
func Register(name string, f factory.Factory[SolutionStore]) error {
	return registry.Register(name, f)
}

// Backends lists the registered backend names.
func Backends() []string { return registry.Names() }

// New creates the store described by cfg. An empty type selects the
// in-memory store.
func New(cfg factory.ModuleConfig) (SolutionStore, error) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	return registry.Create(cfg)
}

func init() {
	_ = Register("memory", func(map[string]any) (SolutionStore, error) { return NewMemoryStore(), nil })
}
