package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/energy"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/factory"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/metrics"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/mqtt"
)

type Config struct {
	Server    ServerConfig         `json:"server"`
	Logging   LoggingConfig        `json:"logging"`
	Store     factory.ModuleConfig `json:"store"`
	Catalog   CatalogConfig        `json:"catalog"`
	Optimizer OptimizerConfig      `json:"optimizer"`
	Energy    energy.Options       `json:"energy"`
	Zones     ZonesConfig          `json:"zones"`
	Metrics   metrics.Config       `json:"metrics"`
	MQTT      mqtt.Config          `json:"mqtt"`
	RunStatus RunStatusConfig      `json:"runstatus"`
	Artifacts ArtifactsConfig      `json:"artifacts"`
	Elevation ElevationConfig      `json:"elevation"`
	Sentry    SentryConfig         `json:"sentry"`
}

// Load reads path, applies K_ environment overrides (K_SERVER__ADDR sets
// server.addr), fills defaults and validates every section. An empty path
// loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	// The callback already turns __ into the koanf delimiter.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if !k.Exists("energy.rez_penalty") {
		cfg.Energy.REZPenalty = energy.DefaultREZPenalty
	}
	seed := cfg.Optimizer.Seed
	cfg.SetDefaults()
	if k.Exists("optimizer.seed") {
		cfg.Optimizer.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Energy.REZPenalty = energy.DefaultREZPenalty
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	c.Optimizer.SetDefaults()
	c.Energy.SetDefaults()
	c.Zones.SetDefaults()
	c.MQTT.SetDefaults()
	c.RunStatus.SetDefaults()
	c.Artifacts.SetDefaults()
	c.Elevation.SetDefaults()
}

// Validate checks every section and names the failing one.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"logging", c.Logging.Validate},
		{"optimizer", c.Optimizer.Validate},
		{"zones", c.Zones.Validate},
		{"runstatus", c.RunStatus.Validate},
		{"elevation", c.Elevation.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}
