package config

import (
	"fmt"
	"time"
)

// CatalogConfig points at the route and vehicle data file.
type CatalogConfig struct {
	// Path is a YAML or JSON catalog file. Empty starts an empty catalog.
	Path string `json:"path"`
}

// ZonesConfig controls zone polygons.
type ZonesConfig struct {
	// Vertices is the vertex count every zone polygon must have. Zero
	// accepts any polygon.
	Vertices int `json:"vertices"`
}

func (c *ZonesConfig) SetDefaults() {
	if c.Vertices == 0 {
		c.Vertices = 4
	}
}

func (c ZonesConfig) Validate() error {
	if c.Vertices < 3 {
		return fmt.Errorf("vertices must be at least 3")
	}
	return nil
}

// ElevationConfig configures the elevation lookup used by route build.
type ElevationConfig struct {
	URL string `json:"url"`
	// RatePerSecond limits requests to the service.
	RatePerSecond float64       `json:"rate_per_second"`
	Burst         int           `json:"burst"`
	BatchSize     int           `json:"batch_size"`
	MaxRetries    int           `json:"max_retries"`
	Timeout       time.Duration `json:"timeout"`
}

func (c *ElevationConfig) SetDefaults() {
	if c.URL == "" {
		c.URL = "https://api.open-elevation.com/api/v1/lookup"
	}
	if c.RatePerSecond == 0 {
		c.RatePerSecond = 1
	}
	if c.Burst == 0 {
		c.Burst = 1
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

func (c ElevationConfig) Validate() error {
	if c.RatePerSecond < 0 || c.Burst < 0 || c.BatchSize < 0 || c.MaxRetries < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return nil
}
