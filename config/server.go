package config

import (
	"fmt"
	"time"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `json:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode"`
	// WaitTimeout bounds POST /api/runs?wait=true.
	WaitTimeout time.Duration `json:"wait_timeout"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
	if c.WaitTimeout == 0 {
		c.WaitTimeout = 5 * time.Minute
	}
}

func (c ServerConfig) Validate() error {
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown gin mode %s", c.Mode)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
