package config

import (
	"fmt"
)

// LoggingConfig defines the application log level, format and the optional
// rotating log file.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
	// Format is "json" or "console". Empty follows APP_ENV.
	Format string `json:"format"`
	// File also writes JSON lines to this path when set.
	File string `json:"file"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.File != "" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 100
	}
}

// Validate checks the level and format.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %s", c.Level)
	}
	if c.Format != "" && c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown format %s", c.Format)
	}
	return nil
}
