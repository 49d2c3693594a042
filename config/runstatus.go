package config

import (
	"fmt"
	"time"
)

// RunStatusConfig selects where run statuses are kept.
type RunStatusConfig struct {
	// Backend is "memory" or "redis".
	Backend string `json:"backend"`
	URL     string `json:"url"`
	Prefix  string `json:"prefix"`
	// TTL expires finished runs. Zero keeps them.
	TTL time.Duration `json:"ttl"`
	// Relay shares run events between replicas through Redis Pub/Sub.
	Relay   bool   `json:"relay"`
	Channel string `json:"channel"`
}

func (c *RunStatusConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Prefix == "" {
		c.Prefix = "ecodrive"
	}
}

func (c RunStatusConfig) Validate() error {
	switch c.Backend {
	case "memory":
		if c.Relay {
			return fmt.Errorf("relay requires the redis backend")
		}
	case "redis":
		if c.URL == "" {
			return fmt.Errorf("url is required for redis")
		}
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	return nil
}

// ArtifactsConfig configures run output files.
type ArtifactsConfig struct {
	// Dir holds run_<processId>/front.jsonl. Empty disables fronts.
	Dir string `json:"dir"`
	// Journal is the rotating JSONL file of run events. Empty disables it.
	Journal         string `json:"journal"`
	JournalProgress bool   `json:"journal_progress"`
	MaxSizeMB       int    `json:"max_size_mb"`
	MaxBackups      int    `json:"max_backups"`
	MaxAgeDays      int    `json:"max_age_days"`
}

func (c *ArtifactsConfig) SetDefaults() {
	if c.Journal != "" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 50
	}
}
