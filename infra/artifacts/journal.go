package artifacts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

// Journal appends run events to a JSONL file with automatic rotation.
type Journal struct {
	mu       sync.Mutex
	logger   *lumberjack.Logger
	progress bool
}

// JournalConfig sets rotation in megabytes and days. Progress events are
// skipped unless Progress is set.
type JournalConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Progress   bool   `json:"progress"`
}

// NewJournal prepares the journal file.
func NewJournal(cfg JournalConfig) (*Journal, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	return &Journal{logger: lj, progress: cfg.Progress}, nil
}

// Append writes ev as one line.
func (j *Journal) Append(ev events.RunEvent) error {
	if ev.Kind == events.KindProgress && !j.progress {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return json.NewEncoder(j.logger).Encode(ev)
}

// Follow appends every event published on bus until ctx ends.
func (j *Journal) Follow(ctx context.Context, bus *eventbus.TypedBus[events.RunEvent]) {
	ch := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				_ = j.Append(ev)
			}
		}
	}()
}

// Close closes the current file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.logger.Close()
}
