package store

import (
	"context"
	"fmt"
	"time"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/factory"
	corestore "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
)

// init registers the SQL backends with the core store factory.
func init() {
	_ = corestore.Register("sqlite", func(conf map[string]any) (corestore.SolutionStore, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "solutions.db"
		}
		return NewSQLiteStore(c.Path)
	})

	_ = corestore.Register("postgres", func(conf map[string]any) (corestore.SolutionStore, error) {
		var c struct {
			DSN     string        `json:"dsn"`
			Timeout time.Duration `json:"timeout"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, fmt.Errorf("postgres store: dsn is required")
		}
		if c.Timeout <= 0 {
			c.Timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
		defer cancel()
		return NewPostgresStore(ctx, c.DSN)
	})
}
