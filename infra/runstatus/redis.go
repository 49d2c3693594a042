// Package runstatus shares run state between API replicas through Redis.
package runstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
)

// RedisRegistry stores run statuses as JSON strings indexed by a sorted
// set scored with the submission time.
type RedisRegistry struct {
	rdb    *redis.Client
	prefix string
	// ttl expires terminal statuses. Zero keeps them forever.
	ttl time.Duration
}

// NewRedisRegistry parses url and pings the server.
func NewRedisRegistry(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisRegistry, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisRegistryWithClient(rdb, prefix, ttl), nil
}

// NewRedisRegistryWithClient wraps an existing client.
func NewRedisRegistryWithClient(rdb *redis.Client, prefix string, ttl time.Duration) *RedisRegistry {
	if prefix == "" {
		prefix = "ecodrive"
	}
	return &RedisRegistry{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisRegistry) key(id string) string { return r.prefix + ":run:" + id }
func (r *RedisRegistry) index() string       { return r.prefix + ":runs" }

func (r *RedisRegistry) Put(ctx context.Context, st run.Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if st.State.Terminal() {
		ttl = r.ttl
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(st.ProcessID), data, ttl)
		p.ZAdd(ctx, r.index(), redis.Z{Score: float64(st.SubmittedAt.UnixNano()), Member: st.ProcessID})
		return nil
	})
	return err
}

func (r *RedisRegistry) Get(ctx context.Context, processID string) (run.Status, error) {
	data, err := r.rdb.Get(ctx, r.key(processID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return run.Status{}, run.ErrUnknownRun
	}
	if err != nil {
		return run.Status{}, err
	}
	var st run.Status
	if err := json.Unmarshal(data, &st); err != nil {
		return run.Status{}, fmt.Errorf("decode status %s: %w", processID, err)
	}
	return st, nil
}

// List returns the statuses in submission order. Index entries whose
// status expired are pruned.
func (r *RedisRegistry) List(ctx context.Context) ([]run.Status, error) {
	ids, err := r.rdb.ZRange(ctx, r.index(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]run.Status, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	var stale []any
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var st run.Status
		if err := json.Unmarshal([]byte(s), &st); err != nil {
			return nil, fmt.Errorf("decode status %s: %w", ids[i], err)
		}
		out = append(out, st)
	}
	if len(stale) > 0 {
		_ = r.rdb.ZRem(ctx, r.index(), stale...).Err()
	}
	return out, nil
}

// Close releases the client.
func (r *RedisRegistry) Close() error { return r.rdb.Close() }

// Client returns the underlying connection, shared with the event relay.
func (r *RedisRegistry) Client() *redis.Client { return r.rdb }
