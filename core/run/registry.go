package run

import (
	"context"
	"sort"
	"sync"
)

// StatusRegistry records the status of runs so that any API replica can
// answer status queries.
type StatusRegistry interface {
	Put(ctx context.Context, st Status) error
	// Get returns ErrUnknownRun when nothing is recorded for the id.
	Get(ctx context.Context, processID string) (Status, error)
	List(ctx context.Context) ([]Status, error)
}

// MemoryRegistry is a process-local StatusRegistry.
type MemoryRegistry struct {
	mu   sync.RWMutex
	data map[string]Status
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{data: map[string]Status{}}
}

func (r *MemoryRegistry) Put(_ context.Context, st Status) error {
	st.SolutionIDs = append([]string(nil), st.SolutionIDs...)
	r.mu.Lock()
	r.data[st.ProcessID] = st
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, processID string) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.data[processID]
	if !ok {
		return Status{}, ErrUnknownRun
	}
	st.SolutionIDs = append([]string(nil), st.SolutionIDs...)
	return st, nil
}

// List returns the statuses ordered by submission time.
func (r *MemoryRegistry) List(context.Context) ([]Status, error) {
	r.mu.RLock()
	out := make([]Status, 0, len(r.data))
	for _, st := range r.data {
		out = append(out, st)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ProcessID < out[j].ProcessID
	})
	return out, nil
}
