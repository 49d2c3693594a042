package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/factory"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/metrics"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.SolutionStore { return store.NewMemoryStore() })
}

func TestDefaultBackendIsMemory(t *testing.T) {
	s, err := store.New(factory.ModuleConfig{})
	require.NoError(t, err)
	_, ok := s.(*store.MemoryStore)
	assert.True(t, ok)
	assert.Contains(t, store.Backends(), "memory")
}

type storeSink struct {
	metrics.NopSink
	ops []string
}

func (s *storeSink) RecordStore(r metrics.StoreRecord) error {
	s.ops = append(s.ops, r.Operation)
	return nil
}

type runOnlySink struct{}

func (runOnlySink) RecordRun(metrics.RunRecord) error { return nil }

func TestInstrumentedStore(t *testing.T) {
	sink := &storeSink{}
	s := store.Instrument(store.NewMemoryStore(), "memory", sink)
	ctx := context.Background()
	ids, err := s.Persist(ctx, "r", "v", []model.Solution{storetest.Sample(2, 1)})
	require.NoError(t, err)
	_, err = s.ListByRoute(ctx, "r")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, ids[0]))
	assert.Equal(t, []string{"persist", "list_by_route", "delete"}, sink.ops)

	plain := store.NewMemoryStore()
	assert.Same(t, plain, store.Instrument(plain, "memory", runOnlySink{}))
}
