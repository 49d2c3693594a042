package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/factory"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	corestore "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) corestore.SolutionStore {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "solutions.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solutions.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	ids, err := s.Persist(context.Background(), "r", "v", []model.Solution{storetest.Sample(5, 3)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	sol, err := s.Get(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, storetest.Sample(5, 3).Decisions, sol.Decisions)
}

func TestSQLiteFactory(t *testing.T) {
	s, err := corestore.New(factory.ModuleConfig{
		Type: "sqlite",
		Conf: map[string]any{"path": filepath.Join(t.TempDir(), "f.db")},
	})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	_, ok := s.(*SQLStore)
	assert.True(t, ok)
	assert.Contains(t, corestore.Backends(), "postgres")
}

func TestBindNumbersPlaceholders(t *testing.T) {
	s := &SQLStore{dialect: postgresDialect}
	assert.Equal(t, "a = $1 AND b = $2", s.bind("a = ? AND b = ?"))
	s.dialect = sqliteDialect
	assert.Equal(t, "a = ?", s.bind("a = ?"))
}
