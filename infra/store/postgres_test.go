package store

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	corestore "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store/storetest"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/test/util"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	dsn, cleanup, err := util.StartPostgres(ctx)
	if err != nil {
		t.Skipf("unable to start postgres: %v", err)
	}
	defer cleanup()

	storetest.Run(t, func(t *testing.T) corestore.SolutionStore {
		s, err := NewPostgresStore(ctx, dsn)
		require.NoError(t, err)
		_, err = s.db.ExecContext(ctx, `TRUNCATE solution_decisions, solutions`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
