package artifacts

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

func TestFrontWriterReplacesFront(t *testing.T) {
	w, err := NewFrontWriter(t.TempDir())
	require.NoError(t, err)
	front := []model.Solution{
		{RouteID: "r", Feasible: true, TotalEnergyKWh: 1.25, Decisions: []model.SegmentDecision{{SegmentID: "s", Mode: model.ModeElectric}}},
		{RouteID: "r", Feasible: true, TotalEmissionsKg: 0.5, Decisions: []model.SegmentDecision{{SegmentID: "s", Mode: model.ModeCombustion}}},
	}
	require.NoError(t, w.WriteFront("run/1", front[:1]))
	require.NoError(t, w.WriteFront("run/1", front))

	assert.Equal(t, "run_run_1", filepath.Base(w.RunDir("run/1")))
	got, err := w.ReadFront("run/1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, front[1].Modes(), got[1].Modes())

	entries, err := os.ReadDir(w.RunDir("run/1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FrontFile, entries[0].Name())
}

func TestEmptyFrontIsWritten(t *testing.T) {
	w, err := NewFrontWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.WriteFront("p", nil))
	got, err := w.ReadFront("p")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJournalFollowsBus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "runs.jsonl")
	j, err := NewJournal(JournalConfig{Path: path, MaxSizeMB: 1})
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	bus := eventbus.NewTyped[events.RunEvent]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	j.Follow(ctx, bus)
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	bus.Publish(events.RunEvent{ProcessID: "p", Kind: events.KindStarted})
	bus.Publish(events.RunEvent{ProcessID: "p", Kind: events.KindProgress})
	bus.Publish(events.RunEvent{ProcessID: "p", Kind: events.KindCompleted, Persisted: 3})

	require.Eventually(t, func() bool {
		return len(readKinds(t, path)) == 2
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, []events.Kind{events.KindStarted, events.KindCompleted}, readKinds(t, path))
}

func readKinds(_ *testing.T, path string) []events.Kind {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()
	var kinds []events.Kind
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev events.RunEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			continue
		}
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}
