package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(&buf, "test")
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")

	var lines []map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	require.Len(t, lines, 5)
	assert.Equal(t, "test", lines[0]["component"])
	assert.Equal(t, float64(1), lines[1]["k"])
	assert.Equal(t, "info test", lines[2]["message"])
	assert.Equal(t, "error", lines[4]["level"])
}

func TestConfigureLevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Configure(Options{Level: "warn", Format: "json", File: path, MaxSizeMB: 1}))
	t.Cleanup(func() { _ = Configure(Options{}) })

	l := New("optimizer")
	l.Infof("hidden")
	l.Warnf("shown %d", 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown 2")
	assert.True(t, strings.Contains(string(data), `"component":"optimizer"`))
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Configure(Options{Level: "loud"}))
}
