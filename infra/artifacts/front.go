// Package artifacts writes per-run output files: the final front of each
// run and a rotating journal of run events.
package artifacts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// FrontFile is the name of the front artifact inside a run directory.
const FrontFile = "front.jsonl"

var unsafeID = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FrontWriter stores each front as JSONL under dir/run_<processId>/.
type FrontWriter struct {
	dir string
	mu  sync.Mutex
}

// NewFrontWriter creates dir if needed.
func NewFrontWriter(dir string) (*FrontWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FrontWriter{dir: dir}, nil
}

// RunDir returns the directory holding the artifacts of a run.
func (w *FrontWriter) RunDir(processID string) string {
	return filepath.Join(w.dir, "run_"+unsafeID.ReplaceAllString(processID, "_"))
}

// WriteFront replaces the front of the run. The file is written to a
// temporary name and renamed so readers never see a partial front.
func (w *FrontWriter) WriteFront(processID string, front []model.Solution) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir := w.RunDir(processID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, FrontFile+".*")
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(tmp)
	enc := json.NewEncoder(bw)
	for _, sol := range front {
		if err := enc.Encode(sol); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("encode front: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, FrontFile))
}

// ReadFront loads the front written for a run.
func (w *FrontWriter) ReadFront(processID string) ([]model.Solution, error) {
	f, err := os.Open(filepath.Join(w.RunDir(processID), FrontFile))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var out []model.Solution
	dec := json.NewDecoder(f)
	for dec.More() {
		var sol model.Solution
		if err := dec.Decode(&sol); err != nil {
			return nil, fmt.Errorf("decode front: %w", err)
		}
		out = append(out, sol)
	}
	return out, nil
}
