// Package catalog loads route and vehicle catalogs from YAML or JSON files
// and enriches them with geometry, elevation and zone membership.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	corecatalog "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/geo"
)

// LoadFile decodes a catalog file. The format follows the extension.
func LoadFile(path string) (corecatalog.Data, error) {
	var d corecatalog.Data
	raw, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return d, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return d, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return d, fmt.Errorf("unsupported catalog format: %s", filepath.Ext(path))
	}
	return d, nil
}

// SaveFile encodes d to path in the format of its extension.
func SaveFile(path string, d corecatalog.Data) error {
	var (
		raw []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(d); err == nil {
			err = enc.Close()
		}
		raw = buf.Bytes()
	case ".json":
		raw, err = json.MarshalIndent(d, "", "  ")
	default:
		return fmt.Errorf("unsupported catalog format: %s", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Open loads path, validates its zones against the vertex count and
// indexes it. An empty path yields an empty catalog.
func Open(path string, vertices int) (*corecatalog.MemoryCatalog, error) {
	if path == "" {
		return corecatalog.NewMemoryCatalog(corecatalog.Data{})
	}
	d, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	ix, err := geo.NewZoneIndex(d.Zones, vertices)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	d.Zones = ix.Zones()
	return corecatalog.NewMemoryCatalog(d)
}
