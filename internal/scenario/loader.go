package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"bindprobe/internal/common/fsutil"
)

// Load reads a scenario file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &sc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &sc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &sc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario extension: %s", ext)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

// LoadDir scans a directory for scenario files and builds a registry.
// Files are loaded in filename order; duplicate ids are an error.
func LoadDir(dir string) (*Registry, error) {
	paths, err := fsutil.ListWithExts(dir, ".yaml", ".yml", ".json", ".toml")
	if err != nil {
		return nil, err
	}
	reg := &Registry{byID: make(map[string]*Scenario)}
	for _, p := range paths {
		sc, err := Load(p)
		if err != nil {
			return nil, err
		}
		if _, exists := reg.byID[sc.ID]; exists {
			return nil, duplicateIDError{id: sc.ID, path: p}
		}
		reg.byID[sc.ID] = sc
		reg.list = append(reg.list, sc)
	}
	return reg, nil
}
