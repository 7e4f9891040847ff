package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the probe.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	// Addr is the diagnostics HTTP listen address; empty disables the server.
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// ScenariosDir is scanned for scenario files.
	ScenariosDir string `json:"scenarios_dir" yaml:"scenarios_dir" toml:"scenarios_dir"`
	// Scenario is the id of the scenario to run.
	Scenario string `json:"scenario" yaml:"scenario" toml:"scenario"`
	// LogLevel: debug|info|warn|error.
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	// LogFormat: console|json.
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
