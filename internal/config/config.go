// Package config loads the optional suite configuration file. Every field
// has a working default; a missing file is not an error.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Moonraker MoonrakerConfig     `json:"moonraker" yaml:"moonraker"`
	OutputDir string              `json:"output_dir" yaml:"output_dir"`
	Observer  ObservabilityConfig `json:"observability" yaml:"observability"`
	History   HistoryConfig       `json:"history" yaml:"history"`
}

type MoonrakerConfig struct {
	URL        string `json:"url" yaml:"url"`
	APIKey     string `json:"api_key" yaml:"api_key"`
	TimeoutSec int    `json:"timeout_sec" yaml:"timeout_sec"`
}

type ObservabilityConfig struct {
	OTLPEndpoint string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string  `json:"service_name" yaml:"service_name"`
	SampleRatio  float64 `json:"sample_ratio" yaml:"sample_ratio"`
}

// HistoryConfig points at the optional run-archive database. An empty DSN
// disables archiving.
type HistoryConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

func Default() Config {
	return Config{
		Moonraker: MoonrakerConfig{
			URL:        "http://localhost:7125",
			TimeoutSec: 30,
		},
		OutputDir: "/tmp",
		Observer: ObservabilityConfig{
			ServiceName: "probe-accuracy",
			SampleRatio: 1,
		},
	}
}

// Load reads a yaml or json config file merged over the defaults. An empty
// path returns plain defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json config: %w", err)
		}
	default:
		var yamlErr error
		if yamlErr = yaml.Unmarshal(data, &cfg); yamlErr == nil {
			break
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.New("config format not recognized (expected yaml/json)")
		}
	}
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.Moonraker.URL) == "" {
		cfg.Moonraker.URL = "http://localhost:7125"
	}
	cfg.Moonraker.URL = strings.TrimRight(cfg.Moonraker.URL, "/")
	if cfg.Moonraker.TimeoutSec <= 0 {
		cfg.Moonraker.TimeoutSec = 30
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = "/tmp"
	}
	if cfg.Observer.SampleRatio <= 0 || cfg.Observer.SampleRatio > 1 {
		cfg.Observer.SampleRatio = 1
	}
	if strings.TrimSpace(cfg.Observer.ServiceName) == "" {
		cfg.Observer.ServiceName = "probe-accuracy"
	}
}
