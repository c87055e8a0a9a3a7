package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is probed when no --config flag is given; a missing file
// there silently falls back to Default().
const DefaultPath = "musage.toml"

type Config struct {
	Extensions []string  `toml:"extensions"`
	Exclude    Exclude   `toml:"exclude"`
	Scan       Scan      `toml:"scan"`
	Watch      Watch     `toml:"watch"`
	History    History   `toml:"history"`
	Metrics    Metrics   `toml:"metrics"`
	Telemetry  Telemetry `toml:"telemetry"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Scan struct {
	Workers   int    `toml:"workers"` // 0 means one worker per CPU
	Strict    bool   `toml:"strict"`
	Boundary  string `toml:"boundary"`
	SkipTests bool   `toml:"skip_tests"`
}

type Watch struct {
	Debounce      time.Duration `toml:"debounce"`
	RescansPerSec float64       `toml:"rescans_per_sec"`
	UILogFile     string        `toml:"ui_log_file"`
}

type History struct {
	Path string `toml:"path"`
}

type Metrics struct {
	File string `toml:"file"`
}

type Telemetry struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Default returns the built-in configuration. Extensions stay empty so
// the scanner can fall back to every language the parser registers.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{
			".git", "__pycache__", "node_modules", "venv", ".venv", ".tox", "dist", "build",
		}
	}
	if cfg.Scan.Boundary == "" {
		cfg.Scan.Boundary = "prefix"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RescansPerSec == 0 {
		cfg.Watch.RescansPerSec = 2
	}
	if cfg.Watch.UILogFile == "" {
		cfg.Watch.UILogFile = "musage.log"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "musage"
	}
}
