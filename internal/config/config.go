package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "kifgraph.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Output formats.
const (
	FormatScheme = "scheme"
	FormatMangle = "mangle"
	FormatBoth   = "both"
)

// Config holds all kifgraph configuration.
type Config struct {
	// Symbols is the symbol type table file. Empty means every symbol
	// resolves to a concept.
	Symbols string `yaml:"symbols"`

	Output   OutputConfig   `yaml:"output"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Store    StoreConfig    `yaml:"store"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OutputConfig controls where and how translated graphs are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`    // empty = next to the input file
	Format string `yaml:"format"` // scheme, mangle, both
	Pretty bool   `yaml:"pretty"`
}

// PipelineConfig controls batch runs.
type PipelineConfig struct {
	Workers int `yaml:"workers"` // files translated concurrently
}

// StoreConfig configures optional SQLite persistence.
type StoreConfig struct {
	Path   string `yaml:"path"`   // empty = no persistence
	Driver string `yaml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	File       string          `yaml:"file"`
	Categories map[string]bool `yaml:"categories,omitempty"` // per-category toggles
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: FormatScheme,
		},
		Pipeline: PipelineConfig{
			Workers: 4,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv("KIFGRAPH_SYMBOLS"); path != "" {
		c.Symbols = path
	}
	if path := os.Getenv("KIFGRAPH_DB"); path != "" {
		c.Store.Path = path
	}
	if level := os.Getenv("KIFGRAPH_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if w := os.Getenv("KIFGRAPH_WORKERS"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil {
			return fmt.Errorf("%w: KIFGRAPH_WORKERS=%q is not a number", ErrInvalid, w)
		}
		c.Pipeline.Workers = n
	}
	return nil
}

// DebounceDuration parses Watch.Debounce, falling back to 500ms.
func (c *Config) DebounceDuration() time.Duration {
	if d, err := time.ParseDuration(c.Watch.Debounce); err == nil && d > 0 {
		return d
	}
	return 500 * time.Millisecond
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatScheme, FormatMangle, FormatBoth:
	default:
		return fmt.Errorf("%w: output format %q (valid: scheme, mangle, both)", ErrInvalid, c.Output.Format)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("%w: pipeline workers must be at least 1, got %d", ErrInvalid, c.Pipeline.Workers)
	}
	switch c.Store.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("%w: store driver %q (valid: sqlite, sqlite3)", ErrInvalid, c.Store.Driver)
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("%w: watch debounce: %v", ErrInvalid, err)
		}
	}
	return nil
}
