package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, FormatScheme, cfg.Output.Format)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDuration())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kifgraph.yaml")
	src := `
symbols: sumo.types
output:
  format: both
  pretty: true
pipeline:
  workers: 8
logging:
  categories:
    kif: false
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sumo.types", cfg.Symbols)
	assert.Equal(t, FormatBoth, cfg.Output.Format)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, "sqlite", cfg.Store.Driver, "unset keys keep defaults")
	assert.Equal(t, map[string]bool{"kif": false}, cfg.Logging.Categories)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [not, a, map"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kifgraph.yaml")
	cfg := DefaultConfig()
	cfg.Symbols = "types.txt"
	cfg.Store.Path = "graph.db"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KIFGRAPH_SYMBOLS", "env.types")
	t.Setenv("KIFGRAPH_DB", "env.db")
	t.Setenv("KIFGRAPH_LOG_LEVEL", "debug")
	t.Setenv("KIFGRAPH_WORKERS", "2")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env.types", cfg.Symbols)
	assert.Equal(t, "env.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Pipeline.Workers)

	t.Run("non-numeric workers", func(t *testing.T) {
		t.Setenv("KIFGRAPH_WORKERS", "many")
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.True(t, errors.Is(err, ErrInvalid))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"format", func(c *Config) { c.Output.Format = "turtle" }},
		{"workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"debounce", func(c *Config) { c.Watch.Debounce = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}
