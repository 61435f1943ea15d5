package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1, cfg.Algorithm.Episodes)
	assert.Equal(t, 0.5, cfg.Algorithm.Alpha)
	assert.Equal(t, 0.9, cfg.Algorithm.Gamma)
	assert.Equal(t, 0.1, cfg.Algorithm.Epsilon)
	assert.Equal(t, 0.999, cfg.Algorithm.EpsilonDecay)
	assert.Equal(t, 0.01, cfg.Algorithm.EpsilonMin)
	assert.Equal(t, 13, cfg.Algorithm.L1HiddenUnits)
	assert.Equal(t, 13, cfg.Algorithm.L2HiddenUnits)
	assert.Equal(t, "relu", cfg.Algorithm.L1Activation)
	assert.Equal(t, "relu", cfg.Algorithm.L2Activation)
	assert.Equal(t, "mean_squared_error", cfg.Algorithm.LossFunction)
	assert.Equal(t, "Adam", cfg.Algorithm.Optimizer)

	assert.Equal(t, "Cellular", cfg.Cellular.Name)
	assert.Equal(t, EnvTypeDev, cfg.Cellular.Type)
	assert.Equal(t, "0.0.0.0", cfg.Cellular.Server)
	assert.Equal(t, 8000, cfg.Cellular.Port)

	require.NoError(t, cfg.Validate())
}

func TestBaseURL(t *testing.T) {
	c := Cellular{Server: "127.0.0.1", Port: 8000}
	assert.Equal(t, "http://127.0.0.1:8000", c.BaseURL())
}

// chdir is a stand-in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadWithoutOverrides(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "etc"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "etc", "overrides.yml"),
		[]byte("algorithm:\n  alpha: 0.2\ncellular:\n  port: 9000\n"),
		0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Algorithm.Alpha)
	assert.Equal(t, 9000, cfg.Cellular.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.9, cfg.Algorithm.Gamma)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RAINMAN2_ALGORITHM_ALPHA", "0.3")
	t.Setenv("RAINMAN2_CELLULAR_SERVER", "10.0.0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Algorithm.Alpha)
	assert.Equal(t, "10.0.0.5", cfg.Cellular.Server)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"episodes", func(c *Config) { c.Algorithm.Episodes = 0 }},
		{"alpha low", func(c *Config) { c.Algorithm.Alpha = 0 }},
		{"alpha high", func(c *Config) { c.Algorithm.Alpha = 1.5 }},
		{"gamma", func(c *Config) { c.Algorithm.Gamma = -0.1 }},
		{"epsilon", func(c *Config) { c.Algorithm.Epsilon = 2 }},
		{"epsilon decay", func(c *Config) { c.Algorithm.EpsilonDecay = 0 }},
		{"epsilon min above epsilon", func(c *Config) { c.Algorithm.EpsilonMin = 0.5 }},
		{"hidden units", func(c *Config) { c.Algorithm.L1HiddenUnits = 0 }},
		{"cellular type", func(c *Config) { c.Cellular.Type = "Staging" }},
		{"cellular port", func(c *Config) { c.Cellular.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
