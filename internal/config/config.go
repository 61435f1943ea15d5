// Package config holds rainman2's runtime configuration: Q-learning
// hyperparameters shared by every algorithm variant and the settings
// of the environment under experiment. Factory defaults can be
// overridden by an optional etc/overrides.yml file, RAINMAN2_* env
// vars, and finally the command line.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Environment type selectors for the Cellular environment.
const (
	EnvTypeDev  = "Dev"
	EnvTypeProd = "Prod"
)

// OverridesFile is looked up relative to the working directory and is
// optional.
const OverridesFile = "etc/overrides.yml"

// Algorithm bundles the hyperparameters shared by all Q-learning
// variants plus the neural-network specific knobs.
type Algorithm struct {
	Episodes     int     `mapstructure:"episodes"`
	Alpha        float64 `mapstructure:"alpha"`
	Gamma        float64 `mapstructure:"gamma"`
	Epsilon      float64 `mapstructure:"epsilon"`
	EpsilonDecay float64 `mapstructure:"epsilon_decay"`
	EpsilonMin   float64 `mapstructure:"epsilon_min"`
	Verbose      bool    `mapstructure:"verbose"`

	L1HiddenUnits int    `mapstructure:"l1_hidden_units"`
	L2HiddenUnits int    `mapstructure:"l2_hidden_units"`
	L1Activation  string `mapstructure:"l1_activation"`
	L2Activation  string `mapstructure:"l2_activation"`
	LossFunction  string `mapstructure:"loss_function"`
	Optimizer     string `mapstructure:"optimizer"`

	// Seed for the experiment's RNG. Zero means derive from the clock.
	Seed int64 `mapstructure:"seed"`
}

// Cellular describes how to reach the cellular network environment.
type Cellular struct {
	Name    string `mapstructure:"name"`
	Type    string `mapstructure:"type"`
	Server  string `mapstructure:"server"`
	Port    int    `mapstructure:"port"`
	Verbose bool   `mapstructure:"verbose"`
}

// BaseURL renders the address the Dev client dials.
func (c Cellular) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server, c.Port)
}

// Config is the root configuration object handed around the
// application.
type Config struct {
	Algorithm Algorithm `mapstructure:"algorithm"`
	Cellular  Cellular  `mapstructure:"cellular"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("algorithm.episodes", 1)
	v.SetDefault("algorithm.alpha", 0.5)
	v.SetDefault("algorithm.gamma", 0.9)
	v.SetDefault("algorithm.epsilon", 0.1)
	v.SetDefault("algorithm.epsilon_decay", 0.999)
	v.SetDefault("algorithm.epsilon_min", 0.01)
	v.SetDefault("algorithm.verbose", false)
	v.SetDefault("algorithm.l1_hidden_units", 13)
	v.SetDefault("algorithm.l2_hidden_units", 13)
	v.SetDefault("algorithm.l1_activation", "relu")
	v.SetDefault("algorithm.l2_activation", "relu")
	v.SetDefault("algorithm.loss_function", "mean_squared_error")
	v.SetDefault("algorithm.optimizer", "Adam")
	v.SetDefault("algorithm.seed", 0)

	v.SetDefault("cellular.name", "Cellular")
	v.SetDefault("cellular.type", EnvTypeDev)
	v.SetDefault("cellular.server", "0.0.0.0")
	v.SetDefault("cellular.port", 8000)
	v.SetDefault("cellular.verbose", false)
}

// Load builds a Config from defaults, the optional overrides file and
// RAINMAN2_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("rainman2")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(OverridesFile)
	if err := v.ReadInConfig(); err != nil {
		// The overrides file is optional; anything other than a
		// missing file is a real configuration error.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", OverridesFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the factory configuration without touching the
// filesystem or the process environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Unmarshal over pure defaults cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate checks hyperparameter ranges before an experiment starts.
func (c *Config) Validate() error {
	a := c.Algorithm
	if a.Episodes < 1 {
		return fmt.Errorf("episodes must be >= 1, got %d", a.Episodes)
	}
	if a.Alpha <= 0 || a.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1], got %g", a.Alpha)
	}
	if a.Gamma < 0 || a.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1], got %g", a.Gamma)
	}
	if a.Epsilon < 0 || a.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1], got %g", a.Epsilon)
	}
	if a.EpsilonDecay <= 0 || a.EpsilonDecay > 1 {
		return fmt.Errorf("epsilon_decay must be in (0, 1], got %g", a.EpsilonDecay)
	}
	if a.EpsilonMin < 0 || a.EpsilonMin > a.Epsilon {
		return fmt.Errorf(
			"epsilon_min must be in [0, epsilon], got %g", a.EpsilonMin)
	}
	if a.L1HiddenUnits < 1 || a.L2HiddenUnits < 1 {
		return fmt.Errorf("hidden units must be >= 1, got %d/%d",
			a.L1HiddenUnits, a.L2HiddenUnits)
	}

	switch c.Cellular.Type {
	case EnvTypeDev, EnvTypeProd:
	default:
		return fmt.Errorf("cellular type must be %s or %s, got %q",
			EnvTypeDev, EnvTypeProd, c.Cellular.Type)
	}
	if c.Cellular.Port < 1 || c.Cellular.Port > 65535 {
		return fmt.Errorf("cellular port out of range: %d", c.Cellular.Port)
	}
	return nil
}
