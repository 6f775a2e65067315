// Package config loads pipegraph settings from defaults, a YAML file and
// PGQ_ prefixed environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "PGQ"

// Config holds every tunable setting
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Query     QueryConfig     `mapstructure:"query"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GraphConfig sizes the graph store
type GraphConfig struct {
	BloomExpected uint64  `mapstructure:"bloom_expected"`
	BloomFPR      float64 `mapstructure:"bloom_fpr"`
}

// QueryConfig bounds plan execution
type QueryConfig struct {
	DefaultMaxDepth int  `mapstructure:"default_max_depth"`
	LimitDepth      bool `mapstructure:"limit_depth"`
}

// TelemetryConfig controls tracing
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Graph: GraphConfig{
			BloomExpected: 4096,
			BloomFPR:      0.01,
		},
		Query: QueryConfig{
			DefaultMaxDepth: 5,
			LimitDepth:      true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "pipegraph",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("graph.bloom_expected", d.Graph.BloomExpected)
	v.SetDefault("graph.bloom_fpr", d.Graph.BloomFPR)
	v.SetDefault("query.default_max_depth", d.Query.DefaultMaxDepth)
	v.SetDefault("query.limit_depth", d.Query.LimitDepth)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
}

// Load reads the configuration. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Graph.BloomFPR < 0 || c.Graph.BloomFPR >= 1 {
		return fmt.Errorf("graph.bloom_fpr must be in [0, 1), got %v", c.Graph.BloomFPR)
	}
	if c.Query.DefaultMaxDepth < 1 {
		return fmt.Errorf("query.default_max_depth must be positive, got %d", c.Query.DefaultMaxDepth)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
