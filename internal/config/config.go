// Package config loads the simulator configuration from a YAML file and
// LIQUID_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zeusync/liquid/internal/core/engine"
	"github.com/zeusync/liquid/internal/core/observability/log"
	"github.com/zeusync/liquid/internal/core/pool"
)

const EnvPrefix = "LIQUID"

type Config struct {
	Log       log.Config      `mapstructure:"log" yaml:"log"`
	Engine    engine.Config   `mapstructure:"engine" yaml:"engine"`
	Pool      pool.Settings   `mapstructure:"pool" yaml:"pool"`
	Simulator SimulatorConfig `mapstructure:"simulator" yaml:"simulator"`
}

// SimulatorConfig drives cmd/simulator.
type SimulatorConfig struct {
	Scenario string `mapstructure:"scenario" yaml:"scenario"`
	// Frames is how many frames a run advances; zero uses the scenario's own length.
	Frames uint64 `mapstructure:"frames" yaml:"frames"`
	// FrameDelta is the fixed step of a deterministic run.
	FrameDelta time.Duration `mapstructure:"frame_delta" yaml:"frame_delta"`
	// Realtime runs the engine on its own ticker instead of stepping it.
	Realtime bool   `mapstructure:"realtime" yaml:"realtime"`
	Output   string `mapstructure:"output" yaml:"output"` // text, json or yaml
}

// NewDefaultConfig returns the configuration produced by SetDefaults alone.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return &cfg
}

func SetDefaults(v *viper.Viper) {
	lc := log.DefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.name", lc.Name)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", lc.MaxSizeMB)
	v.SetDefault("log.max_backups", lc.MaxBackups)
	v.SetDefault("log.max_age_days", lc.MaxAgeDays)
	v.SetDefault("log.compress", lc.Compress)

	ec := engine.DefaultConfig()
	v.SetDefault("engine.frame_rate", ec.FrameRate)
	v.SetDefault("engine.time_scale", ec.TimeScale)
	v.SetDefault("engine.tick_interval", ec.TickInterval)
	v.SetDefault("engine.max_frame_delta", ec.MaxFrameDelta)
	v.SetDefault("engine.max_frames", ec.MaxFrames)

	ps := pool.DefaultSettings()
	v.SetDefault("pool.prediction_enabled", ps.PredictionEnabled)
	v.SetDefault("pool.new_pool_protect_time", ps.NewPoolProtectTime)
	v.SetDefault("pool.prediction_interval", ps.PredictionInterval)
	v.SetDefault("pool.minimum_volume", ps.MinimumVolume)
	v.SetDefault("pool.high_water_mark", ps.HighWaterMark)
	v.SetDefault("pool.low_water_mark", ps.LowWaterMark)
	v.SetDefault("pool.maximum_change_per_update", ps.MaximumChangePerUpdate)
	v.SetDefault("pool.pattern_record_interval", ps.PatternRecordInterval)
	v.SetDefault("pool.maximum_pattern_count", ps.MaximumPatternCount)
	v.SetDefault("pool.minimum_stable_count_of_end_pattern", ps.MinimumStableCountOfEndPattern)
	v.SetDefault("pool.maximum_jitter_of_pattern", ps.MaximumJitterOfPattern)
	v.SetDefault("pool.minimum_history_count", ps.MinimumHistoryCount)
	v.SetDefault("pool.maximum_history_count", ps.MaximumHistoryCount)
	v.SetDefault("pool.minimum_fit_rate", ps.MinimumFitRate)

	v.SetDefault("simulator.scenario", "scenario.yaml")
	v.SetDefault("simulator.frames", 0)
	v.SetDefault("simulator.frame_delta", 100*time.Millisecond)
	v.SetDefault("simulator.realtime", false)
	v.SetDefault("simulator.output", "text")
}

// NewViper returns a viper instance with defaults and LIQUID_* environment
// lookup. A non-empty path is read as the config file; an empty path searches
// ./liquid.yaml and tolerates its absence.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("liquid")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}
	return v, nil
}

func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

// Load is NewViper followed by NewConfigFromViper.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return NewConfigFromViper(v)
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Pool.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Simulator.FrameDelta <= 0 {
		errs = append(errs, errors.New("simulator.frame_delta must be positive"))
	}
	switch c.Simulator.Output {
	case "text", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("simulator.output %q must be text, json or yaml", c.Simulator.Output))
	}
	return errors.Join(errs...)
}
