package pool

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSettings = errors.New("pool: invalid settings")

// Settings holds every tunable of an ObjectPool's prediction loop.
type Settings struct {
	PredictionEnabled bool `yaml:"prediction_enabled" mapstructure:"prediction_enabled"`
	// NewPoolProtectTime suppresses shrink predictions right after creation.
	NewPoolProtectTime time.Duration `yaml:"new_pool_protect_time" mapstructure:"new_pool_protect_time"`
	PredictionInterval time.Duration `yaml:"prediction_interval" mapstructure:"prediction_interval"`
	MinimumVolume      int           `yaml:"minimum_volume" mapstructure:"minimum_volume"`

	HighWaterMark          float64 `yaml:"high_water_mark" mapstructure:"high_water_mark"`
	LowWaterMark           float64 `yaml:"low_water_mark" mapstructure:"low_water_mark"`
	MaximumChangePerUpdate int     `yaml:"maximum_change_per_update" mapstructure:"maximum_change_per_update"`

	PatternRecordInterval          time.Duration `yaml:"pattern_record_interval" mapstructure:"pattern_record_interval"`
	MaximumPatternCount            int           `yaml:"maximum_pattern_count" mapstructure:"maximum_pattern_count"`
	MinimumStableCountOfEndPattern int           `yaml:"minimum_stable_count_of_end_pattern" mapstructure:"minimum_stable_count_of_end_pattern"`
	MaximumJitterOfPattern         int           `yaml:"maximum_jitter_of_pattern" mapstructure:"maximum_jitter_of_pattern"`
	MinimumHistoryCount            int           `yaml:"minimum_history_count" mapstructure:"minimum_history_count"`
	MaximumHistoryCount            int           `yaml:"maximum_history_count" mapstructure:"maximum_history_count"`
	MinimumFitRate                 float64       `yaml:"minimum_fit_rate" mapstructure:"minimum_fit_rate"`
}

func DefaultSettings() Settings {
	return Settings{
		PredictionEnabled:              true,
		NewPoolProtectTime:             5 * time.Second,
		PredictionInterval:             2 * time.Second,
		MinimumVolume:                  10,
		HighWaterMark:                  0.85,
		LowWaterMark:                   0.5,
		MaximumChangePerUpdate:         10,
		PatternRecordInterval:          time.Second,
		MaximumPatternCount:            20,
		MinimumStableCountOfEndPattern: 3,
		MaximumJitterOfPattern:         2,
		MinimumHistoryCount:            6,
		MaximumHistoryCount:            20,
		MinimumFitRate:                 0.8,
	}
}

func (s Settings) Validate() error {
	var errs []error
	check := func(ok bool, field, rule string) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s %s", ErrInvalidSettings, field, rule))
		}
	}
	check(s.NewPoolProtectTime >= 0, "new_pool_protect_time", "must not be negative")
	check(s.PredictionInterval > 0, "prediction_interval", "must be positive")
	check(s.PatternRecordInterval > 0, "pattern_record_interval", "must be positive")
	check(s.MinimumVolume >= 0, "minimum_volume", "must not be negative")
	check(s.LowWaterMark >= 0 && s.LowWaterMark <= s.HighWaterMark && s.HighWaterMark <= 1,
		"water marks", "must satisfy 0 <= low <= high <= 1")
	check(s.MaximumChangePerUpdate >= 1, "maximum_change_per_update", "must be at least 1")
	check(s.MaximumPatternCount >= 1, "maximum_pattern_count", "must be at least 1")
	check(s.MinimumStableCountOfEndPattern >= 1, "minimum_stable_count_of_end_pattern", "must be at least 1")
	check(s.MaximumJitterOfPattern >= 0, "maximum_jitter_of_pattern", "must not be negative")
	check(s.MinimumHistoryCount >= 0, "minimum_history_count", "must not be negative")
	check(s.MaximumHistoryCount >= 2, "maximum_history_count", "must be at least 2")
	check(s.MinimumFitRate > 0, "minimum_fit_rate", "must be positive")
	return errors.Join(errs...)
}
