package engine

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("engine: invalid config")

// Config controls the frame loop.
type Config struct {
	// FrameRate is the number of frames Run advances per second.
	FrameRate int `yaml:"frame_rate" mapstructure:"frame_rate"`
	// TimeScale multiplies the frame delta handed to trees and to pool expiry.
	// Pool prediction always runs on the unscaled delta.
	TimeScale float64 `yaml:"time_scale" mapstructure:"time_scale"`
	// TickInterval is the Launch interval of every added tree.
	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	// MaxFrameDelta clamps the measured delta after a stall.
	MaxFrameDelta time.Duration `yaml:"max_frame_delta" mapstructure:"max_frame_delta"`
	// MaxFrames ends Run after that many frames; zero runs until cancelled.
	MaxFrames uint64 `yaml:"max_frames" mapstructure:"max_frames"`
}

func DefaultConfig() Config {
	return Config{
		FrameRate:     30,
		TimeScale:     1,
		TickInterval:  0,
		MaxFrameDelta: 250 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: frame_rate must be positive", ErrInvalidConfig))
	}
	if c.TimeScale < 0 {
		errs = append(errs, fmt.Errorf("%w: time_scale must not be negative", ErrInvalidConfig))
	}
	if c.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: tick_interval must not be negative", ErrInvalidConfig))
	}
	if c.MaxFrameDelta <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_frame_delta must be positive", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// FrameInterval is the wall time between two frames of Run.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

func (c Config) scale(d time.Duration) time.Duration {
	return time.Duration(float64(d) * c.TimeScale)
}
