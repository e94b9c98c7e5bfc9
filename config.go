package surgegate

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config controls coordinator timing and thresholds. The zero value of
// any field falls back to its default, so callers can set only what they
// care about.
type Config struct {
	// AdmissionTick is the worker pool's admission window interval.
	AdmissionTick time.Duration `mapstructure:"admission_tick"`

	// MonitorInterval is the resource sampler's tick.
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`

	// CadenceWindow is the cadence monitor's rolling window and tick.
	CadenceWindow time.Duration `mapstructure:"cadence_window"`

	// BaseTimeout and PerRequestTimeout bound the completion wait:
	// timeout = BaseTimeout + PerRequestTimeout × batch size.
	BaseTimeout       time.Duration `mapstructure:"base_timeout"`
	PerRequestTimeout time.Duration `mapstructure:"per_request_timeout"`

	// CompletionPoll is the completion-wait poll interval.
	CompletionPoll time.Duration `mapstructure:"completion_poll"`

	// SafeMinimumRate and TargetRate are the cadence thresholds in
	// processed requests per second. Below the minimum, stability decays;
	// at or above the target it recovers.
	SafeMinimumRate float64 `mapstructure:"safe_minimum_rate"`
	TargetRate      float64 `mapstructure:"target_rate"`

	// StableThreshold is the stability score above which a batch result
	// reports its cadence as stable.
	StableThreshold float64 `mapstructure:"stable_threshold"`

	// DrainPriorityFloor is the minimum priority a queued request needs
	// to survive a drain.
	DrainPriorityFloor int `mapstructure:"drain_priority_floor"`

	// MaxQueueDepth caps the pending queue. Zero keeps the queue
	// unbounded, which matches the historical behavior; when set, the
	// overflow tail of a batch is rejected and counted as failed.
	MaxQueueDepth int `mapstructure:"max_queue_depth"`

	// SampleWindow is the number of processing durations kept for the
	// rolling average and percentiles.
	SampleWindow int `mapstructure:"sample_window"`
}

// DefaultConfig returns the standard timing profile: 10 ms admission
// windows, 100 ms monitor ticks, 5 s + 100 ms per request completion
// bound, 60/90 per-second cadence thresholds.
func DefaultConfig() Config {
	return Config{
		AdmissionTick:      10 * time.Millisecond,
		MonitorInterval:    100 * time.Millisecond,
		CadenceWindow:      100 * time.Millisecond,
		BaseTimeout:        5 * time.Second,
		PerRequestTimeout:  100 * time.Millisecond,
		CompletionPoll:     100 * time.Millisecond,
		SafeMinimumRate:    60,
		TargetRate:         90,
		StableThreshold:    0.8,
		DrainPriorityFloor: 8,
		MaxQueueDepth:      0,
		SampleWindow:       100,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AdmissionTick <= 0 {
		c.AdmissionTick = d.AdmissionTick
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = d.MonitorInterval
	}
	if c.CadenceWindow <= 0 {
		c.CadenceWindow = d.CadenceWindow
	}
	if c.BaseTimeout <= 0 {
		c.BaseTimeout = d.BaseTimeout
	}
	if c.PerRequestTimeout <= 0 {
		c.PerRequestTimeout = d.PerRequestTimeout
	}
	if c.CompletionPoll <= 0 {
		c.CompletionPoll = d.CompletionPoll
	}
	if c.SafeMinimumRate <= 0 {
		c.SafeMinimumRate = d.SafeMinimumRate
	}
	if c.TargetRate <= 0 {
		c.TargetRate = d.TargetRate
	}
	if c.StableThreshold <= 0 {
		c.StableThreshold = d.StableThreshold
	}
	if c.DrainPriorityFloor <= 0 {
		c.DrainPriorityFloor = d.DrainPriorityFloor
	}
	if c.SampleWindow <= 0 {
		c.SampleWindow = d.SampleWindow
	}
	return c
}

// LoadConfig reads configuration from an optional file plus SURGEGATE_*
// environment variables, layered over DefaultConfig. Pass an empty path
// to use environment and defaults only.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("admission_tick", defaults.AdmissionTick)
	v.SetDefault("monitor_interval", defaults.MonitorInterval)
	v.SetDefault("cadence_window", defaults.CadenceWindow)
	v.SetDefault("base_timeout", defaults.BaseTimeout)
	v.SetDefault("per_request_timeout", defaults.PerRequestTimeout)
	v.SetDefault("completion_poll", defaults.CompletionPoll)
	v.SetDefault("safe_minimum_rate", defaults.SafeMinimumRate)
	v.SetDefault("target_rate", defaults.TargetRate)
	v.SetDefault("stable_threshold", defaults.StableThreshold)
	v.SetDefault("drain_priority_floor", defaults.DrainPriorityFloor)
	v.SetDefault("max_queue_depth", defaults.MaxQueueDepth)
	v.SetDefault("sample_window", defaults.SampleWindow)

	v.SetEnvPrefix("SURGEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg.withDefaults(), nil
}
