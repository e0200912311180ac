package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical monitor defaults file.
// Its values match the Get* fallbacks below.
const DefaultConfigPath = "config/monitor.defaults.json"

// Fallbacks used when a field is absent.
const (
	defaultCacheRoot            = "."
	defaultMaxOpenRetries       = 5
	defaultRetryPause           = 20 * time.Millisecond
	defaultPollInterval         = time.Second
	defaultMaxFrames            = 12 * 60 * 60 * 20 // twelve hours at 20 Hz
	defaultFilterConstant       = 100.0
	defaultStreamBreakThreshold = 1.0
	defaultStreamBreakSamples   = 10
	defaultCoPMinGrip           = 0.5
)

// MonitorConfig holds the settings of the telemetry monitor. Every field is
// optional; the Get* methods supply the default for a missing one.
type MonitorConfig struct {
	// Cache access
	CacheRoot      *string `json:"cache_root,omitempty"`
	MaxOpenRetries *int    `json:"max_open_retries,omitempty"`
	RetryPause     *string `json:"retry_pause,omitempty"`   // duration string like "20ms"
	PollInterval   *string `json:"poll_interval,omitempty"` // duration string like "1s"

	// Decoder
	MaxFrames                   *int     `json:"max_frames,omitempty"`
	FilterConstant              *float64 `json:"filter_constant,omitempty"`
	StreamBreakThresholdSeconds *float64 `json:"stream_break_threshold_seconds,omitempty"`
	StreamBreakInsertSamples    *int     `json:"stream_break_insert_samples,omitempty"`

	// Force sensors
	CoPMinGrip              *float64 `json:"cop_min_grip,omitempty"`
	LeftATIRotationDegrees  *float64 `json:"left_ati_rotation_degrees,omitempty"`
	RightATIRotationDegrees *float64 `json:"right_ati_rotation_degrees,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyMonitorConfig returns a MonitorConfig with every field unset.
func EmptyMonitorConfig() *MonitorConfig {
	return &MonitorConfig{}
}

// LoadMonitorConfig loads a MonitorConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadMonitorConfig(path string) (*MonitorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMonitorConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *MonitorConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadMonitorConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *MonitorConfig) Validate() error {
	if c.MaxOpenRetries != nil && *c.MaxOpenRetries < 1 {
		return fmt.Errorf("max_open_retries must be at least 1, got %d", *c.MaxOpenRetries)
	}
	if c.RetryPause != nil && *c.RetryPause != "" {
		d, err := time.ParseDuration(*c.RetryPause)
		if err != nil {
			return fmt.Errorf("invalid retry_pause '%s': %w", *c.RetryPause, err)
		}
		if d < 0 {
			return fmt.Errorf("retry_pause must be non-negative, got %s", d)
		}
	}
	if c.PollInterval != nil && *c.PollInterval != "" {
		d, err := time.ParseDuration(*c.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("poll_interval must be positive, got %s", d)
		}
	}
	if c.MaxFrames != nil && *c.MaxFrames < 1 {
		return fmt.Errorf("max_frames must be at least 1, got %d", *c.MaxFrames)
	}
	if c.FilterConstant != nil && *c.FilterConstant < 0 {
		return fmt.Errorf("filter_constant must be non-negative, got %f", *c.FilterConstant)
	}
	if c.StreamBreakThresholdSeconds != nil && *c.StreamBreakThresholdSeconds <= 0 {
		return fmt.Errorf("stream_break_threshold_seconds must be positive, got %f", *c.StreamBreakThresholdSeconds)
	}
	if c.StreamBreakInsertSamples != nil && *c.StreamBreakInsertSamples < 0 {
		return fmt.Errorf("stream_break_insert_samples must be non-negative, got %d", *c.StreamBreakInsertSamples)
	}
	if c.CoPMinGrip != nil && *c.CoPMinGrip < 0 {
		return fmt.Errorf("cop_min_grip must be non-negative, got %f", *c.CoPMinGrip)
	}
	return nil
}

// GetCacheRoot returns the directory holding the packet caches.
func (c *MonitorConfig) GetCacheRoot() string {
	if c.CacheRoot == nil || *c.CacheRoot == "" {
		return defaultCacheRoot
	}
	return *c.CacheRoot
}

// GetMaxOpenRetries returns the number of attempts made to open a cache.
func (c *MonitorConfig) GetMaxOpenRetries() int {
	if c.MaxOpenRetries == nil {
		return defaultMaxOpenRetries
	}
	return *c.MaxOpenRetries
}

// GetRetryPause parses and returns the pause between open attempts.
func (c *MonitorConfig) GetRetryPause() time.Duration {
	return parseDurationOr(c.RetryPause, defaultRetryPause)
}

// GetPollInterval parses and returns the time between ingestion passes.
func (c *MonitorConfig) GetPollInterval() time.Duration {
	return parseDurationOr(c.PollInterval, defaultPollInterval)
}

func parseDurationOr(s *string, fallback time.Duration) time.Duration {
	if s == nil || *s == "" {
		return fallback
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return fallback
	}
	return d
}

// GetMaxFrames returns the sample buffer capacity.
func (c *MonitorConfig) GetMaxFrames() int {
	if c.MaxFrames == nil {
		return defaultMaxFrames
	}
	return *c.MaxFrames
}

// GetFilterConstant returns the smoothing constant of the filter bank.
func (c *MonitorConfig) GetFilterConstant() float64 {
	if c.FilterConstant == nil {
		return defaultFilterConstant
	}
	return *c.FilterConstant
}

// GetStreamBreakThreshold returns the packet gap, in seconds, that counts
// as a break in the stream.
func (c *MonitorConfig) GetStreamBreakThreshold() float64 {
	if c.StreamBreakThresholdSeconds == nil {
		return defaultStreamBreakThreshold
	}
	return *c.StreamBreakThresholdSeconds
}

// GetStreamBreakInsertSamples returns how many placeholder frames mark a
// break.
func (c *MonitorConfig) GetStreamBreakInsertSamples() int {
	if c.StreamBreakInsertSamples == nil {
		return defaultStreamBreakSamples
	}
	return *c.StreamBreakInsertSamples
}

// GetCoPMinGrip returns the normal force, in newtons, below which the
// center of pressure is not computed.
func (c *MonitorConfig) GetCoPMinGrip() float64 {
	if c.CoPMinGrip == nil {
		return defaultCoPMinGrip
	}
	return *c.CoPMinGrip
}

// GetLeftATIRotationDegrees returns the mounting angle of the left sensor.
func (c *MonitorConfig) GetLeftATIRotationDegrees() float64 {
	if c.LeftATIRotationDegrees == nil {
		return 0
	}
	return *c.LeftATIRotationDegrees
}

// GetRightATIRotationDegrees returns the mounting angle of the right sensor.
func (c *MonitorConfig) GetRightATIRotationDegrees() float64 {
	if c.RightATIRotationDegrees == nil {
		return 0
	}
	return *c.RightATIRotationDegrees
}
