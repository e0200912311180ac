package config

import (
	"github.com/banshee-data/grip.monitor/internal/cache"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
)

// DecoderOptions returns the telemetry decoder settings.
func (c *MonitorConfig) DecoderOptions() telemetry.Options {
	return telemetry.Options{
		MaxFrames:            c.GetMaxFrames(),
		FilterConstant:       c.GetFilterConstant(),
		StreamBreakThreshold: c.GetStreamBreakThreshold(),
		StreamBreakSamples:   c.GetStreamBreakInsertSamples(),
		CoPMinGrip:           c.GetCoPMinGrip(),
		LeftSensorDegrees:    c.GetLeftATIRotationDegrees(),
		RightSensorDegrees:   c.GetRightATIRotationDegrees(),
	}
}

// CacheOptions returns the cache reader settings for the real filesystem.
func (c *MonitorConfig) CacheOptions() cache.Options {
	opts := cache.DefaultOptions(c.GetCacheRoot())
	opts.MaxOpenRetries = c.GetMaxOpenRetries()
	opts.RetryPause = c.GetRetryPause()
	return opts
}
