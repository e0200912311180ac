package monitoring

import (
	gometrics "github.com/rcrowley/go-metrics"
)

// Counter names recorded during ingestion.
const (
	MetricCacheOpenRetries     = "cache.open.retries"
	MetricRealtimePacketsRead  = "cache.rt.packets.read"
	MetricHousekeepingRead     = "cache.hk.packets.read"
	MetricFramesAppended       = "telemetry.frames.appended"
	MetricStreamBreaks         = "telemetry.stream.breaks"
	MetricPlaceholdersInserted = "telemetry.placeholders.inserted"
)

var registry = gometrics.NewRegistry()

// Inc adds n to the named counter, registering it on first use.
func Inc(name string, n int64) {
	gometrics.GetOrRegisterCounter(name, registry).Inc(n)
}

// Count returns the current value of the named counter, or zero if it has
// never been incremented.
func Count(name string) int64 {
	if c, ok := registry.Get(name).(gometrics.Counter); ok {
		return c.Snapshot().Count()
	}
	return 0
}

// MetricsSnapshot returns every registered counter by name.
func MetricsSnapshot() map[string]int64 {
	out := make(map[string]int64)
	registry.Each(func(name string, m interface{}) {
		if c, ok := m.(gometrics.Counter); ok {
			out[name] = c.Snapshot().Count()
		}
	})
	return out
}
