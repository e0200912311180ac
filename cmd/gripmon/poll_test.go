package main

import (
	"context"
	"flag"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/grip.monitor/internal/cache"
	"github.com/banshee-data/grip.monitor/internal/db"
	"github.com/banshee-data/grip.monitor/internal/fsutil"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
	"github.com/banshee-data/grip.monitor/internal/testutil"
	"github.com/banshee-data/grip.monitor/internal/timeutil"
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

const root = "/caches"

func newTestPoller(t *testing.T, withDB bool) (*poller, *fsutil.MemoryFileSystem) {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	clock := timeutil.NewMockClock(time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC))
	opts := cache.Options{Root: root, MaxOpenRetries: 1, FS: mfs, Clock: clock}
	dopts := telemetry.DefaultOptions()
	dopts.MaxFrames = 1000

	p := &poller{
		rt:    cache.NewRealtimeIngester(opts, telemetry.NewDecoder(dopts)),
		hk:    cache.NewHousekeepingIngester(opts),
		clock: clock,
	}
	if withDB {
		database, err := db.NewDB(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		p.db = database
	}
	return p, mfs
}

func appendCaches(t *testing.T, mfs *fsutil.MemoryFileSystem, counter uint16, timestamp float64) {
	t.Helper()
	rt := testutil.SteadyPacket(timestamp, vectors.Vector3{10, 20, 30}, 3)
	require.NoError(t, mfs.Append(packets.CacheFilename(root, packets.RealtimeScience), testutil.RealtimeRecord(t, counter, rt)))
	hk := packets.HealthStatus{User: 1, Task: 2, Step: counter}
	require.NoError(t, mfs.Append(packets.CacheFilename(root, packets.Housekeeping), testutil.HousekeepingRecord(t, counter, hk)))
}

func TestPassRecordsHistory(t *testing.T) {
	p, mfs := newTestPoller(t, true)
	appendCaches(t, mfs, 1, 1000)

	require.NoError(t, p.pass())
	assert.Equal(t, 20, p.rt.Decoder().Buffer().Len())

	passes, err := p.db.RecentIngestPasses(10)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	// Newest first.
	assert.Equal(t, packets.Housekeeping.String(), passes[0].Kind)
	assert.Equal(t, packets.RealtimeScience.String(), passes[1].Kind)
	assert.Equal(t, 20, passes[1].FramesAppended)
	assert.Equal(t, p.rt.Decoder().SessionID(), passes[1].SessionID)

	rows, err := p.db.RecentHousekeeping(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint16(1), rows[0].Step)

	// An idle pass adds nothing.
	require.NoError(t, p.pass())
	passes, err = p.db.RecentIngestPasses(10)
	require.NoError(t, err)
	assert.Len(t, passes, 2)

	appendCaches(t, mfs, 2, 1000.5)
	require.NoError(t, p.pass())
	rows, err = p.db.RecentHousekeeping(10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 30, p.rt.Decoder().Buffer().Len())
}

func TestPassWithoutDatabase(t *testing.T) {
	p, mfs := newTestPoller(t, false)
	appendCaches(t, mfs, 1, 1000)
	require.NoError(t, p.pass())
	assert.Equal(t, 20, p.rt.Decoder().Buffer().Len())
}

func TestPassFailsOnMissingCache(t *testing.T) {
	p, _ := newTestPoller(t, true)

	err := p.pass()
	require.ErrorIs(t, err, cache.ErrCacheUnavailable)
	assert.Contains(t, err.Error(), "realtime cache")

	passes, dbErr := p.db.RecentIngestPasses(10)
	require.NoError(t, dbErr)
	require.Len(t, passes, 1)
	assert.NotEmpty(t, passes[0].Error)
}

func TestPassFailsOnMissingHousekeeping(t *testing.T) {
	p, mfs := newTestPoller(t, false)
	rt := testutil.SteadyPacket(1000, vectors.Vector3{}, 1)
	require.NoError(t, mfs.Append(packets.CacheFilename(root, packets.RealtimeScience), testutil.RealtimeRecord(t, 1, rt)))

	err := p.pass()
	require.ErrorIs(t, err, cache.ErrCacheUnavailable)
	assert.Contains(t, err.Error(), "housekeeping cache")
}

func TestRunStopsOnFatalError(t *testing.T) {
	p, _ := newTestPoller(t, false)
	err := p.run(context.Background(), time.Second)
	assert.ErrorIs(t, err, cache.ErrCacheUnavailable)
}

func TestRunReturnsWhenCancelled(t *testing.T) {
	p, mfs := newTestPoller(t, false)
	appendCaches(t, mfs, 1, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.run(ctx, time.Second))
	assert.Equal(t, 20, p.rt.Decoder().Buffer().Len())
}

func TestRunPollsOnTick(t *testing.T) {
	p, mfs := newTestPoller(t, false)
	clock := p.clock.(*timeutil.MockClock)
	appendCaches(t, mfs, 1, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.run(ctx, time.Second) }()

	require.Eventually(t, func() bool { return p.rt.Decoder().Buffer().Len() == 20 }, time.Second, time.Millisecond)
	appendCaches(t, mfs, 2, 1000.5)
	require.Eventually(t, func() bool {
		clock.Advance(time.Second)
		return p.rt.Decoder().Buffer().Len() == 30
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestLoadConfigOverrides(t *testing.T) {
	require.NoError(t, flag.Set("cache-root", "/data/grip"))
	t.Cleanup(func() { _ = flag.Set("cache-root", "") })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/data/grip", cfg.GetCacheRoot())
	assert.Equal(t, 5, cfg.GetMaxOpenRetries())
}

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, ":8080", *listen)
	assert.Equal(t, "gripmon.db", *dbPath)
	assert.Equal(t, 50, *logMaxSizeMB)
	assert.False(t, *showVersion)
}
