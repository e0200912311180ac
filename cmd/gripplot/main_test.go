package main

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/simulate"
)

func TestDecodeCache(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(packets.CacheFilename(dir, packets.RealtimeScience))
	require.NoError(t, err)
	require.NoError(t, simulate.NewGenerator(1000, 7).WriteRealtime(f, 6))
	require.NoError(t, f.Close())

	require.NoError(t, flag.Set("cache-root", dir))
	t.Cleanup(func() { _ = flag.Set("cache-root", "") })

	frames, session, err := decodeCache()
	require.NoError(t, err)
	assert.NotEmpty(t, session)
	assert.Len(t, frames, 70)
	assert.True(t, frames[0].IsPlaceholder())
	assert.False(t, frames[69].IsPlaceholder())
}

func TestDecodeCacheMissing(t *testing.T) {
	require.NoError(t, flag.Set("cache-root", t.TempDir()))
	t.Cleanup(func() { _ = flag.Set("cache-root", "") })

	_, _, err := decodeCache()
	assert.Error(t, err)
}
