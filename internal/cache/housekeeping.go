package cache

import (
	"sync"

	"github.com/banshee-data/grip.monitor/internal/monitoring"
	"github.com/banshee-data/grip.monitor/internal/packets"
)

// Snapshot is the most recent housekeeping record.
type Snapshot struct {
	Header packets.TelemetryHeader
	Status packets.HealthStatus
}

// HousekeepingResult summarises one housekeeping pass.
type HousekeepingResult struct {
	NewData     bool
	RecordsRead int
	Latest      Snapshot
	// Valid is false until at least one record has been read.
	Valid bool
}

// HousekeepingIngester tracks the latest record of the housekeeping cache.
type HousekeepingIngester struct {
	opts Options
	name string

	offset          int64
	previousCounter uint16

	mu     sync.RWMutex
	latest Snapshot
	valid  bool
}

// NewHousekeepingIngester reads the housekeeping cache under opts.Root.
func NewHousekeepingIngester(opts Options) *HousekeepingIngester {
	opts = opts.withDefaults()
	return &HousekeepingIngester{
		opts: opts,
		name: packets.CacheFilename(opts.Root, packets.Housekeeping),
	}
}

// Filename is the cache file being read.
func (in *HousekeepingIngester) Filename() string { return in.name }

// Latest returns the most recent snapshot, if any has been read.
func (in *HousekeepingIngester) Latest() (Snapshot, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.latest, in.valid
}

// Ingest reads every complete record appended since the last pass and keeps
// the last of them. Errors are fatal, as for RealtimeIngester.
func (in *HousekeepingIngester) Ingest() (HousekeepingResult, error) {
	f, err := openWithRetry(in.opts, in.name)
	if err != nil {
		return HousekeepingResult{}, err
	}
	defer f.Close()

	in.offset = rewindIfTruncated(in.opts, in.name, in.offset)
	r, err := newRecordReader(f, packets.Housekeeping, in.offset)
	if err != nil {
		return HousekeepingResult{}, err
	}

	var res HousekeepingResult
	for {
		record, header, ok, err := r.next()
		if err != nil {
			return res, err
		}
		if !ok {
			break
		}
		hk, err := packets.ExtractHealthStatus(record)
		if err != nil {
			return res, err
		}
		res.RecordsRead++
		in.offset = r.offset

		in.mu.Lock()
		in.latest = Snapshot{Header: header, Status: hk}
		in.valid = true
		in.mu.Unlock()
	}
	monitoring.Inc(monitoring.MetricHousekeepingRead, int64(res.RecordsRead))

	res.Latest, res.Valid = in.Latest()
	if res.Valid {
		res.NewData = res.Latest.Header.TMCounter != in.previousCounter
		in.previousCounter = res.Latest.Header.TMCounter
	}
	return res, nil
}
