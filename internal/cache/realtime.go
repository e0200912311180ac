package cache

import (
	"sync"

	"github.com/banshee-data/grip.monitor/internal/monitoring"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
)

// Result summarises one ingestion pass.
type Result struct {
	// NewData is true when the last record seen carries a different
	// telemetry counter from the one seen at the end of the previous pass.
	NewData        bool
	RecordsRead    int
	FramesAppended int
	// BufferFull is set on the pass that filled the sample buffer and on
	// every pass after it.
	BufferFull bool
}

// RealtimeIngester feeds the realtime science cache to a Decoder, resuming
// each pass where the previous one stopped.
type RealtimeIngester struct {
	opts    Options
	decoder *telemetry.Decoder
	name    string

	mu              sync.Mutex
	offset          int64
	lastCounter     uint16
	previousCounter uint16
	fullAlerted     bool
}

// NewRealtimeIngester reads the realtime cache under opts.Root into d.
func NewRealtimeIngester(opts Options, d *telemetry.Decoder) *RealtimeIngester {
	opts = opts.withDefaults()
	return &RealtimeIngester{
		opts:    opts,
		decoder: d,
		name:    packets.CacheFilename(opts.Root, packets.RealtimeScience),
	}
}

// Filename is the cache file being read.
func (in *RealtimeIngester) Filename() string { return in.name }

// Decoder is the decoder records are fed to.
func (in *RealtimeIngester) Decoder() *telemetry.Decoder { return in.decoder }

// Offset is the byte offset of the first record not yet read.
func (in *RealtimeIngester) Offset() int64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.offset
}

// Reset starts a new decoding session from the beginning of the cache. It is
// the way out of a full buffer once the caches have been moved aside.
func (in *RealtimeIngester) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.decoder.Reset()
	in.offset = 0
	in.lastCounter = 0
	in.previousCounter = 0
	in.fullAlerted = false
}

// Ingest decodes every complete record appended since the last pass. Errors
// are fatal: the cache could not be opened, could not be read, or holds a
// record that is not realtime science data.
func (in *RealtimeIngester) Ingest() (Result, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.fullAlerted {
		return Result{BufferFull: true}, nil
	}

	f, err := openWithRetry(in.opts, in.name)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	in.offset = rewindIfTruncated(in.opts, in.name, in.offset)
	r, err := newRecordReader(f, packets.RealtimeScience, in.offset)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for !in.decoder.Buffer().Full() {
		record, header, ok, err := r.next()
		if err != nil {
			return res, err
		}
		if !ok {
			break
		}
		rt, err := packets.ExtractRealtimePacket(record)
		if err != nil {
			return res, err
		}
		res.RecordsRead++
		res.FramesAppended += in.decoder.Decode(rt)
		in.lastCounter = header.TMCounter
		in.offset = r.offset
	}
	monitoring.Inc(monitoring.MetricRealtimePacketsRead, int64(res.RecordsRead))

	if in.decoder.Buffer().Full() {
		res.BufferFull = true
		in.fullAlerted = true
		monitoring.Logf("sample buffer full at %d frames; existing data remains available. "+
			"To follow new transmissions, halt gripmon and the ground monitor client, "+
			"move %s and %s aside, and restart.",
			in.decoder.Buffer().Cap(), in.name, packets.CacheFilename(in.opts.Root, packets.Housekeeping))
	}

	res.NewData = in.lastCounter != in.previousCounter
	in.previousCounter = in.lastCounter
	return res, nil
}
