// Package cache reads the packet cache files written by the ground
// monitor client and feeds their records to the decoder.
//
// The producer appends fixed-length records to one file per packet kind and
// may hold a file briefly while writing, so opens are retried. A record cut
// short at the end of a file is the producer mid-write: the pass stops there
// and the next pass starts again from that record.
package cache

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/grip.monitor/internal/fsutil"
	"github.com/banshee-data/grip.monitor/internal/monitoring"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/timeutil"
)

const (
	DefaultMaxOpenRetries = 5
	DefaultRetryPause     = 20 * time.Millisecond
)

var (
	// ErrCacheUnavailable means every open attempt failed. The caller should
	// stop: the producer is gone or the path is wrong.
	ErrCacheUnavailable = errors.New("cache: file unavailable")

	// ErrReadFailed wraps an I/O error other than end of file.
	ErrReadFailed = errors.New("cache: read failed")
)

// RestartHint is appended to fatal cache errors when they are reported to
// the operator.
const RestartHint = "Halt gripmon and the ground monitor client, then restart both."

// Options configures how cache files are opened.
type Options struct {
	Root           string
	MaxOpenRetries int
	RetryPause     time.Duration
	FS             fsutil.FileSystem
	Clock          timeutil.Clock
}

// DefaultOptions reads caches in root from the real filesystem.
func DefaultOptions(root string) Options {
	return Options{
		Root:           root,
		MaxOpenRetries: DefaultMaxOpenRetries,
		RetryPause:     DefaultRetryPause,
		FS:             fsutil.OSFileSystem{},
		Clock:          timeutil.RealClock{},
	}
}

func (o Options) withDefaults() Options {
	if o.MaxOpenRetries < 1 {
		o.MaxOpenRetries = 1
	}
	if o.FS == nil {
		o.FS = fsutil.OSFileSystem{}
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	return o
}

// openWithRetry makes exactly MaxOpenRetries attempts, pausing between
// consecutive attempts but not after the last.
func openWithRetry(o Options, name string) (fsutil.File, error) {
	var lastErr error
	for attempt := 1; attempt <= o.MaxOpenRetries; attempt++ {
		f, err := o.FS.Open(name)
		if err == nil {
			return f, nil
		}
		lastErr = err
		if attempt < o.MaxOpenRetries {
			monitoring.Inc(monitoring.MetricCacheOpenRetries, 1)
			o.Clock.Sleep(o.RetryPause)
		}
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrCacheUnavailable, name, o.MaxOpenRetries, lastErr)
}

// rewindIfTruncated returns the offset to resume from. A cache shorter than
// offset has been replaced, so reading starts again from its beginning.
func rewindIfTruncated(o Options, name string, offset int64) int64 {
	info, err := o.FS.Stat(name)
	if err != nil || info.Size() >= offset {
		return offset
	}
	monitoring.Logf("%s shrank from %d to %d bytes; reading it from the start", name, offset, info.Size())
	return 0
}

// recordReader yields the complete records of one kind in a cache file,
// starting at a byte offset.
type recordReader struct {
	f      fsutil.File
	kind   packets.Kind
	buf    []byte
	offset int64
}

func newRecordReader(f fsutil.File, kind packets.Kind, offset int64) (*recordReader, error) {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek to %d: %v", ErrReadFailed, offset, err)
	}
	return &recordReader{
		f:      f,
		kind:   kind,
		buf:    make([]byte, kind.RecordLength()),
		offset: offset,
	}, nil
}

// next returns the next record and its validated header. ok is false at the
// end of the complete records. The returned slice is reused by the next
// call.
func (r *recordReader) next() (record []byte, header packets.TelemetryHeader, ok bool, err error) {
	n, err := io.ReadFull(r.f, r.buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, header, false, nil
	}
	if err != nil {
		return nil, header, false, fmt.Errorf("%w: at offset %d: %v", ErrReadFailed, r.offset, err)
	}

	header, err = packets.ExtractTelemetryHeader(r.buf[:n])
	if err != nil {
		return nil, header, false, err
	}
	if err := header.ValidateAs(r.kind); err != nil {
		return nil, header, false, fmt.Errorf("%s record at offset %d: %w", r.kind, r.offset, err)
	}
	r.offset += int64(n)
	return r.buf, header, true, nil
}
