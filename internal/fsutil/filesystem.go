// Package fsutil abstracts the packet cache files so the ingestion pipeline
// can be exercised against an in-memory cache that grows and locks on cue.
package fsutil

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrLocked is returned by MemoryFileSystem.Open while injected open
// failures remain, standing in for a producer holding the file.
var ErrLocked = errors.New("fsutil: file locked by another process")

// File is an open cache file positioned for sequential reads.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// FileSystem is the filesystem surface used by the cache pipeline and the
// simulator. Use OSFileSystem in production and MemoryFileSystem in tests.
type FileSystem interface {
	// Open opens the named file read-only. Other processes may keep
	// writing to it.
	Open(name string) (File, error)

	// Stat returns a FileInfo describing the named file.
	Stat(name string) (fs.FileInfo, error)

	// Append adds data to the end of the named file, creating it if
	// necessary.
	Append(name string, data []byte) error
}

// OSFileSystem implements FileSystem using the os package.
type OSFileSystem struct{}

// Open opens the named file.
func (OSFileSystem) Open(name string) (File, error) {
	return os.Open(name)
}

// Stat returns file info for the named file.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// Append writes data at the end of the named file.
func (OSFileSystem) Append(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MemoryFileSystem provides an in-memory filesystem for testing.
type MemoryFileSystem struct {
	mu       sync.Mutex
	files    map[string][]byte
	failures map[string]int
	opens    map[string]int
}

// NewMemoryFileSystem creates a new in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files:    make(map[string][]byte),
		failures: make(map[string]int),
		opens:    make(map[string]int),
	}
}

// Open returns a reader over a snapshot of the file as it is now. Data
// appended later is seen only by later opens.
func (m *MemoryFileSystem) Open(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	m.opens[name]++
	if m.failures[name] > 0 {
		m.failures[name]--
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrLocked}
	}
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return memFile{bytes.NewReader(data)}, nil
}

// Stat returns file info.
func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return memFileInfo{name: filepath.Base(name), size: int64(len(data))}, nil
}

// Append adds data to the end of the named file.
func (m *MemoryFileSystem) Append(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	// Copy so snapshots handed out by Open never alias new data.
	grown := make([]byte, 0, len(m.files[name])+len(data))
	grown = append(grown, m.files[name]...)
	m.files[name] = append(grown, data...)
	return nil
}

// FailOpens makes the next n opens of name fail with ErrLocked.
func (m *MemoryFileSystem) FailOpens(name string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[filepath.Clean(name)] = n
}

// Opens returns how many times name has been opened, failed attempts
// included.
func (m *MemoryFileSystem) Opens(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[filepath.Clean(name)]
}

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

type memFileInfo struct {
	name string
	size int64
}

func (i memFileInfo) Name() string       { return i.name }
func (i memFileInfo) Size() int64        { return i.size }
func (i memFileInfo) Mode() os.FileMode  { return 0644 }
func (i memFileInfo) ModTime() time.Time { return time.Time{} }
func (i memFileInfo) IsDir() bool        { return false }
func (i memFileInfo) Sys() any           { return nil }
