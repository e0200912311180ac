// Package monitoring carries the diagnostic logger and ingestion counters
// shared by the monitor's packages.
package monitoring

import (
	"io"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger, so tests can capture or silence decoder output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LogFileConfig describes a size-rotated log file.
type LogFileConfig struct {
	Filename   string
	MaxSizeMB  int // Rotate after this many megabytes
	MaxBackups int // Rotated files to keep; 0 keeps all
	MaxAgeDays int // Days to keep rotated files; 0 keeps them forever
	Compress   bool
}

// OpenLogFile returns a writer that appends to cfg.Filename and rotates it
// once it grows past MaxSizeMB. Callers typically pass the result to
// log.SetOutput and close it on shutdown.
func OpenLogFile(cfg LogFileConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}
