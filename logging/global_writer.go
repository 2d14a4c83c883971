package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// globalWriter is an io.Writer that delegates to an underlying writer,
// which can be swapped at runtime in a thread-safe manner.
type globalWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

// Write implements the io.Writer interface.
func (gw *globalWriter) Write(p []byte) (n int, err error) {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	return gw.w.Write(p)
}

// Set changes the underlying writer.
func (gw *globalWriter) Set(w io.Writer) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.w = w
}

var (
	// defaultGlobalWriter receives structured logs meant for the terminal.
	defaultGlobalWriter = &globalWriter{w: os.Stderr}
	// fileOutput receives every log line once a process-wide log file is set.
	fileOutput = &globalWriter{w: io.Discard}
)

// SetGlobalOutput redirects the terminal-facing output of every logger.
func SetGlobalOutput(w io.Writer) {
	defaultGlobalWriter.Set(w)
}

// GetGlobalOutput returns the singleton instance of the global writer.
func GetGlobalOutput() io.Writer {
	return defaultGlobalWriter
}

// SetFileOutput makes every logger, including ones already created, append
// to the file at path. The daemon uses this for its log file. Closing the
// returned Closer detaches the file again.
func SetFileOutput(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	fileOutput.Set(f)
	return closerFunc(func() error {
		fileOutput.Set(io.Discard)
		return f.Close()
	}), nil
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }
