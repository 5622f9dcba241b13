package perflog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yndnr/perflog/internal/core/domain"
)

// File layout constants.
const (
	FileName        = "performance.bin"
	DefaultFilePerm = 0644
	DefaultDirPerm  = 0750
	bufferSize      = 64 * domain.RecordSize
)

// Writer appends records to a log file.
type Writer struct {
	path string

	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	size    int64
	records int64
	closed  bool
}

// OpenWriter opens path for appending, creating it if needed.
func OpenWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("perflog: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("perflog: create dir: %w", err)
	}

	w := &Writer{path: path}
	if err := w.openLocked(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) openLocked() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("perflog: open: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("perflog: stat: %w", err)
	}
	w.file = file
	w.buf = bufio.NewWriterSize(file, bufferSize)
	w.size = stat.Size()
	return nil
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.path
}

// Append buffers one record.
func (w *Writer) Append(rec domain.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("perflog: writer is closed")
	}

	var frame [domain.RecordSize]byte
	if _, err := w.buf.Write(rec.AppendTo(frame[:0])); err != nil {
		return fmt.Errorf("perflog: write: %w", err)
	}
	w.size += domain.RecordSize
	w.records++
	return nil
}

// Flush writes buffered records and syncs the file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("perflog: flush: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("perflog: sync: %w", err)
	}
	return nil
}

// Rotate flushes, closes and reopens the file in append mode so that
// everything written so far is visible to other readers.
func (w *Writer) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("perflog: writer is closed")
	}
	if err := w.flushLocked(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("perflog: close: %w", err)
	}
	return w.openLocked()
}

// Size returns the logical file size, including buffered records.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Records returns how many records this writer appended.
func (w *Writer) Records() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

// Close flushes and closes the file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.flushLocked()
	if err := w.file.Close(); err != nil && flushErr == nil {
		flushErr = fmt.Errorf("perflog: close: %w", err)
	}
	return flushErr
}
