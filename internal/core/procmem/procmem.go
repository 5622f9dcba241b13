// Package procmem reads raw memory of one external process.
//
// A Reader is attached to exactly one process, identified by name. Reads are
// best-effort: a failed read yields zero bytes instead of an error, so that a
// polling loop keeps running while the target is loading or unmapping data.
package procmem

import (
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/yndnr/perflog/internal/core/domain"
)

// ProcessInfo describes a running process returned by a Backend.
type ProcessInfo struct {
	PID  int
	Name string
}

// Process is an opened OS process handle.
type Process interface {
	// BaseAddress returns the load address of the main module.
	BaseAddress() uint64
	// ReadMemory copies memory at addr into buf and returns the bytes read.
	ReadMemory(addr uint64, buf []byte) (int, error)
	// Stats returns resource counters of the process.
	Stats() (domain.ProcessStats, error)
	// Close releases the handle.
	Close() error
}

// Backend enumerates and opens processes.
type Backend interface {
	FindProcesses(name string) ([]ProcessInfo, error)
	Open(pid int) (Process, error)
}

// Reader reads memory of one attached process.
type Reader struct {
	name string
	pid  int
	proc Process
	base uint64

	mu     sync.Mutex
	closed bool
}

// Attach finds the single process called name and opens it.
func Attach(backend Backend, name string) (*Reader, error) {
	procs, err := backend.FindProcesses(name)
	if err != nil {
		return nil, err
	}
	switch len(procs) {
	case 0:
		return nil, domain.ErrProcessNotFound.WithDetails(name)
	case 1:
	default:
		return nil, domain.ErrProcessAmbiguous.WithDetails(name)
	}

	proc, err := backend.Open(procs[0].PID)
	if err != nil {
		return nil, err
	}

	slog.Debug("attached to process", "name", name, "pid", procs[0].PID)

	return &Reader{
		name: name,
		pid:  procs[0].PID,
		proc: proc,
		base: proc.BaseAddress(),
	}, nil
}

// Name returns the process name the reader attached to.
func (r *Reader) Name() string { return r.name }

// PID returns the attached process id.
func (r *Reader) PID() int { return r.pid }

// BaseAddress returns the main module base address.
func (r *Reader) BaseAddress() uint64 { return r.base }

// ReadBytes reads n bytes at addr. On failure it returns a zeroed 4-byte
// slice and a count of 0.
func (r *Reader) ReadBytes(addr uint64, n int) ([]byte, int) {
	if n <= 0 || r.isClosed() {
		return make([]byte, 4), 0
	}
	buf := make([]byte, n)
	read, err := r.proc.ReadMemory(addr, buf)
	if err != nil || read <= 0 {
		return make([]byte, 4), 0
	}
	return buf, read
}

// Resolve walks path from the main module base. Every offset except the
// last is followed by an 8-byte little-endian dereference.
func (r *Reader) Resolve(path domain.PointerPath) uint64 {
	offsets := path.Offsets()
	ptr := r.base
	if len(offsets) == 0 {
		return ptr
	}
	last := len(offsets) - 1
	for _, off := range offsets[:last] {
		ptr += uint64(int64(off))
		b, _ := r.ReadBytes(ptr, 8)
		ptr = decodePointer(b)
	}
	return ptr + uint64(int64(offsets[last]))
}

// decodePointer decodes up to 8 little-endian bytes, zero-extending short input.
func decodePointer(b []byte) uint64 {
	var full [8]byte
	copy(full[:], b)
	return binary.LittleEndian.Uint64(full[:])
}

// Stats returns process statistics, or zero values when unavailable.
func (r *Reader) Stats() domain.ProcessStats {
	if r.isClosed() {
		return domain.ProcessStats{}
	}
	st, err := r.proc.Stats()
	if err != nil {
		return domain.ProcessStats{}
	}
	return st
}

// Close releases the process handle. It is safe to call more than once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.proc.Close()
}

func (r *Reader) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
