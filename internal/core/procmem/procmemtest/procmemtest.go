// Package procmemtest provides an in-memory procmem.Backend for tests.
package procmemtest

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"sync"

	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/core/procmem"
)

// ErrUnmapped is returned when a read touches an address with no data.
var ErrUnmapped = errors.New("procmemtest: address not mapped")

// Backend is a fake process table.
type Backend struct {
	mu    sync.Mutex
	procs []*Process
	// FindErr, when set, is returned by FindProcesses.
	FindErr error
}

// NewBackend creates an empty fake backend.
func NewBackend() *Backend {
	return &Backend{}
}

// AddProcess registers a fake process and returns it for setup.
func (b *Backend) AddProcess(name string, base uint64) *Process {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &Process{
		pid:    1000 + len(b.procs),
		name:   name,
		base:   base,
		mem:    make(map[uint64][][]byte),
		pos:    make(map[uint64]int),
		counts: make(map[uint64]int),
	}
	b.procs = append(b.procs, p)
	return p
}

// FindProcesses implements procmem.Backend.
func (b *Backend) FindProcesses(name string) ([]procmem.ProcessInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FindErr != nil {
		return nil, b.FindErr
	}
	var out []procmem.ProcessInfo
	for _, p := range b.procs {
		if strings.EqualFold(p.name, name) {
			out = append(out, procmem.ProcessInfo{PID: p.pid, Name: p.name})
		}
	}
	return out, nil
}

// Open implements procmem.Backend.
func (b *Backend) Open(pid int) (procmem.Process, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.procs {
		if p.pid == pid {
			p.mu.Lock()
			p.opened++
			p.mu.Unlock()
			return p, nil
		}
	}
	return nil, domain.ErrProcessNotFound
}

// Process is a fake process whose memory is a set of per-address value
// sequences. Each read at an address consumes the next value; the last value
// is returned for every read after the sequence is exhausted.
type Process struct {
	pid  int
	name string
	base uint64

	mu     sync.Mutex
	mem    map[uint64][][]byte
	pos    map[uint64]int
	counts map[uint64]int
	reads  int
	opened int
	closed int
	stats  domain.ProcessStats
}

// PID returns the fake process id.
func (p *Process) PID() int { return p.pid }

// SetBytes sets the sequence of values returned at addr.
func (p *Process) SetBytes(addr uint64, values ...[]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mem[addr] = values
	p.pos[addr] = 0
}

// SetUint64 stores a pointer value at addr.
func (p *Process) SetUint64(addr, v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	p.SetBytes(addr, b)
}

// SetInt32 sets a sequence of int32 values at addr.
func (p *Process) SetInt32(addr uint64, values ...int32) {
	seq := make([][]byte, len(values))
	for i, v := range values {
		seq[i] = make([]byte, 4)
		binary.LittleEndian.PutUint32(seq[i], uint32(v))
	}
	p.SetBytes(addr, seq...)
}

// SetFloat32 stores a float32 at addr.
func (p *Process) SetFloat32(addr uint64, v float32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	p.SetBytes(addr, b)
}

// SetStats sets the counters returned by Stats.
func (p *Process) SetStats(st domain.ProcessStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = st
}

// Reads returns the number of ReadMemory calls so far.
func (p *Process) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// ReadsAt returns how many reads targeted addr.
func (p *Process) ReadsAt(addr uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[addr]
}

// Closed returns how many times Close was called.
func (p *Process) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// BaseAddress implements procmem.Process.
func (p *Process) BaseAddress() uint64 { return p.base }

// ReadMemory implements procmem.Process.
func (p *Process) ReadMemory(addr uint64, buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	p.counts[addr]++
	seq, ok := p.mem[addr]
	if !ok || len(seq) == 0 {
		return 0, ErrUnmapped
	}
	i := p.pos[addr]
	if i >= len(seq) {
		i = len(seq) - 1
	} else {
		p.pos[addr] = i + 1
	}
	return copy(buf, seq[i]), nil
}

// Stats implements procmem.Process.
func (p *Process) Stats() (domain.ProcessStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats, nil
}

// Close implements procmem.Process.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}
