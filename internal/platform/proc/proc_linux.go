//go:build linux

package proc

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"

	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/core/procmem"
)

// Backend reads processes through /proc.
type Backend struct {
	fs procfs.FS
}

// NewBackend opens the default procfs mount.
func NewBackend() (*Backend, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("open procfs: %w", err)
	}
	return &Backend{fs: fs}, nil
}

// FindProcesses returns processes whose comm or executable name matches name.
func (b *Backend) FindProcesses(name string) ([]procmem.ProcessInfo, error) {
	procs, err := b.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	want := normalizeName(name)
	var out []procmem.ProcessInfo
	for _, p := range procs {
		comm, err := p.Comm()
		if err != nil {
			continue
		}
		if normalizeName(comm) == want {
			out = append(out, procmem.ProcessInfo{PID: p.PID, Name: comm})
			continue
		}
		if exe, err := p.Executable(); err == nil && exe != "" && normalizeName(exe) == want {
			out = append(out, procmem.ProcessInfo{PID: p.PID, Name: comm})
		}
	}
	return out, nil
}

// Open resolves the main module base of pid.
func (b *Backend) Open(pid int) (procmem.Process, error) {
	p, err := b.fs.Proc(pid)
	if err != nil {
		return nil, domain.ErrProcessNotFound.WithCause(err)
	}
	base, err := mainModuleBase(p)
	if err != nil {
		return nil, err
	}
	return &process{proc: p, pid: pid, base: base}, nil
}

// mainModuleBase returns the lowest mapping of the process executable. Under
// Wine the executable is the loader, so a mapping named after comm wins.
func mainModuleBase(p procfs.Proc) (uint64, error) {
	maps, err := p.ProcMaps()
	if err != nil {
		return 0, fmt.Errorf("read maps of pid %d: %w", p.PID, err)
	}
	exe, _ := p.Executable()
	comm, _ := p.Comm()
	want := normalizeName(comm)

	var byExe, byComm uint64
	for _, m := range maps {
		if m.Pathname == "" {
			continue
		}
		start := uint64(m.StartAddr)
		if byComm == 0 && normalizeName(m.Pathname) == want {
			byComm = start
		}
		if byExe == 0 && exe != "" && m.Pathname == exe {
			byExe = start
		}
	}
	switch {
	case byComm != 0:
		return byComm, nil
	case byExe != 0:
		return byExe, nil
	case len(maps) > 0:
		return uint64(maps[0].StartAddr), nil
	default:
		return 0, fmt.Errorf("pid %d has no mappings", p.PID)
	}
}

type process struct {
	proc procfs.Proc
	pid  int
	base uint64
}

func (p *process) BaseAddress() uint64 { return p.base }

func (p *process) ReadMemory(addr uint64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, errors.New("empty buffer")
	}
	local := []unix.Iovec{{Base: (*byte)(unsafe.Pointer(&buf[0]))}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}
	return unix.ProcessVMReadv(p.pid, local, remote, 0)
}

func (p *process) Stats() (domain.ProcessStats, error) {
	stat, err := p.proc.Stat()
	if err != nil {
		return domain.ProcessStats{}, err
	}
	st := domain.ProcessStats{
		PagedMemorySize:   int64(stat.ResidentMemory()),
		VirtualMemorySize: int64(stat.VirtualMemory()),
	}
	if io, err := p.proc.IO(); err == nil {
		st.IOData = float64(io.RChar + io.WChar)
	}
	return st, nil
}

func (p *process) Close() error { return nil }
