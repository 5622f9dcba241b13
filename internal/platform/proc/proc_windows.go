//go:build windows

package proc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/core/procmem"
)

// Backend reads processes through the Win32 API.
type Backend struct{}

// NewBackend returns the Windows backend.
func NewBackend() (*Backend, error) {
	return &Backend{}, nil
}

// FindProcesses returns processes whose image name, without ".exe", matches name.
func (b *Backend) FindProcesses(name string) ([]procmem.ProcessInfo, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("process snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	want := normalizeName(name)
	var out []procmem.ProcessInfo

	entry := windows.ProcessEntry32{Size: uint32(unsafe.Sizeof(windows.ProcessEntry32{}))}
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		exe := windows.UTF16ToString(entry.ExeFile[:])
		if normalizeName(exe) == want {
			out = append(out, procmem.ProcessInfo{PID: int(entry.ProcessID), Name: exe})
		}
	}
	return out, nil
}

// Open opens pid for reading and resolves its main module base.
func (b *Backend) Open(pid int) (procmem.Process, error) {
	h, err := windows.OpenProcess(windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", pid, err)
	}
	base, err := mainModuleBase(uint32(pid))
	if err != nil {
		windows.CloseHandle(h)
		return nil, err
	}
	return &process{handle: h, base: base}, nil
}

func mainModuleBase(pid uint32) (uint64, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, pid)
	if err != nil {
		return 0, fmt.Errorf("module snapshot of pid %d: %w", pid, err)
	}
	defer windows.CloseHandle(snap)

	entry := windows.ModuleEntry32{Size: uint32(unsafe.Sizeof(windows.ModuleEntry32{}))}
	if err := windows.Module32First(snap, &entry); err != nil {
		return 0, fmt.Errorf("main module of pid %d: %w", pid, err)
	}
	return uint64(entry.ModBaseAddr), nil
}

type process struct {
	handle windows.Handle
	base   uint64
}

func (p *process) BaseAddress() uint64 { return p.base }

func (p *process) ReadMemory(addr uint64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, windows.ERROR_INVALID_PARAMETER
	}
	var n uintptr
	err := windows.ReadProcessMemory(p.handle, uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	return int(n), err
}

func (p *process) Stats() (domain.ProcessStats, error) {
	var vm windows.VM_COUNTERS_EX
	err := windows.NtQueryInformationProcess(p.handle, windows.ProcessVmCounters,
		unsafe.Pointer(&vm), uint32(unsafe.Sizeof(vm)), nil)
	if err != nil {
		return domain.ProcessStats{}, err
	}
	st := domain.ProcessStats{
		PagedMemorySize:   int64(vm.PagefileUsage),
		VirtualMemorySize: int64(vm.VirtualSize),
	}

	var io windows.IO_COUNTERS
	err = windows.NtQueryInformationProcess(p.handle, windows.ProcessIoCounters,
		unsafe.Pointer(&io), uint32(unsafe.Sizeof(io)), nil)
	if err == nil {
		st.IOData = float64(io.ReadTransferCount + io.WriteTransferCount + io.OtherTransferCount)
	}
	return st, nil
}

func (p *process) Close() error {
	return windows.CloseHandle(p.handle)
}
