//go:build !linux && !windows

package proc

import (
	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/core/procmem"
)

// Backend is the fallback for platforms without a memory reader.
type Backend struct{}

// NewBackend returns domain.ErrUnsupportedPlatform.
func NewBackend() (*Backend, error) {
	return nil, domain.ErrUnsupportedPlatform
}

// FindProcesses always fails.
func (b *Backend) FindProcesses(string) ([]procmem.ProcessInfo, error) {
	return nil, domain.ErrUnsupportedPlatform
}

// Open always fails.
func (b *Backend) Open(int) (procmem.Process, error) {
	return nil, domain.ErrUnsupportedPlatform
}
