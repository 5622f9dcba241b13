//go:build linux

package proc

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_ReadsOwnMemory(t *testing.T) {
	b, err := NewBackend()
	require.NoError(t, err)

	p, err := b.Open(os.Getpid())
	require.NoError(t, err)
	defer p.Close()

	assert.NotZero(t, p.BaseAddress())

	var value uint32 = 792123
	buf := make([]byte, 4)
	n, err := p.ReadMemory(uint64(uintptr(unsafe.Pointer(&value))), buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, value, binary.LittleEndian.Uint32(buf))

	st, err := p.Stats()
	require.NoError(t, err)
	assert.Positive(t, st.VirtualMemorySize)
}

func TestBackend_FindsOwnProcess(t *testing.T) {
	b, err := NewBackend()
	require.NoError(t, err)

	procs, err := b.FindProcesses(filepath.Base(os.Args[0]))
	require.NoError(t, err)

	var found bool
	for _, p := range procs {
		if p.PID == os.Getpid() {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "eu4", normalizeName("EU4.exe"))
	assert.Equal(t, "eu4", normalizeName(`C:\Games\eu4.exe`))
	assert.Equal(t, "eu4", normalizeName("/opt/game/eu4"))
}
