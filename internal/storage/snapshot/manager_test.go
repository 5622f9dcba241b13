package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/perflog/internal/core/domain"
)

func TestManager_SaveLoadSample(t *testing.T) {
	m, err := NewManager(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	_, found, err := m.LoadSample()
	require.NoError(t, err)
	assert.False(t, found)

	want := domain.Sample{
		Day:       [4]byte{1, 2, 3, 4},
		GameSpeed: [4]byte{3, 0, 0, 0},
		GameState: [1]byte{1},
		FPS:       [4]byte{0, 0, 0x70, 0x42},
	}
	require.NoError(t, m.SaveSample(want))

	got, found, err := m.LoadSample()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(m.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no temp files must remain")
}

func TestManager_WrongLengthIgnored(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Config{Dir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DayFile), []byte{1, 2}, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, GameStateFile), []byte{1}, 0644))

	got, found, err := m.LoadSample()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, [4]byte{}, got.Day)
	assert.Equal(t, [1]byte{1}, got.GameState)
}

func TestManager_SaveOverwrites(t *testing.T) {
	m, err := NewManager(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, m.Save(FPSFile, []byte{1, 1, 1, 1}))
	require.NoError(t, m.Save(FPSFile, []byte{2, 2, 2, 2}))

	data, ok, err := m.Load(FPSFile, 4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{2, 2, 2, 2}, data)
}

func TestNewManager_RequiresDir(t *testing.T) {
	_, err := NewManager(Config{})
	assert.Error(t, err)
}
