package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yndnr/perflog/internal/core/domain"
)

// Snapshot file names.
const (
	DayFile       = "dayLast.bin"
	GameSpeedFile = "gameSpeedLast.bin"
	GameStateFile = "gameStateLast.bin"
	FPSFile       = "fpsLast.bin"

	tempSuffix = ".tmp"
)

// Config configures the snapshot manager.
type Config struct {
	Dir string
}

// Manager reads and writes snapshot files in one directory.
type Manager struct {
	cfg Config
}

// NewManager creates the snapshot directory if needed.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	return &Manager{cfg: cfg}, nil
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string {
	return m.cfg.Dir
}

// Save atomically replaces the file name with data.
func (m *Manager) Save(name string, data []byte) error {
	finalPath := filepath.Join(m.cfg.Dir, name)
	tempPath := finalPath + tempSuffix

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("snapshot: write %s: %w", name, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// Load reads name. found is false when the file is missing or its length
// differs from size.
func (m *Manager) Load(name string, size int) (data []byte, found bool, err error) {
	data, err = os.ReadFile(filepath.Join(m.cfg.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	if len(data) != size {
		return nil, false, nil
	}
	return data, true, nil
}

// SaveSample writes all four snapshot files.
func (m *Manager) SaveSample(s domain.Sample) error {
	return errors.Join(
		m.Save(DayFile, s.Day[:]),
		m.Save(GameSpeedFile, s.GameSpeed[:]),
		m.Save(GameStateFile, s.GameState[:]),
		m.Save(FPSFile, s.FPS[:]),
	)
}

// LoadSample restores the last sample. Missing or malformed files leave the
// corresponding field zero. found reports whether any file was restored.
func (m *Manager) LoadSample() (s domain.Sample, found bool, err error) {
	fields := []struct {
		name string
		dst  []byte
	}{
		{DayFile, s.Day[:]},
		{GameSpeedFile, s.GameSpeed[:]},
		{GameStateFile, s.GameState[:]},
		{FPSFile, s.FPS[:]},
	}
	var errs []error
	for _, f := range fields {
		data, ok, err := m.Load(f.name, len(f.dst))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			copy(f.dst, data)
			found = true
		}
	}
	return s, found, errors.Join(errs...)
}
