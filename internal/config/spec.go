package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration for perflog.
type Config struct {
	Target   TargetSection   `koanf:"target" yaml:"target" json:"target"`
	Sampler  SamplerSection  `koanf:"sampler" yaml:"sampler" json:"sampler"`
	Archiver ArchiverSection `koanf:"archiver" yaml:"archiver" json:"archiver"`
	Storage  StorageSection  `koanf:"storage" yaml:"storage" json:"storage"`
	Log      LogSection      `koanf:"log" yaml:"log" json:"log"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics" json:"metrics"`
}

// TargetSection identifies the game build the pointer paths belong to.
type TargetSection struct {
	// Name, Version, Checksum and Platform are informational.
	Name     string `koanf:"name" yaml:"name" json:"name"`
	Version  string `koanf:"version" yaml:"version" json:"version"`
	Checksum string `koanf:"checksum" yaml:"checksum" json:"checksum"`
	Platform string `koanf:"platform" yaml:"platform" json:"platform"`

	// Process is the executable name to attach to, without ".exe".
	Process string `koanf:"process" yaml:"process" json:"process"`

	// AntiCheat lists processes that must not run while attaching.
	AntiCheat []string `koanf:"anticheat" yaml:"anticheat" json:"anticheat"`
}

// SamplerSection configures the data logger.
type SamplerSection struct {
	// SamplingRatio is the number of polls per second.
	SamplingRatio uint           `koanf:"sampling_ratio" yaml:"sampling_ratio" json:"sampling_ratio"`
	Pointers      PointerSection `koanf:"pointers" yaml:"pointers" json:"pointers"`
}

// PointerSection holds comma-separated hex offset chains.
type PointerSection struct {
	Day       string `koanf:"day" yaml:"day" json:"day"`
	GameSpeed string `koanf:"game_speed" yaml:"game_speed" json:"game_speed"`
	GameState string `koanf:"game_state" yaml:"game_state" json:"game_state"`
	// FrameTimes is optional; without it fps is recorded as 0.
	FrameTimes string `koanf:"frame_times" yaml:"frame_times" json:"frame_times"`
}

// ArchiverSection configures the save watcher.
type ArchiverSection struct {
	// RefreshRate is the number of loop wake-ups per second.
	RefreshRate uint `koanf:"refresh_rate" yaml:"refresh_rate" json:"refresh_rate"`
	// Delay is waited after a change before the save is copied.
	Delay time.Duration `koanf:"delay" yaml:"delay" json:"delay"`
}

// StorageSection configures on-disk locations.
type StorageSection struct {
	SessionsDir string `koanf:"sessions_dir" yaml:"sessions_dir" json:"sessions_dir"`
	// CatalogDir defaults to CatalogDirName under SessionsDir. "-" disables
	// the catalog.
	CatalogDir string `koanf:"catalog_dir" yaml:"catalog_dir" json:"catalog_dir"`
}

// Catalog returns the catalog directory, or "" when disabled.
func (s StorageSection) Catalog() string {
	switch s.CatalogDir {
	case "-":
		return ""
	case "":
		return filepath.Join(s.SessionsDir, CatalogDirName)
	default:
		return s.CatalogDir
	}
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr enables /metrics when non-empty.
	Addr string `koanf:"addr" yaml:"addr" json:"addr"`
}
