package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/infra/confloader"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Sampler.Pointers = PointerSection{
		Day:        "2A1B4C8,10",
		GameSpeed:  "2A1B4D0",
		GameState:  "2A1B4D8",
		FrameTimes: "2B00000,18,0",
	}
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultProcess, cfg.Target.Process)
	assert.Equal(t, uint(DefaultSamplingRatio), cfg.Sampler.SamplingRatio)
	assert.Equal(t, uint(DefaultRefreshRate), cfg.Archiver.RefreshRate)
	assert.Equal(t, DefaultDelay, cfg.Archiver.Delay)
	assert.Equal(t, DefaultSessionsDir, cfg.Storage.SessionsDir)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)

	err := Verify(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidPointerPath, "defaults carry no pointer paths")
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero sampling ratio", mutate: func(c *Config) { c.Sampler.SamplingRatio = 0 }, want: domain.ErrZeroSamplingRatio},
		{name: "zero refresh rate", mutate: func(c *Config) { c.Archiver.RefreshRate = 0 }, want: domain.ErrZeroRefreshRate},
		{name: "no process", mutate: func(c *Config) { c.Target.Process = " " }, want: domain.ErrInvalidConfig},
		{name: "bad pointer", mutate: func(c *Config) { c.Sampler.Pointers.GameSpeed = "xyz" }, want: domain.ErrInvalidPointerPath},
		{name: "bad frame pointer", mutate: func(c *Config) { c.Sampler.Pointers.FrameTimes = "1,,2" }, want: domain.ErrInvalidPointerPath},
		{name: "no frame pointer", mutate: func(c *Config) { c.Sampler.Pointers.FrameTimes = "" }},
		{name: "negative delay", mutate: func(c *Config) { c.Archiver.Delay = -1 }, want: domain.ErrInvalidConfig},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, want: domain.ErrInvalidConfig},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, want: domain.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Verify(cfg)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParsePointers(t *testing.T) {
	p, err := ParsePointers(&validConfig().Sampler.Pointers)
	require.NoError(t, err)

	assert.Equal(t, []int32{0x2A1B4C8, 0x10}, p.Day.Offsets())
	assert.Equal(t, 3, p.FrameTimes.Len())
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perflog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
target:
  process: eu4
  anticheat: [EasyAntiCheat, BEService]
sampler:
  sampling_ratio: 10
  pointers:
    day: "2A1B4C8,10"
    game_speed: "2A1B4D0"
    game_state: "2A1B4D8"
archiver:
  delay: 250ms
`), 0644))
	t.Setenv("PERFLOG_ARCHIVER__REFRESH_RATE", "5")

	cfg := Default()
	require.NoError(t, confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg))

	require.NoError(t, Verify(cfg))
	assert.Equal(t, []string{"EasyAntiCheat", "BEService"}, cfg.Target.AntiCheat)
	assert.Equal(t, uint(10), cfg.Sampler.SamplingRatio)
	assert.Equal(t, uint(5), cfg.Archiver.RefreshRate)
	assert.Equal(t, DefaultSessionsDir, cfg.Storage.SessionsDir)
	assert.Equal(t, "250ms", cfg.Archiver.Delay.String())
}

func TestStorageSection_Catalog(t *testing.T) {
	s := StorageSection{SessionsDir: "runs"}
	assert.Equal(t, filepath.Join("runs", CatalogDirName), s.Catalog())

	s.CatalogDir = "/var/lib/perflog/catalog"
	assert.Equal(t, "/var/lib/perflog/catalog", s.Catalog())

	s.CatalogDir = "-"
	assert.Empty(t, s.Catalog())
}
