package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Sampler struct {
		SamplingRatio uint `koanf:"sampling_ratio"`
		Pointers      struct {
			Day string `koanf:"day"`
		} `koanf:"pointers"`
	} `koanf:"sampler"`
	Archiver struct {
		Delay time.Duration `koanf:"delay"`
	} `koanf:"archiver"`
	Target struct {
		Process   string   `koanf:"process"`
		AntiCheat []string `koanf:"anticheat"`
	} `koanf:"target"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perflog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	assert.Equal(t, DefaultEnvPrefix, l.envPrefix)

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	assert.Equal(t, "TEST_", l.envPrefix)
	assert.Equal(t, "/path/to/config.yaml", l.filePath)
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
sampler:
  sampling_ratio: 20
  pointers:
    day: "2A1B4C8,10"
`)
	l := NewLoader()
	require.NoError(t, l.LoadFile(path))
	assert.Equal(t, "2A1B4C8,10", l.GetString("sampler.pointers.day"))

	assert.Error(t, NewLoader().LoadFile("/nonexistent/config.yaml"))
	assert.NoError(t, NewLoader().LoadFile(""))
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("PERFLOG_SAMPLER__SAMPLING_RATIO", "30")
	t.Setenv("PERFLOG_TARGET__PROCESS", "eu4")

	l := NewLoader()
	require.NoError(t, l.LoadEnv())
	assert.Equal(t, "30", l.GetString("sampler.sampling_ratio"))
	assert.Equal(t, "eu4", l.GetString("target.process"))
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG__LEVEL", "debug")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	require.NoError(t, l.LoadEnv())
	assert.Equal(t, "debug", l.GetString("log.level"))
}

func TestLoader_LoadMap_DottedKeys(t *testing.T) {
	l := NewLoader()
	require.NoError(t, l.LoadMap(map[string]any{"log.level": "warn"}))

	var cfg testConfig
	require.NoError(t, l.Unmarshal(&cfg))
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
target:
  process: from-file
  anticheat: [EasyAntiCheat]
log:
  level: info
archiver:
  delay: 1500ms
`)
	t.Setenv("PERFLOG_TARGET__PROCESS", "from-env")
	t.Setenv("PERFLOG_LOG__LEVEL", "error")

	l := NewLoader(WithConfigFile(path), WithOverrides(map[string]any{"log.level": "debug"}))

	var cfg testConfig
	cfg.Sampler.SamplingRatio = 10
	require.NoError(t, l.Load(&cfg))

	assert.True(t, l.IsLoaded())
	assert.Equal(t, "from-env", cfg.Target.Process)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"EasyAntiCheat"}, cfg.Target.AntiCheat)
	assert.Equal(t, 1500*time.Millisecond, cfg.Archiver.Delay)
	assert.Equal(t, uint(10), cfg.Sampler.SamplingRatio, "defaults survive")
}

func TestLoader_AllKeys(t *testing.T) {
	l := NewLoader()
	require.NoError(t, l.LoadMap(map[string]any{"key1": "value1", "key2": "value2"}))

	assert.Len(t, l.All(), 2)
	assert.ElementsMatch(t, []string{"key1", "key2"}, l.Keys())
}
