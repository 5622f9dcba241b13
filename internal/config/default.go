package config

import "time"

// Default configuration values.
const (
	DefaultTargetName = "Europa Universalis IV"
	DefaultProcess    = "eu4"
	DefaultPlatform   = "steam"

	DefaultSamplingRatio = 20
	DefaultRefreshRate   = 2
	DefaultDelay         = 1 * time.Second

	DefaultSessionsDir = "sessions"
	CatalogDirName     = ".catalog"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default configuration. Pointer paths are build
// specific and have no defaults.
func Default() *Config {
	return &Config{
		Target: TargetSection{
			Name:      DefaultTargetName,
			Platform:  DefaultPlatform,
			Process:   DefaultProcess,
			AntiCheat: []string{},
		},
		Sampler: SamplerSection{
			SamplingRatio: DefaultSamplingRatio,
		},
		Archiver: ArchiverSection{
			RefreshRate: DefaultRefreshRate,
			Delay:       DefaultDelay,
		},
		Storage: StorageSection{
			SessionsDir: DefaultSessionsDir,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
