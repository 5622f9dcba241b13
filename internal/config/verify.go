package config

import (
	"fmt"
	"strings"

	"github.com/yndnr/perflog/internal/core/domain"
)

// Pointers are the parsed pointer paths. FrameTimes may be zero.
type Pointers struct {
	Day        domain.PointerPath
	GameSpeed  domain.PointerPath
	GameState  domain.PointerPath
	FrameTimes domain.PointerPath
}

// Verify validates the configuration needed to run a session.
func Verify(cfg *Config) error {
	if err := verifyRates(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Target.Process) == "" {
		return domain.ErrInvalidConfig.WithDetails("target.process is required")
	}
	if _, err := ParsePointers(&cfg.Sampler.Pointers); err != nil {
		return err
	}
	if cfg.Archiver.Delay < 0 {
		return domain.ErrInvalidConfig.WithDetails("archiver.delay must not be negative")
	}
	if cfg.Storage.SessionsDir == "" {
		return domain.ErrInvalidConfig.WithDetails("storage.sessions_dir is required")
	}
	return verifyLog(&cfg.Log)
}

func verifyRates(cfg *Config) error {
	if cfg.Sampler.SamplingRatio == 0 {
		return domain.ErrZeroSamplingRatio
	}
	if cfg.Archiver.RefreshRate == 0 {
		return domain.ErrZeroRefreshRate
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return domain.ErrInvalidConfig.WithDetails(fmt.Sprintf("log.level %q", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return domain.ErrInvalidConfig.WithDetails(fmt.Sprintf("log.format %q", cfg.Format))
	}
	return nil
}

// ParsePointers parses the configured pointer paths.
func ParsePointers(p *PointerSection) (Pointers, error) {
	var out Pointers
	required := []struct {
		key string
		src string
		dst *domain.PointerPath
	}{
		{"sampler.pointers.day", p.Day, &out.Day},
		{"sampler.pointers.game_speed", p.GameSpeed, &out.GameSpeed},
		{"sampler.pointers.game_state", p.GameState, &out.GameState},
	}
	for _, r := range required {
		path, err := domain.ParsePointerPath(r.src)
		if err != nil {
			return Pointers{}, domain.ErrInvalidPointerPath.WithDetails(r.key).WithCause(err)
		}
		*r.dst = path
	}

	if strings.TrimSpace(p.FrameTimes) != "" {
		path, err := domain.ParsePointerPath(p.FrameTimes)
		if err != nil {
			return Pointers{}, domain.ErrInvalidPointerPath.WithDetails("sampler.pointers.frame_times").WithCause(err)
		}
		out.FrameTimes = path
	}
	return out, nil
}
