//go:build !linux && !windows

package power

import (
	"log/slog"

	"github.com/yndnr/perflog/internal/core/domain"
)

func newPlatform(*slog.Logger) (Inhibitor, error) {
	return nil, domain.ErrUnsupportedPlatform
}
