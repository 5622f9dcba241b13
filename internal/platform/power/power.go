// Package power keeps the host awake while a session is running.
package power

import "log/slog"

// Inhibitor prevents the system from sleeping and restores the previous policy.
type Inhibitor interface {
	// Inhibit keeps the system and display awake. Repeated calls are no-ops.
	Inhibit() error
	// Restore returns to the default sleep policy. Safe without a prior Inhibit.
	Restore() error
}

// Nop is an Inhibitor that does nothing.
type Nop struct{}

// Inhibit implements Inhibitor.
func (Nop) Inhibit() error { return nil }

// Restore implements Inhibitor.
func (Nop) Restore() error { return nil }

// New returns the inhibitor for the host platform. If the platform
// mechanism is unavailable, Nop is returned and a warning is logged.
func New(logger *slog.Logger) Inhibitor {
	if logger == nil {
		logger = slog.Default()
	}
	inh, err := newPlatform(logger)
	if err != nil {
		logger.Warn("sleep inhibition unavailable", "error", err)
		return Nop{}
	}
	return inh
}
