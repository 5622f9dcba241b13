//go:build linux

package power

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// systemdInhibit holds a sleep/idle inhibitor lock for as long as a child
// "systemd-inhibit sleep infinity" process lives.
type systemdInhibit struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

func newPlatform(logger *slog.Logger) (Inhibitor, error) {
	path, err := exec.LookPath("systemd-inhibit")
	if err != nil {
		return nil, err
	}
	return &systemdInhibit{path: path, logger: logger}, nil
}

func (s *systemdInhibit) Inhibit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return nil
	}
	cmd := s.command()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start systemd-inhibit: %w", err)
	}
	s.cmd = cmd
	s.logger.Debug("sleep inhibited", "pid", cmd.Process.Pid)
	return nil
}

// command builds the inhibitor child. The child is killed when perflog dies,
// so the lock never outlives the process.
func (s *systemdInhibit) command() *exec.Cmd {
	cmd := exec.Command(s.path,
		"--what=sleep:idle",
		"--who=perflog",
		"--why=performance logging session",
		"--mode=block",
		"sleep", "infinity")
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGKILL}
	return cmd
}

func (s *systemdInhibit) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return nil
	}
	cmd := s.cmd
	s.cmd = nil
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop systemd-inhibit: %w", err)
	}
	_ = cmd.Wait()
	s.logger.Debug("sleep policy restored")
	return nil
}
