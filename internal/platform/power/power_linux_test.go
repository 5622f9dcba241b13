//go:build linux

package power

import (
	"log/slog"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemdInhibit_ChildDiesWithParent(t *testing.T) {
	s := &systemdInhibit{path: "/usr/bin/systemd-inhibit", logger: slog.Default()}
	cmd := s.command()

	require.NotNil(t, cmd.SysProcAttr)
	assert.Equal(t, syscall.SIGKILL, cmd.SysProcAttr.Pdeathsig)
	assert.Equal(t, []string{
		"/usr/bin/systemd-inhibit",
		"--what=sleep:idle",
		"--who=perflog",
		"--why=performance logging session",
		"--mode=block",
		"sleep", "infinity",
	}, cmd.Args)
}

func TestSystemdInhibit_RestoreKillsChild(t *testing.T) {
	s := &systemdInhibit{path: "/bin/sh", logger: slog.Default()}

	// /bin/sh rejects the systemd-inhibit flags and exits on its own.
	require.NoError(t, s.Inhibit())
	require.NoError(t, s.Inhibit())
	first := s.cmd
	require.NotNil(t, first)

	require.NoError(t, s.Restore())
	assert.Nil(t, s.cmd)
	assert.NotNil(t, first.ProcessState)
	assert.NoError(t, s.Restore())
}
