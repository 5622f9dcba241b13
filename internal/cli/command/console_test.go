package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/perflog/internal/config"
)

func TestTargetLine(t *testing.T) {
	tests := []struct {
		name   string
		target config.TargetSection
		want   string
	}{
		{"full", config.TargetSection{Name: "Europa Universalis IV", Version: "1.30.4", Checksum: "1a2b", Platform: "steam"}, "Europa Universalis IV v. 1.30.4 (1a2b) - steam"},
		{"name only", config.TargetSection{Name: "Game"}, "Game"},
		{"no checksum", config.TargetSection{Name: "Game", Version: "2", Platform: "gog"}, "Game v. 2 - gog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := targetLine(&tt.target); got != tt.want {
				t.Errorf("targetLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConsole_Script(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))
	t.Setenv("PERFLOG_CONFIG", "")
	dir := t.TempDir()

	var out, errOut bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader("create alpha\nstatus\nclose\nexit\n")

	err := app.Run([]string{"perflog", "--config", writeConfig(t), "--sessions-dir", dir, "console"})
	if err != nil {
		t.Fatalf("console: %v\n%s", err, errOut.String())
	}

	if _, err := os.Stat(filepath.Join(dir, "alpha")); err != nil {
		t.Errorf("session folder missing: %v", err)
	}
	if !strings.Contains(out.String(), "alpha") {
		t.Errorf("console output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(os.Getenv("HOME"), ".perflog", "history")); err != nil {
		t.Errorf("history not saved: %v", err)
	}
}
