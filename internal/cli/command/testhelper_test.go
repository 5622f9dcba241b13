package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/storage/perflog"
)

const testConfig = `
target:
  process: eu4test
sampler:
  sampling_ratio: 2
  pointers:
    day: "10"
    game_speed: "20"
    game_state: "30"
log:
  level: error
`

// runApp runs the application with args and returns what it printed.
func runApp(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("PERFLOG_CONFIG", "")

	var out, errOut bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader("")

	err = app.Run(append([]string{"perflog"}, args...))
	return out.String(), errOut.String(), err
}

// writeConfig writes a valid configuration file and returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perflog.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// writeLog creates sessionsDir/name/performance.bin holding recs.
func writeLog(t *testing.T, sessionsDir, name string, recs ...domain.Record) string {
	t.Helper()
	path := filepath.Join(sessionsDir, name, perflog.FileName)
	w, err := perflog.OpenWriter(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	for _, r := range recs {
		if err := w.Append(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}
	return path
}

func record(day int32, ticks int64, speed int32) domain.Record {
	return domain.Record{Day: 792000 + day, Ticks: ticks, Speed: speed, FPS: 60}
}
