package command

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/perflog/internal/core/converter"
	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/core/session"
	"github.com/yndnr/perflog/internal/storage/perflog"
)

func TestConvert_Session(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "alpha", record(0, 0, 3), record(1, 100, 3), record(2, 250, 3), record(3, 300, 5))

	_, stderr, err := runApp(t, "--sessions-dir", dir, "convert", "--speed", "3", "alpha")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	csvPath := filepath.Join(dir, "alpha", "alpha"+session.CSVSuffix)
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) != 3 || lines[0] != converter.Header {
		t.Errorf("csv = %q", data)
	}
	if !strings.HasPrefix(lines[1], "1,100,") || !strings.HasPrefix(lines[2], "2,150,") {
		t.Errorf("rows = %q", lines[1:])
	}
	if !strings.Contains(stderr, csvPath) {
		t.Errorf("stderr = %q, want written path", stderr)
	}
}

func TestConvert_LogPathCompressed(t *testing.T) {
	dir := t.TempDir()
	logPath := writeLog(t, dir, "alpha", record(0, 0, 1), record(1, 10, 1))
	out := filepath.Join(t.TempDir(), "out.csv")

	_, _, err := runApp(t, "convert", "--speed", "1", "--zstd", "--out", out, logPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := os.Stat(out + converter.CompressedExt); err != nil {
		t.Errorf("compressed csv missing: %v", err)
	}
}

func TestConvert_ListSpeeds(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "alpha", record(0, 0, 5), record(1, 10, 3), record(2, 20, 5))

	stdout, _, err := runApp(t, "-o", "json", "--sessions-dir", dir, "convert", "alpha")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	var speeds []int32
	if err := json.Unmarshal([]byte(stdout), &speeds); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if len(speeds) != 2 || speeds[0] != 3 || speeds[1] != 5 {
		t.Errorf("speeds = %v, want [3 5]", speeds)
	}
}

func TestConvert_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runApp(t, "--sessions-dir", dir, "convert", "--speed", "3")
	if err == nil {
		t.Error("expected error without argument")
	}

	_, _, err = runApp(t, "--sessions-dir", dir, "convert", "--speed", "3", "missing")
	if !errors.Is(err, domain.ErrLogNotFound) {
		t.Errorf("err = %v, want ErrLogNotFound", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0750); err != nil {
		t.Fatal(err)
	}
	_, _, err = runApp(t, "--sessions-dir", dir, "convert", "--speed", "3", "empty")
	if !errors.Is(err, domain.ErrLogNotFound) {
		t.Errorf("err = %v, want ErrLogNotFound", err)
	}
}

func TestResolveLog(t *testing.T) {
	dir := t.TempDir()
	logPath := writeLog(t, dir, "alpha", record(0, 0, 1))

	gotLog, gotCSV, err := resolveLog(dir, "alpha")
	if err != nil {
		t.Fatalf("resolveLog: %v", err)
	}
	if gotLog != logPath {
		t.Errorf("log = %q, want %q", gotLog, logPath)
	}
	if want := filepath.Join(dir, "alpha", "alpha"+session.CSVSuffix); gotCSV != want {
		t.Errorf("csv = %q, want %q", gotCSV, want)
	}

	gotLog, gotCSV, err = resolveLog("elsewhere", logPath)
	if err != nil {
		t.Fatalf("resolveLog path: %v", err)
	}
	if gotLog != logPath {
		t.Errorf("log = %q, want %q", gotLog, logPath)
	}
	if want := filepath.Join(dir, "alpha", "performance.csv"); gotCSV != want {
		t.Errorf("csv = %q, want %q", gotCSV, want)
	}

	if _, _, err := resolveLog(dir, perflog.FileName); !errors.Is(err, domain.ErrLogNotFound) {
		t.Errorf("err = %v, want ErrLogNotFound", err)
	}
}
