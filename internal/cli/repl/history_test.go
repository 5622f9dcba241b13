package repl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHistory_AddAndGet(t *testing.T) {
	h := NewHistory("")
	h.Add("create a")
	h.Add("init")
	h.Add("init")
	h.Add("run")

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (repeat dropped)", h.Len())
	}
	if got := h.Get(0); got != "run" {
		t.Errorf("Get(0) = %q, want run", got)
	}
	if got := h.Get(2); got != "create a" {
		t.Errorf("Get(2) = %q, want create a", got)
	}
	if got := h.Get(3); got != "" {
		t.Errorf("Get(3) = %q, want empty", got)
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory("")
	h.maxSize = 2
	h.Add("a")
	h.Add("b")
	h.Add("c")

	if h.Len() != 2 || h.Get(1) != "b" {
		t.Errorf("entries = %v", h.entries)
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(file)
	h.Add("create a")
	h.Add("run")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	loaded := NewHistory(file)
	loaded.Add("status")
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 3 || loaded.Get(0) != "status" || loaded.Get(2) != "create a" {
		t.Errorf("entries = %v", loaded.entries)
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "none"))
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if err := NewHistory("").Save(); err != nil {
		t.Errorf("Save() without file error = %v", err)
	}
}
