package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
)

// syncBuffer guards a buffer written by the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_Success(t *testing.T) {
	color.NoColor = true
	var buf syncBuffer
	s := NewSpinner(&buf, "converting")
	s.interval = time.Millisecond
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Success("converted")

	out := buf.String()
	if !strings.Contains(out, "converting") {
		t.Errorf("spinner message missing: %q", out)
	}
	if !strings.HasSuffix(out, "✓ converted\n") {
		t.Errorf("output = %q", out)
	}

	// Idempotent
	s.Fail("ignored")
	if strings.Contains(buf.String(), "ignored") {
		t.Error("second finish must be a no-op")
	}
}

func TestSpinner_FailWithoutStart(t *testing.T) {
	color.NoColor = true
	var buf syncBuffer
	s := NewSpinner(&buf, "converting")
	s.Fail("no data")
	if !strings.HasSuffix(buf.String(), "✗ no data\n") {
		t.Errorf("output = %q", buf.String())
	}
}
