package shutdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.done == nil {
		t.Error("done channel should be initialized")
	}

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_ReverseOrder(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"catalog", "metrics", "session"} {
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	want := "session,metrics,catalog"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after shutdown")
	}
}

func TestHandler_JoinsErrors(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false

	h.OnShutdown("a", func(context.Context) error { return errA })
	h.OnShutdown("ok", func(context.Context) error {
		ran = true
		return nil
	})
	h.OnShutdown("b", func(context.Context) error { return errB })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() error = %v, want both hook errors", err)
	}
	if !ran {
		t.Error("a failing hook must not skip the others")
	}

	// Idempotent
	if again := h.Shutdown(); again != err {
		t.Errorf("second Shutdown() = %v, want %v", again, err)
	}
}

func TestHandler_Timeout(t *testing.T) {
	h := NewHandler(20*time.Millisecond, nil)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	err := h.Shutdown()
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Shutdown() error = %v, want timeout", err)
	}
}

func TestHandler_Wait(t *testing.T) {
	h := NewHandler(time.Second, nil)
	called := make(chan struct{})
	h.OnShutdown("hook", func(context.Context) error {
		close(called)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	select {
	case <-called:
		t.Fatal("hook ran before the context was done")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return")
	}
}
