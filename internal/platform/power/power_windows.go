//go:build windows

package power

import (
	"log/slog"
	"runtime"

	"golang.org/x/sys/windows"
)

const (
	esSystemRequired  = 0x00000001
	esDisplayRequired = 0x00000002
	esContinuous      = 0x80000000
)

// executionState drives SetThreadExecutionState. The state belongs to the
// calling OS thread, so every call is made from one locked goroutine.
type executionState struct {
	set    func(flags uintptr) error
	logger *slog.Logger
	reqs   chan request

	// owned by loop
	active bool
}

type request struct {
	inhibit bool
	done    chan error
}

func newPlatform(logger *slog.Logger) (Inhibitor, error) {
	proc := windows.NewLazySystemDLL("kernel32.dll").NewProc("SetThreadExecutionState")
	if err := proc.Find(); err != nil {
		return nil, err
	}
	set := func(flags uintptr) error {
		r, _, err := proc.Call(flags)
		if r == 0 {
			return err
		}
		return nil
	}
	return newExecutionState(set, logger), nil
}

func newExecutionState(set func(uintptr) error, logger *slog.Logger) *executionState {
	e := &executionState{set: set, logger: logger, reqs: make(chan request)}
	go e.loop()
	return e
}

func (e *executionState) loop() {
	runtime.LockOSThread()
	for req := range e.reqs {
		req.done <- e.apply(req.inhibit)
	}
}

func (e *executionState) do(inhibit bool) error {
	done := make(chan error, 1)
	e.reqs <- request{inhibit: inhibit, done: done}
	return <-done
}

func (e *executionState) apply(inhibit bool) error {
	if inhibit {
		if e.active {
			return nil
		}
		if err := e.set(esContinuous | esSystemRequired | esDisplayRequired); err != nil {
			return err
		}
		e.active = true
		e.logger.Debug("sleep inhibited")
		return nil
	}

	if err := e.set(esContinuous); err != nil {
		return err
	}
	if e.active {
		e.logger.Debug("sleep policy restored")
	}
	e.active = false
	return nil
}

func (e *executionState) Inhibit() error { return e.do(true) }

func (e *executionState) Restore() error { return e.do(false) }
