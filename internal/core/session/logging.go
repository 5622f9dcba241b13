package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/perflog/internal/core/converter"
	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/storage/catalog"
)

// ============================================================================
// Component Setup
// ============================================================================

// InitializeDataLogger attaches the sampler to the configured process.
// Configured anti-cheat processes must not be running.
func (o *Orchestrator) InitializeDataLogger() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current()
	if s == nil {
		return domain.ErrNoSession
	}
	if s.run != nil {
		return domain.ErrAlreadyRunning
	}
	if o.backend == nil {
		return o.backendErr
	}

	// 1. Anti-cheat check
	var blocking []string
	for _, name := range o.cfg.Target.AntiCheat {
		procs, err := o.backend.FindProcesses(name)
		if err != nil {
			return err
		}
		if len(procs) > 0 {
			blocking = append(blocking, name)
		}
	}
	if len(blocking) > 0 {
		return domain.ErrAntiCheatRunning.WithDetails(strings.Join(blocking, ", "))
	}

	// 2. Attach
	process := o.cfg.Target.Process
	if err := s.sampler.Initialize(o.backend, process); err != nil {
		return err
	}
	o.record(s.name, func(e *catalog.Entry) { e.Process = process })
	return nil
}

// SetupSaveWatcher starts watching saveGamePath. The session's own saves
// folder is rejected.
func (o *Orchestrator) SetupSaveWatcher(saveGamePath string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current()
	if s == nil {
		return domain.ErrNoSession
	}
	if s.run != nil {
		return domain.ErrAlreadyRunning
	}
	if samePath(saveGamePath, s.savesDir) {
		return domain.ErrSameFolder.WithDetails(saveGamePath)
	}
	return s.archiver.Initialize(saveGamePath)
}

// ============================================================================
// Run Control
// ============================================================================

// StartLogging runs the initialized components in the background and
// returns. The host is kept awake until the run ends.
func (o *Orchestrator) StartLogging(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current()
	if s == nil {
		return domain.ErrNoSession
	}
	if s.run != nil {
		return domain.ErrAlreadyRunning
	}
	logData, watchSaves := s.sampler.Initialized(), s.archiver.Initialized()
	if !logData && !watchSaves {
		return domain.ErrNothingToRun
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	r := &run{
		id:        ulid.Make().String(),
		startedAt: time.Now().UTC(),
		cancel:    cancel,
		group:     g,
		done:      make(chan struct{}),
	}
	s.run = r

	if err := o.inhibitor.Inhibit(); err != nil {
		o.logger.Warn("keep awake failed", "error", err)
	}

	if logData {
		g.Go(func() error { return s.sampler.Log(gctx) })
	}
	if watchSaves {
		g.Go(func() error { return s.archiver.Watch(gctx) })
	}
	go o.finish(s, r)

	o.record(s.name, func(e *catalog.Entry) {
		e.Runs++
		e.LastRunID = r.id
		e.LastStartedAt = r.startedAt
	})
	if o.metrics != nil {
		o.metrics.Running.Set(1)
		o.metrics.Runs.Inc()
	}

	o.logger.Info("logging started",
		"session", s.name,
		"run_id", r.id,
		"data_logger", logData,
		"save_watcher", watchSaves)
	return nil
}

// StopLogging stops the running components and waits for them to exit.
func (o *Orchestrator) StopLogging() error {
	o.mu.Lock()
	s := o.current()
	if s == nil {
		o.mu.Unlock()
		return domain.ErrNoSession
	}
	r := s.run
	o.mu.Unlock()

	if r == nil {
		return domain.ErrNotRunning
	}
	return o.stop(s, r)
}

// Done returns a channel closed when the current run ends. Without a
// running session the returned channel is already closed.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil || o.session.run == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return o.session.run.done
}

// stop signals both loops and waits for finish.
func (o *Orchestrator) stop(s *active, r *run) error {
	s.sampler.Stop()
	s.archiver.Stop()
	r.cancel()
	<-r.done
	return r.err
}

// finish waits for the run to end by stop or by a component error, then
// restores the sleep policy and frees the run slot.
func (o *Orchestrator) finish(s *active, r *run) {
	err := r.group.Wait()
	r.cancel()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	r.err = err

	if rerr := o.inhibitor.Restore(); rerr != nil {
		o.logger.Warn("restore sleep policy failed", "error", rerr)
	}

	o.mu.Lock()
	if s.run == r {
		s.run = nil
	}
	o.mu.Unlock()

	stoppedAt := time.Now().UTC()
	o.record(s.name, func(e *catalog.Entry) { e.LastStoppedAt = stoppedAt })
	if o.metrics != nil {
		o.metrics.Running.Set(0)
	}

	if err != nil {
		o.logger.Error("logging failed", "session", s.name, "run_id", r.id, "error", err)
	} else {
		o.logger.Info("logging stopped",
			"session", s.name,
			"run_id", r.id,
			"duration", stoppedAt.Sub(r.startedAt).Round(time.Millisecond))
	}
	close(r.done)
}

// ============================================================================
// Data
// ============================================================================

// SaveData flushes the performance log of a running session.
func (o *Orchestrator) SaveData() error {
	o.mu.Lock()
	s := o.current()
	o.mu.Unlock()

	if s == nil {
		return domain.ErrNoSession
	}
	return s.sampler.Save()
}

// ExportCSV converts the session's performance log into
// sessions/<name>/<name>_performance.csv, keeping records whose game speed
// equals filterSpeed. It returns the path written.
func (o *Orchestrator) ExportCSV(filterSpeed int32, compress bool) (string, error) {
	o.mu.Lock()
	s := o.current()
	running := s != nil && s.run != nil
	o.mu.Unlock()

	if s == nil {
		return "", domain.ErrNoSession
	}
	if running {
		if err := s.sampler.Save(); err != nil {
			return "", err
		}
	}

	csvPath := filepath.Join(s.dir, s.name+CSVSuffix)
	out, err := converter.ConvertFile(s.sampler.LogPath(), csvPath, filterSpeed, compress)
	if err != nil {
		return "", err
	}
	o.logger.Info("performance data exported", "session", s.name, "path", out, "speed", filterSpeed)
	return out, nil
}
