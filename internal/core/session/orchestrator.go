package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/perflog/internal/config"
	"github.com/yndnr/perflog/internal/core/archiver"
	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/core/procmem"
	"github.com/yndnr/perflog/internal/core/sampler"
	"github.com/yndnr/perflog/internal/platform/power"
	"github.com/yndnr/perflog/internal/platform/proc"
	"github.com/yndnr/perflog/internal/storage/catalog"
	"github.com/yndnr/perflog/internal/storage/perflog"
	"github.com/yndnr/perflog/internal/telemetry/metric"
)

// SavesDirName is the archive folder inside a session directory.
const SavesDirName = "saves"

// CSVSuffix is appended to the session name to form the export file name.
const CSVSuffix = "_performance.csv"

// Option configures optional Orchestrator dependencies.
type Option func(*Orchestrator)

// WithBackend replaces the OS process backend.
func WithBackend(b procmem.Backend) Option {
	return func(o *Orchestrator) { o.backend = b }
}

// WithInhibitor replaces the OS sleep inhibitor.
func WithInhibitor(i power.Inhibitor) Option {
	return func(o *Orchestrator) { o.inhibitor = i }
}

// WithWatcherFactory replaces the fsnotify-based save watcher.
func WithWatcherFactory(f archiver.WatcherFactory) Option {
	return func(o *Orchestrator) { o.factory = f }
}

// WithCatalog records sessions and runs in the catalog.
func WithCatalog(c *catalog.Store) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// Orchestrator owns the single active session.
type Orchestrator struct {
	cfg        *config.Config
	backend    procmem.Backend
	backendErr error
	inhibitor  power.Inhibitor
	factory    archiver.WatcherFactory
	catalog    *catalog.Store
	metrics    *metric.Registry
	logger     *slog.Logger

	mu      sync.Mutex
	session *active
}

// active is the state of the current session.
type active struct {
	name     string
	dir      string
	savesDir string
	sampler  *sampler.Sampler
	archiver *archiver.Archiver
	run      *run
	// closing is set once CloseSession has claimed the session.
	closing bool
}

// run is one StartLogging..StopLogging interval.
type run struct {
	id        string
	startedAt time.Time
	cancel    context.CancelFunc
	group     *errgroup.Group
	done      chan struct{}
	err       error
}

// Info describes a created session.
type Info struct {
	Name     string
	Dir      string
	SavesDir string
	// Resumed is set when the directory already holds a performance log.
	Resumed bool
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Active       bool      `json:"active" yaml:"active"`
	Name         string    `json:"name,omitempty" yaml:"name,omitempty"`
	Dir          string    `json:"dir,omitempty" yaml:"dir,omitempty"`
	Sampler      string    `json:"sampler,omitempty" yaml:"sampler,omitempty"`
	Archiver     string    `json:"archiver,omitempty" yaml:"archiver,omitempty"`
	SaveGamePath string    `json:"save_game_path,omitempty" yaml:"save_game_path,omitempty"`
	Ironman      bool      `json:"ironman" yaml:"ironman"`
	Running      bool      `json:"running" yaml:"running"`
	RunID        string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	LogRecords   int64     `json:"log_records" yaml:"log_records"`
	LogSize      int64     `json:"log_size" yaml:"log_size" table:"bytes"`
}

// NewOrchestrator creates an orchestrator without an active session.
// Unless replaced by options, the host process backend, sleep inhibitor and
// fsnotify watcher are used.
func NewOrchestrator(cfg *config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		factory: archiver.FSNotifyFactory{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "session")

	if o.backend == nil {
		b, err := proc.NewBackend()
		if err != nil {
			o.backendErr = err
		} else {
			o.backend = b
		}
	}
	if o.inhibitor == nil {
		o.inhibitor = power.New(o.logger)
	}
	return o
}

// ============================================================================
// Session Slot
// ============================================================================

// CreateSession creates sessions/<name>/saves and binds a sampler and an
// archiver to it. An existing directory is reused, so captured data of a
// previous run is resumed.
func (o *Orchestrator) CreateSession(name string) (*Info, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// 1. Single session
	if o.session != nil {
		return nil, domain.ErrSessionActive.WithDetails(o.session.name)
	}

	// 2. Validate input
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := config.Verify(o.cfg); err != nil {
		return nil, err
	}
	ptrs, err := config.ParsePointers(&o.cfg.Sampler.Pointers)
	if err != nil {
		return nil, err
	}

	// 3. Directory layout
	dir := filepath.Join(o.cfg.Storage.SessionsDir, name)
	savesDir := filepath.Join(dir, SavesDirName)
	if err := os.MkdirAll(savesDir, 0750); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	// 4. Components
	s, err := sampler.New(sampler.Config{
		Dir:           dir,
		SamplingRatio: o.cfg.Sampler.SamplingRatio,
		Pointers:      sampler.Pointers(ptrs),
	}, sampler.WithLogger(o.logger.With("session", name)), sampler.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	a, err := archiver.New(archiver.Config{
		ArchiveDir:  savesDir,
		RefreshRate: o.cfg.Archiver.RefreshRate,
		Delay:       o.cfg.Archiver.Delay,
	},
		archiver.WithLogger(o.logger.With("session", name)),
		archiver.WithMetrics(o.metrics),
		archiver.WithWatcherFactory(o.factory),
		archiver.WithOnArchive(o.archived(name)),
	)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(s.LogPath())
	info := &Info{Name: name, Dir: dir, SavesDir: savesDir, Resumed: statErr == nil}

	o.session = &active{name: name, dir: dir, savesDir: savesDir, sampler: s, archiver: a}
	o.record(name, func(e *catalog.Entry) {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		e.Dir = dir
	})
	if o.metrics != nil {
		o.metrics.SessionActive.Set(1)
	}

	o.logger.Info("session created", "session", name, "dir", dir, "resumed", info.Resumed)
	return info, nil
}

// CloseSession stops a running session, releases the process and watch
// handles, restores the sleep policy and frees the slot.
func (o *Orchestrator) CloseSession() error {
	o.mu.Lock()
	s := o.current()
	if s == nil {
		o.mu.Unlock()
		return domain.ErrNoSession
	}
	s.closing = true
	r := s.run
	o.mu.Unlock()

	var errs []error
	if r != nil {
		errs = append(errs, o.stop(s, r))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	errs = append(errs,
		s.sampler.Close(),
		s.archiver.Close(),
		o.inhibitor.Restore(),
	)
	o.session = nil
	if o.metrics != nil {
		o.metrics.SessionActive.Set(0)
	}

	o.logger.Info("session closed", "session", s.name)
	return errors.Join(errs...)
}

// Close closes the active session, if any.
func (o *Orchestrator) Close() error {
	if err := o.CloseSession(); err != nil && !errors.Is(err, domain.ErrNoSession) {
		return err
	}
	return nil
}

// Status reports the state of the active session.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current()
	if s == nil {
		return Status{}
	}
	st := Status{
		Active:       true,
		Name:         s.name,
		Dir:          s.dir,
		Sampler:      s.sampler.State().String(),
		Archiver:     s.archiver.State().String(),
		SaveGamePath: s.archiver.SaveGamePath(),
		Ironman:      s.archiver.IsIronman(),
	}
	if s.run != nil {
		st.Running = true
		st.RunID = s.run.id
		st.StartedAt = s.run.startedAt
	}
	if records, size, err := perflog.Stat(s.sampler.LogPath()); err == nil {
		st.LogRecords = records
		st.LogSize = size
	}
	return st
}

// ============================================================================
// Helpers
// ============================================================================

// validateName accepts names usable as a single directory component.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return domain.ErrInvalidSessionName.WithDetails("name is empty")
	case name == "." || name == "..", strings.HasPrefix(name, "."):
		return domain.ErrInvalidSessionName.WithDetails(name)
	case strings.ContainsAny(name, `/\:*?"<>|`):
		return domain.ErrInvalidSessionName.WithDetails(name + " contains a path character")
	}
	return nil
}

// record applies fn to the catalog entry of name. The catalog is
// informational; failures are logged.
func (o *Orchestrator) record(name string, fn func(*catalog.Entry)) {
	if o.catalog == nil {
		return
	}
	if err := o.catalog.Update(name, fn); err != nil {
		o.logger.Warn("catalog update failed", "session", name, "error", err)
	}
}

// current returns the active session unless it is being closed.
// o.mu must be held.
func (o *Orchestrator) current() *active {
	if o.session == nil || o.session.closing {
		return nil
	}
	return o.session
}

func (o *Orchestrator) archived(name string) func(archiver.Copy) {
	return func(c archiver.Copy) {
		o.record(name, func(e *catalog.Entry) {
			e.ArchivedSaves++
			e.LastSave = filepath.Base(c.Path)
			e.LastSaveChecksum = c.Checksum()
		})
	}
}

// samePath reports whether a and b name the same directory.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil {
		absA, absB = filepath.Clean(absA), filepath.Clean(absB)
		if absA == absB || (runtime.GOOS == "windows" && strings.EqualFold(absA, absB)) {
			return true
		}
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
