// Package archiver copies game saves into the session archive as they change.
//
// Regular saves are archived under their own name and overwritten on every
// change. Ironman saves (a name containing "ironman") are archived as
// numbered copies, name_<n>.ext, so the whole history is kept.
//
// The game writes an ironman save twice per save, producing two change
// notifications. The archiver copies on every second notification. This
// heuristic assumes notifications arrive in pairs and drifts by one if a
// single notification is ever lost or duplicated.
package archiver

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/telemetry/metric"
)

// IronmanMarker identifies ironman saves by case-sensitive substring.
const IronmanMarker = "ironman"

// State is the archiver lifecycle state.
type State int

// Archiver states.
const (
	StateIdle State = iota
	StateInitialized
	StateWatching
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialized:
		return "initialized"
	case StateWatching:
		return "watching"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config configures an Archiver.
type Config struct {
	// ArchiveDir receives the copies, usually sessions/<name>/saves.
	ArchiveDir string
	// RefreshRate is the number of loop wake-ups per second.
	RefreshRate uint
	// Delay is waited after a notification before the save is read.
	Delay time.Duration
}

// Option configures optional Archiver dependencies.
type Option func(*Archiver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Archiver) { a.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(a *Archiver) { a.metrics = m }
}

// WithWatcherFactory replaces the fsnotify-based watcher.
func WithWatcherFactory(f WatcherFactory) Option {
	return func(a *Archiver) { a.factory = f }
}

// WithOnArchive registers a callback invoked after every successful copy.
func WithOnArchive(fn func(Copy)) Option {
	return func(a *Archiver) { a.onArchive = fn }
}

// Copy describes one archived save.
type Copy struct {
	// Path is the archived file.
	Path string
	// Size is the number of bytes copied.
	Size int64
	// Sum is the murmur3 64-bit hash of the content.
	Sum uint64
}

// Checksum returns Sum in hex.
func (c Copy) Checksum() string {
	return strconv.FormatUint(c.Sum, 16)
}

// Archiver watches a saved games folder.
type Archiver struct {
	cfg       Config
	period    time.Duration
	logger    *slog.Logger
	metrics   *metric.Registry
	factory   WatcherFactory
	onArchive func(Copy)

	enabled atomic.Bool

	mu           sync.Mutex
	state        State
	saveGamePath string
	watcher      Watcher
	stopCh       chan struct{}

	// copy state, guarded by copyMu
	copyMu    sync.Mutex
	isIronman bool
	saveLock  bool
	sequence  uint64
}

// New creates an archiver. A zero RefreshRate is rejected.
func New(cfg Config, opts ...Option) (*Archiver, error) {
	if cfg.RefreshRate == 0 {
		return nil, domain.ErrZeroRefreshRate
	}
	if cfg.ArchiveDir == "" {
		return nil, domain.ErrInvalidConfig.WithDetails("archive dir is required")
	}

	a := &Archiver{
		cfg:      cfg,
		period:   time.Duration(1000/cfg.RefreshRate) * time.Millisecond,
		logger:   slog.Default(),
		factory:  FSNotifyFactory{},
		saveLock: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "archiver")
	return a, nil
}

// Period returns the loop wake-up period.
func (a *Archiver) Period() time.Duration {
	return a.period
}

// State returns the lifecycle state.
func (a *Archiver) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Initialized reports whether a save folder is set up.
func (a *Archiver) Initialized() bool {
	return a.State() != StateIdle
}

// SaveGamePath returns the watched folder.
func (a *Archiver) SaveGamePath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saveGamePath
}

// IsIronman reports whether numbered copies are produced.
func (a *Archiver) IsIronman() bool {
	a.copyMu.Lock()
	defer a.copyMu.Unlock()
	return a.isIronman
}

// Sequence returns the number the next ironman copy will carry.
func (a *Archiver) Sequence() uint64 {
	a.copyMu.Lock()
	defer a.copyMu.Unlock()
	return a.sequence
}

// Initialize sets up the watch on saveGamePath. An empty archive is seeded
// with every file currently in saveGamePath; otherwise ironman numbering
// resumes after the highest numbered archived copy.
func (a *Archiver) Initialize(saveGamePath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateWatching {
		return domain.ErrAlreadyRunning
	}

	info, err := os.Stat(saveGamePath)
	if err != nil {
		return domain.ErrSaveFolder.WithDetails(saveGamePath).WithCause(err)
	}
	if !info.IsDir() {
		return domain.ErrSaveFolder.WithDetails(saveGamePath + " is not a directory")
	}
	if err := os.MkdirAll(a.cfg.ArchiveDir, 0750); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	archived, err := os.ReadDir(a.cfg.ArchiveDir)
	if err != nil {
		return fmt.Errorf("read archive dir: %w", err)
	}

	a.copyMu.Lock()
	a.isIronman = false
	a.saveLock = true
	a.sequence = 0
	if len(archived) == 0 {
		a.bootstrapLocked(saveGamePath)
	} else if err := a.resumeLocked(archived); err != nil {
		a.copyMu.Unlock()
		return err
	}
	ironman, next := a.isIronman, a.sequence
	a.copyMu.Unlock()

	w, err := a.factory.NewWatcher(saveGamePath, a.handle, a.logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", saveGamePath, err)
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	a.watcher = w
	a.saveGamePath = saveGamePath
	a.state = StateInitialized

	a.logger.Info("save watcher initialized",
		"path", saveGamePath,
		"ironman", ironman,
		"next_sequence", next)
	return nil
}

// bootstrapLocked copies every regular file of src in name order.
func (a *Archiver) bootstrapLocked(src string) {
	entries, err := os.ReadDir(src)
	if err != nil {
		a.logger.Warn("list saved games failed", "path", src, "error", err)
		return
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !a.isIronman && strings.Contains(name, IronmanMarker) {
			a.isIronman = true
		}
		from := filepath.Join(src, name)
		if a.isIronman {
			if a.copy(from, numberedName(name, a.sequence), true) {
				a.sequence++
			}
		} else {
			a.copy(from, name, false)
		}
	}
}

// resumeLocked derives the copy mode from the lexicographically last archive
// entry. In ironman mode numbering continues after the highest suffix found.
func (a *Archiver) resumeLocked(archived []fs.DirEntry) error {
	var last string
	for _, e := range archived {
		if e.Type().IsRegular() && e.Name() > last {
			last = e.Name()
		}
	}
	if !strings.Contains(last, IronmanMarker) {
		return nil
	}

	highest, err := suffix(last)
	if err != nil {
		return domain.ErrBadArchiveSuffix.WithDetails(last).WithCause(err)
	}
	for _, e := range archived {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.Contains(name, IronmanMarker) {
			continue
		}
		if n, err := suffix(name); err == nil && n > highest {
			highest = n
		}
	}
	a.isIronman = true
	a.sequence = highest + 1
	return nil
}

// suffix parses n from "name_<n>.ext".
func suffix(name string) (uint64, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strconv.ParseUint(stem[strings.LastIndex(stem, "_")+1:], 10, 64)
}

// Watch enables change handling and blocks until Stop is called or ctx is done.
func (a *Archiver) Watch(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case StateIdle:
		a.mu.Unlock()
		return domain.ErrNothingToRun.WithDetails("save watcher is not set up")
	case StateWatching:
		a.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	stopCh := make(chan struct{})
	a.stopCh = stopCh
	a.state = StateWatching
	a.enabled.Store(true)
	a.mu.Unlock()

	a.logger.Info("save watcher started", "path", a.SaveGamePath())

	ticker := time.NewTicker(a.period)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-stopCh:
			break loop
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}

	a.enabled.Store(false)
	a.mu.Lock()
	a.stopCh = nil
	a.state = StateStopped
	a.mu.Unlock()

	a.logger.Info("save watcher stopped")
	return nil
}

// Stop disables change handling and ends Watch within one period.
func (a *Archiver) Stop() {
	a.enabled.Store(false)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
}

// Close releases the watch handle. The archiver must not be watching.
func (a *Archiver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher == nil {
		return nil
	}
	err := a.watcher.Close()
	a.watcher = nil
	a.state = StateIdle
	return err
}

// handle reacts to one change notification.
func (a *Archiver) handle(string) {
	if !a.enabled.Load() {
		return
	}
	if a.metrics != nil {
		a.metrics.SaveEvents.Inc()
	}

	time.Sleep(a.cfg.Delay)

	src := a.SaveGamePath()
	newest, err := newestFile(src)
	if err != nil {
		a.logger.Warn("find latest save failed", "path", src, "error", err)
		return
	}

	a.copyMu.Lock()
	defer a.copyMu.Unlock()

	if !a.isIronman {
		a.copy(filepath.Join(src, newest), newest, false)
		return
	}
	if !a.saveLock {
		a.copy(filepath.Join(src, newest), numberedName(newest, a.sequence), true)
		a.sequence++
	}
	a.saveLock = !a.saveLock
}

// copy copies src into the archive as name. Exclusive copies never replace
// an existing file. Failures are logged and reported as false.
func (a *Archiver) copy(src, name string, exclusive bool) bool {
	dst := filepath.Join(a.cfg.ArchiveDir, name)
	sum, n, err := copyFile(src, dst, exclusive)
	if err != nil {
		a.logger.Warn("archive copy failed", "src", src, "dst", dst, "error", err)
		if a.metrics != nil {
			a.metrics.ArchiveFailure.Inc()
		}
		return false
	}

	c := Copy{Path: dst, Size: n, Sum: sum}
	a.logger.Debug("save archived",
		"src", src,
		"dst", dst,
		"bytes", n,
		"murmur3", c.Checksum())
	if a.metrics != nil {
		a.metrics.SavesArchived.Inc()
	}
	if a.onArchive != nil {
		a.onArchive(c)
	}
	return true
}

func copyFile(src, dst string, exclusive bool) (uint64, int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, 0, err
	}
	defer in.Close()

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if exclusive {
		flags = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	out, err := os.OpenFile(dst, flags, 0644)
	if err != nil {
		return 0, 0, err
	}

	h := murmur3.New64()
	n, err := io.Copy(io.MultiWriter(out, h), in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return 0, 0, err
	}
	return h.Sum64(), n, nil
}

// numberedName turns "save.eu4" into "save_<n>.eu4".
func numberedName(name string, n uint64) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + strconv.FormatUint(n, 10) + ext
}

// newestFile returns the name of the most recently modified regular file in dir.
func newestFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var (
		name   string
		latest time.Time
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if name == "" || info.ModTime().After(latest) {
			name, latest = e.Name(), info.ModTime()
		}
	}
	if name == "" {
		return "", fmt.Errorf("no files in %s", dir)
	}
	return name, nil
}
