// Package sampler polls game state from an attached process and appends
// changed samples to the binary performance log.
//
// A tick reads day, game speed and game state through their pointer paths
// and derives the frame rate from the game's frame time ring. A record is
// written only when day, speed or state differ from the previous tick. The
// last sample is snapshotted on exit so that a restarted sampler does not
// write a duplicate record for an unchanged game.
package sampler

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/core/procmem"
	"github.com/yndnr/perflog/internal/storage/perflog"
	"github.com/yndnr/perflog/internal/storage/snapshot"
	"github.com/yndnr/perflog/internal/telemetry/metric"
)

// Frame time ring layout.
const (
	FrameTimeCount = 100
	frameTimeSize  = 4
	fpsScale       = 100000
)

// State is the sampler lifecycle state.
type State int

// Sampler states.
const (
	StateIdle State = iota
	StateReady
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Pointers are the pointer paths of the sampled quantities.
type Pointers struct {
	Day        domain.PointerPath
	GameSpeed  domain.PointerPath
	GameState  domain.PointerPath
	FrameTimes domain.PointerPath
}

// Config configures a Sampler.
type Config struct {
	// Dir holds performance.bin and the snapshot files.
	Dir string
	// SamplingRatio is the number of ticks per second.
	SamplingRatio uint
	Pointers      Pointers
}

// Option configures optional Sampler dependencies.
type Option func(*Sampler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) { s.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Sampler) { s.metrics = m }
}

// WithClock overrides the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

// Sampler is the periodic data logger of one session.
type Sampler struct {
	cfg     Config
	period  time.Duration
	logger  *slog.Logger
	metrics *metric.Registry
	now     func() time.Time
	warn    *rate.Sometimes

	mu     sync.Mutex
	state  State
	reader *procmem.Reader
	writer *perflog.Writer
	stopCh chan struct{}
	last   domain.Sample
}

// New creates a sampler. A zero SamplingRatio is rejected.
func New(cfg Config, opts ...Option) (*Sampler, error) {
	if cfg.SamplingRatio == 0 {
		return nil, domain.ErrZeroSamplingRatio
	}
	if cfg.Dir == "" {
		return nil, domain.ErrInvalidConfig.WithDetails("sampler dir is required")
	}

	s := &Sampler{
		cfg:    cfg,
		period: time.Duration(1000/cfg.SamplingRatio) * time.Millisecond,
		logger: slog.Default(),
		now:    time.Now,
		warn:   &rate.Sometimes{Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sampler")
	return s, nil
}

// Period returns the polling period.
func (s *Sampler) Period() time.Duration {
	return s.period
}

// LogPath returns the binary log path.
func (s *Sampler) LogPath() string {
	return filepath.Join(s.cfg.Dir, perflog.FileName)
}

// State returns the lifecycle state.
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialized reports whether a process is attached.
func (s *Sampler) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader != nil
}

// Initialize attaches to the named process. On failure the sampler stays
// uninitialized and Initialize may be retried.
func (s *Sampler) Initialize(backend procmem.Backend, processName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return domain.ErrAlreadyRunning
	}

	r, err := procmem.Attach(backend, processName)
	if err != nil {
		return err
	}
	if s.reader != nil {
		_ = s.reader.Close()
	}
	s.reader = r
	if s.state == StateIdle {
		s.state = StateReady
	}
	s.logger.Info("data logger attached", "process", processName, "pid", r.PID())
	return nil
}

// Log runs the sampling loop until Stop is called or ctx is done.
func (s *Sampler) Log(ctx context.Context) error {
	s.mu.Lock()
	if s.reader == nil {
		s.mu.Unlock()
		return domain.ErrNothingToRun.WithDetails("data logger is not initialized")
	}
	if s.state == StateRunning {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}

	snaps, err := snapshot.NewManager(snapshot.Config{Dir: s.cfg.Dir})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	prev, found, err := snaps.LoadSample()
	if err != nil {
		s.logger.Warn("snapshot partially restored", "error", err)
	}

	w, err := perflog.OpenWriter(s.LogPath())
	if err != nil {
		s.mu.Unlock()
		return err
	}

	stopCh := make(chan struct{})
	s.writer = w
	s.stopCh = stopCh
	s.state = StateRunning
	reader := s.reader
	s.mu.Unlock()

	s.logger.Info("data logger started", "period", s.period, "resumed", found, "log_size", w.Size())

	prev = s.loop(ctx, reader, w, prev, stopCh)

	s.mu.Lock()
	s.writer = nil
	s.stopCh = nil
	s.state = StateStopped
	s.last = prev
	s.mu.Unlock()

	closeErr := w.Close()
	snapErr := snaps.SaveSample(prev)
	s.logger.Info("data logger stopped", "records", w.Records())

	if closeErr != nil {
		return closeErr
	}
	return snapErr
}

func (s *Sampler) loop(ctx context.Context, r *procmem.Reader, w *perflog.Writer, prev domain.Sample, stopCh <-chan struct{}) domain.Sample {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		cur := s.sampleOnce(r)
		if cur.Changed(prev) {
			rec := domain.NewRecord(cur, domain.Ticks(s.now()), r.Stats())
			if err := w.Append(rec); err != nil {
				s.logger.Error("append record failed", "error", err)
			} else if s.metrics != nil {
				s.metrics.RecordsWritten.Inc()
			}
		}
		prev = cur

		select {
		case <-stopCh:
			return prev
		case <-ctx.Done():
			return prev
		case <-ticker.C:
		}
	}
}

// sampleOnce performs the reads of one tick.
func (s *Sampler) sampleOnce(r *procmem.Reader) domain.Sample {
	var cur domain.Sample
	s.read(r, s.cfg.Pointers.Day, cur.Day[:], "day")
	s.read(r, s.cfg.Pointers.GameSpeed, cur.GameSpeed[:], "game_speed")
	s.read(r, s.cfg.Pointers.GameState, cur.GameState[:], "game_state")
	binary.LittleEndian.PutUint32(cur.FPS[:], math.Float32bits(s.fps(r)))

	if s.metrics != nil {
		s.metrics.SamplesTaken.Inc()
	}
	return cur
}

func (s *Sampler) read(r *procmem.Reader, path domain.PointerPath, dst []byte, field string) {
	if path.IsZero() {
		return
	}
	b, n := r.ReadBytes(r.Resolve(path), len(dst))
	if n == 0 {
		s.readFailed(field)
	}
	copy(dst, b)
}

// fps sums the frame time ring and converts it to frames per second.
func (s *Sampler) fps(r *procmem.Reader) float32 {
	if s.cfg.Pointers.FrameTimes.IsZero() {
		return 0
	}
	base := r.Resolve(s.cfg.Pointers.FrameTimes)
	var sum float32
	for i := 0; i < FrameTimeCount; i++ {
		b, _ := r.ReadBytes(base+uint64(i*frameTimeSize), frameTimeSize)
		sum += math.Float32frombits(binary.LittleEndian.Uint32(b))
	}

	var fps float32
	if sum != 0 {
		fps = fpsScale / sum
	}
	if s.metrics != nil {
		s.metrics.LastFPS.Set(float64(fps))
	}
	return fps
}

func (s *Sampler) readFailed(field string) {
	if s.metrics != nil {
		s.metrics.ReadFailures.Inc()
	}
	s.warn.Do(func() {
		s.logger.Warn("memory read failed, writing zeros", "field", field)
	})
}

// Stop requests the loop to exit. It returns without waiting; the loop
// exits within one period.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// Save flushes the log by reopening it while the loop keeps running.
// It is a no-op when the sampler is not running.
func (s *Sampler) Save() error {
	s.mu.Lock()
	w := s.writer
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	if err := w.Rotate(); err != nil {
		return err
	}
	s.logger.Debug("performance log flushed", "size", w.Size())
	return nil
}

// LastSample returns the sample observed on the last tick of the previous run.
func (s *Sampler) LastSample() domain.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Close releases the process handle. The sampler must not be running.
func (s *Sampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	s.state = StateIdle
	return err
}
