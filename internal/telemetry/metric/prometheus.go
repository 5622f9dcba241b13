package metric

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perflog"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Sampler metrics
	SamplesTaken   prometheus.Counter
	RecordsWritten prometheus.Counter
	ReadFailures   prometheus.Counter
	LastFPS        prometheus.Gauge

	// Archiver metrics
	SaveEvents     prometheus.Counter
	SavesArchived  prometheus.Counter
	ArchiveFailure prometheus.Counter

	// Session metrics
	SessionActive prometheus.Gauge
	Running       prometheus.Gauge
	Runs          prometheus.Counter
}

// NewRegistry creates a registry with every metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		registry: reg,
		SamplesTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sampler", Name: "samples_total",
			Help: "Polling ticks executed by the sampler.",
		}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sampler", Name: "records_written_total",
			Help: "Records appended to the performance log.",
		}),
		ReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sampler", Name: "read_failures_total",
			Help: "Memory reads that returned no data.",
		}),
		LastFPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "sampler", Name: "fps",
			Help: "Frame rate computed on the last tick.",
		}),
		SaveEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "archiver", Name: "events_total",
			Help: "Write notifications received from the saved games folder.",
		}),
		SavesArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "archiver", Name: "saves_archived_total",
			Help: "Save files copied into the session archive.",
		}),
		ArchiveFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "archiver", Name: "copy_failures_total",
			Help: "Save copies that failed.",
		}),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "session", Name: "active",
			Help: "1 when a session is allocated.",
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "session", Name: "running",
			Help: "1 while logging is running.",
		}),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "runs_total",
			Help: "Logging runs started.",
		}),
	}

	reg.MustRegister(
		r.SamplesTaken, r.RecordsWritten, r.ReadFailures, r.LastFPS,
		r.SaveEvents, r.SavesArchived, r.ArchiveFailure,
		r.SessionActive, r.Running, r.Runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Gatherer returns the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("metrics endpoint listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
