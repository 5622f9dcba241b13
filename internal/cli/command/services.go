package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/perflog/internal/core/session"
	"github.com/yndnr/perflog/internal/storage/catalog"
	"github.com/yndnr/perflog/internal/telemetry/metric"
)

// services wires the long-lived dependencies of console and run.
type services struct {
	orch    *session.Orchestrator
	catalog *catalog.Store
	metrics *metric.Registry

	stopMetrics context.CancelFunc
	metricsDone chan error
}

// newServices opens the catalog, starts the metrics endpoint when configured
// and creates the orchestrator. An unusable catalog is logged and skipped.
func newServices(ctx context.Context, st *appState, opts ...session.Option) (*services, error) {
	cfg := st.cfg
	log := st.log.Slog()
	rt := &services{metrics: metric.NewRegistry()}

	if dir := cfg.Storage.Catalog(); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
		cat, err := catalog.Open(catalog.Config{Dir: dir}, log)
		if err != nil {
			log.Warn("session catalog unavailable", "dir", dir, "error", err)
		} else {
			rt.catalog = cat
		}
	}

	if cfg.Metrics.Addr != "" {
		mctx, cancel := context.WithCancel(ctx)
		rt.stopMetrics = cancel
		rt.metricsDone = make(chan error, 1)
		go func() { rt.metricsDone <- rt.metrics.Serve(mctx, cfg.Metrics.Addr, log) }()
	}

	base := []session.Option{
		session.WithMetrics(rt.metrics),
		session.WithLogger(log),
	}
	if rt.catalog != nil {
		base = append(base, session.WithCatalog(rt.catalog))
	}
	rt.orch = session.NewOrchestrator(cfg, append(base, opts...)...)
	return rt, nil
}

// Close closes the session, then the metrics endpoint and the catalog.
func (rt *services) Close() error {
	var errs []error
	errs = append(errs, rt.orch.Close())
	if rt.stopMetrics != nil {
		rt.stopMetrics()
		errs = append(errs, <-rt.metricsDone)
	}
	if rt.catalog != nil {
		errs = append(errs, rt.catalog.Close())
	}
	return errors.Join(errs...)
}

// openCatalog opens the catalog for read-mostly commands.
func openCatalog(st *appState) (*catalog.Store, error) {
	dir := st.cfg.Storage.Catalog()
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, nil
	}
	return catalog.Open(catalog.Config{Dir: dir}, slog.New(slog.DiscardHandler))
}
