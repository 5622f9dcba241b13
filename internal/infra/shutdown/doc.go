// Package shutdown coordinates a graceful exit of the headless runner.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-bounded cleanup hooks, run in reverse registration order
//   - Shutdown coordination via Done
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("session", func(ctx context.Context) error { return o.Close() })
//	return h.Wait(ctx)
package shutdown
