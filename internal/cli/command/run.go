package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/perflog/internal/config"
	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/infra/shutdown"
	"github.com/yndnr/perflog/internal/telemetry/logger"
)

// RunCommand returns the headless session command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Capture a session until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Session name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "saves",
				Usage: "Saved games folder to archive",
			},
			&cli.BoolFlag{
				Name:  "no-logger",
				Usage: "Only archive saves, do not attach to the game",
			},
			&cli.IntFlag{
				Name:  "export-speed",
				Usage: "Export CSV for this game speed on exit (0 disables)",
			},
			&cli.BoolFlag{
				Name:  "zstd",
				Usage: "Compress the exported CSV",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Time allowed for stopping and exporting",
				Value: 30 * time.Second,
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	st := state(c)
	if err := config.Verify(st.cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Bool("no-logger") && c.String("saves") == "" {
		return domain.ErrNothingToRun.WithDetails("--no-logger needs --saves")
	}

	ctx, stop := shutdown.WithSignals(c.Context)
	defer stop()
	ctx = logger.WithLogger(ctx, st.log.With("command", "run"))
	log := logger.L(ctx)

	svc, err := newServices(ctx, st)
	if err != nil {
		return err
	}
	h := shutdown.NewHandler(c.Duration("shutdown-timeout"), st.log.Slog())
	h.OnShutdown("services", func(context.Context) error { return svc.Close() })

	o := svc.orch
	info, err := o.CreateSession(c.String("name"))
	if err != nil {
		return errors.Join(err, h.Shutdown())
	}
	ctx = logger.WithSession(ctx, info.Name)
	log = logger.L(ctx)

	if !c.Bool("no-logger") {
		if err := o.InitializeDataLogger(); err != nil {
			return errors.Join(err, h.Shutdown())
		}
	}
	if saves := c.String("saves"); saves != "" {
		if err := o.SetupSaveWatcher(saves); err != nil {
			return errors.Join(err, h.Shutdown())
		}
	}

	if speed := c.Int("export-speed"); speed != 0 {
		compress := c.Bool("zstd")
		h.OnShutdown("export", func(context.Context) error {
			path, err := o.ExportCSV(int32(speed), compress)
			if err != nil {
				return err
			}
			log.Info("performance data exported", "path", path)
			return nil
		})
	}
	h.OnShutdown("logging", func(context.Context) error {
		if err := o.StopLogging(); err != nil && !errors.Is(err, domain.ErrNotRunning) {
			return err
		}
		return nil
	})

	if err := o.StartLogging(ctx); err != nil {
		return errors.Join(err, h.Shutdown())
	}
	log = logger.L(logger.WithRunID(ctx, o.Status().RunID))
	log.Info("capturing, press Ctrl+C to stop", "dir", info.Dir)

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case <-o.Done():
		log.Warn("logging ended on its own")
	}

	if err := h.Shutdown(); err != nil {
		return err
	}
	log.Info("session stopped")
	return nil
}
