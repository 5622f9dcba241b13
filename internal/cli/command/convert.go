package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/perflog/internal/cli/output"
	"github.com/yndnr/perflog/internal/core/converter"
	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/core/session"
	"github.com/yndnr/perflog/internal/storage/perflog"
)

// ConvertCommand returns the offline CSV export command.
func ConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Aliases:   []string{"export"},
		Usage:     "Convert a performance log to CSV",
		ArgsUsage: "SESSION|LOG_FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "speed",
				Aliases: []string{"s"},
				Usage:   "Game speed to keep",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List the game speeds present in the log",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "CSV path (default next to the log)",
			},
			&cli.BoolFlag{
				Name:  "zstd",
				Usage: "Compress the CSV with zstd",
			},
		},
		Action: convertAction,
	}
}

func convertAction(c *cli.Context) error {
	st := state(c)
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one session name or log file")
	}

	logPath, csvPath, err := resolveLog(st.cfg.Storage.SessionsDir, c.Args().First())
	if err != nil {
		return err
	}

	if c.Bool("list") || !c.IsSet("speed") {
		data, err := os.ReadFile(logPath)
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrLogNotFound.WithDetails(logPath)
		}
		if err != nil {
			return err
		}
		speeds := converter.Speeds(data)
		if len(speeds) == 0 {
			fmt.Fprintln(st.stdout, "no records")
			return nil
		}
		f, err := formatter(c, output.FormatTable)
		if err != nil {
			return err
		}
		return f.Format(st.stdout, speeds)
	}

	if out := c.String("out"); out != "" {
		csvPath = out
	}

	sp := output.NewSpinner(st.stderr, "Converting "+filepath.Base(logPath))
	sp.Start()
	path, err := converter.ConvertFile(logPath, csvPath, int32(c.Int("speed")), c.Bool("zstd"))
	if err != nil {
		sp.Fail(err.Error())
		return err
	}
	sp.Success("Wrote " + path)
	return nil
}

// resolveLog maps a session name or a log file path to the log and its
// default CSV path.
func resolveLog(sessionsDir, arg string) (logPath, csvPath string, err error) {
	if strings.HasSuffix(arg, filepath.Ext(perflog.FileName)) || strings.ContainsAny(arg, `/\`) {
		if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
			csvPath = strings.TrimSuffix(arg, filepath.Ext(arg)) + ".csv"
			return arg, csvPath, nil
		}
	}

	dir := filepath.Join(sessionsDir, arg)
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return "", "", domain.ErrLogNotFound.WithDetails(arg)
	}
	return filepath.Join(dir, perflog.FileName), filepath.Join(dir, arg+session.CSVSuffix), nil
}
