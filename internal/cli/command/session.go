package command

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/perflog/internal/cli/output"
	"github.com/yndnr/perflog/internal/storage/catalog"
	"github.com/yndnr/perflog/internal/storage/perflog"
)

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Inspect recorded sessions",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List sessions",
				Action:  sessionList,
			},
			{
				Name:      "show",
				Aliases:   []string{"get"},
				Usage:     "Show one session",
				ArgsUsage: "NAME",
				Action:    sessionShow,
			},
		},
	}
}

// sessionRow is one line of session list.
type sessionRow struct {
	Name          string    `json:"name" yaml:"name"`
	Runs          int       `json:"runs" yaml:"runs"`
	Records       int64     `json:"records" yaml:"records"`
	Size          int64     `json:"size" yaml:"size" table:"bytes"`
	ArchivedSaves int       `json:"archived_saves" yaml:"archived_saves"`
	LastStartedAt time.Time `json:"last_started_at,omitempty" yaml:"last_started_at,omitempty" table:"ago"`
	Process       string    `json:"process,omitempty" yaml:"process,omitempty" table:"wide"`
	LastRunID     string    `json:"last_run_id,omitempty" yaml:"last_run_id,omitempty" table:"wide"`
	LastSave      string    `json:"last_save,omitempty" yaml:"last_save,omitempty" table:"wide"`
	Dir           string    `json:"dir" yaml:"dir" table:"wide"`
}

func sessionList(c *cli.Context) error {
	st := state(c)

	rows, err := collectSessions(st)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(st.stdout, "no sessions")
		return nil
	}

	f, err := formatter(c, output.FormatTable)
	if err != nil {
		return err
	}
	return f.Format(st.stdout, rows)
}

func sessionShow(c *cli.Context) error {
	st := state(c)
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one session name")
	}
	name := c.Args().First()

	rows, err := collectSessions(st)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Name == name {
			f, err := formatter(c, output.FormatYAML)
			if err != nil {
				return err
			}
			return f.Format(st.stdout, r)
		}
	}
	return fmt.Errorf("session %q not found", name)
}

// collectSessions merges session folders with catalog entries. Folders
// missing from the catalog are still listed, and catalog entries whose
// folder was removed are dropped.
func collectSessions(st *appState) ([]sessionRow, error) {
	dir := st.cfg.Storage.SessionsDir
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	known := map[string]catalog.Entry{}
	cat, err := openCatalog(st)
	if err != nil {
		st.log.Warn("session catalog unavailable", "error", err)
	} else if cat != nil {
		list, err := cat.List()
		_ = cat.Close()
		if err != nil {
			st.log.Warn("read session catalog", "error", err)
		}
		for _, e := range list {
			known[e.Name] = e
		}
	}

	var rows []sessionRow
	for _, de := range entries {
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		sessionDir := filepath.Join(dir, de.Name())
		row := sessionRow{Name: de.Name(), Dir: sessionDir}

		if records, size, err := perflog.Stat(filepath.Join(sessionDir, perflog.FileName)); err == nil {
			row.Records, row.Size = records, size
		}
		if e, ok := known[de.Name()]; ok {
			row.Runs = e.Runs
			row.ArchivedSaves = e.ArchivedSaves
			row.LastStartedAt = e.LastStartedAt
			row.Process = e.Process
			row.LastRunID = e.LastRunID
			row.LastSave = e.LastSave
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}
