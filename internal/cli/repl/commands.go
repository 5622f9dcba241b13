package repl

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yndnr/perflog/internal/cli/output"
	"github.com/yndnr/perflog/internal/core/converter"
	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/storage/perflog"
)

// command is one console command.
type command struct {
	usage string
	help  string
	run   func(r *REPL, args []string)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"create":  {"create <name>", "activate a test session", (*REPL).cmdCreate},
		"init":    {"init", "attach the data logger to the game process", (*REPL).cmdInit},
		"watch":   {"watch <dir>", "set up the save watcher on a saved games folder", (*REPL).cmdWatch},
		"run":     {"run", "start or continue capturing data", (*REPL).cmdRun},
		"stop":    {"stop", "stop capturing data", (*REPL).cmdStop},
		"save":    {"save", "flush captured data to disk while running", (*REPL).cmdSave},
		"convert": {"convert [speed] [zstd]", "export captured data of one game speed to CSV", (*REPL).cmdConvert},
		"status":  {"status", "show the session state", (*REPL).cmdStatus},
		"close":   {"close", "close the session", (*REPL).cmdClose},
		"help":    {"help", "list commands", (*REPL).cmdHelp},
	}
}

// execute runs one input line.
func (r *REPL) execute(line string) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	cmd, ok := commands[name]
	if !ok {
		matches := r.completer.Complete(name)
		if len(matches) != 1 {
			if len(matches) == 0 {
				r.Errorf("Unknown command %q, type help", name)
			} else {
				r.Errorf("Ambiguous command %q: %s", name, strings.Join(matches, ", "))
			}
			return
		}
		cmd = commands[matches[0]]
	}
	cmd.run(r, args)
}

func (r *REPL) cmdCreate(args []string) {
	if len(args) != 1 {
		r.Errorf("Usage: create <name>")
		return
	}
	info, err := r.session.CreateSession(args[0])
	if err != nil {
		r.Errorf("Failed to activate %s session: %v", args[0], err)
		return
	}
	if info.Resumed {
		r.Infof("Existing data of %s found, capturing continues where it stopped", info.Name)
	}
	r.Successf("Session %s activated. Initialize data logger and/or set up save watcher (game needs to be saved at least once)", info.Name)
}

func (r *REPL) cmdInit([]string) {
	if err := r.session.InitializeDataLogger(); err != nil {
		if errors.Is(err, domain.ErrAntiCheatRunning) {
			r.Errorf("Cannot initialize data logger, please close the following processes: %s", detailsOf(err))
			return
		}
		r.Errorf("Data logger failed to attach to %s process: %v", r.cfg.Process, err)
		return
	}
	r.Successf("Data logger is attached to %s process. Set the game speed to track, enable 3dstats to track FPS, then type run", r.cfg.Process)
}

func (r *REPL) cmdWatch(args []string) {
	if len(args) == 0 {
		r.Errorf("Usage: watch <dir>")
		return
	}
	dir := strings.Join(args, " ")
	if err := r.session.SetupSaveWatcher(dir); err != nil {
		if errors.Is(err, domain.ErrSameFolder) {
			r.Errorf("Source and target saved games folders cannot be the same!")
			return
		}
		r.Errorf("Failed to set saved games folder: %v", err)
		return
	}
	r.Successf("Save watcher is set to track changes in %s folder. Type run to start", dir)
}

func (r *REPL) cmdRun([]string) {
	if err := r.session.StartLogging(r.ctx); err != nil {
		r.Errorf("Failed to start capturing data: %v", err)
		return
	}
	r.Successf("Started capturing data (run %s)", r.session.Status().RunID)
}

func (r *REPL) cmdStop([]string) {
	if err := r.session.StopLogging(); err != nil {
		r.Errorf("Failed to stop capturing data: %v", err)
		return
	}
	r.Successf("Stopped capturing data")
}

func (r *REPL) cmdSave([]string) {
	if err := r.session.SaveData(); err != nil {
		r.Errorf("Failed to save captured data: %v", err)
		return
	}
	r.Successf("Saved captured data")
}

func (r *REPL) cmdConvert(args []string) {
	if len(args) == 0 {
		r.listSpeeds()
		return
	}
	speed, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		r.Errorf("Invalid game speed %q", args[0])
		return
	}
	compress := len(args) > 1 && args[1] == "zstd"

	r.Infof("Started converting log")
	path, err := r.session.ExportCSV(int32(speed), compress)
	if err != nil {
		if errors.Is(err, domain.ErrLogNotFound) {
			r.Errorf("No captured data is found! Record some using data logger")
			return
		}
		r.Errorf("Failed to convert log: %v", err)
		return
	}
	r.Successf("Finished converting log into %s", path)
}

// listSpeeds prints the game speeds present in the log.
func (r *REPL) listSpeeds() {
	st := r.session.Status()
	if !st.Active {
		r.Errorf("Failed to convert log: %v", domain.ErrNoSession)
		return
	}
	data, err := os.ReadFile(filepath.Join(st.Dir, perflog.FileName))
	if err != nil || len(data) < domain.RecordSize {
		r.Errorf("No captured data is found! Record some using data logger")
		return
	}
	speeds := converter.Speeds(data)
	parts := make([]string, len(speeds))
	for i, s := range speeds {
		parts[i] = strconv.Itoa(int(s))
	}
	r.Infof("Recorded game speeds: %s. Usage: convert <speed> [zstd]", strings.Join(parts, ", "))
}

func (r *REPL) cmdStatus([]string) {
	st := r.session.Status()
	if !st.Active {
		r.Infof("No active session")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = output.NewFormatter(output.FormatTable, false).Format(r.output, st)
}

func (r *REPL) cmdClose([]string) {
	name := r.session.Status().Name
	r.Infof("Closing %s session", name)
	if err := r.session.CloseSession(); err != nil {
		r.Errorf("Failed to close session: %v", err)
		return
	}
	r.Successf("Session closed")
}

func (r *REPL) cmdHelp([]string) {
	var t output.Table
	t.SetHeaders("COMMAND", "DESCRIPTION")
	for _, name := range r.completer.Commands() {
		if cmd, ok := commands[name]; ok {
			t.AddRow(cmd.usage, cmd.help)
		}
	}
	t.AddRow("exit", "leave the console")
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = t.Render(r.output)
}

// detailsOf returns the details of a domain error, or its message.
func detailsOf(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Details != "" {
		return de.Details
	}
	return err.Error()
}
