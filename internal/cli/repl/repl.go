package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/yndnr/perflog/internal/core/session"
)

// Prompt is printed before every command.
const Prompt = "perflog> "

// Session is the orchestrator surface driven by the console.
type Session interface {
	CreateSession(name string) (*session.Info, error)
	InitializeDataLogger() error
	SetupSaveWatcher(path string) error
	StartLogging(ctx context.Context) error
	StopLogging() error
	SaveData() error
	ExportCSV(filterSpeed int32, compress bool) (string, error)
	CloseSession() error
	Status() session.Status
}

// Config holds the values shown in status lines.
type Config struct {
	// Target describes the game build the pointers belong to.
	Target string
	// Process is the attached process name.
	Process string
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory replaces the default history.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithClock overrides the clock used for status line timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *REPL) { r.now = now }
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	session   Session
	cfg       Config
	completer *Completer
	history   *History
	now       func() time.Time

	ctx context.Context
	mu  sync.Mutex
}

// New creates a new REPL instance.
func New(s Session, cfg Config, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		session:   s,
		cfg:       cfg,
		completer: NewCompleter(),
		history:   NewHistory(DefaultHistoryFile()),
		now:       time.Now,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads commands until exit, EOF or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx
	if err := r.history.Load(); err != nil {
		r.Warnf("History not loaded: %v", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			r.Warnf("History not saved: %v", err)
		}
	}()

	if r.cfg.Target != "" {
		r.Infof("Target: %s", r.cfg.Target)
	}
	r.Infof("Activate test session with: create <name>")

	lines := make(chan string)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		reader := bufio.NewReader(r.input)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				errc <- err
				return
			}
		}
	}()

	for {
		r.prompt()

		var line string
		select {
		case <-ctx.Done():
			r.println("")
			return nil
		case err := <-errc:
			r.println("")
			if err == io.EOF {
				return nil
			}
			return err
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}
		r.execute(line)
	}
}

// Infof prints a timestamped status line. Safe for concurrent use.
func (r *REPL) Infof(format string, args ...any) {
	r.status(nil, format, args...)
}

// Successf prints a green timestamped status line.
func (r *REPL) Successf(format string, args ...any) {
	r.status(color.New(color.FgGreen), format, args...)
}

// Warnf prints a yellow timestamped status line.
func (r *REPL) Warnf(format string, args ...any) {
	r.status(color.New(color.FgYellow), format, args...)
}

// Errorf prints a red timestamped status line.
func (r *REPL) Errorf(format string, args ...any) {
	r.status(color.New(color.FgRed), format, args...)
}

func (r *REPL) status(c *color.Color, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if c != nil {
		line = c.Sprint(line)
	}
	r.println(r.now().Format("[15:04:05.000]") + " " + line)
}

func (r *REPL) prompt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.output, Prompt)
}

func (r *REPL) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.output, s)
}
