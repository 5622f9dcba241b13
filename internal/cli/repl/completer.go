package repl

import (
	"sort"
	"strings"
)

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a new Completer in operator workflow order.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"create", "init", "watch", "run", "stop", "save",
			"convert", "status", "close", "help",
		},
	}
}

// Commands returns the known commands in workflow order.
func (c *Completer) Commands() []string {
	out := make([]string, len(c.commands))
	copy(out, c.commands)
	return out
}

// Complete returns the commands starting with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	sort.Strings(suggestions)
	return suggestions
}
