package repl

import (
	"slices"
	"strings"
)

// Completer completes command paths such as "snapshot fork".
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over the given command paths plus the
// REPL built-ins.
func NewCompleter(commands []string) *Completer {
	all := append(slices.Clone(commands), builtins...)
	slices.Sort(all)
	return &Completer{commands: slices.Compact(all)}
}

// Complete returns the commands starting with prefix. Leading and
// repeated spaces in prefix are ignored.
func (c *Completer) Complete(prefix string) []string {
	normalized := strings.Join(strings.Fields(prefix), " ")
	if normalized != "" && strings.HasSuffix(prefix, " ") {
		normalized += " "
	}
	prefix = normalized

	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
