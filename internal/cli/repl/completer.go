package repl

import "strings"

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"GET key",
			"SET key value",
			"SET key value EX seconds",
			"SET key value PX milliseconds",
			"help", "exit", "quit",
		},
	}
}

// Complete returns completion suggestions for the given prefix. Matching
// ignores case.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if len(cmd) >= len(prefix) && strings.EqualFold(cmd[:len(prefix)], prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
