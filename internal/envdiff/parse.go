// Package envdiff compares two env file texts and classifies every variable
// name as added, removed, changed or unchanged.
//
// Values are compared as raw strings. Quotes are kept and no expansion or
// type coercion happens, so `A="1"` and `A=1` are different values.
package envdiff

import (
	"strings"
)

// Env is the parsed form of one env text.
type Env struct {
	// Order lists names in first-appearance order.
	Order []string

	// Values maps each name to its raw value.
	Values map[string]string
}

// Lookup returns the value for name and whether it is present.
func (e *Env) Lookup(name string) (string, bool) {
	v, ok := e.Values[name]
	return v, ok
}

// Parse reads NAME=value lines from text.
//
// Blank lines, lines starting with '#', and lines without '=' are ignored.
// Lines have no length limit and may end in "\r\n". Names and values are
// trimmed of surrounding whitespace. When a name repeats,
// it keeps its first position and takes the last value.
func Parse(text string) *Env {
	env := &Env{Values: make(map[string]string)}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		if _, seen := env.Values[name]; !seen {
			env.Order = append(env.Order, name)
		}
		env.Values[name] = strings.TrimSpace(value)
	}

	return env
}
