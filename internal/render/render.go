// Package render turns canonical variables into deterministic env file text.
//
// The same renderer serves both outputs: the exhaustive .env.example built
// from a merge result, and the .env written by scaffolding. Rendering is pure
// (no I/O) and idempotent.
//
// Layout:
//
//	# === Group ===
//	# description line
//	# Importance: critical (required)
//	# Choices: a, b
//	# Sources: first, second
//	NAME=default
//
// Groups appear in first-seen order of their first member; variables within a
// group keep first-seen order. The text ends with a single newline.
package render

import (
	"strconv"
	"strings"

	"github.com/oneenv-project/oneenv/internal/merge"
	"github.com/oneenv-project/oneenv/internal/model"
)

// ExampleHeader is the preamble written at the top of a generated
// .env.example file.
var ExampleHeader = []string{
	"Environment Variables Template",
	"Generated by OneEnv",
}

// ScaffoldHeader is the preamble written at the top of a scaffolded .env file.
var ScaffoldHeader = []string{
	"Environment Configuration",
	"Generated by OneEnv Scaffolding System",
}

// Entry is the renderer's view of one variable. Both merge results and
// scaffolding selections are converted into entries before rendering.
type Entry struct {
	Name        string
	Value       string
	Description string
	Group       string
	Required    bool
	Importance  model.Importance
	Choices     []string

	// Sources is rendered only when it has more than one element.
	Sources []string
}

// Options controls optional parts of the output.
type Options struct {
	// Header lines are written as comments before the first group.
	Header []string

	// Compact omits the per-variable comment blocks, leaving group headers
	// and NAME=value lines only.
	Compact bool
}

// FromMerge converts a merge result into entries in first-seen order.
func FromMerge(res *merge.Result) []Entry {
	entries := make([]Entry, 0, res.Len())
	res.Each(func(c *model.CanonicalVariable) {
		entries = append(entries, Entry{
			Name:        c.Config.Name,
			Value:       c.Config.Default,
			Description: c.Description(),
			Group:       c.Config.EffectiveGroup(),
			Required:    c.Config.Required,
			Importance:  c.Config.Importance,
			Choices:     c.Config.Choices,
			Sources:     c.Sources,
		})
	})
	return entries
}

// FromConfigs converts plain variable configurations into entries, using each
// default as the value.
func FromConfigs(vars []model.VariableConfig) []Entry {
	entries := make([]Entry, 0, len(vars))
	for _, v := range vars {
		entries = append(entries, Entry{
			Name:        v.Name,
			Value:       v.Default,
			Description: strings.TrimSpace(v.Description),
			Group:       v.EffectiveGroup(),
			Required:    v.Required,
			Importance:  v.Importance,
			Choices:     v.Choices,
		})
	}
	return entries
}

// Example renders a merge result as .env.example text.
func Example(res *merge.Result, opts Options) string {
	return Render(FromMerge(res), opts)
}

// Render writes entries as env file text.
func Render(entries []Entry, opts Options) string {
	var b strings.Builder

	for _, line := range opts.Header {
		writeComment(&b, line)
	}
	if len(opts.Header) > 0 && len(entries) > 0 {
		b.WriteByte('\n')
	}

	for i, group := range groupOrder(entries) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("# === " + group + " ===\n")

		for _, e := range entries {
			if groupOf(e) != group {
				continue
			}
			if !opts.Compact {
				writeCommentBlock(&b, e)
			}
			b.WriteString(e.Name + "=" + formatValue(e.Value) + "\n")
		}
	}

	return b.String()
}

// groupOrder returns the distinct groups in first-seen order.
func groupOrder(entries []Entry) []string {
	var order []string
	seen := make(map[string]bool)
	for _, e := range entries {
		g := groupOf(e)
		if !seen[g] {
			seen[g] = true
			order = append(order, g)
		}
	}
	return order
}

func groupOf(e Entry) string {
	if g := strings.TrimSpace(e.Group); g != "" {
		return g
	}
	return model.DefaultGroup
}

func writeCommentBlock(b *strings.Builder, e Entry) {
	if e.Description != "" {
		for _, line := range strings.Split(e.Description, "\n") {
			writeComment(b, strings.TrimRight(line, " \t\r"))
		}
	}

	annotation := "Importance: " + importanceOf(e).String()
	if e.Required {
		annotation += " (required)"
	}
	writeComment(b, annotation)

	if len(e.Choices) > 0 {
		writeComment(b, "Choices: "+strings.Join(e.Choices, ", "))
	}
	if len(e.Sources) > 1 {
		writeComment(b, "Sources: "+strings.Join(e.Sources, ", "))
	}
}

func importanceOf(e Entry) model.Importance {
	if e.Importance == "" {
		return model.ImportanceOptional
	}
	return e.Importance
}

// writeComment writes one comment line. An empty line becomes a bare "#".
func writeComment(b *strings.Builder, line string) {
	if line == "" {
		b.WriteString("#\n")
		return
	}
	b.WriteString("# " + line + "\n")
}

// formatValue keeps a value on a single line. Values containing line breaks
// are written double-quoted with escapes, which dotenv parsers expand.
func formatValue(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return strconv.Quote(v)
	}
	return v
}
