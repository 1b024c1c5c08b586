package envdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Diff classifies every name of previous and current.
//
// The result holds exactly one entry per name, ordered as all added, then all
// removed, then all changed, then all unchanged. Added and changed names
// follow their order in current; removed names follow their order in previous.
// Unchanged names follow current as well.
func Diff(previous, current string) []model.DiffEntry {
	return Compare(Parse(previous), Parse(current))
}

// Compare classifies two already parsed texts. See Diff.
func Compare(prev, cur *Env) []model.DiffEntry {
	var added, removed, changed, unchanged []model.DiffEntry

	for _, name := range cur.Order {
		curVal := cur.Values[name]
		prevVal, inPrev := prev.Lookup(name)
		switch {
		case !inPrev:
			added = append(added, entry(name, model.DiffAdded, nil, &curVal))
		case prevVal != curVal:
			changed = append(changed, entry(name, model.DiffChanged, &prevVal, &curVal))
		default:
			unchanged = append(unchanged, entry(name, model.DiffUnchanged, &prevVal, &curVal))
		}
	}

	for _, name := range prev.Order {
		if _, inCur := cur.Lookup(name); inCur {
			continue
		}
		prevVal := prev.Values[name]
		removed = append(removed, entry(name, model.DiffRemoved, &prevVal, nil))
	}

	out := make([]model.DiffEntry, 0, len(added)+len(removed)+len(changed)+len(unchanged))
	out = append(out, added...)
	out = append(out, removed...)
	out = append(out, changed...)
	out = append(out, unchanged...)
	return out
}

func entry(name string, kind model.DiffKind, prev, cur *string) model.DiffEntry {
	return model.DiffEntry{Name: name, Kind: kind, Previous: prev, Current: cur}
}

// FormatOptions controls the text report.
type FormatOptions struct {
	// ShowUnchanged lists unchanged names as well.
	ShowUnchanged bool

	// Inline marks character-level edits inside changed values as
	// [-removed-]{+inserted+} instead of printing both values.
	Inline bool
}

// NoChanges is the report for two texts without differences.
const NoChanges = "No changes."

// Format writes a human-readable report of entries.
func Format(entries []model.DiffEntry, opts FormatOptions) string {
	var b strings.Builder

	for _, e := range entries {
		switch e.Kind {
		case model.DiffAdded:
			fmt.Fprintf(&b, "+ %s=%s\n", e.Name, *e.Current)
		case model.DiffRemoved:
			fmt.Fprintf(&b, "- %s=%s\n", e.Name, *e.Previous)
		case model.DiffChanged:
			if opts.Inline {
				fmt.Fprintf(&b, "~ %s=%s\n", e.Name, InlineDiff(*e.Previous, *e.Current))
			} else {
				fmt.Fprintf(&b, "~ %s: %s -> %s\n", e.Name, *e.Previous, *e.Current)
			}
		case model.DiffUnchanged:
			if opts.ShowUnchanged {
				fmt.Fprintf(&b, "  %s=%s\n", e.Name, *e.Current)
			}
		}
	}

	if b.Len() == 0 {
		return NoChanges + "\n"
	}
	return b.String()
}

// InlineDiff renders the character-level edits turning prev into cur.
func InlineDiff(prev, cur string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(prev, cur, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// Summary counts entries per kind.
type Summary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
}

// Summarize counts entries per kind.
func Summarize(entries []model.DiffEntry) Summary {
	var s Summary
	for _, e := range entries {
		switch e.Kind {
		case model.DiffAdded:
			s.Added++
		case model.DiffRemoved:
			s.Removed++
		case model.DiffChanged:
			s.Changed++
		case model.DiffUnchanged:
			s.Unchanged++
		}
	}
	return s
}

// HasChanges reports whether any name was added, removed or changed.
func (s Summary) HasChanges() bool {
	return s.Added+s.Removed+s.Changed > 0
}
