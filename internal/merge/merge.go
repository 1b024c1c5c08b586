// Package merge reconciles duplicate variable declarations across template
// sources into one canonical entry per variable name.
//
// The policy is first writer wins: the value fields (default, required,
// choices, group, importance) come from the first source to declare a name,
// in registration order. Descriptions are the exception; every distinct
// non-empty description is kept together with the source that contributed
// it. A conflicting required flag from a later source is therefore lost;
// callers needing per-source requiredness must look at Result.Sources or
// the registry itself.
package merge

import (
	"slices"
	"strings"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Result is the outcome of a merge pass.
type Result struct {
	// Order lists the distinct variable names in first-seen order.
	Order []string `json:"order"`

	// Vars maps each name in Order to its canonical entry.
	Vars map[string]*model.CanonicalVariable `json:"variables"`
}

// Merge groups contributions by variable name and resolves each group.
//
// The input must already be normalized (the collector does this). Merge is a
// pure in-memory transformation and never fails.
func Merge(contribs []model.Contribution) *Result {
	res := &Result{Vars: make(map[string]*model.CanonicalVariable)}

	for _, c := range contribs {
		canon, seen := res.Vars[c.Var.Name]
		if !seen {
			// Step 1: the first contribution fixes the value fields and the
			// name's position.
			canon = &model.CanonicalVariable{Config: cloneConfig(c.Var)}
			res.Vars[c.Var.Name] = canon
			res.Order = append(res.Order, c.Var.Name)
		}

		// Step 2: record the source once, in first contribution order.
		if !slices.Contains(canon.Sources, c.Source) {
			canon.Sources = append(canon.Sources, c.Source)
		}

		// Step 3: union descriptions, skipping empty and repeated text.
		text := normalizeDescription(c.Var.Description)
		if text == "" || hasDescription(canon.Descriptions, text) {
			continue
		}
		canon.Descriptions = append(canon.Descriptions, model.AttributedDescription{
			Source: c.Source,
			Text:   text,
		})
	}

	return res
}

// Get returns the canonical entry for name, or nil.
func (r *Result) Get(name string) *model.CanonicalVariable {
	return r.Vars[name]
}

// Len returns the number of distinct names.
func (r *Result) Len() int {
	return len(r.Order)
}

// Each calls fn for every canonical variable in first-seen order.
func (r *Result) Each(fn func(*model.CanonicalVariable)) {
	for _, name := range r.Order {
		fn(r.Vars[name])
	}
}

// Duplicate describes one variable declared by more than one source.
type Duplicate struct {
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
}

// Duplicates lists the names with more than one contributing source, in
// first-seen order.
func (r *Result) Duplicates() []Duplicate {
	var dups []Duplicate
	r.Each(func(c *model.CanonicalVariable) {
		if c.IsDuplicate() {
			dups = append(dups, Duplicate{
				Name:    c.Config.Name,
				Sources: slices.Clone(c.Sources),
			})
		}
	})
	return dups
}

// normalizeDescription trims surrounding whitespace so that descriptions
// differing only in indentation or trailing newlines compare equal.
func normalizeDescription(s string) string {
	return strings.TrimSpace(s)
}

func hasDescription(descs []model.AttributedDescription, text string) bool {
	for _, d := range descs {
		if d.Text == text {
			return true
		}
	}
	return false
}

// cloneConfig copies a VariableConfig so the canonical entry does not share
// the choices backing array with the source's declaration.
func cloneConfig(v model.VariableConfig) model.VariableConfig {
	v.Choices = slices.Clone(v.Choices)
	return v
}
