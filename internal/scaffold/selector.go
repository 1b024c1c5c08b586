// Package scaffold resolves category/option selections against the
// structured template entries of a registry.
//
// Scaffolding is distinct from the .env.example aggregation: options are
// self-contained, and when two selected options declare the same variable
// the later selection wins. The aggregation path keeps the first writer.
// Both behaviors are intentional.
package scaffold

import (
	"fmt"
	"strings"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Selector answers read-only queries about scaffolding entries and resolves
// selections into variable sets.
type Selector struct {
	options []model.TemplateOption
}

// New creates a Selector over entries in registration order. The entries
// are expected to be validated already (Registry.AddOption does this).
func New(options []model.TemplateOption) *Selector {
	return &Selector{options: options}
}

// Categories returns the distinct category names in registration order.
func (s *Selector) Categories() []string {
	var cats []string
	seen := make(map[string]bool)
	for _, o := range s.options {
		if !seen[o.Category] {
			seen[o.Category] = true
			cats = append(cats, o.Category)
		}
	}
	return cats
}

// HasCategory reports whether any entry is registered under category.
// An empty category name is a ValidationError.
func (s *Selector) HasCategory(category string) (bool, error) {
	if strings.TrimSpace(category) == "" {
		return false, &model.ValidationError{Field: "category", Message: "category must not be empty"}
	}
	for _, o := range s.options {
		if o.Category == category {
			return true, nil
		}
	}
	return false, nil
}

// Options returns the distinct option names under category in registration
// order. Returns a NotFoundError for an unknown category.
func (s *Selector) Options(category string) ([]string, error) {
	entries := s.entries(category)
	if len(entries) == 0 {
		return nil, s.categoryNotFound(category)
	}

	names := make([]string, 0, len(entries))
	for _, o := range entries {
		names = append(names, o.Option)
	}
	return names, nil
}

// Option returns the entry registered under (category, option).
func (s *Selector) Option(category, option string) (model.TemplateOption, error) {
	for _, o := range s.options {
		if o.Category == category && o.Option == option {
			return o, nil
		}
	}
	if len(s.entries(category)) == 0 {
		return model.TemplateOption{}, s.categoryNotFound(category)
	}
	opts, _ := s.Options(category)
	return model.TemplateOption{}, &model.NotFoundError{
		Kind:      "option",
		Name:      model.OptionKey{Category: category, Option: option}.String(),
		Available: opts,
	}
}

// entries returns every entry under category, in registration order.
func (s *Selector) entries(category string) []model.TemplateOption {
	var out []model.TemplateOption
	for _, o := range s.options {
		if o.Category == category {
			out = append(out, o)
		}
	}
	return out
}

func (s *Selector) categoryNotFound(category string) error {
	return &model.NotFoundError{Kind: "category", Name: category, Available: s.Categories()}
}

// Resolution is the outcome of resolving a list of selections.
type Resolution struct {
	// Options lists the resolved entries, deduplicated, in selection order.
	Options []model.OptionKey `json:"options"`

	// Order lists the variable names in first-seen order.
	Order []string `json:"order"`

	// Vars maps each name in Order to the configuration of the last selected
	// option that declared it.
	Vars map[string]model.VariableConfig `json:"variables"`
}

// Configs returns the resolved variables in first-seen order.
func (r *Resolution) Configs() []model.VariableConfig {
	out := make([]model.VariableConfig, 0, len(r.Order))
	for _, name := range r.Order {
		out = append(out, r.Vars[name])
	}
	return out
}

// Emittable returns the variables a non-interactive generation writes: those
// with a non-empty default, plus required ones even when their default is
// empty.
func (r *Resolution) Emittable() []model.VariableConfig {
	var out []model.VariableConfig
	for _, v := range r.Configs() {
		if v.Default != "" || v.Required {
			out = append(out, v)
		}
	}
	return out
}

// Categories returns the categories of the resolved options in first-seen
// order.
func (r *Resolution) Categories() []string {
	var cats []string
	seen := make(map[string]bool)
	for _, k := range r.Options {
		if !seen[k.Category] {
			seen[k.Category] = true
			cats = append(cats, k.Category)
		}
	}
	return cats
}

// Resolve turns selections into a single variable set.
//
// A selection with an option resolves to that exact entry; a selection
// without one resolves to every entry of the category. Unknown categories or
// options fail with a NotFoundError. Entries selected more than once are
// resolved once, at their first position.
//
// Variables are unioned across the resolved entries. When two entries declare
// the same name, the later one's configuration replaces the earlier one but
// the name keeps its first-seen position. An empty group takes the category of
// the entry that supplied the variable.
//
// A non-empty minImportance drops variables ranking below it, after the union.
func (s *Selector) Resolve(selections []model.Selection, minImportance model.Importance) (*Resolution, error) {
	if minImportance != "" && !minImportance.IsValid() {
		return nil, &model.ValidationError{
			Field:   "importance",
			Message: fmt.Sprintf("invalid importance filter %q (valid: critical, important, optional)", minImportance),
		}
	}

	// Step 1: resolve every selection to entries, deduplicating by key.
	var resolved []model.TemplateOption
	seenKeys := make(map[model.OptionKey]bool)
	for _, sel := range selections {
		if err := sel.Validate(); err != nil {
			return nil, err
		}

		var matches []model.TemplateOption
		if sel.Option == "" {
			matches = s.entries(sel.Category)
			if len(matches) == 0 {
				return nil, s.categoryNotFound(sel.Category)
			}
		} else {
			opt, err := s.Option(sel.Category, sel.Option)
			if err != nil {
				return nil, err
			}
			matches = []model.TemplateOption{opt}
		}

		for _, m := range matches {
			if seenKeys[m.Key()] {
				continue
			}
			seenKeys[m.Key()] = true
			resolved = append(resolved, m)
		}
	}

	// Step 2: union variables, last selection wins at the name level.
	res := &Resolution{Vars: make(map[string]model.VariableConfig)}
	for _, opt := range resolved {
		res.Options = append(res.Options, opt.Key())
		for _, v := range opt.Env {
			if strings.TrimSpace(v.Group) == "" {
				v.Group = opt.Category
			}
			if _, exists := res.Vars[v.Name]; !exists {
				res.Order = append(res.Order, v.Name)
			}
			res.Vars[v.Name] = v
		}
	}

	// Step 3: apply the importance filter to the union.
	if minImportance != "" {
		kept := res.Order[:0]
		for _, name := range res.Order {
			if res.Vars[name].Importance.AtLeast(minImportance) {
				kept = append(kept, name)
			} else {
				delete(res.Vars, name)
			}
		}
		res.Order = kept
	}

	return res, nil
}
