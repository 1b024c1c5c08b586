// Package model defines the domain types for the oneenv CLI.
//
// All template entities in this package are plain values. Sources produce
// VariableConfig slices, the merge engine turns them into CanonicalVariable
// values, and the scaffolding selector consumes TemplateOption entries.
package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Importance ranks how essential a variable is for a working configuration.
// The ordering is:
//
//	critical > important > optional
type Importance string

const (
	// ImportanceCritical marks variables the application cannot start without.
	ImportanceCritical Importance = "critical"

	// ImportanceImportant marks variables that should be reviewed before
	// deploying, but have workable defaults.
	ImportanceImportant Importance = "important"

	// ImportanceOptional marks variables that only tune behavior.
	// This is the default when a source does not declare an importance.
	ImportanceOptional Importance = "optional"
)

// String returns the string representation of Importance.
func (i Importance) String() string {
	return string(i)
}

// IsValid checks whether the Importance value is one of the predefined
// levels. The empty value is not valid; call Normalize on the owning
// VariableConfig to apply the default first.
func (i Importance) IsValid() bool {
	switch i {
	case ImportanceCritical, ImportanceImportant, ImportanceOptional:
		return true
	default:
		return false
	}
}

// Rank returns the ordinal position of the importance level, where a higher
// number means more important. Unknown levels rank as optional.
func (i Importance) Rank() int {
	switch i {
	case ImportanceCritical:
		return 3
	case ImportanceImportant:
		return 2
	default:
		return 1
	}
}

// AtLeast reports whether i ranks at or above the given threshold.
func (i Importance) AtLeast(threshold Importance) bool {
	return i.Rank() >= threshold.Rank()
}

// ParseImportance converts a string to an Importance.
// Returns a ValidationError if the string does not match any valid level.
func ParseImportance(s string) (Importance, error) {
	imp := Importance(strings.ToLower(strings.TrimSpace(s)))
	if !imp.IsValid() {
		return "", &ValidationError{
			Field:   "importance",
			Message: fmt.Sprintf("invalid importance %q (valid: critical, important, optional)", s),
		}
	}
	return imp, nil
}

// DefaultGroup is the rendering section used for variables that do not
// declare a group.
const DefaultGroup = "Other"

// VariableConfig is the metadata one template source declares for a single
// environment variable.
//
// Absent fields take documented defaults (see Normalize). The invariant that
// Default is a member of Choices when Choices is non-empty is assumed but not
// enforced.
type VariableConfig struct {
	// Name is the environment variable name (e.g., "DATABASE_URL").
	Name string `json:"name" yaml:"name" toml:"name"`

	// Description is free text, possibly spanning multiple lines.
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	// Default is the value written to the rendered file. May be empty.
	Default string `json:"default" yaml:"default" toml:"default"`

	// Required marks variables that must be set by the user.
	Required bool `json:"required" yaml:"required" toml:"required"`

	// Choices constrains the allowed values. Nil means unconstrained.
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty" toml:"choices,omitempty"`

	// Group is the rendering section label. Empty means DefaultGroup.
	Group string `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`

	// Importance ranks the variable for filtering. Empty means optional.
	Importance Importance `json:"importance" yaml:"importance" toml:"importance"`
}

// Normalize applies the documented defaults to absent fields and returns
// the normalized copy. It is called once at ingestion time.
func (v VariableConfig) Normalize() VariableConfig {
	v.Name = strings.TrimSpace(v.Name)
	if v.Importance == "" {
		v.Importance = ImportanceOptional
	} else {
		v.Importance = Importance(strings.ToLower(string(v.Importance)))
	}
	return v
}

// EffectiveGroup returns the group label used for rendering.
func (v VariableConfig) EffectiveGroup() string {
	if strings.TrimSpace(v.Group) == "" {
		return DefaultGroup
	}
	return v.Group
}

// nameRegex matches conventional environment variable names: a letter or
// underscore followed by letters, digits and underscores.
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the structural fields of a normalized VariableConfig.
// It returns a ValidationError describing the first problem found.
func (v VariableConfig) Validate() error {
	if v.Name == "" {
		return &ValidationError{Field: "name", Message: "variable name must not be empty"}
	}
	if !nameRegex.MatchString(v.Name) {
		return &ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("invalid variable name %q: must match [A-Za-z_][A-Za-z0-9_]*", v.Name),
		}
	}
	if !v.Importance.IsValid() {
		return &ValidationError{
			Field:   v.Name + ".importance",
			Message: fmt.Sprintf("invalid importance %q (valid: critical, important, optional)", v.Importance),
		}
	}
	return nil
}

// Contribution pairs a source identifier with the VariableConfig it declared.
// Several contributions may target the same variable name.
type Contribution struct {
	// Source is the identifier of the declaring template source.
	Source string `json:"source"`

	// Var is the declared configuration.
	Var VariableConfig `json:"var"`
}

// AttributedDescription is one distinct description collected during a merge,
// together with the first source that contributed it.
type AttributedDescription struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// CanonicalVariable is the merge result for one variable name.
//
// Config carries the value fields of the first contributing source.
// Sources and Descriptions are ordered by first contribution.
type CanonicalVariable struct {
	// Config is the authoritative configuration. Its Description field holds
	// the first source's raw description; use Description() for the merged text.
	Config VariableConfig `json:"config"`

	// Sources lists every contributing source identifier, deduplicated.
	Sources []string `json:"sources"`

	// Descriptions lists every distinct non-empty description.
	Descriptions []AttributedDescription `json:"descriptions,omitempty"`
}

// Description returns the merged description text.
//
// With a single contributing source the description is returned as declared.
// With several sources each distinct description is prefixed by the source
// that contributed it, and the blocks are joined by a blank line.
func (c *CanonicalVariable) Description() string {
	if len(c.Sources) <= 1 {
		if len(c.Descriptions) == 0 {
			return ""
		}
		return c.Descriptions[0].Text
	}

	blocks := make([]string, 0, len(c.Descriptions))
	for _, d := range c.Descriptions {
		blocks = append(blocks, fmt.Sprintf("(%s)\n%s", d.Source, d.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// IsDuplicate reports whether more than one source declared the variable.
func (c *CanonicalVariable) IsDuplicate() bool {
	return len(c.Sources) > 1
}

// OptionKey uniquely identifies a TemplateOption.
type OptionKey struct {
	Category string `json:"category"`
	Option   string `json:"option"`
}

// String returns the "Category:option" form of the key.
func (k OptionKey) String() string {
	return k.Category + ":" + k.Option
}

// TemplateOption is a structured scaffolding entry. Each option is
// self-contained: two options may declare the same variable name
// independently and no merge happens between them at registration time.
type TemplateOption struct {
	// Category is the first selection level (e.g., "Database").
	Category string `json:"category" yaml:"category" toml:"category"`

	// Option is the second selection level (e.g., "postgres").
	Option string `json:"option" yaml:"option" toml:"option"`

	// Env lists the variables the option declares, in declaration order.
	Env []VariableConfig `json:"env" yaml:"env" toml:"env"`

	// Source is the identifier of the template source that registered the
	// option. It is informational only.
	Source string `json:"source,omitempty" yaml:"-" toml:"-"`
}

// Key returns the (category, option) identity of the entry.
func (o TemplateOption) Key() OptionKey {
	return OptionKey{Category: o.Category, Option: o.Option}
}

// Validate checks that the structured entry carries every structural field
// and that each variable is well-formed. Variables are normalized in place.
func (o *TemplateOption) Validate() error {
	if strings.TrimSpace(o.Category) == "" {
		return &ValidationError{Field: "category", Message: "category must not be empty"}
	}
	if strings.TrimSpace(o.Option) == "" {
		return &ValidationError{Field: "option", Message: fmt.Sprintf("option must not be empty (category %q)", o.Category)}
	}
	if len(o.Env) == 0 {
		return &ValidationError{Field: "env", Message: fmt.Sprintf("option %s declares no variables", o.Key())}
	}

	seen := make(map[string]bool, len(o.Env))
	for i := range o.Env {
		o.Env[i] = o.Env[i].Normalize()
		if err := o.Env[i].Validate(); err != nil {
			return fmt.Errorf("option %s: %w", o.Key(), err)
		}
		if seen[o.Env[i].Name] {
			return &ValidationError{
				Field:   "env." + o.Env[i].Name,
				Message: fmt.Sprintf("option %s declares %s more than once", o.Key(), o.Env[i].Name),
			}
		}
		seen[o.Env[i].Name] = true
	}
	return nil
}

// Selection is one user request unit for scaffolding. An empty Option means
// "all options under Category".
type Selection struct {
	Category string `json:"category"`
	Option   string `json:"option,omitempty"`
}

// String returns the "Category" or "Category:option" form of the selection.
func (s Selection) String() string {
	if s.Option == "" {
		return s.Category
	}
	return s.Category + ":" + s.Option
}

// Validate checks the selection shape.
func (s Selection) Validate() error {
	if strings.TrimSpace(s.Category) == "" {
		return &ValidationError{Field: "category", Message: "selection category must not be empty"}
	}
	return nil
}

// ParseSelection parses the CLI form "Category" or "Category:option".
// The category is split on the first colon only.
func ParseSelection(s string) (Selection, error) {
	category, option, hasOption := strings.Cut(strings.TrimSpace(s), ":")
	sel := Selection{Category: strings.TrimSpace(category), Option: strings.TrimSpace(option)}
	if err := sel.Validate(); err != nil {
		return Selection{}, err
	}
	if hasOption && sel.Option == "" {
		return Selection{}, &ValidationError{
			Field:   "option",
			Message: fmt.Sprintf("selection %q has an empty option after ':'", s),
		}
	}
	return sel, nil
}

// DiffKind classifies a variable name when comparing two env texts.
type DiffKind string

const (
	// DiffAdded marks names present only in the current text.
	DiffAdded DiffKind = "added"

	// DiffRemoved marks names present only in the previous text.
	DiffRemoved DiffKind = "removed"

	// DiffChanged marks names present in both texts with different values.
	DiffChanged DiffKind = "changed"

	// DiffUnchanged marks names present in both texts with equal values.
	DiffUnchanged DiffKind = "unchanged"
)

// String returns the string representation of DiffKind.
func (k DiffKind) String() string {
	return string(k)
}

// DiffEntry is one classified variable name.
type DiffEntry struct {
	Name string   `json:"name"`
	Kind DiffKind `json:"kind"`

	// Previous is the value in the previous text. Nil when the name is absent.
	Previous *string `json:"previous,omitempty"`

	// Current is the value in the current text. Nil when the name is absent.
	Current *string `json:"current,omitempty"`
}
