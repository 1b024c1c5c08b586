package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oneenv-project/oneenv/internal/merge"
	"github.com/oneenv-project/oneenv/internal/model"
)

func v(name, def, group string) model.VariableConfig {
	return model.VariableConfig{Name: name, Default: def, Group: group, Importance: model.ImportanceOptional}
}

// TestExample_Layout checks the full text for a small merge result.
func TestExample_Layout(t *testing.T) {
	db := v("DATABASE_URL", "sqlite:///db.sqlite3", "Database")
	db.Description = "Database connection URL\n  Use a DSN.\n"
	db.Required = true
	db.Importance = model.ImportanceCritical

	debug := v("DEBUG", "False", "")
	debug.Choices = []string{"True", "False"}

	res := merge.Merge([]model.Contribution{
		{Source: "django", Var: db},
		{Source: "django", Var: debug},
		{Source: "fastapi", Var: v("DATABASE_URL", "postgres://", "Storage")},
		{Source: "fastapi", Var: v("POOL_SIZE", "5", "Database")},
	})

	want := strings.Join([]string{
		"# === Database ===",
		"# (django)",
		"# Database connection URL",
		"# Use a DSN.",
		"# Importance: critical (required)",
		"# Sources: django, fastapi",
		"DATABASE_URL=sqlite:///db.sqlite3",
		"# Importance: optional",
		"POOL_SIZE=5",
		"",
		"# === Other ===",
		"# Importance: optional",
		"# Choices: True, False",
		"DEBUG=False",
		"",
	}, "\n")

	assert.Equal(t, want, Example(res, Options{}))
}

// TestExample_DuplicateRenderedOnce covers the two-sources scenario: the first
// source's default appears exactly once.
func TestExample_DuplicateRenderedOnce(t *testing.T) {
	res := merge.Merge([]model.Contribution{
		{Source: "a", Var: v("DATABASE_URL", "first", "")},
		{Source: "b", Var: v("DATABASE_URL", "second", "")},
	})

	out := Example(res, Options{})
	assert.Equal(t, 1, strings.Count(out, "DATABASE_URL="))
	assert.Contains(t, out, "DATABASE_URL=first\n")
	assert.NotContains(t, out, "second")
}

// TestExample_Idempotent verifies byte-identical output on re-render.
func TestExample_Idempotent(t *testing.T) {
	contribs := []model.Contribution{
		{Source: "a", Var: v("B", "2", "G2")},
		{Source: "a", Var: v("A", "1", "G1")},
		{Source: "b", Var: v("C", "3", "G2")},
	}

	first := Example(merge.Merge(contribs), Options{Header: ExampleHeader})
	second := Example(merge.Merge(contribs), Options{Header: ExampleHeader})
	assert.Equal(t, first, second)

	// Group order follows the first member: G2 (from B) precedes G1.
	assert.Less(t, strings.Index(first, "# === G2 ==="), strings.Index(first, "# === G1 ==="))
}

// TestRender_Options covers header and compact output.
func TestRender_Options(t *testing.T) {
	entries := FromConfigs([]model.VariableConfig{
		{Name: "REDIS_URL", Default: "redis://localhost:6379", Description: "Redis", Group: "Cache"},
	})

	t.Run("header", func(t *testing.T) {
		out := Render(entries, Options{Header: []string{"Title", ""}, Compact: true})
		assert.Equal(t, "# Title\n#\n\n# === Cache ===\nREDIS_URL=redis://localhost:6379\n", out)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Render(nil, Options{}))
	})

	t.Run("single trailing newline", func(t *testing.T) {
		out := Render(entries, Options{})
		assert.True(t, strings.HasSuffix(out, "6379\n"))
		assert.False(t, strings.HasSuffix(out, "\n\n"))
	})
}

// TestRender_MultilineValue keeps multi-line defaults on one line.
func TestRender_MultilineValue(t *testing.T) {
	out := Render([]Entry{{Name: "CERT", Value: "line1\nline2"}}, Options{Compact: true})
	assert.Contains(t, out, "CERT=\"line1\\nline2\"\n")
}

// TestRender_DescriptionIndent keeps leading indentation of description
// lines and drops trailing whitespace.
func TestRender_DescriptionIndent(t *testing.T) {
	out := Render([]Entry{{
		Name:        "MODE",
		Description: "Run mode:  \n  - fast\n  - safe\t\n   \nDone",
	}}, Options{})

	assert.Contains(t, out, "# Run mode:\n#   - fast\n#   - safe\n#\n# Done\n")
}
