package scaffold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneenv-project/oneenv/internal/model"
)

func variable(name, def string, imp model.Importance) model.VariableConfig {
	return model.VariableConfig{Name: name, Default: def, Importance: imp}
}

// fixtureOptions mirrors a typical set of scaffolding templates.
func fixtureOptions() []model.TemplateOption {
	return []model.TemplateOption{
		{Category: "Database", Option: "postgres", Env: []model.VariableConfig{
			variable("DATABASE_URL", "postgresql://localhost:5432/app", model.ImportanceCritical),
			variable("DATABASE_POOL_SIZE", "10", model.ImportanceImportant),
			variable("DATABASE_ECHO", "false", model.ImportanceOptional),
		}},
		{Category: "Database", Option: "sqlite", Env: []model.VariableConfig{
			variable("SQLITE_PATH", "app.db", model.ImportanceCritical),
		}},
		{Category: "Cache", Option: "redis", Env: []model.VariableConfig{
			variable("REDIS_URL", "redis://localhost:6379", model.ImportanceImportant),
			{Name: "CACHE_TTL", Default: "300", Group: "Tuning", Importance: model.ImportanceOptional},
		}},
		{Category: "Cache", Option: "memcached", Env: []model.VariableConfig{
			variable("REDIS_URL", "memcached://localhost:11211", model.ImportanceOptional),
		}},
	}
}

// TestSelector_Queries covers the read-only listing operations.
func TestSelector_Queries(t *testing.T) {
	s := New(fixtureOptions())

	assert.Equal(t, []string{"Database", "Cache"}, s.Categories())

	opts, err := s.Options("Database")
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres", "sqlite"}, opts)

	_, err = s.Options("Queue")
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "category", nf.Kind)
	assert.Equal(t, []string{"Database", "Cache"}, nf.Available)

	ok, err := s.HasCategory("Cache")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasCategory("Queue")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.HasCategory(" ")
	var vErr *model.ValidationError
	assert.ErrorAs(t, err, &vErr)

	assert.Equal(t, []CategoryOptions{
		{Category: "Database", Options: []string{"postgres", "sqlite"}},
		{Category: "Cache", Options: []string{"redis", "memcached"}},
	}, s.Structure())
}

// TestSelector_Option covers preview lookups.
func TestSelector_Option(t *testing.T) {
	s := New(fixtureOptions())

	opt, err := s.Option("Database", "sqlite")
	require.NoError(t, err)
	assert.Equal(t, "SQLITE_PATH", opt.Env[0].Name)

	_, err = s.Option("Database", "mysql")
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "option", nf.Kind)
	assert.Equal(t, "Database:mysql", nf.Name)

	_, err = s.Option("Queue", "rabbit")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "category", nf.Kind)
}

// TestResolve_WholeCategory unions every option of a category in order.
func TestResolve_WholeCategory(t *testing.T) {
	s := New(fixtureOptions())

	res, err := s.Resolve([]model.Selection{{Category: "Database"}}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"DATABASE_URL", "DATABASE_POOL_SIZE", "DATABASE_ECHO", "SQLITE_PATH"}, res.Order)
	assert.Equal(t, []model.OptionKey{
		{Category: "Database", Option: "postgres"},
		{Category: "Database", Option: "sqlite"},
	}, res.Options)
	assert.Equal(t, "Database", res.Vars["SQLITE_PATH"].Group, "empty group takes the category")
}

// TestResolve_LastSelectionWins checks name-level replacement with the
// first-seen position kept.
func TestResolve_LastSelectionWins(t *testing.T) {
	s := New(fixtureOptions())

	res, err := s.Resolve([]model.Selection{
		{Category: "Cache", Option: "redis"},
		{Category: "Cache", Option: "memcached"},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"REDIS_URL", "CACHE_TTL"}, res.Order)
	assert.Equal(t, "memcached://localhost:11211", res.Vars["REDIS_URL"].Default)
	assert.Equal(t, "Tuning", res.Vars["CACHE_TTL"].Group, "explicit groups are kept")

	// Reversing the selection order reverses the winner.
	res, err = s.Resolve([]model.Selection{
		{Category: "Cache", Option: "memcached"},
		{Category: "Cache", Option: "redis"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379", res.Vars["REDIS_URL"].Default)
}

// TestResolve_Dedup ensures an entry selected twice is resolved once, at its
// first position.
func TestResolve_Dedup(t *testing.T) {
	s := New(fixtureOptions())

	res, err := s.Resolve([]model.Selection{
		{Category: "Cache", Option: "redis"},
		{Category: "Cache", Option: "memcached"},
		{Category: "Cache"},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, []model.OptionKey{
		{Category: "Cache", Option: "redis"},
		{Category: "Cache", Option: "memcached"},
	}, res.Options)
	assert.Equal(t, "memcached://localhost:11211", res.Vars["REDIS_URL"].Default,
		"the repeated redis selection does not move it after memcached")
}

// TestResolve_ImportanceFilter applies the threshold after the union.
func TestResolve_ImportanceFilter(t *testing.T) {
	s := New(fixtureOptions())

	tests := []struct {
		name      string
		threshold model.Importance
		want      []string
	}{
		{"no filter", "", []string{"DATABASE_URL", "DATABASE_POOL_SIZE", "DATABASE_ECHO"}},
		{"optional", model.ImportanceOptional, []string{"DATABASE_URL", "DATABASE_POOL_SIZE", "DATABASE_ECHO"}},
		{"important", model.ImportanceImportant, []string{"DATABASE_URL", "DATABASE_POOL_SIZE"}},
		{"critical", model.ImportanceCritical, []string{"DATABASE_URL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Resolve([]model.Selection{{Category: "Database", Option: "postgres"}}, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Order)
			assert.Len(t, res.Vars, len(tt.want))
		})
	}

	// The filter sees the winning configuration, not the first one.
	res, err := s.Resolve([]model.Selection{
		{Category: "Cache", Option: "redis"},
		{Category: "Cache", Option: "memcached"},
	}, model.ImportanceImportant)
	require.NoError(t, err)
	assert.Empty(t, res.Order, "memcached's optional REDIS_URL replaced redis's important one")
}

// TestResolve_Errors covers not-found and validation failures.
func TestResolve_Errors(t *testing.T) {
	s := New(fixtureOptions())

	tests := []struct {
		name       string
		selections []model.Selection
		threshold  model.Importance
		notFound   bool
	}{
		{"unknown category", []model.Selection{{Category: "Queue"}}, "", true},
		{"unknown option", []model.Selection{{Category: "Database", Option: "mysql"}}, "", true},
		{"empty category", []model.Selection{{Option: "postgres"}}, "", false},
		{"bad threshold", []model.Selection{{Category: "Database"}}, "urgent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Resolve(tt.selections, tt.threshold)
			require.Error(t, err)
			if tt.notFound {
				var nf *model.NotFoundError
				assert.ErrorAs(t, err, &nf)
			} else {
				var vErr *model.ValidationError
				assert.ErrorAs(t, err, &vErr)
			}
		})
	}
}

// TestResolution_Emittable keeps defaults and required variables only.
func TestResolution_Emittable(t *testing.T) {
	s := New([]model.TemplateOption{{Category: "API", Option: "openai", Env: []model.VariableConfig{
		{Name: "OPENAI_API_KEY", Required: true, Importance: model.ImportanceCritical},
		{Name: "OPENAI_ORG", Importance: model.ImportanceOptional},
		{Name: "OPENAI_MODEL", Default: "gpt-4o", Importance: model.ImportanceOptional},
	}}})

	res, err := s.Resolve([]model.Selection{{Category: "API"}}, "")
	require.NoError(t, err)

	var names []string
	for _, v := range res.Emittable() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"OPENAI_API_KEY", "OPENAI_MODEL"}, names)
	assert.Equal(t, []string{"API"}, res.Categories())
}

// TestSelector_Category builds the detail view.
func TestSelector_Category(t *testing.T) {
	s := New(fixtureOptions())

	detail, err := s.Category("Cache")
	require.NoError(t, err)
	assert.Equal(t, []string{"REDIS_URL", "CACHE_TTL"}, detail.Variables)
	require.Len(t, detail.Options, 2)
	assert.Equal(t, OptionSummary{
		Option:    "redis",
		Variables: []string{"REDIS_URL", "CACHE_TTL"},
		Important: 1,
		Optional:  1,
	}, detail.Options[0])

	_, err = s.Category("Queue")
	var nf *model.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
