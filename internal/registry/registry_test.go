package registry

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneenv-project/oneenv/internal/model"
)

func djangoTemplate() ([]model.VariableConfig, error) {
	return []model.VariableConfig{
		{Name: "DATABASE_URL", Default: "sqlite:///db.sqlite3", Description: "Django database"},
		{Name: "SECRET_KEY", Required: true, Importance: model.ImportanceCritical},
	}, nil
}

type fastAPITemplate struct{}

func (fastAPITemplate) Template() ([]model.VariableConfig, error) {
	return []model.VariableConfig{
		{Name: "DATABASE_URL", Default: "postgresql://localhost/app"},
		{Name: "API_HOST", Default: "0.0.0.0"},
	}, nil
}

// TestSourceNames verifies that identifiers are derived from Go names.
func TestSourceNames(t *testing.T) {
	assert.Equal(t, "djangoTemplate", NewFuncSource("", djangoTemplate).Name())
	assert.Equal(t, "custom", NewFuncSource("custom", djangoTemplate).Name())
	assert.Equal(t, "fastAPITemplate", NewObjectSource(fastAPITemplate{}).Name())
	assert.Equal(t, "fastAPITemplate", NewObjectSource(&fastAPITemplate{}).Name(),
		"pointer receivers use the element type name")
}

// TestCollect_RegistrationOrder checks registration order across sources and
// declaration order within each source.
func TestCollect_RegistrationOrder(t *testing.T) {
	reg := New()
	reg.RegisterFunc("", djangoTemplate)
	reg.RegisterObject(fastAPITemplate{})

	contribs, failures := Collect(reg.Sources())
	require.Empty(t, failures)
	require.Len(t, contribs, 4)

	got := make([]string, 0, len(contribs))
	for _, c := range contribs {
		got = append(got, c.Source+"/"+c.Var.Name)
	}
	assert.Equal(t, []string{
		"djangoTemplate/DATABASE_URL",
		"djangoTemplate/SECRET_KEY",
		"fastAPITemplate/DATABASE_URL",
		"fastAPITemplate/API_HOST",
	}, got)

	// Absent importance takes the documented default.
	assert.Equal(t, model.ImportanceOptional, contribs[0].Var.Importance)
}

// TestCollect_FailSoft verifies that one misbehaving source never aborts
// collection of the others.
func TestCollect_FailSoft(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{"returns error", NewFailedSource("broken", errors.New("boom"))},
		{"panics", NewFuncSource("panicky", func() ([]model.VariableConfig, error) {
			panic("unexpected")
		})},
		{"malformed name", NewStaticSource("bad-name", []model.VariableConfig{{Name: "NOT-VALID"}})},
		{"unknown importance", NewStaticSource("bad-importance", []model.VariableConfig{
			{Name: "OK", Importance: "urgent"},
		})},
		{"duplicate within source", NewStaticSource("dup", []model.VariableConfig{
			{Name: "A"}, {Name: "A"},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New()
			reg.RegisterFunc("", djangoTemplate)
			reg.Register(tt.src)
			reg.RegisterObject(fastAPITemplate{})

			contribs, failures := Collect(reg.Sources())

			require.Len(t, failures, 1)
			assert.Equal(t, tt.src.Name(), failures[0].Source)
			assert.Len(t, contribs, 4, "healthy sources are still collected")
			for _, c := range contribs {
				assert.NotEqual(t, tt.src.Name(), c.Source, "failed source contributes nothing")
			}
		})
	}
}

// TestStaticSource_ReturnsCopy ensures callers cannot mutate the fixed list.
func TestStaticSource_ReturnsCopy(t *testing.T) {
	src := NewStaticSource("static", []model.VariableConfig{{Name: "A", Default: "1"}})

	first, err := src.Template()
	require.NoError(t, err)
	first[0].Default = "mutated"

	second, err := src.Template()
	require.NoError(t, err)
	assert.Equal(t, "1", second[0].Default)
}

// TestRegistry_AddOption covers validation and duplicate-key rejection.
func TestRegistry_AddOption(t *testing.T) {
	reg := New()

	postgres := model.TemplateOption{
		Category: "Database",
		Option:   "postgres",
		Env:      []model.VariableConfig{{Name: "POSTGRES_HOST", Default: "localhost"}},
		Source:   "db.yaml",
	}
	require.NoError(t, reg.AddOption(postgres))

	t.Run("duplicate key", func(t *testing.T) {
		err := reg.AddOption(postgres)
		var vErr *model.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Message, "Database:postgres")
	})

	t.Run("malformed entry", func(t *testing.T) {
		err := reg.AddOption(model.TemplateOption{Category: "Cache"})
		var vErr *model.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "option", vErr.Field)
	})

	t.Run("stored entries are normalized", func(t *testing.T) {
		opts := reg.Options()
		require.Len(t, opts, 1)
		assert.Equal(t, model.ImportanceOptional, opts[0].Env[0].Importance)
	})
}

// TestRegistry_Reset verifies that a reset registry is empty and reusable.
func TestRegistry_Reset(t *testing.T) {
	reg := New()
	reg.RegisterFunc("", djangoTemplate)
	require.NoError(t, reg.AddOptions(model.TemplateOption{
		Category: "Cache", Option: "redis",
		Env: []model.VariableConfig{{Name: "REDIS_URL"}},
	}))

	reg.Reset()
	assert.Empty(t, reg.Sources())
	assert.Empty(t, reg.Options())

	require.NoError(t, reg.AddOption(model.TemplateOption{
		Category: "Cache", Option: "redis",
		Env: []model.VariableConfig{{Name: "REDIS_URL"}},
	}), "keys are released by Reset")
}

// TestCollect_LogsFailures writes exactly one structured warning per failed
// source.
func TestCollect_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })

	reg := New()
	reg.RegisterFunc("broken", func() ([]model.VariableConfig, error) {
		return nil, errors.New("boom")
	})
	reg.RegisterFunc("django", djangoTemplate)

	_, failures := Collect(reg.Sources())
	require.Len(t, failures, 1)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `"level":"warn"`))
	assert.Contains(t, out, `"source":"broken"`)
	assert.Contains(t, out, `"error":"boom"`)
}
