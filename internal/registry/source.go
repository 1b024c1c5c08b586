// Package registry holds the explicit template registry and the source
// collector.
//
// A Registry is created once at process start, populated by discovery
// (template files, devcontainer and compose files, Docker images, or Go code
// calling Register), and treated as immutable during any single aggregation
// pass. Tests construct a fresh Registry instead of mutating shared state.
package registry

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Source is the single capability every template source provides: it
// produces an ordered list of variable declarations.
type Source interface {
	// Name returns the deterministic source identifier.
	Name() string

	// Template returns the declared variables in declaration order.
	Template() ([]model.VariableConfig, error)
}

// TemplateFunc is the function form of a template source.
type TemplateFunc func() ([]model.VariableConfig, error)

// Templater is the object form of a template source. Any type with a
// Template method can be registered; its type name becomes the identifier.
type Templater interface {
	Template() ([]model.VariableConfig, error)
}

// FuncSource adapts a TemplateFunc to the Source interface.
type FuncSource struct {
	name string
	fn   TemplateFunc
}

// NewFuncSource wraps fn. An empty name derives the identifier from the Go
// function name (e.g., "main.djangoTemplate" becomes "djangoTemplate").
func NewFuncSource(name string, fn TemplateFunc) *FuncSource {
	if name == "" {
		name = funcName(fn)
	}
	return &FuncSource{name: name, fn: fn}
}

// Name returns the source identifier.
func (s *FuncSource) Name() string { return s.name }

// Template calls the wrapped function.
func (s *FuncSource) Template() ([]model.VariableConfig, error) { return s.fn() }

// ObjectSource adapts a Templater to the Source interface.
type ObjectSource struct {
	name string
	obj  Templater
}

// NewObjectSource wraps obj, deriving the identifier from its type name.
func NewObjectSource(obj Templater) *ObjectSource {
	return &ObjectSource{name: typeName(obj), obj: obj}
}

// Name returns the source identifier.
func (s *ObjectSource) Name() string { return s.name }

// Template delegates to the wrapped object.
func (s *ObjectSource) Template() ([]model.VariableConfig, error) { return s.obj.Template() }

// StaticSource is a source with a fixed variable list. File-based loaders
// use it after parsing, so parsing errors surface at load time and the
// collector only sees well-formed sources or an explicit error.
type StaticSource struct {
	name string
	vars []model.VariableConfig
	err  error
}

// NewStaticSource returns a source that always yields vars.
func NewStaticSource(name string, vars []model.VariableConfig) *StaticSource {
	return &StaticSource{name: name, vars: vars}
}

// NewFailedSource returns a source whose collection always fails with err.
// Loaders use it to keep a broken file visible in the collection report.
func NewFailedSource(name string, err error) *StaticSource {
	return &StaticSource{name: name, err: err}
}

// Name returns the source identifier.
func (s *StaticSource) Name() string { return s.name }

// Template returns a copy of the fixed variable list.
func (s *StaticSource) Template() ([]model.VariableConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.VariableConfig, len(s.vars))
	copy(out, s.vars)
	return out, nil
}

// funcName returns the unqualified Go name of fn. Closures come out as
// "outer.func1", which is still deterministic for a given binary.
func funcName(fn TemplateFunc) string {
	if fn == nil {
		return "<nil>"
	}
	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.Index(full, "."); i >= 0 {
		full = full[i+1:]
	}
	return full
}

// typeName returns the Go type name of obj, dereferencing pointers.
func typeName(obj Templater) string {
	t := reflect.TypeOf(obj)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
