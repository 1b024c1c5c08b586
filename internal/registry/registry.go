package registry

import (
	"fmt"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Registry stores template sources and structured scaffolding options in
// registration order. It is not safe for concurrent mutation; callers must
// not register new entries while a collection, merge or render pass is
// running.
type Registry struct {
	sources []Source
	options []model.TemplateOption
	index   map[model.OptionKey]int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{index: make(map[model.OptionKey]int)}
}

// Register appends a source. Registration order is collection order.
func (r *Registry) Register(src Source) {
	r.sources = append(r.sources, src)
}

// RegisterFunc registers the function form of a template source.
// An empty name derives the identifier from the function name.
func (r *Registry) RegisterFunc(name string, fn TemplateFunc) {
	r.Register(NewFuncSource(name, fn))
}

// RegisterObject registers the object form of a template source.
func (r *Registry) RegisterObject(obj Templater) {
	r.Register(NewObjectSource(obj))
}

// AddOption validates and appends a structured scaffolding entry.
//
// Returns a ValidationError when the entry is malformed or when an entry
// with the same (category, option) pair is already registered.
func (r *Registry) AddOption(opt model.TemplateOption) error {
	if err := opt.Validate(); err != nil {
		return err
	}

	key := opt.Key()
	if i, exists := r.index[key]; exists {
		return &model.ValidationError{
			Field: "option",
			Message: fmt.Sprintf("option %s is already registered by %q",
				key, r.options[i].Source),
		}
	}

	// Copy the variable slice so later mutation by the caller cannot leak
	// into the registry.
	env := make([]model.VariableConfig, len(opt.Env))
	copy(env, opt.Env)
	opt.Env = env

	r.index[key] = len(r.options)
	r.options = append(r.options, opt)
	return nil
}

// AddOptions registers several entries, stopping at the first error.
func (r *Registry) AddOptions(opts ...model.TemplateOption) error {
	for _, opt := range opts {
		if err := r.AddOption(opt); err != nil {
			return err
		}
	}
	return nil
}

// Sources returns the registered sources in registration order.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Options returns the registered scaffolding entries in registration order.
func (r *Registry) Options() []model.TemplateOption {
	out := make([]model.TemplateOption, len(r.options))
	copy(out, r.options)
	return out
}

// Reset clears every registered source and option.
func (r *Registry) Reset() {
	r.sources = nil
	r.options = nil
	r.index = make(map[model.OptionKey]int)
}
