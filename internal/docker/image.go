package docker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oneenv-project/oneenv/internal/model"
)

// defaultInspectTimeout bounds a single image inspection during collection.
const defaultInspectTimeout = 10 * time.Second

// ImageInspector reads the environment metadata of a local image.
// Client implements it; tests substitute a fake.
type ImageInspector interface {
	InspectImageEnv(ctx context.Context, ref string) (env []string, labels map[string]string, err error)
}

// ImageSource is a template source backed by a local Docker image. The
// image's ENV instructions provide names and defaults, and oneenv labels
// (see ParseLabels) add the remaining metadata.
type ImageSource struct {
	ref       string
	inspector ImageInspector
	timeout   time.Duration
}

// NewImageSource creates a source for the image ref.
func NewImageSource(ref string, inspector ImageInspector) *ImageSource {
	return &ImageSource{ref: ref, inspector: inspector, timeout: defaultInspectTimeout}
}

// WithTimeout sets the inspection timeout and returns s. Non-positive values
// keep the current timeout.
func (s *ImageSource) WithTimeout(d time.Duration) *ImageSource {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Name returns the source identifier.
func (s *ImageSource) Name() string {
	return "image:" + s.ref
}

// Template inspects the image and returns its variables.
//
// ENV variables come first, in image order. When the image carries any
// org.oneenv.var labels, only labelled ENV names are kept, which leaves out
// base image entries such as PATH. Variables documented only through labels
// follow, sorted by name. A label default overrides the ENV value.
func (s *ImageSource) Template() ([]model.VariableConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	env, labels, err := s.inspector.InspectImageEnv(ctx, s.ref)
	if err != nil {
		return nil, err
	}

	meta, err := ParseLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", s.ref, err)
	}

	defaultDesc := fmt.Sprintf("Set by ENV in image %s.", s.ref)
	vars := make([]model.VariableConfig, 0, len(env)+len(meta))
	seen := make(map[string]bool, len(env))

	// Step 1: ENV entries in image order.
	for _, kv := range env {
		name, value, _ := strings.Cut(kv, "=")
		if name == "" || seen[name] {
			continue
		}
		m, labelled := meta[name]
		if len(meta) > 0 && !labelled {
			continue
		}
		seen[name] = true

		v := model.VariableConfig{Name: name, Default: value, Description: defaultDesc}
		if labelled {
			v = overlay(v, m)
		}
		vars = append(vars, v)
	}

	// Step 2: label-only variables, sorted for determinism.
	for _, name := range LabelNames(meta) {
		if seen[name] {
			continue
		}
		vars = append(vars, *meta[name])
	}

	return vars, nil
}

// overlay applies label metadata m on top of the ENV-derived v.
func overlay(v model.VariableConfig, m *model.VariableConfig) model.VariableConfig {
	if m.Description != "" {
		v.Description = m.Description
	}
	if m.Default != "" {
		v.Default = m.Default
	}
	v.Required = m.Required
	v.Importance = m.Importance
	v.Group = m.Group
	v.Choices = m.Choices
	return v
}
