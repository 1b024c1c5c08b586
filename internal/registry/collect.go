package registry

import (
	"fmt"

	"github.com/oneenv-project/oneenv/internal/logging"
	"github.com/oneenv-project/oneenv/internal/model"
)

// Collect gathers the declarations of every source into a single flat
// sequence, in registration order and, within a source, in declaration order.
//
// A source that returns an error, panics, or returns a malformed variable is
// skipped as a whole: its failure is logged, recorded as a
// SourceCollectionError, and collection continues with the next source.
func Collect(sources []Source) ([]model.Contribution, []*model.SourceCollectionError) {
	logger := logging.GetLogger("collector")

	var (
		contribs []model.Contribution
		failures []*model.SourceCollectionError
	)

	for _, src := range sources {
		vars, err := collectOne(src)
		if err != nil {
			failure := &model.SourceCollectionError{Source: src.Name(), Err: err}
			logger.Warn().Err(err).Str("source", src.Name()).Msg("Skipping template source")
			failures = append(failures, failure)
			continue
		}

		logger.Debug().
			Str("source", src.Name()).
			Int("variables", len(vars)).
			Msg("Collected template source")

		for _, v := range vars {
			contribs = append(contribs, model.Contribution{Source: src.Name(), Var: v})
		}
	}

	return contribs, failures
}

// collectOne calls a single source with panic isolation and validates the
// returned declarations.
func collectOne(src Source) (vars []model.VariableConfig, err error) {
	defer func() {
		if r := recover(); r != nil {
			vars = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	raw, err := src.Template()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw))
	vars = make([]model.VariableConfig, 0, len(raw))
	for _, v := range raw {
		v = v.Normalize()
		if err := v.Validate(); err != nil {
			return nil, err
		}
		// A source declaring the same name twice is malformed: there is no
		// ordering between its two declarations to merge on.
		if seen[v.Name] {
			return nil, &model.ValidationError{
				Field:   v.Name,
				Message: "declared more than once by the same source",
			}
		}
		seen[v.Name] = true
		vars = append(vars, v)
	}
	return vars, nil
}
