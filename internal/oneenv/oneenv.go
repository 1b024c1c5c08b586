// Package oneenv exposes the aggregation, scaffolding and diff operations
// as one entry point per operation. Every operation takes the registry
// explicitly; there is no process-wide state.
package oneenv

import (
	"github.com/oneenv-project/oneenv/internal/envdiff"
	"github.com/oneenv-project/oneenv/internal/merge"
	"github.com/oneenv-project/oneenv/internal/model"
	"github.com/oneenv-project/oneenv/internal/registry"
	"github.com/oneenv-project/oneenv/internal/render"
	"github.com/oneenv-project/oneenv/internal/scaffold"
)

// Aggregate is a full collection and merge pass together with the sources
// that failed during collection.
type Aggregate struct {
	Result   *merge.Result
	Failures []*model.SourceCollectionError
}

// Merge collects every registered source and merges the contributions.
// Per-source failures are reported in the result, never returned as an error.
func Merge(reg *registry.Registry) *Aggregate {
	contribs, failures := registry.Collect(reg.Sources())
	return &Aggregate{Result: merge.Merge(contribs), Failures: failures}
}

// RenderTemplate runs collection, merge and rendering and returns the
// .env.example text.
func RenderTemplate(reg *registry.Registry) string {
	return render.Example(Merge(reg).Result, render.Options{Header: render.ExampleHeader})
}

// ListCategories returns the scaffolding categories in registration order.
func ListCategories(reg *registry.Registry) []string {
	return scaffold.New(reg.Options()).Categories()
}

// ListOptions returns the options of category, or a NotFoundError.
func ListOptions(reg *registry.Registry, category string) ([]string, error) {
	return scaffold.New(reg.Options()).Options(category)
}

// ResolveSelection resolves selections with an optional minimum importance.
func ResolveSelection(reg *registry.Registry, selections []model.Selection, minImportance model.Importance) (*scaffold.Resolution, error) {
	return scaffold.New(reg.Options()).Resolve(selections, minImportance)
}

// RenderScaffold renders the variables a non-interactive generation writes
// for a resolution.
func RenderScaffold(res *scaffold.Resolution) string {
	return render.Render(render.FromConfigs(res.Emittable()), render.Options{
		Header:  render.ScaffoldHeader,
		Compact: true,
	})
}

// Diff classifies the variables of two env texts.
func Diff(previous, current string) []model.DiffEntry {
	return envdiff.Diff(previous, current)
}
