package scaffold

import "github.com/oneenv-project/oneenv/internal/model"

// CategoryOptions is one row of the category to options structure.
type CategoryOptions struct {
	Category string   `json:"category"`
	Options  []string `json:"options"`
}

// Structure returns every category with its options, in registration order.
func (s *Selector) Structure() []CategoryOptions {
	cats := s.Categories()
	out := make([]CategoryOptions, 0, len(cats))
	for _, c := range cats {
		opts, _ := s.Options(c)
		out = append(out, CategoryOptions{Category: c, Options: opts})
	}
	return out
}

// OptionSummary describes one option for the category detail view.
type OptionSummary struct {
	Option    string   `json:"option"`
	Variables []string `json:"variables"`
	Critical  int      `json:"critical"`
	Important int      `json:"important"`
	Optional  int      `json:"optional"`
	Required  int      `json:"required"`
}

// CategoryDetail is the detail view of one category.
type CategoryDetail struct {
	Category string          `json:"category"`
	Options  []OptionSummary `json:"options"`

	// Variables lists every distinct variable name declared under the
	// category, in first-seen order.
	Variables []string `json:"variables"`
}

// Category returns the detail view of category, or a NotFoundError.
func (s *Selector) Category(category string) (*CategoryDetail, error) {
	entries := s.entries(category)
	if len(entries) == 0 {
		return nil, s.categoryNotFound(category)
	}

	detail := &CategoryDetail{Category: category}
	seen := make(map[string]bool)
	for _, o := range entries {
		summary := OptionSummary{Option: o.Option}
		for _, v := range o.Env {
			summary.Variables = append(summary.Variables, v.Name)
			switch v.Importance {
			case model.ImportanceCritical:
				summary.Critical++
			case model.ImportanceImportant:
				summary.Important++
			default:
				summary.Optional++
			}
			if v.Required {
				summary.Required++
			}
			if !seen[v.Name] {
				seen[v.Name] = true
				detail.Variables = append(detail.Variables, v.Name)
			}
		}
		detail.Options = append(detail.Options, summary)
	}
	return detail, nil
}
