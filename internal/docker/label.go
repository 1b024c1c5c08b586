package docker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Label keys document environment variables on an image. Each variable gets
// one label per metadata field:
//
//	org.oneenv.var.DATABASE_URL.description = "Primary database"
//	org.oneenv.var.DATABASE_URL.required    = "true"
//	org.oneenv.var.DATABASE_URL.importance  = "critical"
//	org.oneenv.var.DATABASE_URL.group       = "Database"
//	org.oneenv.var.DATABASE_URL.choices     = "postgres,sqlite"
//	org.oneenv.var.DATABASE_URL.default     = "sqlite:///app.db"
//
// This per-field label design avoids encoding/parsing complex structures
// in a single label value, keeping the labels human-readable when
// inspecting images with `docker inspect`.
const (
	// LabelPrefix is the common prefix for all oneenv variable labels.
	LabelPrefix = "org.oneenv.var."

	FieldDescription = "description"
	FieldRequired    = "required"
	FieldImportance  = "importance"
	FieldGroup       = "group"
	FieldChoices     = "choices"
	FieldDefault     = "default"
)

// BuildLabel generates the label key for one field of a variable:
//
//	BuildLabel("PORT", FieldDefault) → "org.oneenv.var.PORT.default"
func BuildLabel(name, field string) string {
	return LabelPrefix + name + "." + field
}

// BuildLabels encodes a variable's metadata as image labels. Empty fields
// and the optional importance are omitted, so a variable with nothing but a
// name produces no labels.
func BuildLabels(v model.VariableConfig) map[string]string {
	labels := make(map[string]string)

	if v.Description != "" {
		labels[BuildLabel(v.Name, FieldDescription)] = v.Description
	}
	if v.Required {
		labels[BuildLabel(v.Name, FieldRequired)] = "true"
	}
	if v.Importance != "" && v.Importance != model.ImportanceOptional {
		labels[BuildLabel(v.Name, FieldImportance)] = v.Importance.String()
	}
	if v.Group != "" {
		labels[BuildLabel(v.Name, FieldGroup)] = v.Group
	}
	if len(v.Choices) > 0 {
		labels[BuildLabel(v.Name, FieldChoices)] = strings.Join(v.Choices, ",")
	}
	if v.Default != "" {
		labels[BuildLabel(v.Name, FieldDefault)] = v.Default
	}

	return labels
}

// ParseLabels extracts variable metadata from an image label map.
//
// The result maps each documented variable name to a partially filled
// VariableConfig; fields without a label keep their zero value. Labels
// outside LabelPrefix are ignored. Returns an error if a label has an
// unknown field or a malformed value.
func ParseLabels(labels map[string]string) (map[string]*model.VariableConfig, error) {
	vars := make(map[string]*model.VariableConfig)

	for key, value := range labels {
		if !strings.HasPrefix(key, LabelPrefix) {
			continue
		}

		// The field is everything after the last dot; variable names never
		// contain dots.
		rest := strings.TrimPrefix(key, LabelPrefix)
		dot := strings.LastIndex(rest, ".")
		if dot <= 0 {
			return nil, fmt.Errorf("invalid oneenv label key %q: expected %s<NAME>.<field>", key, LabelPrefix)
		}
		name, field := rest[:dot], rest[dot+1:]

		v, ok := vars[name]
		if !ok {
			v = &model.VariableConfig{Name: name}
			vars[name] = v
		}

		switch field {
		case FieldDescription:
			v.Description = value
		case FieldRequired:
			required, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("invalid label %s=%q: %w", key, value, err)
			}
			v.Required = required
		case FieldImportance:
			imp, err := model.ParseImportance(value)
			if err != nil {
				return nil, fmt.Errorf("invalid label %s: %w", key, err)
			}
			v.Importance = imp
		case FieldGroup:
			v.Group = value
		case FieldChoices:
			v.Choices = splitChoices(value)
		case FieldDefault:
			v.Default = value
		default:
			return nil, fmt.Errorf("unknown field %q in label %s", field, key)
		}
	}

	return vars, nil
}

// LabelNames returns the variable names documented in labels, sorted.
func LabelNames(vars map[string]*model.VariableConfig) []string {
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FormatDockerfileLabels renders labels as a Dockerfile LABEL instruction
// with one sorted key per line, ready to paste into a Dockerfile.
func FormatDockerfileLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("LABEL")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" \\\n     ")
		} else {
			b.WriteString(" ")
		}
		b.WriteString(k + "=" + strconv.Quote(labels[k]))
	}
	b.WriteString("\n")
	return b.String()
}

func splitChoices(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
