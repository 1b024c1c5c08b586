// Package templatefile loads template sources from declarative files.
//
// A template file declares flat variables, scaffolding options, or both:
//
//	name: django            # optional; the file stem otherwise
//	variables:
//	  - name: DATABASE_URL
//	    description: Database connection URL
//	    default: sqlite:///db.sqlite3
//	    required: true
//	    importance: critical
//	    group: Database
//	options:
//	  - category: Database
//	    option: postgres
//	    env:
//	      - name: POSTGRES_HOST
//	        default: localhost
//
// YAML, TOML and JSON (with comments) are accepted, selected by extension.
// YAML files may also write `variables` and `env` as a mapping from name to
// settings; the mapping order is kept.
package templatefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Extensions lists the recognized template file extensions.
var Extensions = []string{".yaml", ".yml", ".toml", ".json", ".jsonc"}

// File is the parsed content of one template file.
type File struct {
	// Name is the source identifier. Empty means the file stem.
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`

	// Variables are the flat template declarations.
	Variables VarList `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`

	// Options are the scaffolding entries.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`

	// Path is the file the content was read from.
	Path string `json:"-" yaml:"-" toml:"-"`
}

// Option is the file form of a scaffolding entry.
type Option struct {
	Category string  `json:"category" yaml:"category" toml:"category"`
	Option   string  `json:"option" yaml:"option" toml:"option"`
	Env      VarList `json:"env" yaml:"env" toml:"env"`
}

// VarList is an ordered variable list. In YAML it accepts either a sequence
// of variables or a mapping from variable name to settings.
type VarList []model.VariableConfig

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *VarList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var vars []model.VariableConfig
		if err := node.Decode(&vars); err != nil {
			return err
		}
		*l = vars
		return nil

	case yaml.MappingNode:
		vars := make([]model.VariableConfig, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var v model.VariableConfig
			// A bare `NAME:` entry declares the variable with defaults.
			if node.Content[i+1].Tag != "!!null" {
				if err := node.Content[i+1].Decode(&v); err != nil {
					return err
				}
			}
			v.Name = node.Content[i].Value
			vars = append(vars, v)
		}
		*l = vars
		return nil

	default:
		return fmt.Errorf("line %d: variables must be a list or a mapping", node.Line)
	}
}

// SourceName returns the identifier used for the file's template source.
func (f *File) SourceName() string {
	if n := strings.TrimSpace(f.Name); n != "" {
		return n
	}
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TemplateOptions converts the file's options into scaffolding entries
// attributed to the file's source name.
func (f *File) TemplateOptions() []model.TemplateOption {
	out := make([]model.TemplateOption, 0, len(f.Options))
	for _, o := range f.Options {
		out = append(out, model.TemplateOption{
			Category: o.Category,
			Option:   o.Option,
			Env:      append([]model.VariableConfig(nil), o.Env...),
			Source:   f.SourceName(),
		})
	}
	return out
}

// IsTemplateFile reports whether path has a recognized extension.
func IsTemplateFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads and parses the template file at path. Unknown fields are
// rejected so that typos in field names do not silently drop metadata.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.IOError{Op: "read", Path: path, Err: err}
	}

	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes template file content in the format named by ext.
func Parse(data []byte, ext string) (*File, error) {
	var f File

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}

	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}

	default:
		return nil, &model.ValidationError{
			Field:   "extension",
			Message: fmt.Sprintf("unsupported template format %q (supported: %s)", ext, strings.Join(Extensions, ", ")),
		}
	}

	return &f, nil
}
