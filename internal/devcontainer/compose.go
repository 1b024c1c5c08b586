// compose.go reads Docker Compose files as template sources.
//
// Every service contributes the variables of its `environment` section and
// of the dotenv files listed in `env_file`. The variables are grouped by
// service name. Compose allows two shapes for `environment`:
//
//	environment:            environment:
//	  KEY: value              - KEY=value
//	  OTHER:                  - OTHER
//
// Both are read through yaml.v3 nodes rather than Go maps, which keeps the
// declaration order of services and variables intact.
package devcontainer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oneenv-project/oneenv/internal/logging"
	"github.com/oneenv-project/oneenv/internal/model"
)

// ComposeSource is a template source backed by one Docker Compose file.
type ComposeSource struct {
	path string
}

// NewComposeSource creates a source for the Compose file at path.
func NewComposeSource(path string) *ComposeSource {
	return &ComposeSource{path: path}
}

// Name returns the source identifier, derived from the file name.
func (s *ComposeSource) Name() string {
	return "compose:" + filepath.Base(s.path)
}

// Template returns the variables of every service in file order. When two
// services declare the same name, the first service's declaration is kept.
func (s *ComposeSource) Template() ([]model.VariableConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &model.IOError{Op: "read", Path: s.path, Err: err}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse compose file %s: %w", s.path, err)
	}

	services := mappingValue(documentRoot(&doc), "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return nil, nil
	}

	var vars []model.VariableConfig
	seen := make(map[string]bool)
	add := func(v model.VariableConfig) {
		if seen[v.Name] {
			return
		}
		seen[v.Name] = true
		vars = append(vars, v)
	}

	base := filepath.Base(s.path)
	for i := 0; i+1 < len(services.Content); i += 2 {
		service := services.Content[i].Value
		node := services.Content[i+1]

		// Step 1: inline environment entries.
		desc := fmt.Sprintf("Set by service %q in %s.", service, base)
		for _, kv := range parseEnvironment(mappingValue(node, "environment")) {
			add(model.VariableConfig{
				Name:        kv[0],
				Default:     kv[1],
				Description: desc,
				Group:       service,
				Importance:  model.ImportanceOptional,
			})
		}

		// Step 2: dotenv files referenced by env_file.
		for _, file := range parseEnvFiles(mappingValue(node, "env_file")) {
			path := file
			if !filepath.IsAbs(path) {
				path = filepath.Join(filepath.Dir(s.path), file)
			}
			values, err := godotenv.Read(path)
			if err != nil {
				logger := logging.GetLogger("compose")
				logger.Debug().Err(err).Str("service", service).Str("env_file", path).Msg("Skipping unreadable env_file")
				continue
			}

			fileDesc := fmt.Sprintf("Loaded by service %q from %s.", service, file)
			for _, name := range sortedKeys(values) {
				add(model.VariableConfig{
					Name:        name,
					Default:     values[name],
					Description: fileDesc,
					Group:       service,
					Importance:  model.ImportanceOptional,
				})
			}
		}
	}

	return vars, nil
}

// documentRoot unwraps the document node yaml.v3 puts around the content.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

// mappingValue returns the value node stored under key, or nil.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// parseEnvironment returns the (name, value) pairs of an environment node in
// declaration order. Entries without a value get an empty default.
func parseEnvironment(node *yaml.Node) [][2]string {
	if node == nil {
		return nil
	}

	var pairs [][2]string
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			value := node.Content[i+1]
			v := value.Value
			if value.Tag == "!!null" {
				v = ""
			}
			pairs = append(pairs, [2]string{node.Content[i].Value, v})
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				continue
			}
			name, value, _ := strings.Cut(item.Value, "=")
			pairs = append(pairs, [2]string{strings.TrimSpace(name), value})
		}
	}
	return pairs
}

// parseEnvFiles normalizes the env_file field. Compose accepts a single
// path, a list of paths, or a list of {path, required} objects.
func parseEnvFiles(node *yaml.Node) []string {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}
	case yaml.SequenceNode:
		var files []string
		for _, item := range node.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				files = append(files, item.Value)
			case yaml.MappingNode:
				if p := mappingValue(item, "path"); p != nil {
					files = append(files, p.Value)
				}
			}
		}
		return files
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
