package devcontainer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Group names used for variables read from devcontainer.json.
const (
	GroupContainerEnv = "Dev Container"
	GroupRemoteEnv    = "Dev Container (remote)"
)

// RawDevContainer represents the raw JSON structure of a devcontainer.json file.
// Only the fields relevant to environment documentation are included; other
// fields are silently ignored during parsing.
type RawDevContainer struct {
	// Name is the display name for the dev container.
	Name string `json:"name"`

	// DockerComposeFile is the path(s) to Docker Compose file(s).
	// Can be a single string or an array of strings in devcontainer.json.
	// We use interface{} to handle both cases during deserialization.
	DockerComposeFile interface{} `json:"dockerComposeFile,omitempty"`

	// Service is the name of the primary service in the Docker Compose file
	// that the dev container attaches to.
	Service string `json:"service,omitempty"`

	// ContainerEnv sets environment variables inside the container.
	ContainerEnv map[string]string `json:"containerEnv,omitempty"`

	// RemoteEnv sets environment variables for tools and processes the IDE
	// starts inside the container, not for the container itself.
	RemoteEnv map[string]string `json:"remoteEnv,omitempty"`
}

// LoadConfig reads a devcontainer.json file, strips JSONC comments, and
// parses it into a RawDevContainer struct.
//
// The function uses github.com/tidwall/jsonc to handle JSONC (JSON with
// Comments) format, which is common in devcontainer.json files. After
// stripping comments, it uses the standard encoding/json for parsing.
//
// Returns an IOError if the file cannot be read.
func LoadConfig(devcontainerPath string) (*RawDevContainer, error) {
	data, err := os.ReadFile(devcontainerPath)
	if err != nil {
		return nil, &model.IOError{Op: "read", Path: devcontainerPath, Err: err}
	}

	// Strip JSONC comments (// and /* */) and trailing commas before parsing.
	cleanJSON := jsonc.ToJSON(data)

	var raw RawDevContainer
	if err := json.Unmarshal(cleanJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse devcontainer.json at %s: %w", devcontainerPath, err)
	}

	return &raw, nil
}

// GetComposeFiles extracts and normalizes the dockerComposeFile field
// from a RawDevContainer into a string slice.
//
// The devcontainer.json spec allows dockerComposeFile to be either a
// single string or an array of strings. This function normalizes both
// forms into a consistent []string representation.
//
// Returns nil if dockerComposeFile is not set.
func GetComposeFiles(raw *RawDevContainer) []string {
	switch v := raw.DockerComposeFile.(type) {
	case string:
		return []string{v}
	case []interface{}:
		// Each element should be a string, but we handle the type
		// assertion safely and drop anything else.
		files := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				files = append(files, s)
			}
		}
		return files
	default:
		return nil
	}
}

// ResolveComposeFiles returns the Compose file paths of raw, resolved
// relative to the directory that contains devcontainer.json.
func ResolveComposeFiles(devcontainerPath string, raw *RawDevContainer) []string {
	dir := filepath.Dir(devcontainerPath)
	files := GetComposeFiles(raw)
	for i, f := range files {
		if !filepath.IsAbs(f) {
			files[i] = filepath.Join(dir, f)
		}
	}
	return files
}

// FindDevContainerJSON searches for devcontainer.json in the standard
// locations within a project directory.
//
// The search order follows the official devcontainer.json spec:
//  1. <projectPath>/.devcontainer/devcontainer.json (preferred, most common)
//  2. <projectPath>/.devcontainer.json (alternative, less common)
//
// Returns the path to the first found file, or a NotFoundError listing the
// searched locations.
func FindDevContainerJSON(projectPath string) (string, error) {
	candidates := []string{
		filepath.Join(projectPath, ".devcontainer", "devcontainer.json"),
		filepath.Join(projectPath, ".devcontainer.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", &model.NotFoundError{
		Kind:      "devcontainer.json",
		Name:      projectPath,
		Available: []string{".devcontainer/devcontainer.json", ".devcontainer.json"},
	}
}

// EnvSource is a template source backed by a devcontainer.json file.
// The file is read on every collection, so an unreadable or malformed file
// shows up as a collection failure instead of aborting discovery.
type EnvSource struct {
	path string
}

// NewEnvSource creates a source for the devcontainer.json at path.
func NewEnvSource(path string) *EnvSource {
	return &EnvSource{path: path}
}

// Name returns the source identifier.
func (s *EnvSource) Name() string {
	return "devcontainer"
}

// Template returns the containerEnv variables followed by the remoteEnv
// variables, each sorted by name. JSON objects carry no order, so sorting is
// what keeps the output deterministic.
func (s *EnvSource) Template() ([]model.VariableConfig, error) {
	raw, err := LoadConfig(s.path)
	if err != nil {
		return nil, err
	}

	vars := envVars(raw.ContainerEnv, GroupContainerEnv, "Set by containerEnv in devcontainer.json.")

	// A name present in both maps is documented once, from containerEnv.
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		seen[v.Name] = true
	}
	for _, v := range envVars(raw.RemoteEnv, GroupRemoteEnv, "Set by remoteEnv in devcontainer.json.") {
		if !seen[v.Name] {
			vars = append(vars, v)
		}
	}
	return vars, nil
}

// envVars converts a name to value map into variables sorted by name.
func envVars(env map[string]string, group, description string) []model.VariableConfig {
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)

	vars := make([]model.VariableConfig, 0, len(names))
	for _, name := range names {
		vars = append(vars, model.VariableConfig{
			Name:        name,
			Default:     env[name],
			Description: description,
			Group:       group,
			Importance:  model.ImportanceOptional,
		})
	}
	return vars
}
