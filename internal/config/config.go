// Package config loads the oneenv tool configuration.
//
// Configuration is layered, later layers overriding earlier ones:
//
//  1. built-in defaults
//  2. the user file, $XDG_CONFIG_HOME/oneenv/config.toml
//  3. the project file, <root>/.oneenv.toml
//  4. an explicit file given with --config
//  5. ONEENV_* environment variables (ONEENV_OUTPUT, ONEENV_IMAGES, ...)
//
// Missing user and project files are skipped. An explicit file must exist.
// List values given through the environment are comma separated.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/oneenv-project/oneenv/internal/model"
)

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "ONEENV_"

// DevcontainerOff disables devcontainer discovery when used as the
// devcontainer setting.
const DevcontainerOff = "off"

// Config is the resolved tool configuration. Relative paths are relative to
// the project root.
type Config struct {
	// TemplateDirs are searched for template files, in order.
	TemplateDirs []string `koanf:"template_dirs"`

	// Output is where `template` writes the rendered example file.
	Output string `koanf:"output"`

	// EnvOutput is where `generate` writes the scaffolded file.
	EnvOutput string `koanf:"env_output"`

	// Importance is the default minimum importance for `generate`.
	// Empty means no filtering.
	Importance string `koanf:"importance"`

	// Devcontainer is the devcontainer.json path. Empty means the standard
	// locations are searched; DevcontainerOff disables the source.
	Devcontainer string `koanf:"devcontainer"`

	// ComposeFiles are compose files read in addition to those referenced by
	// the devcontainer configuration.
	ComposeFiles []string `koanf:"compose_files"`

	// Images are local Docker images read as template sources.
	Images []string `koanf:"images"`

	// InspectTimeout bounds one image inspection.
	InspectTimeout time.Duration `koanf:"inspect_timeout"`
}

// Paths names the configuration files to load. Empty fields are skipped.
type Paths struct {
	// User is the per-user file. It may be missing.
	User string

	// Project is the project file. It may be missing.
	Project string

	// Explicit is a file named on the command line. It must exist.
	Explicit string
}

// UserConfigFile returns the default per-user configuration path.
func UserConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "oneenv", "config.toml")
}

// UserTemplateDir returns the default per-user template directory.
func UserTemplateDir() string {
	return filepath.Join(xdg.ConfigHome, "oneenv", "templates")
}

// defaults returns the built-in configuration layer.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"template_dirs":   []string{".oneenv", UserTemplateDir()},
		"output":          ".env.example",
		"env_output":      ".env",
		"importance":      "",
		"devcontainer":    "",
		"compose_files":   []string{},
		"images":          []string{},
		"inspect_timeout": "10s",
	}
}

// Load merges every configuration layer and returns the result.
func Load(paths Paths) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load user and project files if they exist
	for _, path := range []string{paths.User, paths.Project} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &model.IOError{Op: "stat", Path: path, Err: err}
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Load the explicit file
	if paths.Explicit != "" {
		if _, err := os.Stat(paths.Explicit); err != nil {
			return nil, &model.IOError{Op: "stat", Path: paths.Explicit, Err: err}
		}
		if err := k.Load(file.Provider(paths.Explicit), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", paths.Explicit, err)
		}
	}

	// 4. Load env vars
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be checked by type alone.
func (c *Config) Validate() error {
	if c.Importance != "" {
		imp, err := model.ParseImportance(c.Importance)
		if err != nil {
			return err
		}
		c.Importance = imp.String()
	}
	if c.InspectTimeout <= 0 {
		return &model.ValidationError{
			Field:   "inspect_timeout",
			Message: fmt.Sprintf("inspect_timeout must be positive, got %s", c.InspectTimeout),
		}
	}
	return nil
}

// MinImportance returns the configured importance filter, or the empty
// Importance when no filter is set.
func (c *Config) MinImportance() model.Importance {
	return model.Importance(c.Importance)
}

// Resolve returns path made absolute against root. Absolute paths and the
// empty path are returned unchanged.
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// ResolveAll applies Resolve to every path.
func ResolveAll(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, Resolve(root, strings.TrimSpace(p)))
	}
	return out
}
