package templatefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/oneenv-project/oneenv/internal/model"
	"github.com/oneenv-project/oneenv/internal/registry"
)

// Discover lists the template files in dirs. Each directory contributes its
// recognized files in lexical order; directories are visited in the order
// given. Missing directories are skipped. Subdirectories are not searched.
func Discover(dirs []string) ([]string, error) {
	var paths []string

	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &model.IOError{Op: "read directory", Path: dir, Err: err}
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || !IsTemplateFile(e.Name()) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)

		for _, n := range names {
			paths = append(paths, filepath.Join(dir, n))
		}
	}

	return paths, nil
}

// Register loads each file in paths into reg.
//
// A file that cannot be parsed is registered as a failed source, so the
// failure is reported by the collector alongside the healthy sources. Files
// without flat variables register no source. Scaffolding options that fail
// validation or collide with an existing entry are skipped and returned.
func Register(reg *registry.Registry, paths []string) []error {
	var errs []error

	for _, path := range paths {
		f, err := Load(path)
		if err != nil {
			base := filepath.Base(path)
			reg.Register(registry.NewFailedSource(base[:len(base)-len(filepath.Ext(base))], err))
			continue
		}

		if len(f.Variables) > 0 {
			reg.Register(registry.NewStaticSource(f.SourceName(), f.Variables))
		}

		for _, opt := range f.TemplateOptions() {
			if err := reg.AddOption(opt); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
			}
		}
	}

	return errs
}
