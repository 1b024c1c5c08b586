package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/oneenv-project/oneenv/internal/config"
	"github.com/oneenv-project/oneenv/internal/devcontainer"
	"github.com/oneenv-project/oneenv/internal/docker"
	"github.com/oneenv-project/oneenv/internal/logging"
	"github.com/oneenv-project/oneenv/internal/model"
	"github.com/oneenv-project/oneenv/internal/project"
	"github.com/oneenv-project/oneenv/internal/registry"
	"github.com/oneenv-project/oneenv/internal/templatefile"
)

// workspace is everything a command needs: the located project, its
// configuration and a registry populated with every discovered source.
type workspace struct {
	Project  *project.Project
	Locator  *project.Locator
	Config   *config.Config
	Registry *registry.Registry

	// closers are released by Close, after collection has run.
	closers []io.Closer
}

// Close releases resources held by sources (the Docker client).
func (w *workspace) Close() {
	for _, c := range w.closers {
		_ = c.Close()
	}
}

// workspaceOptions adjusts discovery for one command invocation.
type workspaceOptions struct {
	// Images are image references named on the command line. Unlike
	// configured images they require a reachable Docker daemon.
	Images []string
}

// connectDocker opens a Docker connection for image sources. Tests replace
// it to avoid depending on a daemon.
var connectDocker = func(ctx context.Context) (docker.ImageInspector, io.Closer, error) {
	c, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, c, nil
}

// loadWorkspace locates the project, loads configuration and registers
// every template source in discovery order:
//
//  1. template files, directory by directory
//  2. the devcontainer.json environment
//  3. compose service environments
//  4. Docker image environments
//
// Broken files never abort discovery; they surface as collection failures.
func loadWorkspace(ctx context.Context, opts workspaceOptions) (*workspace, error) {
	logger := logging.GetLogger("discovery")
	done := logging.LogOperationStart(logger, "discover sources")
	defer done()

	// Step 1: Locate the project root.
	dir := workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}
	locator := project.NewLocator()
	proj, err := locator.Locate(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("root", proj.Root).Bool("git", proj.InGit).Msg("Project located")

	// Step 2: Load the layered configuration.
	cfg, err := config.Load(config.Paths{
		User:     config.UserConfigFile(),
		Project:  proj.ConfigFile(),
		Explicit: configFile,
	})
	if err != nil {
		return nil, err
	}

	ws := &workspace{Project: proj, Locator: locator, Config: cfg, Registry: registry.New()}

	// Step 3: Template files.
	paths, err := templatefile.Discover(config.ResolveAll(proj.Root, cfg.TemplateDirs))
	if err != nil {
		return nil, err
	}
	for _, err := range templatefile.Register(ws.Registry, paths) {
		logger.Warn().Err(err).Msg("Skipping scaffolding option")
	}
	logger.Debug().Int("files", len(paths)).Msg("Template files registered")

	// Step 4: devcontainer.json and compose files.
	registerContainerConfig(ws, logger)

	// Step 5: Docker images.
	if err := registerImages(ctx, ws, opts.Images, logger); err != nil {
		ws.Close()
		return nil, err
	}

	return ws, nil
}

// registerContainerConfig registers the devcontainer.json environment and
// the environment of every compose file it references, followed by the
// compose files listed in the configuration.
func registerContainerConfig(ws *workspace, logger zerolog.Logger) {
	root := ws.Project.Root
	var composeFiles []string

	if ws.Config.Devcontainer != config.DevcontainerOff {
		path := config.Resolve(root, ws.Config.Devcontainer)
		if path == "" {
			found, err := devcontainer.FindDevContainerJSON(root)
			if err != nil {
				logger.Debug().Msg("No devcontainer.json found")
			}
			path = found
		}

		if path != "" {
			ws.Registry.Register(devcontainer.NewEnvSource(path))

			// An unreadable file is reported by the source itself during
			// collection; here it only means there are no compose files.
			if raw, err := devcontainer.LoadConfig(path); err == nil {
				composeFiles = append(composeFiles, devcontainer.ResolveComposeFiles(path, raw)...)
			}
		}
	}

	composeFiles = append(composeFiles, config.ResolveAll(root, ws.Config.ComposeFiles)...)

	seen := make(map[string]bool, len(composeFiles))
	for _, f := range composeFiles {
		if seen[f] {
			continue
		}
		seen[f] = true
		ws.Registry.Register(devcontainer.NewComposeSource(f))
	}
}

// registerImages registers one source per image: configured images first,
// then images from the command line.
//
// When Docker is unavailable, configured images are registered as failed
// sources so the problem shows up in the collection report, while images
// requested on the command line fail the command.
func registerImages(ctx context.Context, ws *workspace, explicit []string, logger zerolog.Logger) error {
	refs := make([]string, 0, len(ws.Config.Images)+len(explicit))
	seen := make(map[string]bool)
	for _, ref := range append(append([]string{}, ws.Config.Images...), explicit...) {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil
	}

	inspector, closer, err := connectDocker(ctx)
	if err != nil {
		if len(explicit) > 0 {
			var cliErr *model.CLIError
			if errors.As(err, &cliErr) {
				return err
			}
			return model.WrapCLIError(model.ExitDockerUnavailable, "Docker is required for --image", err)
		}
		logger.Warn().Err(err).Msg("Docker unavailable, image sources skipped")
		for _, ref := range refs {
			ws.Registry.Register(registry.NewFailedSource("image:"+ref, err))
		}
		return nil
	}
	ws.closers = append(ws.closers, closer)

	for _, ref := range refs {
		ws.Registry.Register(docker.NewImageSource(ref, inspector).WithTimeout(ws.Config.InspectTimeout))
	}
	return nil
}
