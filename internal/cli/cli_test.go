package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/require"

	"github.com/oneenv-project/oneenv/internal/docker"
)

// appTemplate declares flat variables and two scaffolding options.
const appTemplate = `
name: app
variables:
  - name: DATABASE_URL
    description: Primary database
    default: sqlite:///app.db
    required: true
    importance: critical
    group: Database
  - name: DEBUG
    default: "false"
    choices: ["true", "false"]
options:
  - category: Database
    option: postgres
    env:
      - name: POSTGRES_HOST
        default: localhost
        importance: important
      - name: POSTGRES_PASSWORD
        required: true
        importance: critical
      - name: POSTGRES_POOL
        default: "5"
  - category: Database
    option: sqlite
    env:
      - name: DATABASE_URL
        default: sqlite:///app.db
`

// workerTemplate redeclares DATABASE_URL and adds a cache option.
const workerTemplate = `
variables:
  - name: DATABASE_URL
    description: Worker database
    default: postgres://db/worker
    group: Database
options:
  - category: Cache
    option: redis
    env:
      - name: REDIS_URL
        default: redis://localhost:6379
`

// isolate points every XDG directory into the test's temporary directory so
// that user configuration and log files of the machine are not used.
func isolate(t *testing.T) {
	t.Helper()
	// Cleanups run last-in first-out, so this reload sees the restored
	// environment.
	t.Cleanup(xdg.Reload)

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))
	xdg.Reload()
}

// setupProject creates a project directory with the two template files.
func setupProject(t *testing.T) string {
	t.Helper()
	isolate(t)

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, ".oneenv", "10-app.yaml"), appTemplate)
	writeTestFile(t, filepath.Join(dir, ".oneenv", "20-worker.yaml"), workerTemplate)
	return dir
}

// writeTestFile writes content to path, creating parent directories.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err = root.Execute()
	return out.String(), errOut.String(), err
}

// closerFunc adapts a function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// fakeImages serves image metadata from memory.
type fakeImages map[string]struct {
	env    []string
	labels map[string]string
}

func (f fakeImages) InspectImageEnv(_ context.Context, ref string) ([]string, map[string]string, error) {
	img, ok := f[ref]
	if !ok {
		return nil, nil, os.ErrNotExist
	}
	return img.env, img.labels, nil
}

// stubDocker replaces the Docker connection for the duration of the test.
// A non-nil err simulates an unreachable daemon.
func stubDocker(t *testing.T, inspector docker.ImageInspector, err error) *bool {
	t.Helper()

	closed := false
	orig := connectDocker
	connectDocker = func(context.Context) (docker.ImageInspector, io.Closer, error) {
		if err != nil {
			return nil, nil, err
		}
		return inspector, closerFunc(func() error { closed = true; return nil }), nil
	}
	t.Cleanup(func() { connectDocker = orig })
	return &closed
}
