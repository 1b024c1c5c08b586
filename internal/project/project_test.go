package project

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a temporary directory with an initialized Git
// repository and a .gitignore that ignores .env files.
//
// The function uses t.TempDir() which automatically cleans up after the test.
// The test is skipped when git is not installed.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := t.TempDir()
	runTestGit(t, dir, "init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".env\n"), 0o644))
	return dir
}

// runTestGit is a test helper that runs a git command in the specified directory
// and fails the test immediately if the command exits with a non-zero status.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// resolved evaluates symlinks because macOS uses /var -> /private/var
// symlinks in temporary directories.
func resolved(t *testing.T, path string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return r
}

// TestLocate_FromSubdirectory verifies that the Git top level is found from
// a nested directory.
func TestLocate_FromSubdirectory(t *testing.T) {
	repo := setupTestRepo(t)
	sub := filepath.Join(repo, "services", "api")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	p, err := NewLocator().Locate(sub)
	require.NoError(t, err)

	assert.True(t, p.InGit)
	assert.Equal(t, resolved(t, repo), resolved(t, p.Root))
	assert.Equal(t, filepath.Join(p.Root, ".oneenv.toml"), p.ConfigFile())
	assert.Equal(t, filepath.Join(p.Root, ".oneenv"), p.TemplateDir())
}

// TestLocate_OutsideGit falls back to the directory itself.
func TestLocate_OutsideGit(t *testing.T) {
	dir := t.TempDir()

	p, err := (&Locator{Git: "git-binary-that-does-not-exist"}).Locate(dir)
	require.NoError(t, err)

	assert.False(t, p.InGit)
	assert.Equal(t, dir, p.Root)
}

// TestIsIgnored checks both outcomes of git check-ignore.
func TestIsIgnored(t *testing.T) {
	repo := setupTestRepo(t)
	l := NewLocator()

	p, err := l.Locate(repo)
	require.NoError(t, err)

	ignored, err := l.IsIgnored(p, ".env")
	require.NoError(t, err)
	assert.True(t, ignored)

	ignored, err = l.IsIgnored(p, ".env.example")
	require.NoError(t, err)
	assert.False(t, ignored)

	ignored, err = l.IsIgnored(&Project{Root: t.TempDir()}, ".env")
	require.NoError(t, err)
	assert.False(t, ignored, "nothing is ignored outside of Git")
}
