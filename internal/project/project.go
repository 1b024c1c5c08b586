// Package project locates the project a oneenv invocation works on.
//
// The project root is the top-level directory of the Git working tree that
// contains the working directory, or the working directory itself outside of
// Git. Project-local files live relative to that root:
//
//	<root>/.oneenv.toml   project configuration
//	<root>/.oneenv/       template files
//
// Git is invoked through os/exec rather than a Go Git library, so the same
// repository discovery rules apply as in the user's terminal, including
// worktrees and GIT_DIR overrides.
package project

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Names of project-local files, relative to the root.
const (
	ConfigFileName  = ".oneenv.toml"
	TemplateDirName = ".oneenv"
)

// Project describes the located project.
type Project struct {
	// Root is the absolute project root.
	Root string

	// InGit reports whether Root is a Git working tree.
	InGit bool
}

// ConfigFile returns the path of the project configuration file.
func (p *Project) ConfigFile() string {
	return filepath.Join(p.Root, ConfigFileName)
}

// TemplateDir returns the path of the project template directory.
func (p *Project) TemplateDir() string {
	return filepath.Join(p.Root, TemplateDirName)
}

// Locator finds projects by invoking the git CLI.
//
// It is stateless; the struct exists as a receiver so tests and callers can
// swap the git binary.
type Locator struct {
	// Git is the git executable. Empty means "git" from PATH.
	Git string
}

// NewLocator creates a Locator using git from PATH.
func NewLocator() *Locator {
	return &Locator{}
}

// Locate returns the project containing dir.
//
// Uses `git rev-parse --show-toplevel`, which works for both the main
// repository and worktrees: it returns the root of whichever working tree
// contains dir. Outside of Git, or when git is not installed, dir itself
// (made absolute) is the root.
func (l *Locator) Locate(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	output, err := l.runGit(abs, "rev-parse", "--show-toplevel")
	if err != nil {
		return &Project{Root: abs}, nil
	}

	// Trim whitespace/newline from git output.
	return &Project{Root: filepath.Clean(strings.TrimSpace(output)), InGit: true}, nil
}

// IsIgnored reports whether Git ignores path inside the project. It is used
// to warn before writing secrets to a file that would be committed.
//
// `git check-ignore -q` exits 0 for ignored paths and 1 for paths that are
// not ignored; anything else is an error. Outside of Git nothing is ignored.
func (l *Locator) IsIgnored(p *Project, path string) (bool, error) {
	if !p.InGit {
		return false, nil
	}

	_, err := l.runGit(p.Root, "check-ignore", "-q", path)
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, err
}

// runGit executes a git command with the given arguments in the specified directory.
//
// The dir parameter is passed to git via the -C flag, which causes git
// to change to that directory before doing anything else. This avoids the need
// to change the process's working directory.
//
// On failure the returned error wraps the *exec.ExitError and includes
// stderr output for diagnostics.
func (l *Locator) runGit(dir string, args ...string) (string, error) {
	bin := l.Git
	if bin == "" {
		bin = "git"
	}

	fullArgs := append([]string{"-C", dir}, args...)

	// #nosec G204 -- args are constructed internally, not from user input
	cmd := exec.Command(bin, fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return "", model.WrapCLIError(model.ExitGeneralError, message, err)
	}

	return stdout.String(), nil
}
