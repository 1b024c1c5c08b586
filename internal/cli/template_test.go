package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneenv-project/oneenv/internal/model"
)

// TestTemplate_Stdout renders the merged template to stdout.
func TestTemplate_Stdout(t *testing.T) {
	dir := setupProject(t)

	stdout, _, err := executeCommand(t, "template", "--dir", dir, "-o", "-")
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Environment Variables Template\n# Generated by OneEnv\n\n")
	assert.Contains(t, stdout, "# === Database ===\n# (app)\n# Primary database\n#\n# (20-worker)\n# Worker database\n")
	assert.Contains(t, stdout, "# Importance: critical (required)\n# Sources: app, 20-worker\nDATABASE_URL=sqlite:///app.db\n")
	assert.Contains(t, stdout, "# === Other ===\n# Importance: optional\n# Choices: true, false\nDEBUG=false\n")
}

// TestTemplate_WritesConfiguredOutput writes .env.example at the project root.
func TestTemplate_WritesConfiguredOutput(t *testing.T) {
	dir := setupProject(t)

	stdout, _, err := executeCommand(t, "template", "--dir", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, ".env.example")
	assert.Contains(t, stdout, path)
	assert.Contains(t, stdout, "(2 variables)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG=false\n")
}

// TestTemplate_ProjectConfig honors the output setting of .oneenv.toml.
func TestTemplate_ProjectConfig(t *testing.T) {
	dir := setupProject(t)
	writeTestFile(t, filepath.Join(dir, ".oneenv.toml"), `output = "docs/env.example"`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docs"), 0o755))

	_, _, err := executeCommand(t, "template", "--dir", dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "docs", "env.example"))
}

// TestTemplate_ContainerSources reads devcontainer.json and the compose file
// it references, after the template files.
func TestTemplate_ContainerSources(t *testing.T) {
	dir := setupProject(t)
	writeTestFile(t, filepath.Join(dir, ".devcontainer", "devcontainer.json"), `{
  // dev container
  "dockerComposeFile": "compose.yml",
  "service": "app",
  "containerEnv": {"TZ": "UTC"},
}`)
	writeTestFile(t, filepath.Join(dir, ".devcontainer", "compose.yml"), `
services:
  app:
    environment:
      APP_ENV: development
      DEBUG: "true"
`)

	stdout, _, err := executeCommand(t, "--json", "template", "--dir", dir, "-o", "-")
	require.NoError(t, err)

	var result templateResultJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))

	names := make([]string, 0, len(result.Variables))
	for _, v := range result.Variables {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"DATABASE_URL", "DEBUG", "TZ", "APP_ENV"}, names)

	debug := result.Variables[1]
	assert.Equal(t, "false", debug.Default, "the template file declared DEBUG first")
	assert.Equal(t, []string{"app", "compose:compose.yml"}, debug.Sources)
	assert.Equal(t, "Dev Container", result.Variables[2].Group)
	assert.Empty(t, result.Failures)
}

// TestTemplate_FailedSourcesAreReported keeps going when a file is broken.
func TestTemplate_FailedSourcesAreReported(t *testing.T) {
	dir := setupProject(t)
	writeTestFile(t, filepath.Join(dir, ".oneenv", "30-broken.toml"), "variables = [")

	stdout, _, err := executeCommand(t, "--json", "template", "--dir", dir, "-o", "-")
	require.NoError(t, err)

	var result templateResultJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Len(t, result.Variables, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "30-broken", result.Failures[0].Source)
}

// TestTemplate_Debug lists sources and duplicates on stderr.
func TestTemplate_Debug(t *testing.T) {
	dir := setupProject(t)

	_, stderr, err := executeCommand(t, "template", "--dir", dir, "-o", "-", "--debug")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Template sources")
	assert.Contains(t, stderr, "app")
	assert.Contains(t, stderr, "20-worker")
	assert.Contains(t, stderr, "Duplicated variables (1)")
	assert.Contains(t, stderr, "DATABASE_URL <- app, 20-worker")
}

// TestTemplate_Structure lists categories and options in registration order.
func TestTemplate_Structure(t *testing.T) {
	dir := setupProject(t)

	stdout, _, err := executeCommand(t, "template", "--dir", dir, "--structure", "--json")
	require.NoError(t, err)

	var result struct {
		Categories []struct {
			Category string   `json:"category"`
			Options  []string `json:"options"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result.Categories, 2)
	assert.Equal(t, "Database", result.Categories[0].Category)
	assert.Equal(t, []string{"postgres", "sqlite"}, result.Categories[0].Options)
	assert.Equal(t, "Cache", result.Categories[1].Category)

	text, _, err := executeCommand(t, "template", "--dir", dir, "--structure")
	require.NoError(t, err)
	assert.Contains(t, text, "Available template structure")
	assert.Contains(t, text, "- redis")
}

// TestTemplate_Info shows per-option counts.
func TestTemplate_Info(t *testing.T) {
	dir := setupProject(t)

	stdout, _, err := executeCommand(t, "template", "--dir", dir, "--info", "Database")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Category: Database")
	assert.Contains(t, stdout, "3 variables: 1 critical, 1 important, 1 optional, 1 required")
	assert.Contains(t, stdout, "POSTGRES_HOST, POSTGRES_PASSWORD, POSTGRES_POOL")

	_, _, err = executeCommand(t, "template", "--dir", dir, "--info", "Queue")
	var notFound *model.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, []string{"Database", "Cache"}, notFound.Available)
}

// TestTemplate_Preview renders one option.
func TestTemplate_Preview(t *testing.T) {
	dir := setupProject(t)

	stdout, _, err := executeCommand(t, "template", "--dir", dir, "--preview", "Database:postgres")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Preview: Database:postgres\n")
	assert.Contains(t, stdout, "POSTGRES_HOST=localhost\n")
	assert.Contains(t, stdout, "# Importance: critical (required)\nPOSTGRES_PASSWORD=\n")

	_, _, err = executeCommand(t, "template", "--dir", dir, "--preview", "Database")
	assert.Equal(t, model.ExitValidation, model.ExitCodeFor(err))

	_, _, err = executeCommand(t, "template", "--dir", dir, "--preview", "Database:mysql")
	assert.Equal(t, model.ExitNotFound, model.ExitCodeFor(err))
}

// TestTemplate_Labels prints a LABEL instruction for the merged variables.
func TestTemplate_Labels(t *testing.T) {
	dir := setupProject(t)

	stdout, _, err := executeCommand(t, "template", "--dir", dir, "--labels")
	require.NoError(t, err)

	assert.Contains(t, stdout, "LABEL ")
	assert.Contains(t, stdout, `org.oneenv.var.DATABASE_URL.default="sqlite:///app.db"`)
	assert.Contains(t, stdout, `org.oneenv.var.DATABASE_URL.importance="critical"`)
	assert.Contains(t, stdout, `org.oneenv.var.DEBUG.choices="true,false"`)
	assert.NoFileExists(t, filepath.Join(dir, ".env.example"))
}

// TestTemplate_Images reads image metadata through the Docker connection.
func TestTemplate_Images(t *testing.T) {
	t.Run("explicit image", func(t *testing.T) {
		dir := setupProject(t)
		closed := stubDocker(t, fakeImages{
			"example/api:1": {
				env:    []string{"API_PORT=8080"},
				labels: map[string]string{"org.oneenv.var.API_PORT.group": "API"},
			},
		}, nil)

		stdout, _, err := executeCommand(t, "template", "--dir", dir, "-o", "-", "--image", "example/api:1")
		require.NoError(t, err)
		assert.Contains(t, stdout, "# === API ===\n# Set by ENV in image example/api:1.\n")
		assert.Contains(t, stdout, "API_PORT=8080\n")
		assert.True(t, *closed, "the Docker connection is closed")
	})

	t.Run("explicit image without docker", func(t *testing.T) {
		dir := setupProject(t)
		stubDocker(t, nil, errors.New("connection refused"))

		_, _, err := executeCommand(t, "template", "--dir", dir, "-o", "-", "--image", "example/api:1")
		assert.Equal(t, model.ExitDockerUnavailable, model.ExitCodeFor(err))
	})

	t.Run("configured image without docker", func(t *testing.T) {
		dir := setupProject(t)
		writeTestFile(t, filepath.Join(dir, ".oneenv.toml"), `images = ["example/api:1"]`)
		stubDocker(t, nil, errors.New("connection refused"))

		stdout, _, err := executeCommand(t, "--json", "template", "--dir", dir, "-o", "-")
		require.NoError(t, err)

		var result templateResultJSON
		require.NoError(t, json.Unmarshal([]byte(stdout), &result))
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "image:example/api:1", result.Failures[0].Source)
	})
}
