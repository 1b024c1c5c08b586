// Package devcontainer turns the environment declared by a project's
// development container setup into template sources.
//
// Two files are read:
//
//   - devcontainer.json: the containerEnv and remoteEnv maps
//   - Docker Compose files: every service's environment and env_file entries
//
// The files are never modified. Each file becomes one template source whose
// variables are documented with the file and section they came from, so a
// project that already describes its environment for the dev container gets
// that environment into .env.example without writing a template.
//
// JSONC (JSON with Comments) is supported via github.com/tidwall/jsonc,
// ensuring compatibility with the common practice of commenting
// devcontainer.json files. Compose files are read through yaml.v3 nodes so
// the declaration order of services and variables is kept.
package devcontainer
