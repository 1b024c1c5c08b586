// Package docker reads environment variable templates from local Docker
// images.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Image inspection: the ENV list of an image's config
//   - The org.oneenv.var.* label scheme that documents variables on an
//     image (description, requiredness, importance, group, choices)
//
// Images are only inspected, never pulled or run. An image published with
// oneenv labels carries its own .env.example documentation.
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
