// Package model defines the domain types and value objects for the
// oneenv CLI.
//
// This package contains pure data structures with no external dependencies.
// VariableConfig and TemplateOption values are created once when template
// sources are registered and read many times afterwards. CanonicalVariable
// and DiffEntry values are ephemeral: they are recomputed on every render or
// diff call and never persisted.
//
// The package also defines the error taxonomy shared by every component
// (SourceCollectionError, NotFoundError, ValidationError, IOError), exit
// codes (ExitCode) and a custom error type (CLIError) that carries exit
// codes for proper OS process exit handling.
package model
