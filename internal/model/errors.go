package model

import (
	"errors"
	"fmt"
)

// SourceCollectionError reports that a single template source failed during
// collection. It is fail-soft: the collector records it and moves on to the
// next source.
type SourceCollectionError struct {
	// Source is the identifier of the failing source.
	Source string

	// Err is the underlying failure (returned error, recovered panic, or
	// validation error on the returned data).
	Err error
}

// Error implements the error interface.
func (e *SourceCollectionError) Error() string {
	return fmt.Sprintf("template source %q: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *SourceCollectionError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an unknown category or (category, option) pair.
type NotFoundError struct {
	// Kind is what was looked up: "category" or "option".
	Kind string

	// Name is the requested identifier.
	Name string

	// Available lists the known alternatives, for error messages.
	Available []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %q not found (available: %v)", e.Kind, e.Name, e.Available)
}

// ValidationError reports malformed input: a selection with the wrong shape
// or a structured template missing required fields.
type ValidationError struct {
	// Field is the path of the offending field (e.g., "env.DATABASE_URL").
	Field string

	// Message describes what is wrong with the field value.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IOError reports a file read or write failure. The core never retries I/O.
type IOError struct {
	// Op is the attempted operation ("read" or "write").
	Op string

	// Path is the file involved.
	Path string

	// Err is the underlying OS error.
	Err error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitNotFound indicates an unknown category or option was requested.
	ExitNotFound ExitCode = 2

	// ExitValidation indicates malformed selections or templates.
	ExitValidation ExitCode = 3

	// ExitIOError indicates a file could not be read or written.
	ExitIOError ExitCode = 4

	// ExitDockerUnavailable indicates the Docker daemon is not accessible
	// while image sources were requested.
	ExitDockerUnavailable ExitCode = 5

	// ExitUserCancelled indicates the command refused to proceed, for example
	// because the output file exists and --force was not given.
	ExitUserCancelled ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeFor maps any error to the exit code the CLI should use.
// CLIError codes win; otherwise the domain error taxonomy decides.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return ExitNotFound
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return ExitValidation
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ExitIOError
	}

	return ExitGeneralError
}
