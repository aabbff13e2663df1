// Package errors provides standardized error types and helpers for the ucom codebase.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotInstalled indicates a required editor version is not installed
	ErrNotInstalled = errors.New("not installed")
	// ErrSpawnFailed indicates an external process could not be started
	ErrSpawnFailed = errors.New("spawn failed")
	// ErrProtocol indicates a precondition of the editor IPC protocol was not met
	ErrProtocol = errors.New("protocol precondition failed")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "project", "editor", "log file")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Unwrap reports both the sentinel and the underlying cause, so
// errors.Is(err, ErrNotFound) holds even when Err is set.
func (e *NotFoundError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotFound, e.Err}
	}
	return []error{ErrNotFound}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// SpawnError represents a failure to start an external process.
// It is always fatal: the editor binary is missing or unrunnable.
type SpawnError struct {
	Path string // Executable that could not be started
	Err  error  // Underlying error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Path, e.Err)
}

// Unwrap reports both the sentinel and the underlying cause, so
// errors.Is(err, ErrSpawnFailed) holds even when Err is set.
func (e *SpawnError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSpawnFailed, e.Err}
	}
	return []error{ErrSpawnFailed}
}

// ProtocolError represents a violated precondition of the editor IPC
// protocol, e.g. a live editor without the required build hook installed.
// Remediation tells the operator how to fix the setup.
type ProtocolError struct {
	Reason      string
	Remediation string
}

func (e *ProtocolError) Error() string {
	if e.Remediation != "" {
		return fmt.Sprintf("%s\n%s", e.Reason, e.Remediation)
	}
	return e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// ProcessError represents a non-zero exit from an external process.
// Callers may special-case known exit codes (e.g. the editor exits 2
// when tests fail) before treating it as fatal.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr != "" {
		return fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, stderr)
	}
	return fmt.Sprintf("command failed with exit code %d", e.ExitCode)
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "XML", "version")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError. The err argument may carry a
// more specific cause (e.g. ErrNotInstalled) and may be nil.
func NewNotFound(resource, id string, err error) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
		Err:      err,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewSpawn creates a SpawnError
func NewSpawn(path string, err error) *SpawnError {
	return &SpawnError{
		Path: path,
		Err:  err,
	}
}

// NewProtocol creates a ProtocolError
func NewProtocol(reason, remediation string) *ProtocolError {
	return &ProtocolError{
		Reason:      reason,
		Remediation: remediation,
	}
}

// NewParse creates a ParseError. err is the underlying cause and may be nil.
func NewParse(format, path, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
