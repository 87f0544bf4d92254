// Package errors provides custom error types for the orgscan engine.
// These errors enable programmatic error checking across the scan,
// event and persistence paths and carry enough context to log a failure
// against the navigator or project it belongs to.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
// It's an alias for the standard library errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// It's an alias for the standard library errors.As for convenience.
var As = errors.As

// Common sentinel errors for the orgscan engine
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateChild indicates that another project discovered in the
	// same pass already claimed the directory identifier
	ErrDuplicateChild = errors.New("duplicate child")

	// ErrCompleted indicates that a project observation was already
	// finalized
	ErrCompleted = errors.New("observation already completed")

	// ErrInterrupted indicates that a scan observed its cancellation flag
	ErrInterrupted = errors.New("scan interrupted")

	// ErrNavigatorUnavailable indicates that a navigator is temporarily
	// unavailable
	ErrNavigatorUnavailable = errors.New("navigator unavailable")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")
)

// FetchError represents a metadata fetch failure for one navigator.
// Fetch failures are transient and non-fatal; callers retain the
// previously cached actions.
type FetchError struct {
	Navigator string
	Err       error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("could not refresh actions for navigator %s: %v", e.Navigator, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	return target == ErrNavigatorUnavailable
}

// NewFetchError creates a new FetchError
func NewFetchError(navigator string, err error) *FetchError {
	return &FetchError{Navigator: navigator, Err: err}
}

// DiscoveryError represents a source enumeration failure during a scan.
// Discovery failures are fatal to the scan run that hit them; children
// already registered by earlier navigators are kept.
type DiscoveryError struct {
	Navigator string
	Err       error
}

// Error implements the error interface
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("could not fetch sources from navigator %s: %v", e.Navigator, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// NewDiscoveryError creates a new DiscoveryError
func NewDiscoveryError(navigator string, err error) *DiscoveryError {
	return &DiscoveryError{Navigator: navigator, Err: err}
}

// ReconcileError represents a create or update failure for one project
// name. It aborts only the reconciliation of that name, never the rest
// of the pass.
type ReconcileError struct {
	Project string
	Err     error
}

// Error implements the error interface
func (e *ReconcileError) Error() string {
	return fmt.Sprintf("failed to create or update subproject %s: %v", e.Project, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// NewReconcileError creates a new ReconcileError
func NewReconcileError(project string, err error) *ReconcileError {
	return &ReconcileError{Project: project, Err: err}
}

// PersistError represents a failure writing persisted state. It is
// re-thrown from within a transactional batch so a failed flush is never
// treated as committed.
type PersistError struct {
	Operation string // "read", "write"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *PersistError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("persistence error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("persistence error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PersistError) Unwrap() error {
	return e.Err
}

// NewPersistError creates a new PersistError
func NewPersistError(operation, path string, err error) *PersistError {
	return &PersistError{Operation: operation, Path: path, Err: err}
}

// ParseError represents unreadable persisted state. Load paths recover
// from it by resetting to empty, so it normally surfaces only in logs.
type ParseError struct {
	Format  string // "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateChild checks if an error is a duplicate child rejection
func IsDuplicateChild(err error) bool {
	return errors.Is(err, ErrDuplicateChild)
}

// IsInterrupted checks if an error is a scan interruption
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted)
}

// IsFetchError checks if an error is a transient metadata fetch failure
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
