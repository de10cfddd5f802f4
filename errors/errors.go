// Package errors provides error handling for harvest.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints that tell the operator how to fix a problem
//
// Usage:
//
//	if err := session.Login(ctx); err != nil {
//	    return errors.Wrap(err, "failed to log in")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "set ARIBA_PASSWORD in .env")
//
//	// Check errors
//	if errors.Is(err, errors.ErrNoFiles) {
//	    // contract has no attachments
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint   = crdb.WithHint
	WithHintf  = crdb.WithHintf
	WithDetail = crdb.WithDetail
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Panics
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors shared across harvest.
// Use these with errors.Is() and wrap them with errors.Wrap() to add context.
var (
	// ErrNotFound indicates the requested record or file does not exist.
	// The portal returns it when a contract has no matching row.
	ErrNotFound = New("not found")

	// ErrNoFiles indicates a contract has no downloadable attachments
	ErrNoFiles = New("no files available")

	// ErrColumnMissing indicates the input table lacks the Contract_ID column
	ErrColumnMissing = New("required column missing")

	// ErrSessionLost indicates the browser session is gone and no further
	// portal work is possible
	ErrSessionLost = New("browser session lost")

	// ErrInvalidConfig indicates the configuration failed validation
	ErrInvalidConfig = New("invalid configuration")

	// ErrTimeout indicates a bounded UI wait expired
	ErrTimeout = New("operation timed out")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsNoFilesError checks if an error is or wraps ErrNoFiles
func IsNoFilesError(err error) bool {
	return err != nil && Is(err, ErrNoFiles)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewNoFilesError creates a no-files error with a formatted message
func NewNoFilesError(format string, args ...interface{}) error {
	return Wrapf(ErrNoFiles, format, args...)
}
