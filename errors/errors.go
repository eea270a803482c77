// Package errors provides error handling for dtsgen.
//
// This package re-exports github.com/cockroachdb/errors so every package
// gets stack traces, wrapping, user hints and error marks from one import:
//
//	// Wrap with context
//	if err := readInput(path); err != nil {
//	    return errors.Wrapf(err, "failed to read %s", path)
//	}
//
//	// Classify a failure without changing its message
//	return errors.Mark(err, ErrPluginLoad)
//
//	// Add hints for users
//	return errors.WithHint(err, "add a [[targets]] entry to dtsgen.toml")
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
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
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

// Marks classify an error for errors.Is without altering its message.
var (
	Mark = crdb.Mark
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Common sentinel errors shared across dtsgen packages.
var (
	// ErrNotFound indicates a file, target or plugin does not exist
	ErrNotFound = New("not found")

	// ErrInvalidConfig indicates dtsgen.toml (or its env overrides) is invalid
	ErrInvalidConfig = New("invalid configuration")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewInvalidConfigError creates an invalid-configuration error with a formatted message
func NewInvalidConfigError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidConfig)
}

// Hints returns all hints attached to err, one per line, or "" when there are none.
func Hints(err error) string {
	if err == nil {
		return ""
	}
	return FlattenHints(err)
}
