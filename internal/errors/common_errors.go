package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Export structure did not match the expected layout (missing header
	// row, unexpected blank pattern).
	ErrTypeMalformedExport ErrorType = "MALFORMED_EXPORT"
	// A label/value table repeated a label.
	ErrTypeAmbiguousLabel ErrorType = "AMBIGUOUS_LABEL"
	// An expected column is absent; the export schema changed.
	ErrTypeMissingColumn ErrorType = "MISSING_REQUIRED_COLUMN"
	// The incoming dataset carried duplicate keys.
	ErrTypeKeyCollision ErrorType = "MERGE_KEY_COLLISION_INTERNAL"
	ErrTypeStorage      ErrorType = "STORAGE"
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeNetwork      ErrorType = "NETWORK"
	ErrTypeConfig       ErrorType = "CONFIG"
	ErrTypeLocked       ErrorType = "LOCKED"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError of the same type, so a bare
// &AppError{Type: t} can be used as a target for errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the type of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's chain holds an AppError of type t.
func IsType(err error, t ErrorType) bool {
	return stderrors.Is(err, &AppError{Type: t})
}

// Helper functions for common error types

// NewMalformedExportError creates a structural export error
func NewMalformedExportError(message string) *AppError {
	return NewAppError(ErrTypeMalformedExport, message, nil)
}

// NewAmbiguousLabelError reports a label repeated inside a label/value table
func NewAmbiguousLabelError(table, label string) *AppError {
	return NewAppError(ErrTypeAmbiguousLabel, fmt.Sprintf("label %q repeats", label), nil).
		WithContext("table", table)
}

// NewMissingColumnError reports a column the export schema no longer carries
func NewMissingColumnError(table, column string) *AppError {
	return NewAppError(ErrTypeMissingColumn, fmt.Sprintf("column %q not found", column), nil).
		WithContext("table", table)
}

// NewKeyCollisionError reports a duplicate key in an incoming dataset
func NewKeyCollisionError(dataset, key string) *AppError {
	return NewAppError(ErrTypeKeyCollision, fmt.Sprintf("duplicate key %q", key), nil).
		WithContext("dataset", dataset)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewLockedError reports a lock held by another process
func NewLockedError(path string, cause error) *AppError {
	return NewAppError(ErrTypeLocked, "lock is held by another process", cause).
		WithContext("path", path)
}
