// Package errors provides typed domain errors for the pricing engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeUnknownDimension indicates a dimension value missing from the canonical maps
	TypeUnknownDimension Type = "UNKNOWN_DIMENSION_VALUE"

	// TypeNoData indicates a store query matched zero price rows
	TypeNoData Type = "NO_DATA_FOUND"

	// TypeInvalidUsage indicates a negative usage amount or malformed tier bounds
	TypeInvalidUsage Type = "INVALID_USAGE_OR_RANGE"

	// TypeParsing indicates a source file could not be parsed
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeStore indicates the backing price store failed
	TypeStore Type = "STORE_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// As is errors.As from the standard library
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// IsType reports whether err, or any error it wraps, is a domain error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// UnknownDimension reports a value that has no canonical code in the named dimension.
func UnknownDimension(dimension, value string) *Error {
	return Newf(TypeUnknownDimension, "unknown %s value: %q", dimension, value).
		WithContext("dimension", dimension).
		WithContext("value", value)
}

// NoData reports a store query that returned no rows.
func NoData(service string, query fmt.Stringer) *Error {
	return Newf(TypeNoData, "could not find data for service:[%s] - query:[%s]", service, query).
		WithContext("service", service)
}

// InvalidUsage creates an invalid usage error
func InvalidUsage(message string) *Error {
	return New(TypeInvalidUsage, message)
}

// InvalidRange creates an invalid tier range error
func InvalidRange(format string, args ...interface{}) *Error {
	return Newf(TypeInvalidUsage, format, args...)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// Store creates a store error
func Store(message string, cause error) *Error {
	return Wrap(TypeStore, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
