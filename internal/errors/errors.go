// Package errors defines the structured error type shared by the ops, web,
// and MCP layers.
package errors

import "fmt"

// ErrorCode classifies an importer error.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrInvalidArchive ErrorCode = "INVALID_ARCHIVE" // 422
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// Error carries a code, an HTTP status, and optional structured details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a note or attachment that does not exist.
func NewNotFound(what string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found", what),
		Details: map[string]any{"identifier": what},
	}
}

// NewInvalidArchive creates a 422 error for an archive that cannot be parsed.
// The whole file's transaction is rolled back when this is returned.
func NewInvalidArchive(file string, err error) *Error {
	msg := "archive is not a valid ENEX export"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInvalidArchive,
		Status:  422,
		Message: msg,
		Details: map[string]any{"file": file},
	}
}

// NewInternal creates a 500 error for unexpected internal failures.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
