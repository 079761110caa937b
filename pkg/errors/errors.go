package errors

import (
	"errors"
	"fmt"
)

// Error codes exposed to callers. Every failure leaving a service carries
// exactly one of these so the transport layer can map it to a response.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeInternal     = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return NewAppError(CodeValidation, message, err)
}

func NotFound(message string) *AppError {
	return NewAppError(CodeNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return NewAppError(CodeConflict, message, nil)
}

// InvalidState carries the message through unmodified; for a blocked loyalty
// account the account's stored block reason reaches the caller verbatim.
func InvalidState(message string) *AppError {
	return NewAppError(CodeInvalidState, message, nil)
}

func Internal(message string, err error) *AppError {
	return NewAppError(CodeInternal, message, err)
}

// CodeOf extracts the application error code, defaulting unknown errors to
// CodeInternal so raw storage and ledger failures stay opaque.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
