package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors.
// Kind is one of the sentinels below so callers can branch with errors.Is.
type AppError struct {
	Code    string
	Message string
	Kind    error
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("resource already exists")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// ErrDecode marks a source document that could not be read. Not retryable.
	ErrDecode = errors.New("could not read file")
	// ErrRender marks an invoice that could not be produced. Retryable with the same inputs.
	ErrRender = errors.New("could not generate invoice")
)

const (
	CodeConfig   = "CONFIG_ERROR"
	CodeDecode   = "DECODE_ERROR"
	CodeRender   = "RENDER_ERROR"
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"
	CodeInvalid  = "INVALID_INPUT"
	CodeDatabase = "DATABASE_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewKindError(code, message string, kind, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
		Cause:   cause,
	}
}

// NewDecodeError wraps a byte-level decoding failure.
func NewDecodeError(message string, cause error) *AppError {
	return NewKindError(CodeDecode, message, ErrDecode, cause)
}

// NewRenderError wraps a failure to open or complete the invoice stream.
func NewRenderError(message string, cause error) *AppError {
	return NewKindError(CodeRender, message, ErrRender, cause)
}

func NotFound(message string) *AppError {
	return NewKindError(CodeNotFound, message, ErrNotFound, nil)
}

func Conflict(message string, cause error) *AppError {
	return NewKindError(CodeConflict, message, ErrConflict, cause)
}

func InvalidInput(message string) *AppError {
	return NewKindError(CodeInvalid, message, ErrInvalidInput, nil)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func IsDecodeError(err error) bool { return errors.Is(err, ErrDecode) }
func IsRenderError(err error) bool { return errors.Is(err, ErrRender) }

// HTTPStatus maps an error chain to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to API callers.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrDecode):
		return ErrDecode.Error()
	case errors.Is(err, ErrRender):
		return ErrRender.Error()
	}
	var ae *AppError
	if errors.As(err, &ae) && ae.Kind != nil && ae.Kind != ErrInternal && ae.Kind != ErrDatabase {
		return ae.Message
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return ErrInternal.Error()
}
