// Package apperr defines the structured error model delivered to request
// handlers: a canonical code, a human message, the HTTP status that produced
// it (if any), server supplied details, and an optional wrapped cause.
package apperr

import (
	"errors"
	"fmt"
)

// Suggestion is a per-field hint, used for configuration validation errors.
type Suggestion struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the canonical error shape handed to completion handlers.
type AppError struct {
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	HTTPStatus  int            `json:"status,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Suggestions []Suggestion   `json:"suggestions,omitempty"`
	cause       error          `json:"-"`
	ec          *ErrorCode     `json:"-"`
}

// New creates a new AppError from an ErrorCode.
func New(ec *ErrorCode) *AppError {
	if ec == nil {
		ec = ErrorCodeInternal
	}
	return &AppError{
		Code:       ec.Code(),
		Message:    ec.Message(),
		HTTPStatus: ec.HTTPStatus(),
		ec:         ec,
	}
}

// Newf creates AppError with formatted message.
func Newf(ec *ErrorCode, format string, args ...interface{}) *AppError {
	a := New(ec)
	a.Message = fmt.Sprintf(format, args...)
	return a
}

// FromError wraps a generic error into an AppError with the given code.
// Errors that already are AppErrors are returned unchanged.
func FromError(ec *ErrorCode, err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return New(ec).Wrap(err)
}

// AddSuggestion appends a field suggestion (fluent)
func (a *AppError) AddSuggestion(field, message string) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.Suggestions = append(a.Suggestions, Suggestion{
		Field:   field,
		Message: message,
	})
	return a
}

func (a *AppError) Error() string {
	if a == nil {
		return "<nil>"
	}
	msg := a.Code + ": " + a.Message
	if a.HTTPStatus != 0 && a.ec == ErrorCodeBadStatus {
		msg = fmt.Sprintf("%s (status %d)", msg, a.HTTPStatus)
	}
	if a.cause != nil {
		return msg + ": " + a.cause.Error()
	}
	return msg
}

// WithStatus sets/overrides the HTTP status and returns the same AppError for chaining.
func (a *AppError) WithStatus(status int) *AppError {
	if a == nil {
		return New(ErrorCodeInternal).WithStatus(status)
	}
	a.HTTPStatus = status
	return a
}

// WithMessage overrides the message and returns the same AppError for chaining.
func (a *AppError) WithMessage(msg string) *AppError {
	if a == nil {
		return New(ErrorCodeInternal).WithMessage(msg)
	}
	a.Message = msg
	return a
}

// WithDetail sets a single detail value.
func (a *AppError) WithDetail(key string, val any) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	if a.Details == nil {
		a.Details = make(map[string]any)
	}
	a.Details[key] = val
	return a
}

// WithDetails merges m into the error details.
func (a *AppError) WithDetails(m map[string]any) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	if len(m) == 0 {
		return a
	}
	if a.Details == nil {
		a.Details = make(map[string]any, len(m))
	}
	for k, v := range m {
		a.Details[k] = v
	}
	return a
}

// Wrap sets the underlying cause and returns the same AppError.
func (a *AppError) Wrap(err error) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.cause = err
	return a
}

// Unwrap returns the underlying cause, allowing errors.Unwrap/Is/As to work.
func (a *AppError) Unwrap() error { return a.cause }

// Is matches another AppError by code so errors.Is(err, apperr.New(code)) works.
func (a *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || a == nil || t == nil {
		return false
	}
	return a.Code == t.Code
}

// IsCode reports whether err is an AppError carrying ec.
func IsCode(err error, ec *ErrorCode) bool {
	var ae *AppError
	if ec == nil || !errors.As(err, &ae) {
		return false
	}
	return ae.Code == ec.Code()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.HTTPStatus
	}
	return 0
}

// HasError returns true if the error is not nil and is not an empty AppError
func HasError(err error) bool {
	if err == nil {
		return false
	}
	if ae, ok := err.(*AppError); ok {
		return ae != nil && (ae.Code != "" || ae.Message != "")
	}
	return true
}
