// Package errors defines the application error taxonomy shared by the
// conversation engine and the transport.
package errors

import (
	stderrors "errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Translation keys of user facing messages.
const (
	KeyValidation = "errors.validation"
	KeyDatabase   = "errors.database"
	KeyExternal   = "errors.external"
	KeyState      = "errors.state"
	KeyRateLimit  = "errors.rate_limit"
	KeyGeneric    = "errors.generic"
)

type AppError struct {
	Code      string
	Message   string
	UserKey   string
	Severity  Severity
	Retryable bool
	cause     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// As reports whether err carries an AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:      "E100",
		Message:   msg,
		UserKey:   KeyValidation,
		Severity:  SeverityLow,
		Retryable: false,
	}
}

func NewDatabaseError(op string, cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:      "E200",
		Message:   fmt.Sprintf("Database error: %s: %s", op, underlyingMsg),
		UserKey:   KeyDatabase,
		Severity:  SeverityHigh,
		Retryable: true,
		cause:     cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:      "E300",
		Message:   fmt.Sprintf("External API error: %s", apiName),
		UserKey:   KeyExternal,
		Severity:  SeverityMedium,
		Retryable: true,
		cause:     cause,
	}
}

func NewStateError(msg string, cause error) *AppError {
	return &AppError{
		Code:      "E400",
		Message:   msg,
		UserKey:   KeyState,
		Severity:  SeverityMedium,
		Retryable: true,
		cause:     cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:      "E500",
		Message:   fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserKey:   KeyRateLimit,
		Severity:  SeverityLow,
		Retryable: false,
	}
}
