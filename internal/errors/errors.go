package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error. Every error crossing
// a component boundary is resolved to one of these kinds first; raw provider
// or driver errors never leak untyped into guard or store logic.
type ErrorCode string

const (
	// ErrCodeConfig indicates missing or invalid required configuration.
	// Fatal at startup.
	ErrCodeConfig ErrorCode = "config"
	// ErrCodeAuth indicates a credential or signup failure. The message is
	// user-displayable and surfaced to the sign-in/sign-up caller.
	ErrCodeAuth ErrorCode = "auth"
	// ErrCodeSessionResolution indicates a network or provider failure while
	// checking a session. Degrades to unauthenticated, logged, never a hard
	// request failure.
	ErrCodeSessionResolution ErrorCode = "session_resolution"
	// ErrCodeProfileLookup indicates an authenticated subject with no
	// matching profile row: a data-integrity fault that must propagate
	// rather than default role or theme.
	ErrCodeProfileLookup ErrorCode = "profile_lookup"
	// ErrCodePreferencePersist indicates a best-effort preference write
	// failed. Logged; optimistic local state is not rolled back.
	ErrCodePreferencePersist ErrorCode = "preference_persist"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError is a structured application error with a code, a human-readable
// message, and an optional cause. It supports errors.Is / errors.As through
// Unwrap.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Config creates a configuration error.
func Config(message string) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: message}
}

// Configf creates a configuration error with a formatted message.
func Configf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: fmt.Sprintf(format, args...)}
}

// Auth creates a credential/signup error with a user-displayable message.
func Auth(message string) *AppError {
	return &AppError{Code: ErrCodeAuth, Message: message}
}

// Authf creates a credential/signup error with a formatted message.
func Authf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeAuth, Message: fmt.Sprintf(format, args...)}
}

// SessionResolution wraps a provider/transport failure seen while resolving
// a session.
func SessionResolution(err error) *AppError {
	return &AppError{Code: ErrCodeSessionResolution, Message: "session resolution failed", Cause: err}
}

// ProfileLookup creates a profile-lookup fault for the given subject.
func ProfileLookup(userID string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeProfileLookup,
		Message: fmt.Sprintf("no profile row for authenticated subject %q", userID),
		Cause:   cause,
	}
}

// PreferencePersist wraps a failed best-effort preference write.
func PreferencePersist(err error) *AppError {
	return &AppError{Code: ErrCodePreferencePersist, Message: "persist preference failed", Cause: err}
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// NotFound creates a not-found error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Internal creates an internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with a code and message, preserving the cause.
// Returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// isCode checks whether err carries the given code anywhere in its chain.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsConfig(err error) bool            { return isCode(err, ErrCodeConfig) }
func IsAuth(err error) bool              { return isCode(err, ErrCodeAuth) }
func IsSessionResolution(err error) bool { return isCode(err, ErrCodeSessionResolution) }
func IsProfileLookup(err error) bool     { return isCode(err, ErrCodeProfileLookup) }
func IsPreferencePersist(err error) bool { return isCode(err, ErrCodePreferencePersist) }
func IsValidation(err error) bool        { return isCode(err, ErrCodeValidation) }
func IsNotFound(err error) bool          { return isCode(err, ErrCodeNotFound) }
func IsInternal(err error) bool          { return isCode(err, ErrCodeInternal) }

// GetCode returns the ErrorCode carried by err, or empty string when err is
// not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
