package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of session error.
type ErrorCode string

const (
	// ErrCodeInitialization indicates the identity provider could not be reached or is misconfigured.
	// Retryable by attaching again.
	ErrCodeInitialization ErrorCode = "initialization"
	// ErrCodeRefresh indicates the refresh token was rejected. Terminal for the session.
	ErrCodeRefresh ErrorCode = "refresh"
	// ErrCodeProfile indicates the user profile could not be loaded. Non-fatal.
	ErrCodeProfile ErrorCode = "profile"
	// ErrCodeLogout indicates the remote logout call failed. Local state is reset regardless.
	ErrCodeLogout ErrorCode = "logout"
	// ErrCodeUnauthenticated indicates an authenticated-only operation was called without a session.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeValidation indicates invalid input or configuration.
	ErrCodeValidation ErrorCode = "validation"
)

// ReloginMessage is the user-facing message attached to terminal refresh failures.
const ReloginMessage = "session expired, please sign in again"

// AppError represents a structured session error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrNotAuthenticated is returned synchronously when an authenticated-only
// operation is called without an authenticated session.
var ErrNotAuthenticated = &AppError{Code: ErrCodeUnauthenticated, Message: "not authenticated"}

// Initialization wraps a provider initialization failure.
func Initialization(cause error) *AppError {
	return Wrap(cause, ErrCodeInitialization, "identity provider initialization failed")
}

// Refresh wraps a rejected token refresh.
func Refresh(cause error) *AppError {
	return Wrap(cause, ErrCodeRefresh, ReloginMessage)
}

// ProfileLoad wraps a failed user profile fetch.
func ProfileLoad(cause error) *AppError {
	return Wrap(cause, ErrCodeProfile, "load user profile")
}

// Logout wraps a failed remote logout call.
func Logout(cause error) *AppError {
	return Wrap(cause, ErrCodeLogout, "remote logout failed")
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsInitialization checks if an error is an Initialization error.
func IsInitialization(err error) bool { return isCode(err, ErrCodeInitialization) }

// IsRefresh checks if an error is a Refresh error.
func IsRefresh(err error) bool { return isCode(err, ErrCodeRefresh) }

// IsProfileLoad checks if an error is a ProfileLoad error.
func IsProfileLoad(err error) bool { return isCode(err, ErrCodeProfile) }

// IsLogout checks if an error is a Logout error.
func IsLogout(err error) bool { return isCode(err, ErrCodeLogout) }

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool { return isCode(err, ErrCodeUnauthenticated) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// UserMessage returns the single-line message shown in the error banner.
// Refresh failures always map to the re-login message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code == ErrCodeRefresh {
			return ReloginMessage
		}
		return appErr.Error()
	}
	return err.Error()
}
