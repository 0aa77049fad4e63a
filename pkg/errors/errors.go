package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrCanceled     ErrorCode = "CANCELED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Changeset errors
	ErrInvalidSpec        ErrorCode = "INVALID_SPEC"
	ErrBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrBackendResponse    ErrorCode = "BACKEND_RESPONSE"

	// Packaging errors
	ErrUnmappableItem      ErrorCode = "UNMAPPABLE_ITEM"
	ErrMissingBackupSource ErrorCode = "MISSING_BACKUP_SOURCE"
	ErrPackagingFailed     ErrorCode = "PACKAGING_FAILED"
	ErrVerifyFailed        ErrorCode = "VERIFY_FAILED"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileCreate   ErrorCode = "FILE_CREATE"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// ChangepackError represents a structured error with code and details
type ChangepackError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ChangepackError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ChangepackError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ChangepackError) Is(target error) bool {
	var targetErr *ChangepackError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ChangepackError with the given code and message
func New(code ErrorCode, message string) *ChangepackError {
	return &ChangepackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ChangepackError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ChangepackError {
	return &ChangepackError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ChangepackError
func Wrap(err error, code ErrorCode, message string) *ChangepackError {
	if err == nil {
		return nil
	}
	return &ChangepackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ChangepackError {
	if err == nil {
		return nil
	}
	return &ChangepackError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Stage wraps err with the name of the pipeline stage that failed. Errors that
// already carry a code keep it so callers can still match on the root cause.
func Stage(err error, stage string) error {
	if err == nil {
		return nil
	}
	code := GetErrorCode(err)
	if code == ErrUnknown {
		code = ErrInternal
	}
	return Wrapf(err, code, "%s failed", stage).WithDetail("stage", stage)
}

// WithDetail adds a detail to the error
func (e *ChangepackError) WithDetail(key string, value interface{}) *ChangepackError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *ChangepackError) WithDetails(details map[string]interface{}) *ChangepackError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var cpErr *ChangepackError
	if errors.As(err, &cpErr) {
		return cpErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ChangepackError
func GetErrorCode(err error) ErrorCode {
	var cpErr *ChangepackError
	if errors.As(err, &cpErr) {
		return cpErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ChangepackError
func GetErrorDetails(err error) map[string]interface{} {
	var cpErr *ChangepackError
	if errors.As(err, &cpErr) {
		return cpErr.Details
	}
	return nil
}
