package domain

import "fmt"

// ConfigError signals operator misconfiguration. At startup it is fatal;
// during a request it maps to 500 because the client cannot fix it.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Message)
}

// NewConfigError builds a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// AuthError signals a missing or insufficient session. Maps to 401 on API
// endpoints and to a login redirect at the edge gate.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

func NewAuthError(format string, args ...any) *AuthError {
	return &AuthError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError signals a client-side problem with the request itself
// (missing file, oversized payload). Maps to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a backend I/O failure. The message is surfaced for
// diagnosability; callers must take care it never carries credentials.
type StorageError struct {
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("storage error: %s", e.Message)
}

func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(err error, format string, args ...any) *StorageError {
	return &StorageError{Message: fmt.Sprintf(format, args...), Err: err}
}
