package domain

import (
	"errors"
	"fmt"
	"syscall"
)

// Sentinel errors
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheExpired indicates the cached entry has expired
	ErrCacheExpired = errors.New("cache entry expired")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrNoManifests indicates no Cargo.toml was found under the given paths
	ErrNoManifests = errors.New("no manifests found")

	// ErrVerifyFailed indicates the rendered manifest is not valid TOML
	ErrVerifyFailed = errors.New("rendered manifest failed verification")

	// ErrNotFormatted indicates a manifest differs from its canonical form
	ErrNotFormatted = errors.New("manifest is not canonically formatted")

	// ErrWriteFailed indicates writing output failed
	ErrWriteFailed = errors.New("write failed")

	// ErrNotRepository indicates the path is not inside a git repository
	ErrNotRepository = errors.New("not a git repository")
)

// ManifestError is a failure tied to one manifest file.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// NewManifestError creates a new ManifestError
func NewManifestError(path string, err error) *ManifestError {
	return &ManifestError{
		Path: path,
		Err:  err,
	}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if a filesystem error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	// Transient conditions seen on rename while editors or indexers hold the file
	switch {
	case errors.Is(err, syscall.EBUSY),
		errors.Is(err, syscall.EAGAIN),
		errors.Is(err, syscall.ETXTBSY),
		errors.Is(err, syscall.EINTR):
		return true
	}

	return errors.Is(err, ErrTimeout)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
