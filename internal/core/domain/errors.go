package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageFailure indicates the content store or interaction log could not be reached
	ErrStorageFailure = errors.New("storage failure")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an optional backend is not configured
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrLockNotAcquired indicates a scheduled job was skipped because another instance holds its lock
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// ErrInvalidImage indicates an attached image is not valid base64.
// It matches ErrInvalidInput with errors.Is.
var ErrInvalidImage = fmt.Errorf("%w: invalid image data", ErrInvalidInput)
