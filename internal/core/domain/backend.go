package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// FailureKind enumerates the ways an embedding or language-model backend can fail.
type FailureKind string

const (
	FailureUnavailable       FailureKind = "unavailable"
	FailureTimeout           FailureKind = "timeout"
	FailureAuth              FailureKind = "auth"
	FailureQuota             FailureKind = "quota"
	FailureMalformedResponse FailureKind = "malformed_response"
	FailureUnknown           FailureKind = "unknown"
)

// BackendError is returned by every AI adapter.
// Callers branch on Kind instead of inspecting error strings.
type BackendError struct {
	Backend string
	Kind    FailureKind
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Backend, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError wraps err with a failure kind
func NewBackendError(backend string, kind FailureKind, err error) *BackendError {
	return &BackendError{Backend: backend, Kind: kind, Err: err}
}

// FailureKindOf extracts the failure kind from err.
// Errors that are not BackendErrors are classified from their cause.
func FailureKindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ClassifyTransportError(err)
}

// ClassifyTransportError maps context and network errors to a failure kind
func ClassifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return FailureUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return FailureUnavailable
	}
	return FailureUnknown
}

// ClassifyHTTPStatus maps an HTTP status from a provider API to a failure kind
func ClassifyHTTPStatus(status int) FailureKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAuth
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return FailureQuota
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return FailureTimeout
	case status >= 500:
		return FailureUnavailable
	default:
		return FailureUnknown
	}
}
