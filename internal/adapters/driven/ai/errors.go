package ai

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

// openAIErrorBody is the error envelope returned by OpenAI-compatible APIs
type openAIErrorBody struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// statusError converts a non-2xx provider response into a BackendError
func statusError(backend string, status int, body []byte) error {
	kind := domain.ClassifyHTTPStatus(status)

	var envelope openAIErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		if envelope.Error.Code == "insufficient_quota" {
			kind = domain.FailureQuota
		}
		return domain.NewBackendError(backend, kind,
			fmt.Errorf("status %d: %s (type: %s, code: %s)", status, envelope.Error.Message, envelope.Error.Type, envelope.Error.Code))
	}
	return domain.NewBackendError(backend, kind, fmt.Errorf("status %d", status))
}

// transportError classifies a failed round trip
func transportError(backend string, err error) error {
	return domain.NewBackendError(backend, domain.ClassifyTransportError(err), err)
}

// malformed reports an unparseable or incomplete response
func malformed(backend string, err error) error {
	return domain.NewBackendError(backend, domain.FailureMalformedResponse, err)
}
