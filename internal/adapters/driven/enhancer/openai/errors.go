package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// APIError is a non-2xx OpenAI response.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Param      string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Type != "" {
		return fmt.Sprintf("openai error (status %d, %s): %s", e.StatusCode, e.Type, msg)
	}
	return fmt.Sprintf("openai error (status %d): %s", e.StatusCode, msg)
}

// Unwrap maps 429 onto domain.ErrRateLimited.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	return nil
}

// errorEnvelope is the OpenAI error body: {"error": {...}}.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
		Param   any    `json:"param"`
	} `json:"error"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		apiErr.Code = stringify(env.Error.Code)
		apiErr.Param = stringify(env.Error.Param)
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ExtractDiagnostic recognises *APIError anywhere in the chain. The tag
// is the error code when present, else the error type.
func ExtractDiagnostic(err error) (domain.Diagnostic, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return domain.Diagnostic{}, false
	}
	tag := apiErr.Code
	if tag == "" {
		tag = apiErr.Type
	}
	return domain.Diagnostic{
		Status:  apiErr.StatusCode,
		Tag:     tag,
		Summary: apiErr.Message,
	}, true
}
