package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sopforge/sop-engine/pkg/models"
)

// ErrNoAPIKey is returned by the factory when neither the requesting user
// nor the server has an upstream credential configured.
var ErrNoAPIKey = errors.New("no upstream API key configured")

// Error is a structured upstream failure carrying the classified
// client-facing error code.
type Error struct {
	Code    models.ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Classification tables. Upstream SDKs surface failures as unstructured
// messages, so the mapping to the closed code set is a best-effort substring
// match. Patterns are matched against the lower-cased error text.
var (
	quotaPatterns = []string{
		"429",
		"quota",
		"resource_exhausted",
		"rate limit",
		"rate_limit",
		"overloaded",
		"too many requests",
	}

	authPatterns = []string{
		"api_key_invalid",
		"invalid api key",
		"invalid x-api-key",
		"401",
		"403",
		"unauthorized",
		"authentication_error",
		"permission_error",
		"incorrect api key",
	}
)

// Classify maps an upstream failure onto the closed error-code set. Already
// classified errors pass through unchanged; unmatched failures default to
// GENERATION_FAILED.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	lower := strings.ToLower(err.Error())

	for _, p := range quotaPatterns {
		if strings.Contains(lower, p) {
			return &Error{Code: models.ErrCodeAPILimitReached, Message: "upstream usage limit reached", Cause: err}
		}
	}
	for _, p := range authPatterns {
		if strings.Contains(lower, p) {
			return &Error{Code: models.ErrCodeInvalidAPIKey, Message: "upstream rejected the API key", Cause: err}
		}
	}

	return &Error{Code: models.ErrCodeGenerationFailed, Message: "generation failed", Cause: err}
}

// HTTPStatus maps an error code to the status used for pre-stream
// structured error responses.
func HTTPStatus(code models.ErrorCode) int {
	switch code {
	case models.ErrCodeAPILimitReached:
		return http.StatusTooManyRequests
	case models.ErrCodeInvalidAPIKey:
		return http.StatusUnauthorized
	case models.ErrCodeNoAPIKey:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
