package inference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdiesu04/portfolio-chat/internal/reliability"
)

var (
	// ErrUnavailable covers transport failures and non-success responses.
	ErrUnavailable = errors.New("inference service unavailable")
	// ErrEmptyResponse is returned when the service produced no usable text.
	ErrEmptyResponse = errors.New("inference service returned empty response")
)

// SamplingParams are fixed per gateway and never varied per call.
type SamplingParams struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

// DefaultSamplingParams keeps answers conservative and grounded.
func DefaultSamplingParams() SamplingParams {
	return SamplingParams{Temperature: 0.3, TopP: 0.8, TopK: 40}
}

// UnavailableError carries the provider and, when known, the HTTP status.
type UnavailableError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s inference status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s inference: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Retryable reports whether a caller-side retry could plausibly succeed.
func (e *UnavailableError) Retryable() bool {
	if e.StatusCode == 0 {
		return reliability.IsRetryableTransportError(e.Err)
	}
	return reliability.IsRetryableHTTPStatus(e.StatusCode)
}

// IsRetryable reports whether err is a transient inference failure.
func IsRetryable(err error) bool {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return false
}

func checkText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
