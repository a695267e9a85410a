package chat

import (
	"context"
	"errors"

	"github.com/abdiesu04/portfolio-chat/internal/inference"
	"github.com/abdiesu04/portfolio-chat/internal/knowledge"
	"github.com/abdiesu04/portfolio-chat/internal/prompt"
)

// ErrorKind is the stable, caller-visible failure category of a turn.
type ErrorKind string

const (
	ErrorDataSource           ErrorKind = "data_source_error"
	ErrorPromptTooLarge       ErrorKind = "prompt_too_large"
	ErrorInferenceUnavailable ErrorKind = "inference_unavailable"
	ErrorEmptyResponse        ErrorKind = "empty_response"
	ErrorCanceled             ErrorKind = "canceled"
	ErrorInvalidMessage       ErrorKind = "invalid_message"
	ErrorInternal             ErrorKind = "internal_error"
)

// Result is returned for every message. Failures never carry raw error text.
type Result struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Error   ErrorKind `json:"error,omitempty"`
}

func success(message string) Result {
	return Result{Success: true, Message: message}
}

func failure(kind ErrorKind) Result {
	return Result{Success: false, Message: friendlyMessage(kind), Error: kind}
}

func friendlyMessage(kind ErrorKind) string {
	switch kind {
	case ErrorInvalidMessage:
		return "Please type a question first."
	case ErrorPromptTooLarge:
		return "That question is too long for me to answer. Please try a shorter one."
	case ErrorCanceled:
		return "The request was cancelled before I could answer."
	default:
		return "Sorry, I encountered an error. Please try again."
	}
}

// classify maps an internal error onto its ErrorKind.
func classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCanceled
	case errors.Is(err, knowledge.ErrDataSource):
		return ErrorDataSource
	case errors.Is(err, prompt.ErrPromptTooLarge):
		return ErrorPromptTooLarge
	case errors.Is(err, inference.ErrEmptyResponse):
		return ErrorEmptyResponse
	case errors.Is(err, inference.ErrUnavailable):
		return ErrorInferenceUnavailable
	default:
		return ErrorInternal
	}
}
