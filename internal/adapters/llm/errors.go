package llm

import (
	"errors"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

// classifyGenAIError maps genai failures to CompletionError or TransportError.
func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.CompletionError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &domain.CompletionError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return &domain.TransportError{Err: err}
}

// classifyOpenAIError maps go-openai failures to CompletionError or TransportError.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.CompletionError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.CompletionError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return &domain.TransportError{Err: err}
}
