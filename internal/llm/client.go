// Package llm provides the chat-completion clients backing the two synthesis
// stages, metadata enrichment, and preference analysis.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyPrompt is returned when a completion is requested with an empty user prompt.
	ErrEmptyPrompt = errors.New("llm: user prompt is empty")
	// ErrNoChoicesInResponse is returned when the API response contains no choices.
	ErrNoChoicesInResponse = errors.New("llm: no choices in response")
)

// CompletionClient is the search-augmented provider contract: free-text in,
// free-text out. Used by the retrieval stage, which tolerates any prose shape.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// StructuredClient is the structured-generation provider contract. The response
// is the raw JSON document the model produced; callers own schema validation.
type StructuredClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) ([]byte, error)
}
