package driven

import "context"

// LLMService generates the final answer from an assembled prompt.
// This is an optional service - when nil, queries return retrieved context
// without a generated answer.
type LLMService interface {
	// Answer produces a free-text answer for the given prompt.
	Answer(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
