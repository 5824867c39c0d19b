// Package llm provides language model clients used as the assistant's
// last fallback for open-ended questions.
package llm

import "context"

// Client is the interface that all LLM providers implement.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, model string, messages []Message, opts Options) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
