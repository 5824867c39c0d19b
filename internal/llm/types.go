package llm

import "time"

// Roles used in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are sampling parameters. A nil Temperature or zero MaxTokens
// uses the provider default.
type Options struct {
	Temperature *float64
	MaxTokens   int
}

// ChatResponse is the provider-neutral reply. Wire format conversion
// happens in each provider.
type ChatResponse struct {
	Model   string
	Message Message

	InputTokens  int
	OutputTokens int

	// TotalDuration is populated when the provider reports it.
	TotalDuration time.Duration
}
