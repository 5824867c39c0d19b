package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// ErrEmptyAnswer is returned when the model replies with no text.
var ErrEmptyAnswer = errors.New("model returned an empty answer")

// Responder answers a single free-form question with one user message.
type Responder struct {
	client Client
	model  string
	opts   Options
	logger *slog.Logger
}

// NewResponder creates a Responder that queries model through client.
func NewResponder(client Client, model string, opts Options, logger *slog.Logger) *Responder {
	return &Responder{
		client: client,
		model:  model,
		opts:   opts,
		logger: logger,
	}
}

// Answer returns the model's reply to prompt, trimmed.
func (r *Responder) Answer(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := r.client.Chat(ctx, r.model, []Message{{Role: RoleUser, Content: prompt}}, r.opts)
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(resp.Message.Content)
	r.logger.Debug("language model answered",
		"model", r.model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}
