package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to the OpenAI chat completions API, or any server
// compatible with it when a base URL is set.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a client authenticated with apiKey.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []Message, opts Options) (*ChatResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens: opts.MaxTokens,
	}
	if opts.Temperature != nil {
		// go-openai omits a zero temperature, so an explicit 0 is sent as
		// the smallest positive float32.
		req.Temperature = max(float32(*opts.Temperature), math.SmallestNonzeroFloat32)
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("response has no choices")
	}

	return &ChatResponse{
		Model: resp.Model,
		Message: Message{
			Role:    resp.Choices[0].Message.Role,
			Content: resp.Choices[0].Message.Content,
		},
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Ping lists models to verify the key and endpoint.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
