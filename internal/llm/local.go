package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LocalClient talks to a local or self-hosted OpenAI-compatible endpoint
// (Ollama, vLLM, TGI). No API key, no max-token cap, and the response carries
// no reasoning field.
type LocalClient struct {
	apiURL         string
	defaultTimeout time.Duration
}

// NewLocalClient builds an adapter for an OpenAI-compatible local endpoint.
// apiURL is the full chat-completions URL.
func NewLocalClient(apiURL string, defaultTimeout time.Duration) *LocalClient {
	return &LocalClient{apiURL: apiURL, defaultTimeout: defaultTimeout}
}

type localRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// QueryModel issues one completion request against the local endpoint.
func (c *LocalClient) QueryModel(ctx context.Context, model string, messages []Message, timeout time.Duration) (*QueryResult, error) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	payload := localRequest{Model: model, Messages: messages}

	body, err := postChatCompletion(ctx, c.apiURL, payload, timeout, nil)
	if err != nil {
		return nil, err
	}

	var apiResponse chatCompletionResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &QueryResult{Content: apiResponse.Choices[0].Message.Content}, nil
}

// QueryModelsParallel fans out across models with the adapter's default
// per-call timeout.
func (c *LocalClient) QueryModelsParallel(ctx context.Context, models []string, messages []Message) FanOutResult {
	return fanOut(ctx, c, models, messages, c.defaultTimeout)
}
