package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenRouterClient talks to the OpenRouter chat-completions API. It is the
// only adapter that authenticates, caps output tokens and extracts the
// reasoning field.
type OpenRouterClient struct {
	apiURL         string
	apiKey         string
	maxTokens      int
	defaultTimeout time.Duration
}

// NewOpenRouterClient builds an OpenRouter adapter.
func NewOpenRouterClient(apiURL, apiKey string, maxTokens int, defaultTimeout time.Duration) *OpenRouterClient {
	return &OpenRouterClient{
		apiURL:         apiURL,
		apiKey:         apiKey,
		maxTokens:      maxTokens,
		defaultTimeout: defaultTimeout,
	}
}

type openRouterRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// chatCompletionResponse covers the subset of the OpenAI-style response both
// adapters read.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

// QueryModel issues one completion request against OpenRouter.
func (c *OpenRouterClient) QueryModel(ctx context.Context, model string, messages []Message, timeout time.Duration) (*QueryResult, error) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	payload := openRouterRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	}

	body, err := postChatCompletion(ctx, c.apiURL, payload, timeout, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
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

	message := apiResponse.Choices[0].Message
	return &QueryResult{
		Content:   message.Content,
		Reasoning: message.Reasoning,
	}, nil
}

// QueryModelsParallel fans out across models with the adapter's default
// per-call timeout.
func (c *OpenRouterClient) QueryModelsParallel(ctx context.Context, models []string, messages []Message) FanOutResult {
	return fanOut(ctx, c, models, messages, c.defaultTimeout)
}

// postChatCompletion performs the HTTP round trip shared by both adapters.
// Any non-200 status, transport error or timeout is returned as an error.
func postChatCompletion(ctx context.Context, url string, payload any, timeout time.Duration, headers map[string]string) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(bodyBytes), 200))
	}
	return bodyBytes, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
