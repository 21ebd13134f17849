package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DeepSeekClient talks to an OpenAI-compatible chat completions endpoint.
type DeepSeekClient struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewDeepSeekClient(apiKey, apiURL, model string, logger *zap.Logger) *DeepSeekClient {
	return &DeepSeekClient{
		apiKey:      apiKey,
		apiURL:      apiURL,
		model:       model,
		temperature: 0.7,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
		logger:      logger,
	}
}

// chatRequest represents a request to the chat completions API
type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *DeepSeekClient) Name() string { return "deepseek" }

func (c *DeepSeekClient) Complete(ctx context.Context, messages []Message, jsonMode bool) (content string, err error) {
	start := time.Now()
	defer func() {
		aiRequests.WithLabelValues(c.Name(), "complete", outcome(err)).Inc()
		aiRequestDuration.WithLabelValues(c.Name(), "complete").Observe(time.Since(start).Seconds())
	}()

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	}
	if jsonMode {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Chat completion failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return "", fmt.Errorf("%w: API request failed with status %d", ErrUnavailable, resp.StatusCode)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from API", ErrUnavailable)
	}
	return result.Choices[0].Message.Content, nil
}
