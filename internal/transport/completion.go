package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iksnae/agrichat/internal"
)

// ChatCompletionRequest is the body posted to the completions endpoint
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatMessage is one message of a completion request or response
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the subset of the completion response we read
type ChatCompletionResponse struct {
	ID      string   `json:"id,omitempty"`
	Object  string   `json:"object,omitempty"`
	Created int64    `json:"created,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

// Choice is a completion choice
type Choice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// ErrorResponse is the error body returned on failures
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError represents the error details
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}

// CompletionClient asks an OpenAI-compatible endpoint for the reply
type CompletionClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewCompletionClient creates a client. A zero timeout leaves the request bounded only by its context
func NewCompletionClient(endpoint, model string, timeout time.Duration) *CompletionClient {
	return &CompletionClient{
		endpoint: endpoint,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ internal.Responder = (*CompletionClient)(nil)

// Reply posts text as a single user message and returns choices[0].message.content.
// Any 2xx status counts as success.
// Every failure wraps internal.ErrTransport
func (c *CompletionClient) Reply(ctx context.Context, text string) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, &ChatCompletionRequest{
		Model:    c.model,
		Messages: []ChatMessage{{Role: "user", Content: text}},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: unexpected response format from API", internal.ErrTransport)
	}
	return resp.Choices[0].Message.Content, nil
}

// CreateChatCompletion sends a chat completion request
func (c *CompletionClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %w", internal.ErrTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", internal.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %w", internal.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", internal.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return nil, fmt.Errorf("%w: HTTP error! status: %d: %s", internal.ErrTransport, resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: HTTP error! status: %d", internal.ErrTransport, resp.StatusCode)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %w", internal.ErrTransport, err)
	}

	return &result, nil
}
