// Package llmclient implements the streaming transport against an
// OpenAI-compatible chat-completions endpoint. It decodes the SSE byte
// framing into discrete chunks; retry policy belongs to the caller.
package llmclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/actionit/actionit/src/llm"
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	deepSeekBaseURL = "https://api.deepseek.com/v1"
	defaultTimeout  = 120 * time.Second
)

var _ llm.StreamClient = (*Client)(nil)

// Client is a chat-completions API client bound to one provider.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// New creates a new completion-service client. An unknown provider falls
// back to the default provider (logged by ParseProvider semantics at the
// config layer); an empty BaseURL resolves per provider.
func New(config Config) *Client {
	if config.Provider == "" {
		config.Provider = llm.DefaultProvider
	}
	if config.BaseURL == "" {
		switch config.Provider {
		case llm.ProviderDeepSeek:
			config.BaseURL = deepSeekBaseURL
		default:
			config.BaseURL = openAIBaseURL
		}
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm_client", "provider", string(config.Provider))

	// The overall client timeout must not cover the response body: streams
	// stay open for the whole generation. Bound only the time to headers;
	// body liveness is the caller's idle check.
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: config.Timeout,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		baseURL:    config.BaseURL,
	}
}

// Provider returns the provider this client is bound to.
func (c *Client) Provider() llm.Provider {
	return c.config.Provider
}

// CreateChatCompletionStream opens a streaming completion request and
// returns a lazy chunk stream. Non-2xx responses and empty bodies are
// surfaced as errors before any chunk is delivered.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *llm.CompletionRequest) (llm.Stream, error) {
	if c.config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	logger := c.logger.With("method", "CreateChatCompletionStream", "model", req.Model)
	logger.Debug("opening completion stream", "turns", len(req.Messages))

	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		logger.Error("received error response", "status_code", resp.StatusCode)
		return nil, c.handleError(resp)
	}

	reader := bufio.NewReader(resp.Body)
	if _, err := reader.Peek(1); err == io.EOF {
		resp.Body.Close()
		logger.Error("empty response body")
		return nil, ErrEmptyResponse
	}

	return newSSEStream(resp.Body, reader, logger), nil
}

// newRequest creates a new HTTP request with the appropriate headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// handleError processes error responses from the API.
func (c *Client) handleError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	var errResp llm.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			RequestID:  resp.Header.Get("X-Request-ID"),
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Type:       errResp.Error.Type,
		Message:    errResp.Error.Message,
		Code:       errResp.Error.Code,
		Param:      errResp.Error.Param,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}
}
