// Package llm defines the provider-neutral types and streaming primitives
// used to talk to chat-completion services.
package llm

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single role/content turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Metadata for message tracking
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CompletionRequest represents a request to the chat completions endpoint.
type CompletionRequest struct {
	Model       string     `json:"model"`
	Messages    []*Message `json:"messages"`
	Temperature *float64   `json:"temperature,omitempty"`
	MaxTokens   *int       `json:"max_tokens,omitempty"`
	Stream      bool       `json:"stream,omitempty"`
}

// Choice represents a single streamed completion choice.
type Choice struct {
	Index        int      `json:"index"`
	FinishReason string   `json:"finish_reason"`
	Delta        *Message `json:"delta,omitempty"`
}

// StreamChunk represents a single chunk in a streaming response.
type StreamChunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// DeltaContent returns the incremental text carried by the chunk, if any.
func (c *StreamChunk) DeltaContent() string {
	if len(c.Choices) > 0 && c.Choices[0].Delta != nil {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// Error represents an API error response body.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// ErrorResponse wraps an error from the API.
type ErrorResponse struct {
	Error Error `json:"error"`
}
