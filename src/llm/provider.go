package llm

import (
	"context"
	"log/slog"
)

// Provider identifies a chat-completion backend.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"

	// DefaultProvider is used when an unknown provider name is requested.
	DefaultProvider = ProviderOpenAI
)

// ParseProvider resolves a provider name. Unknown names fall back to
// DefaultProvider with a logged warning instead of failing; callers must not
// assume the request was serviced by the provider they asked for.
func ParseProvider(name string, logger *slog.Logger) Provider {
	switch Provider(name) {
	case ProviderOpenAI, ProviderDeepSeek:
		return Provider(name)
	default:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("unknown provider, falling back to default",
			"requested", name, "default", string(DefaultProvider))
		return DefaultProvider
	}
}

// StreamClient is the narrow transport contract the chat layer depends on:
// open a streaming completion request and return a lazy chunk stream.
type StreamClient interface {
	CreateChatCompletionStream(ctx context.Context, req *CompletionRequest) (Stream, error)
}
