package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/actionit/actionit/src/llm"
)

const (
	// titleExcerptLimit caps how much of each turn is quoted in the
	// summarization prompt.
	titleExcerptLimit = 200

	titleTimeout = 30 * time.Second
)

// TitleSynthesizer derives a short conversation title from the first
// exchange. All failures are logged and swallowed; title synthesis never
// blocks or breaks the main chat flow.
type TitleSynthesizer struct {
	client  llm.StreamClient
	gateway *Gateway
	model   string
	logger  *slog.Logger
}

// NewTitleSynthesizer creates a synthesizer using the given model.
func NewTitleSynthesizer(client llm.StreamClient, gateway *Gateway, model string, logger *slog.Logger) *TitleSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TitleSynthesizer{
		client:  client,
		gateway: gateway,
		model:   model,
		logger:  logger.With("component", "title_synthesizer"),
	}
}

// Synthesize issues a one-shot completion over excerpts of the first
// exchange and persists the cleaned result. Fire-and-forget: errors are
// logged only.
func (t *TitleSynthesizer) Synthesize(ctx context.Context, conversationID, userText, assistantText string) {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	prompt := "Summarize this exchange into a 3-5 word title. Reply with the title only.\n\n" +
		"User: " + excerpt(userText, titleExcerptLimit) + "\n" +
		"Assistant: " + excerpt(assistantText, titleExcerptLimit)

	req := &llm.CompletionRequest{
		Model: t.model,
		Messages: []*llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
	}

	stream, err := t.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		t.logger.Warn("title completion failed", "conversation_id", conversationID, "error", err)
		return
	}

	raw, err := llm.CollectContent(stream)
	if err != nil {
		t.logger.Warn("title stream failed", "conversation_id", conversationID, "error", err)
		return
	}

	title := CleanTitle(raw)
	if title == "" {
		t.logger.Warn("title synthesis produced empty result", "conversation_id", conversationID)
		return
	}

	if err := t.gateway.UpdateConversationTitle(ctx, conversationID, title); err != nil {
		t.logger.Warn("failed to persist title", "conversation_id", conversationID, "error", err)
		return
	}
	t.logger.Debug("conversation titled", "conversation_id", conversationID, "title", title)
}

// CleanTitle strips surrounding quote characters and a leading "Title:"
// label from a model-produced title.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, "\"'“”‘’")
	for _, label := range []string{"Title:", "title:"} {
		if strings.HasPrefix(title, label) {
			title = strings.TrimSpace(strings.TrimPrefix(title, label))
			break
		}
	}
	title = strings.Trim(title, "\"'“”‘’")
	// Keep single-line
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	return title
}

// excerpt truncates s to at most limit bytes on a rune boundary.
func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
