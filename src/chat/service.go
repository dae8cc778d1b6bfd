package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/actionit/actionit/src/llm"
	"github.com/actionit/actionit/src/storage"
	"github.com/google/uuid"
)

// Service drives one conversation turn end to end: persist the user
// message, stream the assistant reply, upsert it in place as it grows, and
// fire title synthesis after the first exchange.
//
// Callers must not issue a second Send for the same conversation while one
// is in flight; the store provides no cross-client mutual exclusion.
type Service struct {
	gateway    *Gateway
	client     llm.StreamClient
	titles     *TitleSynthesizer
	transcript *Transcript
	logger     *slog.Logger

	model       string
	temperature float64
	maxTokens   int
	idleTimeout time.Duration
}

// ServiceConfig configures a chat Service.
type ServiceConfig struct {
	Gateway    *Gateway
	Client     llm.StreamClient
	Logger     *slog.Logger
	Transcript *Transcript // optional local overlay kept in sync

	Model       string
	TitleModel  string // defaults to Model
	Temperature float64
	MaxTokens   int
	IdleTimeout time.Duration // no-delta window treated as transport error
}

// NewService wires a Service from its collaborators.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	titleModel := cfg.TitleModel
	if titleModel == "" {
		titleModel = cfg.Model
	}
	return &Service{
		gateway:     cfg.Gateway,
		client:      cfg.Client,
		titles:      NewTitleSynthesizer(cfg.Client, cfg.Gateway, titleModel, logger),
		transcript:  cfg.Transcript,
		logger:      logger.With("component", "chat_service"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		idleTimeout: cfg.IdleTimeout,
	}
}

// Send submits user text into the conversation and streams the assistant
// reply, invoking onDelta for each incremental fragment. It returns the
// persisted assistant message.
func (s *Service) Send(ctx context.Context, conversationID, text string, onDelta func(string)) (*storage.Message, error) {
	conv, err := s.gateway.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	localID := uuid.New().String()
	if s.transcript != nil {
		s.transcript.AppendPending(localID, llm.RoleUser, text)
	}

	userMsg, err := s.gateway.SendMessage(ctx, conversationID, text, llm.RoleUser, "")
	if err != nil {
		if s.transcript != nil {
			s.transcript.Fail(localID)
		}
		return nil, err
	}
	if s.transcript != nil {
		s.transcript.Confirm(localID, *userMsg)
	}

	history, err := s.gateway.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	firstExchange := len(history) == 1

	final, err := s.streamReply(ctx, conversationID, history, onDelta)
	if err != nil {
		return nil, err
	}

	if firstExchange && conv.Title == storage.DefaultConversationTitle {
		// Fire-and-forget; detached from the request context so a returned
		// Send does not cancel it.
		go s.titles.Synthesize(context.Background(), conversationID, text, final.Content)
	}

	return final, nil
}

// Retry re-submits a previously failed message under its original local
// identifier. The identifier collision routes the send through the
// streaming-upsert path, so a retry that raced a slow success updates the
// existing row instead of duplicating it.
func (s *Service) Retry(ctx context.Context, conversationID, messageID, text string) (*storage.Message, error) {
	msg, err := s.gateway.SendMessage(ctx, conversationID, text, llm.RoleUser, messageID)
	if err != nil {
		if s.transcript != nil {
			s.transcript.Fail(messageID)
		}
		return nil, err
	}
	if s.transcript != nil {
		s.transcript.Confirm(messageID, *msg)
	}
	return msg, nil
}

// streamReply opens the model stream over the conversation history and
// persists the growing reply under a client-chosen message ID.
func (s *Service) streamReply(ctx context.Context, conversationID string, history []storage.Message, onDelta func(string)) (*storage.Message, error) {
	turns := make([]*llm.Message, 0, len(history))
	for i := range history {
		turns = append(turns, &llm.Message{
			Role:    history[i].Role,
			Content: history[i].Content,
		})
	}

	req := &llm.CompletionRequest{
		Model:    s.model,
		Messages: turns,
	}
	if s.temperature > 0 {
		temp := s.temperature
		req.Temperature = &temp
	}
	if s.maxTokens > 0 {
		maxTokens := s.maxTokens
		req.MaxTokens = &maxTokens
	}

	assistantID := uuid.New().String()
	if s.transcript != nil {
		s.transcript.BeginStreaming(assistantID, llm.RoleAssistant)
	}

	var partial strings.Builder
	session := llm.StartSession(ctx, s.client, req, llm.SessionConfig{
		MessageID:   assistantID,
		IdleTimeout: s.idleTimeout,
		Logger:      s.logger,
		Callbacks: llm.SessionCallbacks{
			OnDelta: func(delta string) {
				partial.WriteString(delta)
				if s.transcript != nil {
					s.transcript.AppendDelta(assistantID, delta)
				}
				if onDelta != nil {
					onDelta(delta)
				}
				// Persist the partial under the same client ID: the first
				// delta inserts, every later one updates in place.
				if _, err := s.gateway.SendMessage(ctx, conversationID, partial.String(), llm.RoleAssistant, assistantID); err != nil {
					s.logger.Warn("failed to upsert streaming message",
						"conversation_id", conversationID, "message_id", assistantID, "error", err)
				}
			},
		},
	})

	full, err := session.Wait(ctx)
	if session.Canceled() {
		return nil, context.Canceled
	}
	if err != nil {
		if s.transcript != nil {
			s.transcript.Fail(assistantID)
		}
		return nil, fmt.Errorf("assistant stream failed: %w", err)
	}

	final, err := s.gateway.SendMessage(ctx, conversationID, full, llm.RoleAssistant, assistantID)
	if err != nil {
		if s.transcript != nil {
			s.transcript.Fail(assistantID)
		}
		return nil, err
	}
	if s.transcript != nil {
		s.transcript.Confirm(assistantID, *final)
	}
	return final, nil
}

// Transcript returns the service's local overlay, if configured.
func (s *Service) Transcript() *Transcript {
	return s.transcript
}
