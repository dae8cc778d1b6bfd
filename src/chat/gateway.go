// Package chat orchestrates conversation persistence, streaming assistant
// replies, and message deduplication over the storage and llm layers.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/actionit/actionit/src/llm"
	"github.com/actionit/actionit/src/storage"
	"github.com/google/uuid"
)

// DefaultDedupWindow is the trailing window inside which an identical send
// with no client message ID is treated as an accidental duplicate.
const DefaultDedupWindow = 5 * time.Second

// Gateway exposes identity-scoped CRUD over conversations and messages.
// Every operation resolves the caller's identity first and treats ownership
// mismatches as not-found.
type Gateway struct {
	db          storage.ExecQuerier
	identity    Identity
	logger      *slog.Logger
	dedupWindow time.Duration
}

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	DB       storage.ExecQuerier
	Identity Identity
	Logger   *slog.Logger

	// DedupWindow overrides DefaultDedupWindow when positive.
	DedupWindow time.Duration
}

// NewGateway creates a gateway over the given store and identity source.
func NewGateway(cfg GatewayConfig) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.DedupWindow
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Gateway{
		db:          cfg.DB,
		identity:    cfg.Identity,
		logger:      logger.With("component", "chat_gateway"),
		dedupWindow: window,
	}
}

// ownedConversation resolves the caller's identity and loads the
// conversation, verifying ownership. Both "does not exist" and "belongs to
// someone else" come back as ErrConversationNotFound.
func (g *Gateway) ownedConversation(ctx context.Context, conversationID string) (*storage.Conversation, string, error) {
	userID, err := g.identity.UserID(ctx)
	if err != nil {
		return nil, "", err
	}

	conv, err := storage.GetConversationByID(ctx, g.db, conversationID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv == nil || conv.UserID != userID {
		return nil, "", ErrConversationNotFound
	}
	return conv, userID, nil
}

// GetConversation loads a single conversation owned by the caller.
func (g *Gateway) GetConversation(ctx context.Context, conversationID string) (*storage.Conversation, error) {
	conv, _, err := g.ownedConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the caller's conversations, newest-updated
// first.
func (g *Gateway) ListConversations(ctx context.Context) ([]storage.Conversation, error) {
	userID, err := g.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return storage.ListConversationsByUser(ctx, g.db, userID)
}

// CreateConversation inserts a conversation owned by the caller. An empty
// title gets the default; an empty projectID means no project association.
func (g *Gateway) CreateConversation(ctx context.Context, title, projectID string) (*storage.Conversation, error) {
	userID, err := g.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}

	conv := &storage.Conversation{
		UserID: userID,
		Title:  title,
	}
	if projectID != "" {
		conv.ProjectID = &projectID
	}
	if err := storage.CreateConversation(ctx, g.db, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// DeleteConversation removes a conversation and all its messages, messages
// first. Auth and ownership failures are returned as errors; store write
// failures are logged and surfaced through the boolean so callers must
// check the result. If the message delete fails, the conversation row is
// left in place.
func (g *Gateway) DeleteConversation(ctx context.Context, conversationID string) (bool, error) {
	_, _, err := g.ownedConversation(ctx, conversationID)
	if err != nil {
		return false, err
	}

	if err := storage.DeleteMessagesByConversation(ctx, g.db, conversationID); err != nil {
		g.logger.Error("failed to delete conversation messages", "conversation_id", conversationID, "error", err)
		return false, nil
	}
	if err := storage.DeleteConversation(ctx, g.db, conversationID); err != nil {
		g.logger.Error("failed to delete conversation row", "conversation_id", conversationID, "error", err)
		return false, nil
	}
	return true, nil
}

// GetMessages returns the conversation's messages ordered ascending by
// timestamp, after verifying ownership of the parent conversation.
func (g *Gateway) GetMessages(ctx context.Context, conversationID string) ([]storage.Message, error) {
	if _, _, err := g.ownedConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return storage.GetMessagesByConversationID(ctx, g.db, conversationID)
}

// SendMessage persists one message into the conversation, routing through
// the deduplication guard:
//
//  1. A clientMessageID naming an existing row in this conversation turns
//     the send into an in-place content update (streaming upsert), not a
//     new row. A collision with a row in any other conversation is
//     rejected as not-found.
//  2. With no clientMessageID, an identical message from the same role in
//     the same conversation inside the dedup window is absorbed: the
//     returned message is transient and never written.
//  3. Otherwise a new row is inserted under the provided or a generated ID.
//
// Successful writes bump the conversation's updated_at.
func (g *Gateway) SendMessage(ctx context.Context, conversationID, content, role, clientMessageID string) (*storage.Message, error) {
	_, userID, err := g.ownedConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if clientMessageID != "" {
		existing, err := storage.GetMessageByID(ctx, g.db, clientMessageID)
		if err != nil {
			return nil, fmt.Errorf("failed to check message existence: %w", err)
		}
		if existing != nil {
			// Identifier collisions are global, so the colliding row may
			// live in a conversation the caller does not own. Only the
			// ownership-verified conversation's own messages may be
			// updated through this path; anything else reads as not-found.
			if existing.ConversationID != conversationID {
				return nil, ErrConversationNotFound
			}
			if err := storage.UpdateMessageContent(ctx, g.db, clientMessageID, content); err != nil {
				return nil, fmt.Errorf("failed to update streaming message: %w", err)
			}
			if err := storage.TouchConversation(ctx, g.db, conversationID, now); err != nil {
				return nil, fmt.Errorf("failed to touch conversation: %w", err)
			}
			return storage.GetMessageByID(ctx, g.db, clientMessageID)
		}
		// Fall through to a normal insert under the client-chosen ID.
	} else {
		dup, err := storage.FindRecentDuplicate(ctx, g.db, conversationID, role, content, now.Add(-g.dedupWindow))
		if err != nil {
			return nil, fmt.Errorf("failed to probe for duplicates: %w", err)
		}
		if dup != nil {
			g.logger.Debug("absorbing duplicate send",
				"conversation_id", conversationID, "role", role, "duplicate_of", dup.ID)
			// Transient, never persisted; exists only so the caller has
			// something to render.
			return &storage.Message{
				ID:             uuid.New().String(),
				ConversationID: conversationID,
				UserID:         userID,
				Role:           role,
				Content:        content,
				IsSystem:       role == llm.RoleSystem,
				CreatedAt:      now,
			}, nil
		}
	}

	msg := &storage.Message{
		ID:             clientMessageID,
		ConversationID: conversationID,
		UserID:         userID,
		Role:           role,
		Content:        content,
		IsSystem:       role == llm.RoleSystem,
		CreatedAt:      now,
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if err := storage.CreateMessage(ctx, g.db, msg); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	if err := storage.TouchConversation(ctx, g.db, conversationID, now); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}
	return msg, nil
}

// UpdateMessageContent overwrites a message's content in place, returning
// the updated message. Returns (nil, nil) when no message with that ID
// exists; callers must check the result rather than rely on an error.
func (g *Gateway) UpdateMessageContent(ctx context.Context, messageID, content string) (*storage.Message, error) {
	msg, err := storage.GetMessageByID(ctx, g.db, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	if msg == nil {
		return nil, nil
	}
	if _, _, err := g.ownedConversation(ctx, msg.ConversationID); err != nil {
		return nil, err
	}

	if err := storage.UpdateMessageContent(ctx, g.db, messageID, content); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	msg.Content = content
	return msg, nil
}

// AssignConversationToProject associates the conversation with a project.
// An empty projectID is a deliberate alias for "detach from project", not
// an invalid identifier.
func (g *Gateway) AssignConversationToProject(ctx context.Context, conversationID, projectID string) error {
	if _, _, err := g.ownedConversation(ctx, conversationID); err != nil {
		return err
	}

	var pid *string
	if projectID != "" {
		pid = &projectID
	}
	if err := storage.UpdateConversationProject(ctx, g.db, conversationID, pid); err != nil {
		return fmt.Errorf("failed to assign conversation to project: %w", err)
	}
	return nil
}

// UpdateConversationTitle renames the conversation.
func (g *Gateway) UpdateConversationTitle(ctx context.Context, conversationID, title string) error {
	if _, _, err := g.ownedConversation(ctx, conversationID); err != nil {
		return err
	}
	if err := storage.UpdateConversationTitle(ctx, g.db, conversationID, title); err != nil {
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	return nil
}

// DedupWindow returns the configured duplicate-suppression window.
func (g *Gateway) DedupWindow() time.Duration {
	return g.dedupWindow
}
