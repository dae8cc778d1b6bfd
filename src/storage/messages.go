package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// GetMessagesByConversationID retrieves all messages for a conversation ordered by creation time
func GetMessagesByConversationID(ctx context.Context, db sqlscan.Querier, conversationID string) ([]Message, error) {
	query := `SELECT id, conversation_id, user_id, role, content, is_system, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at`
	var messages []Message
	err := sqlscan.Select(ctx, db, &messages, query, conversationID)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetMessageByID retrieves a message by its ID
func GetMessageByID(ctx context.Context, db sqlscan.Querier, messageID string) (*Message, error) {
	query := `SELECT id, conversation_id, user_id, role, content, is_system, created_at FROM messages WHERE id = ?`
	var m Message
	err := sqlscan.Get(ctx, db, &m, query, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &m, nil
}

// MessageExists performs a count-only existence check across the whole
// message store. Identifier collisions are global, not per conversation.
func MessageExists(ctx context.Context, db sqlscan.Querier, messageID string) (bool, error) {
	query := `SELECT COUNT(*) AS n FROM messages WHERE id = ?`
	var n int
	if err := sqlscan.Get(ctx, db, &n, query, messageID); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateMessage creates a new message in the database
func CreateMessage(ctx context.Context, db Execer, message *Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	query := `INSERT INTO messages (id, conversation_id, user_id, role, content, is_system, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, message.ID, message.ConversationID, message.UserID, message.Role, message.Content, message.IsSystem, message.CreatedAt)
	return err
}

// UpdateMessageContent overwrites a message's content in place. Used
// exclusively for streaming in-place updates.
func UpdateMessageContent(ctx context.Context, db Execer, messageID, content string) error {
	query := `UPDATE messages SET content = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, content, messageID)
	return err
}

// FindRecentDuplicate looks for a message in the same conversation with the
// same role and identical content created at or after the given cutoff.
func FindRecentDuplicate(ctx context.Context, db sqlscan.Querier, conversationID, role, content string, since time.Time) (*Message, error) {
	query := `SELECT id, conversation_id, user_id, role, content, is_system, created_at FROM messages
		WHERE conversation_id = ? AND role = ? AND content = ? AND created_at >= ?
		ORDER BY created_at DESC LIMIT 1`
	var m Message
	err := sqlscan.Get(ctx, db, &m, query, conversationID, role, content, since)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// DeleteMessagesByConversation removes every message belonging to a
// conversation.
func DeleteMessagesByConversation(ctx context.Context, db Execer, conversationID string) error {
	query := `DELETE FROM messages WHERE conversation_id = ?`
	_, err := db.ExecContext(ctx, query, conversationID)
	return err
}
