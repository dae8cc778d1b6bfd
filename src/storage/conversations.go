package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// GetConversationByID retrieves a conversation by its ID
func GetConversationByID(ctx context.Context, db sqlscan.Querier, conversationID string) (*Conversation, error) {
	query := `SELECT id, user_id, title, project_id, created_at, updated_at FROM conversations WHERE id = ?`
	var conv Conversation
	err := sqlscan.Get(ctx, db, &conv, query, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &conv, nil
}

// ListConversationsByUser retrieves all conversations owned by a user,
// newest-updated first.
func ListConversationsByUser(ctx context.Context, db sqlscan.Querier, userID string) ([]Conversation, error) {
	query := `SELECT id, user_id, title, project_id, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`
	var conversations []Conversation
	err := sqlscan.Select(ctx, db, &conversations, query, userID)
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation creates a new conversation in the database
func CreateConversation(ctx context.Context, db Execer, conversation *Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.Title == "" {
		conversation.Title = DefaultConversationTitle
	}
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = time.Now()
	}
	if conversation.UpdatedAt.IsZero() {
		conversation.UpdatedAt = conversation.CreatedAt
	}

	query := `INSERT INTO conversations (id, user_id, title, project_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, conversation.ID, conversation.UserID, conversation.Title, conversation.ProjectID, conversation.CreatedAt, conversation.UpdatedAt)
	return err
}

// UpdateConversationTitle replaces the title and bumps updated_at.
func UpdateConversationTitle(ctx context.Context, db Execer, conversationID, title string) error {
	query := `UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, title, time.Now(), conversationID)
	return err
}

// UpdateConversationProject sets or clears the project association. A nil
// projectID detaches the conversation.
func UpdateConversationProject(ctx context.Context, db Execer, conversationID string, projectID *string) error {
	query := `UPDATE conversations SET project_id = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, projectID, time.Now(), conversationID)
	return err
}

// TouchConversation bumps the conversation's updated_at timestamp.
func TouchConversation(ctx context.Context, db Execer, conversationID string, t time.Time) error {
	query := `UPDATE conversations SET updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, t, conversationID)
	return err
}

// DeleteConversation deletes a single conversation row. Messages must be
// deleted first; callers own the ordering.
func DeleteConversation(ctx context.Context, db Execer, conversationID string) error {
	query := `DELETE FROM conversations WHERE id = ?`
	_, err := db.ExecContext(ctx, query, conversationID)
	return err
}
