package storage

import "time"

// DefaultConversationTitle is the title given to conversations created
// without one. The title synthesizer only replaces this value.
const DefaultConversationTitle = "New conversation"

// Conversation is a named thread of messages owned by one user, optionally
// associated with a project. The owner is immutable after creation.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	ProjectID *string   `json:"project_id,omitempty" db:"project_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Message is one turn in a conversation. IDs are unique across the whole
// messages table, not just per conversation, because identifier-based
// existence checks are global. Content is mutable while a reply streams.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	IsSystem       bool      `json:"is_system" db:"is_system"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
