package chat

import (
	"sync"
	"time"

	"github.com/actionit/actionit/src/storage"
)

// MessageStatus tags a transcript entry with its persistence state.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusStreaming MessageStatus = "streaming"
	StatusSent      MessageStatus = "sent"
	StatusError     MessageStatus = "error"
)

// OptimisticMessage is a client-local overlay entry: it exists before the
// store confirms a matching row and is reconciled once one appears.
type OptimisticMessage struct {
	ID        string
	Role      string
	Content   string
	Status    MessageStatus
	CreatedAt time.Time
}

// Transcript is the client-local message list for one conversation. It
// materializes entries immediately on submit or stream start and reconciles
// them against persisted rows by identifier.
type Transcript struct {
	mu      sync.Mutex
	entries []OptimisticMessage
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Load replaces the transcript with persisted history, all marked sent.
func (t *Transcript) Load(messages []storage.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make([]OptimisticMessage, 0, len(messages))
	for _, m := range messages {
		t.entries = append(t.entries, OptimisticMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Status:    StatusSent,
			CreatedAt: m.CreatedAt,
		})
	}
}

// AppendPending materializes a local entry for a just-submitted message.
func (t *Transcript) AppendPending(id, role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, OptimisticMessage{
		ID:        id,
		Role:      role,
		Content:   content,
		Status:    StatusSending,
		CreatedAt: time.Now(),
	})
}

// BeginStreaming materializes the single entry that accumulates an
// assistant reply while it streams.
func (t *Transcript) BeginStreaming(id, role string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, OptimisticMessage{
		ID:        id,
		Role:      role,
		Status:    StatusStreaming,
		CreatedAt: time.Now(),
	})
}

// AppendDelta grows the streaming entry's content.
func (t *Transcript) AppendDelta(id, delta string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Content += delta
			return
		}
	}
}

// Confirm reconciles a local entry against the persisted row: the entry
// takes the row's identifier and content and becomes sent. An entry already
// superseded by a confirmed row with the same identifier is dropped.
func (t *Transcript) Confirm(localID string, persisted storage.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	confirmed := -1
	for i := range t.entries {
		if t.entries[i].ID == persisted.ID && t.entries[i].Status == StatusSent {
			confirmed = i
			break
		}
	}

	for i := range t.entries {
		if t.entries[i].ID != localID {
			continue
		}
		if confirmed >= 0 && confirmed != i {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
		t.entries[i].ID = persisted.ID
		t.entries[i].Content = persisted.Content
		t.entries[i].Status = StatusSent
		t.entries[i].CreatedAt = persisted.CreatedAt
		return
	}
}

// Fail marks a local entry errored; the caller is expected to offer retry
// reusing the same identifier.
func (t *Transcript) Fail(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Status = StatusError
			return
		}
	}
}

// Messages returns a snapshot of the transcript.
func (t *Transcript) Messages() []OptimisticMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	copied := make([]OptimisticMessage, len(t.entries))
	copy(copied, t.entries)
	return copied
}
