package chat

import (
	"testing"
	"time"

	"github.com/actionit/actionit/src/llm"
	"github.com/actionit/actionit/src/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptPendingThenConfirm(t *testing.T) {
	tr := NewTranscript()

	tr.AppendPending("local-1", llm.RoleUser, "hello")

	entries := tr.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, StatusSending, entries[0].Status)

	persisted := storage.Message{ID: "server-1", Role: llm.RoleUser, Content: "hello", CreatedAt: time.Now()}
	tr.Confirm("local-1", persisted)

	entries = tr.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "server-1", entries[0].ID)
	assert.Equal(t, StatusSent, entries[0].Status)
}

func TestTranscriptStreamingAccumulates(t *testing.T) {
	tr := NewTranscript()

	tr.BeginStreaming("a-1", llm.RoleAssistant)
	tr.AppendDelta("a-1", "Hel")
	tr.AppendDelta("a-1", "lo")

	entries := tr.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "Hello", entries[0].Content)
	assert.Equal(t, StatusStreaming, entries[0].Status)
}

func TestTranscriptConfirmDropsSupersededEntry(t *testing.T) {
	tr := NewTranscript()

	// The persisted row already confirmed under its final ID...
	tr.AppendPending("local-a", llm.RoleUser, "hi")
	tr.Confirm("local-a", storage.Message{ID: "server-1", Content: "hi"})

	// ...so a stale local entry confirming to the same row is dropped
	// instead of duplicating it.
	tr.AppendPending("local-b", llm.RoleUser, "hi")
	tr.Confirm("local-b", storage.Message{ID: "server-1", Content: "hi"})

	entries := tr.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "server-1", entries[0].ID)
}

func TestTranscriptFailThenRetrySameID(t *testing.T) {
	tr := NewTranscript()

	tr.AppendPending("local-1", llm.RoleUser, "flaky")
	tr.Fail("local-1")

	entries := tr.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, StatusError, entries[0].Status)

	// Retry confirms under the original identifier.
	tr.Confirm("local-1", storage.Message{ID: "local-1", Content: "flaky"})
	entries = tr.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, StatusSent, entries[0].Status)
}

func TestTranscriptLoadReplacesEntries(t *testing.T) {
	tr := NewTranscript()
	tr.AppendPending("stale", llm.RoleUser, "old")

	tr.Load([]storage.Message{
		{ID: "m1", Role: llm.RoleUser, Content: "a"},
		{ID: "m2", Role: llm.RoleAssistant, Content: "b"},
	})

	entries := tr.Messages()
	require.Len(t, entries, 2)
	assert.Equal(t, "m1", entries[0].ID)
	assert.Equal(t, StatusSent, entries[1].Status)
}

func TestTranscriptSnapshotIsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.AppendPending("local-1", llm.RoleUser, "hello")

	snapshot := tr.Messages()
	snapshot[0].Content = "mutated"

	assert.Equal(t, "hello", tr.Messages()[0].Content)
}
