package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/actionit/actionit/src/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	deltas []string
	pos    int
}

func (f *fakeStream) Read() (*llm.StreamChunk, error) {
	if f.pos >= len(f.deltas) {
		return nil, io.EOF
	}
	delta := f.deltas[f.pos]
	f.pos++
	return &llm.StreamChunk{
		Choices: []llm.Choice{{Delta: &llm.Message{Content: delta}}},
	}, nil
}

func (f *fakeStream) Close() error { return nil }

// fakeClient serves scripted replies in order; it is safe for the detached
// title-synthesis goroutine to call it concurrently.
type fakeClient struct {
	mu       sync.Mutex
	replies  [][]string
	requests []*llm.CompletionRequest
	err      error
}

func (c *fakeClient) CreateChatCompletionStream(ctx context.Context, req *llm.CompletionRequest) (llm.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.replies) == 0 {
		return &fakeStream{}, nil
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return &fakeStream{deltas: reply}, nil
}

func (c *fakeClient) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func newTestService(t *testing.T, g *Gateway, client llm.StreamClient) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		Gateway:    g,
		Client:     client,
		Logger:     testLogger(),
		Transcript: NewTranscript(),
		Model:      "test-model",
	})
}

func TestServiceSendStreamsAndPersists(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, "alice")
	client := &fakeClient{replies: [][]string{
		{"Hi ", "there", "!"}, // assistant reply
		{"Friendly greeting"}, // title synthesis
	}}
	svc := newTestService(t, g, client)
	ctx := context.Background()

	conv, err := g.CreateConversation(ctx, "", "")
	require.NoError(t, err)

	var streamed string
	final, err := svc.Send(ctx, conv.ID, "hello", func(delta string) {
		streamed += delta
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there!", final.Content)
	assert.Equal(t, llm.RoleAssistant, final.Role)
	assert.Equal(t, "Hi there!", streamed)

	msgs, err := g.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, final.ID, msgs[1].ID)

	// Title synthesis is detached; wait for it to land.
	require.Eventually(t, func() bool {
		got, err := g.GetConversation(ctx, conv.ID)
		return err == nil && got.Title == "Friendly greeting"
	}, 2*time.Second, 10*time.Millisecond)

	// Transcript mirrors the store once everything confirms.
	entries := svc.Transcript().Messages()
	require.Len(t, entries, 2)
	assert.Equal(t, StatusSent, entries[0].Status)
	assert.Equal(t, StatusSent, entries[1].Status)
	assert.Equal(t, "Hi there!", entries[1].Content)
}

func TestServiceSendSecondExchangeKeepsTitle(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, "alice")
	client := &fakeClient{replies: [][]string{
		{"first reply"},
		{"Synthesized title"},
		{"second reply"},
	}}
	svc := newTestService(t, g, client)
	ctx := context.Background()

	conv, err := g.CreateConversation(ctx, "", "")
	require.NoError(t, err)

	_, err = svc.Send(ctx, conv.ID, "one", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, err := g.GetConversation(ctx, conv.ID)
		return err == nil && got.Title == "Synthesized title"
	}, 2*time.Second, 10*time.Millisecond)

	_, err = svc.Send(ctx, conv.ID, "two", nil)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	got, err := g.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Synthesized title", got.Title, "later exchanges must not retitle")
	assert.Equal(t, 3, client.requestCount(), "no title request after the first exchange")
}

func TestServiceSendStreamFailure(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, "alice")
	client := &fakeClient{err: errors.New("boom")}
	svc := newTestService(t, g, client)
	ctx := context.Background()

	conv, err := g.CreateConversation(ctx, "", "")
	require.NoError(t, err)

	_, err = svc.Send(ctx, conv.ID, "hello", nil)
	require.Error(t, err)

	// The user message survives the failed reply; the caller can retry.
	msgs, err := g.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)

	entries := svc.Transcript().Messages()
	require.Len(t, entries, 2)
	assert.Equal(t, StatusSent, entries[0].Status)
	assert.Equal(t, StatusError, entries[1].Status)
}

func TestServiceSendUnknownConversation(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, "alice")
	svc := newTestService(t, g, &fakeClient{})

	_, err := svc.Send(context.Background(), "no-such-conv", "hello", nil)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestServiceRetryReusesMessageID(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, "alice")
	svc := newTestService(t, g, &fakeClient{})
	ctx := context.Background()

	conv, err := g.CreateConversation(ctx, "", "")
	require.NoError(t, err)

	const localID = "local-retry-id"
	msg, err := svc.Retry(ctx, conv.ID, localID, "try again")
	require.NoError(t, err)
	assert.Equal(t, localID, msg.ID)

	// A retry that raced a slow success collapses onto the same row.
	again, err := svc.Retry(ctx, conv.ID, localID, "try again")
	require.NoError(t, err)
	assert.Equal(t, localID, again.ID)

	msgs, err := g.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
