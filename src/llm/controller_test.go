package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedStream replays chunks from a channel; closing the channel ends the
// stream. A nil entry injects a read error.
type scriptedStream struct {
	ch     chan *StreamChunk
	err    error
	closed bool
	mu     sync.Mutex
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{ch: make(chan *StreamChunk)}
}

func (s *scriptedStream) Read() (*StreamChunk, error) {
	chunk, ok := <-s.ch
	if !ok {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	return chunk, nil
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptedStream) emit(content string) {
	s.ch <- &StreamChunk{Choices: []Choice{{Delta: &Message{Content: content}}}}
}

func (s *scriptedStream) end() {
	close(s.ch)
}

type scriptedClient struct {
	stream *scriptedStream
	err    error
}

func (c *scriptedClient) CreateChatCompletionStream(ctx context.Context, req *CompletionRequest) (Stream, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.stream, nil
}

func waitDone(t *testing.T, s *StreamSession) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.Wait(ctx); errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("session did not terminate")
	}
}

func TestSessionCompletes(t *testing.T) {
	stream := newScriptedStream()
	client := &scriptedClient{stream: stream}

	var deltas []string
	var completed string
	started := false

	session := StartSession(context.Background(), client, &CompletionRequest{Model: "m"}, SessionConfig{
		MessageID: "msg-1",
		Callbacks: SessionCallbacks{
			OnStart:    func() { started = true },
			OnDelta:    func(d string) { deltas = append(deltas, d) },
			OnComplete: func(full string) { completed = full },
		},
	})

	// OnStart fires synchronously inside StartSession.
	if !started {
		t.Error("OnStart did not fire before StartSession returned")
	}
	if session.MessageID() != "msg-1" {
		t.Errorf("MessageID() = %q", session.MessageID())
	}

	stream.emit("Hel")
	stream.emit("lo")
	stream.end()
	waitDone(t, session)

	if completed != "Hello" {
		t.Errorf("OnComplete got %q, want %q", completed, "Hello")
	}
	if session.Text() != "Hello" {
		t.Errorf("Text() = %q", session.Text())
	}
	if len(deltas) != 2 {
		t.Errorf("expected 2 deltas, got %v", deltas)
	}
	if session.Err() != nil {
		t.Errorf("Err() = %v", session.Err())
	}
	if !session.Done() {
		t.Error("Done() = false after completion")
	}
}

func TestSessionCancelStopsCallbacks(t *testing.T) {
	stream := newScriptedStream()
	client := &scriptedClient{stream: stream}

	var mu sync.Mutex
	var afterCancel bool
	var terminalFired bool

	session := StartSession(context.Background(), client, &CompletionRequest{Model: "m"}, SessionConfig{
		Callbacks: SessionCallbacks{
			OnDelta: func(d string) {
				mu.Lock()
				afterCancel = true
				mu.Unlock()
			},
			OnComplete: func(string) {
				mu.Lock()
				terminalFired = true
				mu.Unlock()
			},
			OnError: func(error) {
				mu.Lock()
				terminalFired = true
				mu.Unlock()
			},
		},
	})

	session.Cancel()
	waitDone(t, session)

	// The producer may still be blocked emitting; drain it.
	go func() {
		stream.emit("late")
		stream.end()
	}()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if afterCancel {
		t.Error("OnDelta fired after Cancel")
	}
	if terminalFired {
		t.Error("terminal callback fired after Cancel")
	}
	if !session.Canceled() {
		t.Error("Canceled() = false")
	}
	if session.Err() != nil {
		t.Errorf("canceled session must not report an error, got %v", session.Err())
	}
}

func TestSessionDonePolling(t *testing.T) {
	stream := newScriptedStream()
	client := &scriptedClient{stream: stream}

	session := StartSession(context.Background(), client, &CompletionRequest{Model: "m"}, SessionConfig{})

	if session.Done() {
		t.Error("Done() = true while stream still open")
	}

	stream.emit("x")
	stream.end()
	waitDone(t, session)

	if !session.Done() {
		t.Error("Done() = false after stream ended")
	}
}

func TestSessionIdleTimeout(t *testing.T) {
	stream := newScriptedStream()
	client := &scriptedClient{stream: stream}

	var gotErr error
	var mu sync.Mutex

	session := StartSession(context.Background(), client, &CompletionRequest{Model: "m"}, SessionConfig{
		IdleTimeout: 20 * time.Millisecond,
		Callbacks: SessionCallbacks{
			OnError: func(err error) {
				mu.Lock()
				gotErr = err
				mu.Unlock()
			},
		},
	})

	stream.emit("one delta then silence")
	waitDone(t, session)
	stream.end()

	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(gotErr, ErrIdleTimeout) {
		t.Errorf("OnError got %v, want ErrIdleTimeout", gotErr)
	}
	if !errors.Is(session.Err(), ErrIdleTimeout) {
		t.Errorf("Err() = %v, want ErrIdleTimeout", session.Err())
	}
	if session.Text() != "one delta then silence" {
		t.Errorf("partial text lost: %q", session.Text())
	}
}

func TestSessionOpenError(t *testing.T) {
	openErr := errors.New("connect refused")
	client := &scriptedClient{err: openErr}

	var gotErr error
	var mu sync.Mutex

	session := StartSession(context.Background(), client, &CompletionRequest{Model: "m"}, SessionConfig{
		Callbacks: SessionCallbacks{
			OnError: func(err error) {
				mu.Lock()
				gotErr = err
				mu.Unlock()
			},
		},
	})
	waitDone(t, session)

	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(gotErr, openErr) {
		t.Errorf("OnError got %v, want %v", gotErr, openErr)
	}
}

func TestSessionParentContextCancel(t *testing.T) {
	stream := newScriptedStream()
	client := &scriptedClient{stream: stream}

	ctx, cancel := context.WithCancel(context.Background())
	var terminalFired bool
	var mu sync.Mutex

	session := StartSession(ctx, client, &CompletionRequest{Model: "m"}, SessionConfig{
		Callbacks: SessionCallbacks{
			OnComplete: func(string) { mu.Lock(); terminalFired = true; mu.Unlock() },
			OnError:    func(error) { mu.Lock(); terminalFired = true; mu.Unlock() },
		},
	})

	cancel()
	waitDone(t, session)
	stream.end()

	mu.Lock()
	defer mu.Unlock()
	if terminalFired {
		t.Error("terminal callback fired after parent context cancellation")
	}
}

func TestCollectContent(t *testing.T) {
	stream := newScriptedStream()
	go func() {
		stream.emit("a")
		stream.emit("b")
		stream.emit("c")
		stream.end()
	}()

	content, err := CollectContent(stream)
	if err != nil {
		t.Fatalf("CollectContent() error = %v", err)
	}
	if content != "abc" {
		t.Errorf("content = %q", content)
	}
}

func TestStreamToChannelDeliversTerminalError(t *testing.T) {
	stream := newScriptedStream()
	stream.err = errors.New("mid-stream failure")
	go func() {
		stream.emit("partial")
		stream.end()
	}()

	ch := StreamToChannel(stream)

	first := <-ch
	if first.IsError() || first.Chunk.DeltaContent() != "partial" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	second := <-ch
	if !second.IsError() {
		t.Fatalf("expected terminal error, got %+v", second)
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed after terminal error")
	}
}

func TestParseProvider(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name string
		want Provider
	}{
		{"openai", ProviderOpenAI},
		{"deepseek", ProviderDeepSeek},
		{"", DefaultProvider},
		{"unknown-vendor", DefaultProvider},
	}
	for _, tt := range tests {
		if got := ParseProvider(tt.name, logger); got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
