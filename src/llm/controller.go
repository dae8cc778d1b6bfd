package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrIdleTimeout indicates that no chunk arrived within the idle window.
var ErrIdleTimeout = errors.New("stream idle timeout")

// SessionCallbacks carries the lifecycle notifications for a stream session.
// All callbacks are optional. OnStart fires synchronously before the network
// call is issued so the caller can flip into an awaiting state without races.
// After a successful cancel, neither OnComplete nor OnError is invoked.
type SessionCallbacks struct {
	OnStart    func()
	OnDelta    func(delta string)
	OnComplete func(full string)
	OnError    func(err error)
}

// SessionConfig configures a stream session.
type SessionConfig struct {
	// MessageID is the client-chosen identifier the accumulated text will
	// eventually be persisted under.
	MessageID string

	// IdleTimeout treats a stream with no chunk for this long as errored.
	// Zero disables the idle check.
	IdleTimeout time.Duration

	Callbacks SessionCallbacks
	Logger    *slog.Logger
}

// StreamSession advances a single in-flight assistant reply: it accumulates
// delta text, tracks terminal state, and owns the cancellation handle.
// At most one session should be advancing a given conversation at a time.
type StreamSession struct {
	messageID string
	cancel    context.CancelFunc
	logger    *slog.Logger
	callbacks SessionCallbacks

	mu       sync.Mutex
	text     strings.Builder
	canceled bool
	finished bool
	err      error

	doneCh chan struct{}
}

// StartSession opens a streaming completion and begins consuming it in the
// background. The returned session can be polled with Done, awaited with
// Wait, or aborted with Cancel.
func StartSession(ctx context.Context, client StreamClient, req *CompletionRequest, cfg SessionConfig) *StreamSession {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &StreamSession{
		messageID: cfg.MessageID,
		cancel:    cancel,
		logger:    logger.With("component", "stream_session", "message_id", cfg.MessageID),
		callbacks: cfg.Callbacks,
		doneCh:    make(chan struct{}),
	}

	if s.callbacks.OnStart != nil {
		s.callbacks.OnStart()
	}

	go s.run(sctx, client, req, cfg.IdleTimeout)
	return s
}

func (s *StreamSession) run(ctx context.Context, client StreamClient, req *CompletionRequest, idle time.Duration) {
	stream, err := client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		s.finish(err)
		return
	}

	ch := StreamToChannel(stream)

	var idleTimer *time.Timer
	var idleC <-chan time.Time
	if idle > 0 {
		idleTimer = time.NewTimer(idle)
		defer idleTimer.Stop()
		idleC = idleTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			// Cancellation or parent deadline: discard buffered data, no
			// further callbacks.
			s.finish(ctx.Err())
			return

		case res, ok := <-ch:
			if !ok {
				s.finish(nil)
				return
			}
			if res.IsError() {
				s.finish(res.Error)
				return
			}
			if delta := res.Chunk.DeltaContent(); delta != "" {
				if s.appendDelta(delta) && s.callbacks.OnDelta != nil {
					s.callbacks.OnDelta(delta)
				}
			}
			if idleTimer != nil {
				if !idleTimer.Stop() {
					<-idleTimer.C
				}
				idleTimer.Reset(idle)
			}

		case <-idleC:
			s.cancel()
			s.finish(ErrIdleTimeout)
			return
		}
	}
}

// appendDelta records a delta and reports whether the session is still live.
func (s *StreamSession) appendDelta(delta string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled || s.finished {
		return false
	}
	s.text.WriteString(delta)
	return true
}

// finish transitions the session to a terminal state exactly once and fires
// the matching callback unless the session was canceled first.
func (s *StreamSession) finish(err error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	canceled := s.canceled || errors.Is(err, context.Canceled)
	if !canceled {
		s.err = err
	}
	full := s.text.String()
	s.mu.Unlock()

	// Terminal callbacks complete before Done/Wait observe the session as
	// finished.
	defer close(s.doneCh)

	if canceled {
		return
	}
	if err != nil {
		s.logger.Error("stream failed", "error", err)
		if s.callbacks.OnError != nil {
			s.callbacks.OnError(err)
		}
		return
	}
	if s.callbacks.OnComplete != nil {
		s.callbacks.OnComplete(full)
	}
}

// Cancel aborts the stream cooperatively. In-flight network reads are
// interrupted and no further callbacks fire. Nothing already persisted by
// the caller is undone.
func (s *StreamSession) Cancel() {
	s.mu.Lock()
	s.canceled = true
	s.mu.Unlock()
	s.cancel()
}

// Done reports whether the session has reached a terminal state (completed,
// errored, or canceled) without blocking.
func (s *StreamSession) Done() bool {
	select {
	case <-s.doneCh:
		return true
	default:
		return false
	}
}

// Wait blocks until the session terminates or ctx expires, returning the
// accumulated text and terminal error.
func (s *StreamSession) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return s.Text(), ctx.Err()
	case <-s.doneCh:
		return s.Text(), s.Err()
	}
}

// Text returns the text accumulated so far.
func (s *StreamSession) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Err returns the terminal error, if any.
func (s *StreamSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Canceled reports whether Cancel was called.
func (s *StreamSession) Canceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

// MessageID returns the client-chosen identifier for the eventual message.
func (s *StreamSession) MessageID() string {
	return s.messageID
}
