package chat

import "errors"

var (
	// ErrNotAuthenticated indicates no identity could be resolved. Fatal to
	// the requested operation; never retried automatically.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConversationNotFound covers both a missing conversation and an
	// ownership mismatch, so callers cannot distinguish other users' data
	// from absent data.
	ErrConversationNotFound = errors.New("conversation not found")
)
