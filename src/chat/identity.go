package chat

import "context"

// Identity resolves the current caller's opaque user identifier. It stands
// in for the hosted session accessor: every gateway operation consults it
// before touching the store.
type Identity interface {
	// UserID returns the caller's user ID, or ErrNotAuthenticated when no
	// identity is present.
	UserID(ctx context.Context) (string, error)
}

// StaticIdentity is an Identity fixed at construction time, bound once at
// startup (e.g. from CLI flags or config).
type StaticIdentity string

// UserID implements Identity.
func (s StaticIdentity) UserID(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNotAuthenticated
	}
	return string(s), nil
}
