package interfaces

import (
	"context"

	"mystic-forest-server/internal/models"
)

// SessionStore владеет всеми записями Session.
//
//go:generate mockery --name SessionStore --output ./mocks --outpkg mocks --case=underscore
type SessionStore interface {
	// GetOrCreate returns the session for token. An empty or unknown token mints a new
	// unique token and stores a fresh session; created reports whether that happened.
	GetOrCreate(ctx context.Context, token string) (newToken string, session *models.Session, created bool, err error)

	// Get returns a copy of the session.
	// Returns models.ErrSessionNotFound if the token is unknown.
	Get(ctx context.Context, token string) (*models.Session, error)

	// Mutate applies fn to the session and persists the result only if fn returns nil.
	// At most one fn runs per token at a time. Returns models.ErrSessionNotFound
	// if the token is unknown, otherwise the error returned by fn.
	Mutate(ctx context.Context, token string, fn func(s *models.Session) error) error

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int64, error)
}
