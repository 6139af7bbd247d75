package database

import (
	"context"
	"sync"
	"time"

	"mystic-forest-server/internal/interfaces"
	"mystic-forest-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure memorySessionStore implements SessionStore
var _ interfaces.SessionStore = (*memorySessionStore)(nil)

// memorySessionEntry держит сессию и мьютекс, сериализующий ее изменения.
type memorySessionEntry struct {
	mu      sync.Mutex
	session *models.Session
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySessionEntry
	newToken func() string
	logger   *zap.Logger
}

// NewMemorySessionStore создает хранилище сессий в памяти процесса.
func NewMemorySessionStore(logger *zap.Logger) interfaces.SessionStore {
	return newMemorySessionStore(uuid.NewString, logger)
}

func newMemorySessionStore(newToken func() string, logger *zap.Logger) *memorySessionStore {
	return &memorySessionStore{
		sessions: make(map[string]*memorySessionEntry),
		newToken: newToken,
		logger:   logger.Named("MemorySessionStore"),
	}
}

func (s *memorySessionStore) lookup(token string) (*memorySessionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[token]
	return e, ok
}

func (s *memorySessionStore) GetOrCreate(ctx context.Context, token string) (string, *models.Session, bool, error) {
	if token != "" {
		if e, ok := s.lookup(token); ok {
			e.mu.Lock()
			defer e.mu.Unlock()
			return token, e.session.Clone(), false, nil
		}
		s.logger.Debug("Unknown session token presented, creating new session")
	}

	newToken := s.newToken()
	session := models.NewSession(newToken)

	s.mu.Lock()
	if _, exists := s.sessions[newToken]; exists {
		s.mu.Unlock()
		s.logger.Error("Session token collision", zap.String("token", newToken))
		return "", nil, false, models.ErrSessionTokenCollision
	}
	s.sessions[newToken] = &memorySessionEntry{session: session}
	s.mu.Unlock()

	s.logger.Info("Session created", zap.String("token", newToken))
	return newToken, session.Clone(), true, nil
}

func (s *memorySessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	e, ok := s.lookup(token)
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// Mutate работает с копией и подменяет сессию только при успехе fn.
func (s *memorySessionStore) Mutate(ctx context.Context, token string, fn func(*models.Session) error) error {
	e, ok := s.lookup(token)
	if !ok {
		return models.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := e.session.Clone()
	if err := fn(working); err != nil {
		return err
	}
	working.UpdatedAt = time.Now().UTC()
	e.session = working
	return nil
}

func (s *memorySessionStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sessions)), nil
}
