package mocks

import (
	"context"

	"mystic-forest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// SessionStore is a testify mock of interfaces.SessionStore.
type SessionStore struct {
	mock.Mock
}

func (m *SessionStore) GetOrCreate(ctx context.Context, token string) (string, *models.Session, bool, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(1).(*models.Session)
	return args.String(0), s, args.Bool(2), args.Error(3)
}

func (m *SessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *SessionStore) Mutate(ctx context.Context, token string, fn func(s *models.Session) error) error {
	args := m.Called(ctx, token, fn)
	if rf, ok := args.Get(0).(func(context.Context, string, func(*models.Session) error) error); ok {
		return rf(ctx, token, fn)
	}
	return args.Error(0)
}

func (m *SessionStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
