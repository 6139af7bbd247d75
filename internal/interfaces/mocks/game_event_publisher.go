package mocks

import (
	"context"

	"mystic-forest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// GameEventPublisher is a testify mock of interfaces.GameEventPublisher.
type GameEventPublisher struct {
	mock.Mock
}

func (m *GameEventPublisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
