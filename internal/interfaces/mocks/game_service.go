package mocks

import (
	"context"

	"mystic-forest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// GameService is a testify mock of interfaces.GameService.
type GameService struct {
	mock.Mock
}

func (m *GameService) GetView(ctx context.Context, token string) (*models.StoryView, error) {
	args := m.Called(ctx, token)
	v, _ := args.Get(0).(*models.StoryView)
	return v, args.Error(1)
}

func (m *GameService) ApplyChoice(ctx context.Context, token string, choiceIndex int) error {
	args := m.Called(ctx, token, choiceIndex)
	return args.Error(0)
}

func (m *GameService) ResetSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *GameService) GetProgress(ctx context.Context, token string) (*models.SessionProgress, error) {
	args := m.Called(ctx, token)
	p, _ := args.Get(0).(*models.SessionProgress)
	return p, args.Error(1)
}

func (m *GameService) Stats(ctx context.Context) (*models.EngineStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.EngineStats)
	return s, args.Error(1)
}
