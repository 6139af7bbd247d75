package interfaces

import (
	"context"

	"mystic-forest-server/internal/models"
)

// GameService - операции игрового движка, которые использует HTTP слой.
//
//go:generate mockery --name GameService --output ./mocks --outpkg mocks --case=underscore
type GameService interface {
	// GetView resolves or creates the session and returns the current node view.
	GetView(ctx context.Context, token string) (*models.StoryView, error)
	// ApplyChoice advances the session along the choice at choiceIndex of its current node.
	ApplyChoice(ctx context.Context, token string, choiceIndex int) error
	// ResetSession returns an existing session to the start of the story.
	ResetSession(ctx context.Context, token string) error
	// GetProgress returns a read-only snapshot of the session history.
	GetProgress(ctx context.Context, token string) (*models.SessionProgress, error)
	// Stats returns node and session counts.
	Stats(ctx context.Context) (*models.EngineStats, error)
}
