package interfaces

import (
	"context"

	"mystic-forest-server/internal/models"
)

// GameEventPublisher отправляет игровые события во внешнюю очередь.
type GameEventPublisher interface {
	PublishGameEvent(ctx context.Context, event models.GameEvent) error
}
