package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mystic-forest-server/internal/interfaces"
	"mystic-forest-server/internal/models"
	"mystic-forest-server/internal/story"

	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// gameServiceImpl реализует interfaces.GameService поверх сюжетного графа и хранилища сессий.
type gameServiceImpl struct {
	graph        *story.Graph
	store        interfaces.SessionStore
	publisher    interfaces.GameEventPublisher
	imageBaseURL string
	logger       *zap.Logger
}

// NewGameService создает игровой движок. publisher может быть nil, тогда события не отправляются.
func NewGameService(
	graph *story.Graph,
	store interfaces.SessionStore,
	publisher interfaces.GameEventPublisher,
	imageBaseURL string,
	logger *zap.Logger,
) interfaces.GameService {
	return &gameServiceImpl{
		graph:        graph,
		store:        store,
		publisher:    publisher,
		imageBaseURL: imageBaseURL,
		logger:       logger.Named("GameService"),
	}
}

// GetView возвращает текущий узел сессии. Для пустого или неизвестного токена создается новая сессия.
func (s *gameServiceImpl) GetView(ctx context.Context, token string) (*models.StoryView, error) {
	log := s.logger.With(zap.String("session_token", token))

	actualToken, session, created, err := s.store.GetOrCreate(ctx, token)
	if err != nil {
		log.Error("Failed to resolve session", zap.Error(err))
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if created {
		sessionsCreatedTotal.Inc()
		log.Info("New session created", zap.String("new_token", actualToken))
	}

	node, err := s.graph.Lookup(session.CurrentNode)
	if err != nil {
		log.Error("Session points to unknown node", zap.String("node", session.CurrentNode), zap.Error(err))
		return nil, err
	}

	view := &models.StoryView{
		Token:        actualToken,
		Node:         node.Key,
		Situation:    node.Situation,
		IsTerminal:   node.IsTerminal(),
		Choices:      make([]models.ChoiceView, 0, len(node.Choices)),
		ImageURL:     BuildImageURL(s.imageBaseURL, node.ImagePrompt),
		ImageSeed:    node.Seed,
		Score:        session.Score,
		CurrentScore: session.Score,
	}
	if view.IsTerminal {
		view.EndingCategory = node.EndingCategory
	}
	for i, c := range node.Choices {
		view.Choices = append(view.Choices, models.ChoiceView{Index: i, Text: c.Text})
	}
	return view, nil
}

// choiceOutcome - то, что нужно знать после успешного перехода (события, метрики).
type choiceOutcome struct {
	fromNode string
	toNode   string
	tag      string
	score    int
	ending   string
	terminal bool
}

// ApplyChoice переводит сессию по выбору choiceIndex из ее текущего узла.
// Все проверки выполняются внутри Mutate, поэтому при ошибке сессия не меняется.
func (s *gameServiceImpl) ApplyChoice(ctx context.Context, token string, choiceIndex int) error {
	log := s.logger.With(zap.String("session_token", token), zap.Int("choice_index", choiceIndex))

	var outcome choiceOutcome
	err := s.store.Mutate(ctx, token, func(session *models.Session) error {
		node, err := s.graph.Lookup(session.CurrentNode)
		if err != nil {
			return err
		}
		if choiceIndex < 0 || choiceIndex >= len(node.Choices) {
			return fmt.Errorf("%w: index %d, node %q has %d choices",
				models.ErrInvalidChoiceIndex, choiceIndex, node.Key, len(node.Choices))
		}
		choice := node.Choices[choiceIndex]
		next, err := s.graph.Lookup(choice.NextNode)
		if err != nil {
			return err
		}

		session.PathHistory = append(session.PathHistory, next.Key)
		session.ChoiceHistory = append(session.ChoiceHistory, choice.Text)
		session.Score += choice.ScoreModifier
		if session.SentimentTally == nil {
			session.SentimentTally = map[string]int{}
		}
		session.SentimentTally[choice.Tag]++
		session.CurrentNode = next.Key

		outcome = choiceOutcome{
			fromNode: node.Key,
			toNode:   next.Key,
			tag:      choice.Tag,
			score:    session.Score,
			ending:   next.EndingCategory,
			terminal: next.IsTerminal(),
		}
		return nil
	})
	if err != nil {
		choiceErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		if errors.Is(err, models.ErrInvalidNodeReference) {
			log.Error("Session points to unknown node", zap.Error(err))
		} else {
			log.Warn("Choice rejected", zap.Error(err))
		}
		return err
	}

	choicesAppliedTotal.WithLabelValues(outcome.tag).Inc()
	log.Info("Choice applied",
		zap.String("from_node", outcome.fromNode),
		zap.String("to_node", outcome.toNode),
		zap.Int("score", outcome.score),
	)

	now := time.Now().UTC()
	s.publish(ctx, models.GameEvent{
		Type:         models.GameEventChoiceApplied,
		SessionToken: token,
		FromNode:     outcome.fromNode,
		ToNode:       outcome.toNode,
		ChoiceIndex:  choiceIndex,
		Tag:          outcome.tag,
		Score:        outcome.score,
		OccurredAt:   now,
	})
	if outcome.terminal {
		endingsReachedTotal.WithLabelValues(outcome.ending).Inc()
		s.publish(ctx, models.GameEvent{
			Type:           models.GameEventEndingReached,
			SessionToken:   token,
			FromNode:       outcome.fromNode,
			ToNode:         outcome.toNode,
			ChoiceIndex:    choiceIndex,
			Tag:            outcome.tag,
			Score:          outcome.score,
			EndingCategory: outcome.ending,
			OccurredAt:     now,
		})
	}
	return nil
}

// ResetSession возвращает существующую сессию в начало истории.
func (s *gameServiceImpl) ResetSession(ctx context.Context, token string) error {
	err := s.store.Mutate(ctx, token, func(session *models.Session) error {
		session.Reset()
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to reset session", zap.String("session_token", token), zap.Error(err))
		return err
	}
	sessionResetsTotal.Inc()
	s.logger.Info("Session reset", zap.String("session_token", token))
	return nil
}

// GetProgress возвращает снимок прогресса без изменения сессии.
func (s *gameServiceImpl) GetProgress(ctx context.Context, token string) (*models.SessionProgress, error) {
	session, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	return &models.SessionProgress{
		Token:          session.Token,
		CurrentNode:    session.CurrentNode,
		Score:          session.Score,
		PathHistory:    session.PathHistory,
		ChoiceHistory:  session.ChoiceHistory,
		SentimentTally: session.SentimentTally,
	}, nil
}

func (s *gameServiceImpl) Stats(ctx context.Context) (*models.EngineStats, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count sessions", zap.Error(err))
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	return &models.EngineStats{
		StoryNodesCount:   s.graph.Len(),
		UserSessionsCount: count,
	}, nil
}

// publish отправляет событие. Ошибка только логируется: выбор уже сохранен.
func (s *gameServiceImpl) publish(ctx context.Context, event models.GameEvent) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishGameEvent(pubCtx, event); err != nil {
		s.logger.Error("Failed to publish game event",
			zap.String("event_type", string(event.Type)),
			zap.String("session_token", event.SessionToken),
			zap.Error(err),
		)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		return models.ErrCodeSessionNotFound
	case errors.Is(err, models.ErrInvalidChoiceIndex):
		return models.ErrCodeInvalidChoiceIndex
	case errors.Is(err, models.ErrInvalidNodeReference):
		return models.ErrCodeInvalidNodeReference
	default:
		return models.ErrCodeInternal
	}
}
