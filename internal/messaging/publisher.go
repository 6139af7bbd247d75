package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mystic-forest-server/internal/interfaces"
	"mystic-forest-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	appID              = "mystic-forest-server"
	publishAttempts    = 3
	publishTimeout     = 10 * time.Second
	publishRetryBaseMs = 100
)

// rabbitMQPublisher отправляет игровые события в очередь RabbitMQ через default exchange.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQGameEventPublisher открывает канал и объявляет durable очередь для игровых событий.
func NewRabbitMQGameEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (interfaces.GameEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("game event publisher: не удалось открыть канал: %w", err)
	}
	// Паблишер сам создает очередь, порядок запуска консьюмеров не важен.
	if _, err = ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("game event publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	log := logger.Named("GameEventPublisher")
	log.Info("Очередь игровых событий объявлена", zap.String("queue", queueName))
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: log}, nil
}

// PublishGameEvent сериализует событие в JSON и публикует его с повторами.
func (p *rabbitMQPublisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события %s: %w", event.Type, err)
	}
	if err := p.publishMessage(ctx, body, string(event.Type)); err != nil {
		return fmt.Errorf("ошибка публикации события %s для сессии %s: %w", event.Type, event.SessionToken, err)
	}
	return nil
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte, messageType string) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				Type:         messageType,
				AppId:        appID,
			},
		)
		if err == nil {
			p.logger.Debug("Событие опубликовано",
				zap.String("queue", p.queueName),
				zap.String("type", messageType),
				zap.Int("attempt", attempt),
			)
			return nil
		}
		p.logger.Warn("Ошибка публикации",
			zap.String("queue", p.queueName),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("публикация в очередь %s прервана: %w", p.queueName, ctx.Err())
		case <-time.After(time.Duration(attempt*publishRetryBaseMs) * time.Millisecond):
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после %d попыток: %w", p.queueName, publishAttempts, err)
}

type nopPublisher struct{}

// NewNopGameEventPublisher возвращает паблишер, который ничего не отправляет.
// Используется, когда RABBITMQ_URL не задан.
func NewNopGameEventPublisher() interfaces.GameEventPublisher {
	return nopPublisher{}
}

func (nopPublisher) PublishGameEvent(context.Context, models.GameEvent) error { return nil }

// ConnectRabbitMQ подключается к RabbitMQ с несколькими попытками.
func ConnectRabbitMQ(ctx context.Context, url string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	var err error
	for i := 0; i < maxRetries; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			logger.Info("Подключено к RabbitMQ")
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		if i == maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("не удалось подключиться к RabbitMQ после %d попыток: %w", maxRetries, err)
}
