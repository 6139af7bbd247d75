package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mystic-forest-server/internal/interfaces"
	"mystic-forest-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisSessionKeyPrefix = "session:"
	redisMutateMaxRetries = 50
)

// Compile-time check to ensure redisSessionStore implements SessionStore
var _ interfaces.SessionStore = (*redisSessionStore)(nil)

type redisSessionStore struct {
	client   *redis.Client
	newToken func() string
	logger   *zap.Logger
}

// NewRedisSessionStore creates a Redis-backed SessionStore.
// Sessions are stored as JSON under session:{token} without TTL.
func NewRedisSessionStore(client *redis.Client, logger *zap.Logger) interfaces.SessionStore {
	return &redisSessionStore{
		client:   client,
		newToken: uuid.NewString,
		logger:   logger.Named("RedisSessionStore"),
	}
}

func redisSessionKey(token string) string {
	return redisSessionKeyPrefix + token
}

// redisGetter - общее для *redis.Client и *redis.Tx.
type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *redisSessionStore) load(ctx context.Context, getter redisGetter, token string) (*models.Session, error) {
	data, err := getter.Get(ctx, redisSessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Failed to get session from redis", zap.String("token", token), zap.Error(err))
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// Данные в Redis повреждены
		r.logger.Error("Failed to unmarshal session from redis", zap.String("token", token), zap.Error(err))
		return nil, fmt.Errorf("corrupted session data in redis for token %s: %w", token, err)
	}
	if session.SentimentTally == nil {
		session.SentimentTally = map[string]int{}
	}
	if session.ChoiceHistory == nil {
		session.ChoiceHistory = []string{}
	}
	return &session, nil
}

func (r *redisSessionStore) GetOrCreate(ctx context.Context, token string) (string, *models.Session, bool, error) {
	if token != "" {
		session, err := r.load(ctx, r.client, token)
		if err == nil {
			return token, session, false, nil
		}
		if !errors.Is(err, models.ErrSessionNotFound) {
			return "", nil, false, err
		}
		r.logger.Debug("Unknown session token presented, creating new session")
	}

	newToken := r.newToken()
	session := models.NewSession(newToken)
	data, err := json.Marshal(session)
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, redisSessionKey(newToken), data, 0).Result()
	if err != nil {
		r.logger.Error("Failed to store new session in redis", zap.Error(err))
		return "", nil, false, fmt.Errorf("failed to store session in redis: %w", err)
	}
	if !ok {
		r.logger.Error("Session token collision", zap.String("token", newToken))
		return "", nil, false, models.ErrSessionTokenCollision
	}

	r.logger.Info("Session created", zap.String("token", newToken))
	return newToken, session, true, nil
}

func (r *redisSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	return r.load(ctx, r.client, token)
}

// Mutate использует WATCH/MULTI: при конкурентной записи транзакция повторяется.
func (r *redisSessionStore) Mutate(ctx context.Context, token string, fn func(*models.Session) error) error {
	key := redisSessionKey(token)

	txf := func(tx *redis.Tx) error {
		session, err := r.load(ctx, tx, token)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}
		session.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= redisMutateMaxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("Optimistic lock failed, retrying", zap.String("token", token), zap.Int("attempt", attempt))
			continue
		}
		return err
	}
	r.logger.Error("Session mutation kept conflicting", zap.String("token", token), zap.Int("attempts", redisMutateMaxRetries))
	return fmt.Errorf("session %s: too many concurrent updates: %w", token, redis.TxFailedErr)
}

// Count - приблизительное значение: SCAN может вернуть ключ дважды во время рехеширования.
func (r *redisSessionStore) Count(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, redisSessionKeyPrefix+"*", 500).Result()
		if err != nil {
			r.logger.Error("Failed to scan session keys", zap.Error(err))
			return 0, fmt.Errorf("failed to count sessions in redis: %w", err)
		}
		total += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}
