package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mystic-forest-server/internal/interfaces"
	"mystic-forest-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	gameSessionFields = `token, current_node, score, path_history, choice_history, sentiment_tally, created_at, updated_at`

	insertGameSessionQuery = `
        INSERT INTO game_sessions (` + gameSessionFields + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (token) DO NOTHING
    `
	getGameSessionQuery = `
        SELECT ` + gameSessionFields + `
        FROM game_sessions
        WHERE token = $1
    `
	getGameSessionForUpdateQuery = getGameSessionQuery + ` FOR UPDATE`
	updateGameSessionQuery       = `
        UPDATE game_sessions SET
            current_node = $2,
            score = $3,
            path_history = $4,
            choice_history = $5,
            sentiment_tally = $6,
            updated_at = $7
        WHERE token = $1
    `
	countGameSessionsQuery = `SELECT COUNT(*) FROM game_sessions`
)

// Compile-time check to ensure pgSessionStore implements SessionStore
var _ interfaces.SessionStore = (*pgSessionStore)(nil)

type pgSessionStore struct {
	pool     *pgxpool.Pool
	newToken func() string
	logger   *zap.Logger
}

// NewPgSessionStore создает хранилище сессий в PostgreSQL (таблица game_sessions).
func NewPgSessionStore(pool *pgxpool.Pool, logger *zap.Logger) interfaces.SessionStore {
	return &pgSessionStore{
		pool:     pool,
		newToken: uuid.NewString,
		logger:   logger.Named("PgSessionStore"),
	}
}

func (r *pgSessionStore) get(ctx context.Context, querier interfaces.DBTX, query, token string) (*models.Session, error) {
	var session models.Session
	if err := pgxscan.Get(ctx, querier, &session, query, token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Error getting game session", zap.String("token", token), zap.Error(err))
		return nil, fmt.Errorf("failed to get game session %s: %w", token, err)
	}
	if session.SentimentTally == nil {
		session.SentimentTally = map[string]int{}
	}
	if session.ChoiceHistory == nil {
		session.ChoiceHistory = []string{}
	}
	return &session, nil
}

func (r *pgSessionStore) GetOrCreate(ctx context.Context, token string) (string, *models.Session, bool, error) {
	if token != "" {
		session, err := r.get(ctx, r.pool, getGameSessionQuery, token)
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

	tag, err := r.pool.Exec(ctx, insertGameSessionQuery,
		session.Token,
		session.CurrentNode,
		session.Score,
		session.PathHistory,
		session.ChoiceHistory,
		session.SentimentTally,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Error inserting game session", zap.Error(err))
		return "", nil, false, fmt.Errorf("failed to insert game session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Error("Session token collision", zap.String("token", newToken))
		return "", nil, false, models.ErrSessionTokenCollision
	}

	r.logger.Info("Session created", zap.String("token", newToken))
	return newToken, session, true, nil
}

func (r *pgSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	return r.get(ctx, r.pool, getGameSessionQuery, token)
}

// Mutate блокирует строку сессии (SELECT ... FOR UPDATE) на время fn.
func (r *pgSessionStore) Mutate(ctx context.Context, token string, fn func(*models.Session) error) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction for session mutation", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error("Failed to rollback session transaction", zap.String("token", token), zap.Error(rbErr))
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			r.logger.Error("Failed to commit session transaction", zap.String("token", token), zap.Error(commitErr))
			err = fmt.Errorf("error committing session transaction: %w", commitErr)
		}
	}()

	session, err := r.get(ctx, tx, getGameSessionForUpdateQuery, token)
	if err != nil {
		return err
	}
	if err = fn(session); err != nil {
		return err
	}
	session.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, updateGameSessionQuery,
		session.Token,          // $1
		session.CurrentNode,    // $2
		session.Score,          // $3
		session.PathHistory,    // $4
		session.ChoiceHistory,  // $5
		session.SentimentTally, // $6
		session.UpdatedAt,      // $7
	)
	if err != nil {
		r.logger.Error("Error updating game session", zap.String("token", token), zap.Error(err))
		return fmt.Errorf("failed to update game session %s: %w", token, err)
	}
	return nil
}

func (r *pgSessionStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, countGameSessionsQuery).Scan(&count); err != nil {
		r.logger.Error("Error counting game sessions", zap.Error(err))
		return 0, fmt.Errorf("failed to count game sessions: %w", err)
	}
	return count, nil
}
