package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/models/user"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	start := time.Now()
	defer logSlow("create_user", start)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, repo.ErrAlreadyExists) {
			return mapped
		}
		logger.Error("Repository: Не удалось создать пользователя", err)
		return fmt.Errorf("создание пользователя: %w", err)
	}
	return nil
}

func (s *Storage) getUser(ctx context.Context, where string, arg any) (*user.User, error) {
	var u user.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, repo.ErrNotFound) {
			return nil, mapped
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return &u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	defer logSlow("get_user_by_email", time.Now())
	return s.getUser(ctx, "email = $1", email)
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	defer logSlow("get_user_by_id", time.Now())
	return s.getUser(ctx, "id = $1", id)
}

func (s *Storage) CreateSession(ctx context.Context, sess *user.Session) error {
	start := time.Now()
	defer logSlow("create_session", start)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, revoked_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.UserID, sess.ExpiresAt, sess.RevokedAt, sess.CreatedAt)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, repo.ErrNotFound) || errors.Is(mapped, repo.ErrAlreadyExists) {
			return mapped
		}
		logger.Error("Repository: Не удалось создать сессию", err)
		return fmt.Errorf("создание сессии: %w", err)
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id uuid.UUID) (*user.Session, error) {
	start := time.Now()
	defer logSlow("get_session", start)

	var sess user.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, expires_at, revoked_at, created_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.RevokedAt, &sess.CreatedAt)
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, repo.ErrNotFound) {
			return nil, mapped
		}
		logger.Error("Repository: Не удалось получить сессию", err)
		return nil, fmt.Errorf("получение сессии: %w", err)
	}
	return &sess, nil
}

func (s *Storage) RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) error {
	start := time.Now()
	defer logSlow("revoke_session", start)

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET revoked_at = COALESCE(revoked_at, $1) WHERE id = $2`, at, id)
	if err != nil {
		logger.Error("Repository: Не удалось отозвать сессию", err)
		return fmt.Errorf("отзыв сессии: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ConsumeSession условный UPDATE: уже отозванную или истёкшую сессию не трогает.
func (s *Storage) ConsumeSession(ctx context.Context, id uuid.UUID, at time.Time) error {
	start := time.Now()
	defer logSlow("consume_session", start)

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL AND expires_at > $1`, at, id)
	if err != nil {
		logger.Error("Repository: Не удалось отозвать сессию", err)
		return fmt.Errorf("отзыв сессии: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
