package inmemory

import (
	"context"
	"time"

	"cellendar/internal/models/user"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, existed := range s.users {
		if existed.Email == u.Email {
			return repo.ErrAlreadyExists
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Storage) CreateSession(ctx context.Context, sess *user.Session) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.users[sess.UserID]; !ok {
		return repo.ErrNotFound
	}
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id uuid.UUID) (*user.Session, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *sess
	if sess.RevokedAt != nil {
		revoked := *sess.RevokedAt
		cp.RevokedAt = &revoked
	}
	return &cp, nil
}

// RevokeSession повторный отзыв не меняет исходное время отзыва
func (s *Storage) RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return repo.ErrNotFound
	}
	if sess.RevokedAt == nil {
		sess.RevokedAt = &at
	}
	return nil
}

func (s *Storage) ConsumeSession(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sess, ok := s.sessions[id]
	if !ok || !sess.Active(at) {
		return repo.ErrNotFound
	}
	sess.RevokedAt = &at
	return nil
}
