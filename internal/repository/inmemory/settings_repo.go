package inmemory

import (
	"context"

	"cellendar/internal/models/notification"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) GetSettings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	st, ok := s.settings[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *Storage) UpsertSettings(ctx context.Context, st *notification.Settings) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if existed, ok := s.settings[st.UserID]; ok {
		st.CreatedAt = existed.CreatedAt
	}
	s.settings[st.UserID] = st.Clone()
	return nil
}
