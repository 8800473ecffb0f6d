package inmemory

import (
	"context"
	"sort"
	"time"

	"cellendar/internal/models/culture"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateCulture(ctx context.Context, c *culture.Culture) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.cultures[c.ID]; ok {
		return repo.ErrAlreadyExists
	}
	s.cultures[c.ID] = c.Clone()
	s.cultureIDs = append(s.cultureIDs, c.ID)
	return nil
}

// чужая культура неотличима от отсутствующей
func (s *Storage) ownedCulture(userID, id uuid.UUID) (*culture.Culture, bool) {
	c, ok := s.cultures[id]
	if !ok || c.UserID != userID {
		return nil, false
	}
	return c, true
}

func (s *Storage) GetCulture(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.ownedCulture(userID, id)
	if !ok {
		return nil, repo.ErrNotFound
	}
	return c.Clone(), nil
}

// ListCultures новые сверху
func (s *Storage) ListCultures(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*culture.Culture{}
	for _, id := range s.cultureIDs {
		c := s.cultures[id]
		if c.UserID != userID {
			continue
		}
		res = append(res, c.Clone())
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// UpdateCulture номер пассажа только растёт: в c возвращается фактически сохранённое значение.
func (s *Storage) UpdateCulture(ctx context.Context, c *culture.Culture) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.ownedCulture(c.UserID, c.ID)
	if !ok {
		return repo.ErrNotFound
	}

	c.PassageNumber = max(c.PassageNumber, existed.PassageNumber)
	c.CreatedAt = existed.CreatedAt
	s.cultures[c.ID] = c.Clone()
	return nil
}

// DeleteCulture каскадно удаляет задачи культуры и возвращает их идентификаторы.
func (s *Storage) DeleteCulture(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.ownedCulture(userID, id); !ok {
		return nil, repo.ErrNotFound
	}

	removed := []uuid.UUID{}
	for _, taskID := range append([]uuid.UUID(nil), s.taskIDs...) {
		if s.tasks[taskID].CultureID != id {
			continue
		}
		delete(s.tasks, taskID)
		s.taskIDs = removeID(s.taskIDs, taskID)
		removed = append(removed, taskID)
	}

	delete(s.cultures, id)
	s.cultureIDs = removeID(s.cultureIDs, id)
	return removed, nil
}

func (s *Storage) IncrementPassage(ctx context.Context, userID, id uuid.UUID, at time.Time) (*culture.Culture, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c, ok := s.ownedCulture(userID, id)
	if !ok {
		return nil, repo.ErrNotFound
	}
	incrementPassage(c, at)
	return c.Clone(), nil
}

func incrementPassage(c *culture.Culture, at time.Time) {
	c.PassageNumber++
	c.LastActionDate = at
	c.UpdatedAt = at
}
