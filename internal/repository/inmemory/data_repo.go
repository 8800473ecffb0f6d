package inmemory

import (
	"context"

	"cellendar/internal/models/culture"
	"cellendar/internal/models/task"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) Snapshot(ctx context.Context, userID uuid.UUID) (*repo.Snapshot, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snap := &repo.Snapshot{
		Version:  repo.SnapshotVersion,
		Cultures: []*culture.Culture{},
		Tasks:    []*task.Task{},
	}
	for _, id := range s.cultureIDs {
		if c := s.cultures[id]; c.UserID == userID {
			snap.Cultures = append(snap.Cultures, c.Clone())
		}
	}
	for _, id := range s.taskIDs {
		if t := s.tasks[id]; t.UserID == userID {
			snap.Tasks = append(snap.Tasks, t.Clone())
		}
	}
	if st, ok := s.settings[userID]; ok {
		snap.Settings = st.Clone()
	}
	return snap, nil
}

// ReplaceAll заменяет все данные пользователя содержимым снимка за одну блокировку.
// Задача со ссылкой на культуру вне снимка отклоняется целиком, без частичной записи.
func (s *Storage) ReplaceAll(ctx context.Context, userID uuid.UUID, snap *repo.Snapshot) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	known := make(map[uuid.UUID]struct{}, len(snap.Cultures))
	for _, c := range snap.Cultures {
		known[c.ID] = struct{}{}
		if existed, ok := s.cultures[c.ID]; ok && existed.UserID != userID {
			return repo.ErrAlreadyExists
		}
	}
	for _, t := range snap.Tasks {
		if _, ok := known[t.CultureID]; !ok {
			return repo.ErrNotFound
		}
		if existed, ok := s.tasks[t.ID]; ok && existed.UserID != userID {
			return repo.ErrAlreadyExists
		}
	}

	s.deleteAllLocked(userID)

	for _, c := range snap.Cultures {
		cp := c.Clone()
		cp.UserID = userID
		s.cultures[cp.ID] = cp
		s.cultureIDs = append(s.cultureIDs, cp.ID)
	}
	for _, t := range snap.Tasks {
		cp := t.Clone()
		cp.UserID = userID
		s.tasks[cp.ID] = cp
		s.taskIDs = append(s.taskIDs, cp.ID)
	}
	if snap.Settings != nil {
		st := snap.Settings.Clone()
		st.UserID = userID
		s.settings[userID] = st
	}
	return nil
}

// DeleteAll удаляет культуры, задачи и настройки пользователя. Учётная запись остаётся.
func (s *Storage) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.deleteAllLocked(userID)
	return nil
}

func (s *Storage) deleteAllLocked(userID uuid.UUID) {
	keptTasks := s.taskIDs[:0]
	for _, id := range s.taskIDs {
		if s.tasks[id].UserID == userID {
			delete(s.tasks, id)
			continue
		}
		keptTasks = append(keptTasks, id)
	}
	s.taskIDs = keptTasks

	keptCultures := s.cultureIDs[:0]
	for _, id := range s.cultureIDs {
		if s.cultures[id].UserID == userID {
			delete(s.cultures, id)
			continue
		}
		keptCultures = append(keptCultures, id)
	}
	s.cultureIDs = keptCultures

	delete(s.settings, userID)
}
