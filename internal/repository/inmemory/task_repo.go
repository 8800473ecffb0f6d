package inmemory

import (
	"context"
	"time"

	"cellendar/internal/models/task"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
)

// CreateTask задача может ссылаться только на существующую культуру того же пользователя.
func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.ownedCulture(t.UserID, t.CultureID); !ok {
		return repo.ErrNotFound
	}
	if _, ok := s.tasks[t.ID]; ok {
		return repo.ErrAlreadyExists
	}

	s.tasks[t.ID] = t.Clone()
	s.taskIDs = append(s.taskIDs, t.ID)
	return nil
}

func (s *Storage) ownedTask(userID, id uuid.UUID) (*task.Task, bool) {
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, false
	}
	return t, true
}

func (s *Storage) GetTask(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.ownedTask(userID, id)
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t.Clone(), nil
}

// ListTasks по возрастанию даты, при равенстве в порядке создания.
func (s *Storage) ListTasks(ctx context.Context, userID uuid.UUID, q repo.TaskQuery) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.taskIDs {
		t := s.tasks[id]
		if t.UserID != userID || !q.Match(t) {
			continue
		}
		res = append(res, t.Clone())
	}
	task.SortBySchedule(res)
	return res, nil
}

// UpdateTask культура, владелец, дата создания и отметка о выполнении не меняются.
// Их текущие значения записываются обратно в t.
func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.ownedTask(t.UserID, t.ID)
	if !ok {
		return repo.ErrNotFound
	}

	t.CultureID = existed.CultureID
	t.CreatedAt = existed.CreatedAt
	t.IsCompleted = existed.IsCompleted
	t.CompletedDate = nil
	if existed.CompletedDate != nil {
		completed := *existed.CompletedDate
		t.CompletedDate = &completed
	}
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (s *Storage) ReopenTask(ctx context.Context, userID, id uuid.UUID, at time.Time) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.ownedTask(userID, id)
	if !ok {
		return nil, repo.ErrNotFound
	}
	if t.IsCompleted {
		t.Apply(task.WithIncomplete())
		t.UpdatedAt = at
	}
	return t.Clone(), nil
}

func (s *Storage) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.ownedTask(userID, id); !ok {
		return repo.ErrNotFound
	}
	delete(s.tasks, id)
	s.taskIDs = removeID(s.taskIDs, id)
	return nil
}

// CompleteTask отметка о выполнении и инкремент пассажа под одной блокировкой.
// Повторный вызов ничего не меняет.
func (s *Storage) CompleteTask(ctx context.Context, userID, id uuid.UUID, at time.Time) (*repo.Completion, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.ownedTask(userID, id)
	if !ok {
		return nil, repo.ErrNotFound
	}
	if t.IsCompleted {
		return &repo.Completion{Task: t.Clone(), Changed: false}, nil
	}

	res := &repo.Completion{Changed: true}
	if t.Type == task.TypePassaging {
		c, ok := s.ownedCulture(userID, t.CultureID)
		if !ok {
			return nil, repo.ErrNotFound
		}
		incrementPassage(c, at)
		res.Culture = c.Clone()
	}

	t.MarkCompleted(at)
	t.UpdatedAt = at
	res.Task = t.Clone()
	return res, nil
}
