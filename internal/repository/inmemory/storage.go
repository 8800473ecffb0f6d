package inmemory

import (
	"context"
	"sync"

	"cellendar/internal/logger"
	"cellendar/internal/models/culture"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"
	"cellendar/internal/models/user"

	"github.com/google/uuid"
)

// Storage хранилище в памяти процесса. Один мьютекс на все таблицы,
// поэтому составные операции (выполнение задачи с пассажем, каскадное удаление) атомарны.
// Наружу всегда отдаются копии.
type Storage struct {
	mtx *sync.RWMutex

	cultures   map[uuid.UUID]*culture.Culture
	cultureIDs []uuid.UUID

	tasks   map[uuid.UUID]*task.Task
	taskIDs []uuid.UUID

	settings map[uuid.UUID]*notification.Settings

	users    map[uuid.UUID]*user.User
	sessions map[uuid.UUID]*user.Session
}

func New() *Storage {
	return &Storage{
		mtx:        &sync.RWMutex{},
		cultures:   make(map[uuid.UUID]*culture.Culture),
		cultureIDs: []uuid.UUID{},
		tasks:      make(map[uuid.UUID]*task.Task),
		taskIDs:    []uuid.UUID{},
		settings:   make(map[uuid.UUID]*notification.Settings),
		users:      make(map[uuid.UUID]*user.User),
		sessions:   make(map[uuid.UUID]*user.Session),
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Close() {}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for ind, val := range ids {
		if val == id {
			return append(ids[:ind], ids[ind+1:]...)
		}
	}
	return ids
}
