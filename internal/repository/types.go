package repository

import (
	"time"

	"cellendar/internal/models/culture"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"

	"github.com/google/uuid"
)

// TaskQuery фильтры списка задач. Пустые поля не ограничивают выборку.
// From включительно, To не включительно.
type TaskQuery struct {
	CultureID *uuid.UUID
	Completed *bool
	From      *time.Time
	To        *time.Time
}

func (q TaskQuery) Match(t *task.Task) bool {
	if q.CultureID != nil && t.CultureID != *q.CultureID {
		return false
	}
	if q.Completed != nil && t.IsCompleted != *q.Completed {
		return false
	}
	if q.From != nil && t.ScheduledDate.Before(*q.From) {
		return false
	}
	if q.To != nil && !t.ScheduledDate.Before(*q.To) {
		return false
	}
	return true
}

// Completion результат отметки задачи выполненной.
// Changed == false значит задача уже была выполнена и ничего не изменилось.
// Culture заполнена, только если изменился номер пассажа.
type Completion struct {
	Task    *task.Task
	Culture *culture.Culture
	Changed bool
}

const SnapshotVersion = 1

// Snapshot все данные одного пользователя для экспорта и импорта.
type Snapshot struct {
	Version    int                    `json:"version" yaml:"version"`
	ExportedAt time.Time              `json:"exported_at" yaml:"exported_at"`
	Cultures   []*culture.Culture     `json:"cultures" yaml:"cultures"`
	Tasks      []*task.Task           `json:"tasks" yaml:"tasks"`
	Settings   *notification.Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
}
