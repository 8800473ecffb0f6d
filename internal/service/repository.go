package service

import (
	"context"
	"time"

	"cellendar/internal/models/culture"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"
	repo "cellendar/internal/repository"
	"cellendar/internal/reminder"

	"github.com/google/uuid"
)

// Все методы репозиториев ограничены владельцем: чужая запись это repo.ErrNotFound.

type CultureRepository interface {
	CreateCulture(ctx context.Context, c *culture.Culture) error
	GetCulture(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error)
	ListCultures(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error)
	UpdateCulture(ctx context.Context, c *culture.Culture) error
	// DeleteCulture удаляет культуру с её задачами и возвращает id удалённых задач.
	DeleteCulture(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error)
	IncrementPassage(ctx context.Context, userID, id uuid.UUID, at time.Time) (*culture.Culture, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *task.Task) error
	GetTask(ctx context.Context, userID, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID, q repo.TaskQuery) ([]*task.Task, error)
	// UpdateTask меняет только редактируемые поля. Отметку о выполнении t получает из хранилища.
	UpdateTask(ctx context.Context, t *task.Task) error
	// ReopenTask снимает отметку о выполнении, если она стоит. Номер пассажа не меняется.
	ReopenTask(ctx context.Context, userID, id uuid.UUID, at time.Time) (*task.Task, error)
	DeleteTask(ctx context.Context, userID, id uuid.UUID) error
	// CompleteTask одна атомарная операция: отметка и, для пассажа, +1 к номеру пассажа.
	CompleteTask(ctx context.Context, userID, id uuid.UUID, at time.Time) (*repo.Completion, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error)
	UpsertSettings(ctx context.Context, st *notification.Settings) error
}

type DataRepository interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (*repo.Snapshot, error)
	ReplaceAll(ctx context.Context, userID uuid.UUID, snap *repo.Snapshot) error
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

// ReminderScheduler реализуется reminder.Scheduler.
type ReminderScheduler interface {
	ScheduleTask(ctx context.Context, t *task.Task) reminder.Result
	CancelForTask(ctx context.Context, userID, taskID uuid.UUID) (int, error)
	CancelAll(ctx context.Context, userID uuid.UUID) (int, error)
	RescheduleAll(ctx context.Context, userID uuid.UUID, tasks []*task.Task) (reminder.Report, error)
	ScheduleDailySummary(ctx context.Context, userID uuid.UUID, count int) (string, error)
	Scheduled(ctx context.Context, userID uuid.UUID) ([]notification.Scheduled, error)
}

var _ ReminderScheduler = (*reminder.Scheduler)(nil)
