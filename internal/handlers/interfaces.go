package handlers

import (
	"context"
	"time"

	"cellendar/internal/blob"
	"cellendar/internal/models/culture"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"
	"cellendar/internal/models/user"
	"cellendar/internal/reminder"
	"cellendar/internal/service"

	"github.com/google/uuid"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*user.User, *user.Tokens, error)
	Login(ctx context.Context, email, password string) (*user.User, *user.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*user.Tokens, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, accessToken string) (*user.User, error)
}

type CultureService interface {
	Create(ctx context.Context, userID uuid.UUID, in service.CreateCultureInput) (*culture.Culture, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error)
	List(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error)
	Update(ctx context.Context, userID, id uuid.UUID, in service.UpdateCultureInput) (*culture.Culture, error)
	Delete(ctx context.Context, userID, id uuid.UUID) ([]string, error)
	IncrementPassage(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error)
	Tasks(ctx context.Context, userID, id uuid.UUID) ([]*task.Task, error)
}

type TaskService interface {
	Now() time.Time
	Create(ctx context.Context, userID uuid.UUID, in service.CreateTaskInput) (*service.TaskResult, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*task.Task, error)
	List(ctx context.Context, userID uuid.UUID, f service.TaskFilter) ([]*task.Task, error)
	Update(ctx context.Context, userID, id uuid.UUID, in service.UpdateTaskInput) (*service.TaskResult, error)
	Delete(ctx context.Context, userID, id uuid.UUID) ([]string, error)
	CompleteTask(ctx context.Context, userID, id uuid.UUID) (*service.TaskResult, error)
	Today(ctx context.Context, userID uuid.UUID) ([]*task.Task, error)
	Overdue(ctx context.Context, userID uuid.UUID) ([]*task.Task, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*service.Dashboard, error)
	Cultures(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error)
}

type NotificationService interface {
	Settings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, in service.UpdateSettingsInput) (*notification.Settings, reminder.Report, error)
	Reschedule(ctx context.Context, userID uuid.UUID) (reminder.Report, error)
	Scheduled(ctx context.Context, userID uuid.UUID) ([]notification.Scheduled, error)
	DailySummary(ctx context.Context, userID uuid.UUID) (*service.DailySummary, error)
}

type DataService interface {
	Export(ctx context.Context, userID uuid.UUID, format service.Format) ([]byte, error)
	Import(ctx context.Context, userID uuid.UUID, raw []byte, format service.Format) (*service.ImportResult, error)
	Clear(ctx context.Context, userID uuid.UUID) ([]string, error)
	Backup(ctx context.Context, userID uuid.UUID) (*blob.Info, error)
	ListBackups(ctx context.Context, userID uuid.UUID) ([]blob.Info, error)
	Restore(ctx context.Context, userID uuid.UUID, key string) (*service.ImportResult, error)
}

// HealthChecker зависимость, без которой сервис не может работать.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

var (
	_ AuthService         = (*service.AuthService)(nil)
	_ CultureService      = (*service.CultureService)(nil)
	_ TaskService         = (*service.TaskService)(nil)
	_ NotificationService = (*service.NotificationService)(nil)
	_ DataService         = (*service.DataService)(nil)
)
