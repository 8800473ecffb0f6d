package handlers_test

import (
	"context"
	"time"

	"cellendar/internal/blob"
	"cellendar/internal/handlers"
	"cellendar/internal/models/culture"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"
	"cellendar/internal/models/user"
	"cellendar/internal/reminder"
	"cellendar/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*user.User, *user.Tokens, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*user.User), args.Get(1).(*user.Tokens), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*user.User, *user.Tokens, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*user.User), args.Get(1).(*user.Tokens), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*user.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Tokens), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, accessToken string) (*user.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockCultureService struct {
	mock.Mock
}

func (m *MockCultureService) Create(ctx context.Context, userID uuid.UUID, in service.CreateCultureInput) (*culture.Culture, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*culture.Culture), args.Error(1)
}

func (m *MockCultureService) Get(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*culture.Culture), args.Error(1)
}

func (m *MockCultureService) List(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*culture.Culture), args.Error(1)
}

func (m *MockCultureService) Update(ctx context.Context, userID, id uuid.UUID, in service.UpdateCultureInput) (*culture.Culture, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*culture.Culture), args.Error(1)
}

func (m *MockCultureService) Delete(ctx context.Context, userID, id uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCultureService) IncrementPassage(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*culture.Culture), args.Error(1)
}

func (m *MockCultureService) Tasks(ctx context.Context, userID, id uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Now() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

func (m *MockTaskService) Create(ctx context.Context, userID uuid.UUID, in service.CreateTaskInput) (*service.TaskResult, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskResult), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, userID uuid.UUID, f service.TaskFilter) ([]*task.Task, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, userID, id uuid.UUID, in service.UpdateTaskInput) (*service.TaskResult, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskResult), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, userID, id uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTaskService) CompleteTask(ctx context.Context, userID, id uuid.UUID) (*service.TaskResult, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskResult), args.Error(1)
}

func (m *MockTaskService) Today(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) Overdue(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) Dashboard(ctx context.Context, userID uuid.UUID) (*service.Dashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Dashboard), args.Error(1)
}

func (m *MockTaskService) Cultures(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*culture.Culture), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Settings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Settings), args.Error(1)
}

func (m *MockNotificationService) UpdateSettings(ctx context.Context, userID uuid.UUID, in service.UpdateSettingsInput) (*notification.Settings, reminder.Report, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, reminder.Report{}, args.Error(2)
	}
	return args.Get(0).(*notification.Settings), args.Get(1).(reminder.Report), args.Error(2)
}

func (m *MockNotificationService) Reschedule(ctx context.Context, userID uuid.UUID) (reminder.Report, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(reminder.Report), args.Error(1)
}

func (m *MockNotificationService) Scheduled(ctx context.Context, userID uuid.UUID) ([]notification.Scheduled, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Scheduled), args.Error(1)
}

func (m *MockNotificationService) DailySummary(ctx context.Context, userID uuid.UUID) (*service.DailySummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DailySummary), args.Error(1)
}

type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) Export(ctx context.Context, userID uuid.UUID, format service.Format) ([]byte, error) {
	args := m.Called(ctx, userID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDataService) Import(ctx context.Context, userID uuid.UUID, raw []byte, format service.Format) (*service.ImportResult, error) {
	args := m.Called(ctx, userID, raw, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportResult), args.Error(1)
}

func (m *MockDataService) Clear(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDataService) Backup(ctx context.Context, userID uuid.UUID) (*blob.Info, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blob.Info), args.Error(1)
}

func (m *MockDataService) ListBackups(ctx context.Context, userID uuid.UUID) ([]blob.Info, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]blob.Info), args.Error(1)
}

func (m *MockDataService) Restore(ctx context.Context, userID uuid.UUID, key string) (*service.ImportResult, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportResult), args.Error(1)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var (
	_ handlers.AuthService         = (*MockAuthService)(nil)
	_ handlers.CultureService      = (*MockCultureService)(nil)
	_ handlers.TaskService         = (*MockTaskService)(nil)
	_ handlers.NotificationService = (*MockNotificationService)(nil)
	_ handlers.DataService         = (*MockDataService)(nil)
	_ handlers.HealthChecker       = (*MockHealthChecker)(nil)
)
