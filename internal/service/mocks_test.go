package service_test

import (
	"context"
	"time"

	"cellendar/internal/models/culture"
	"cellendar/internal/models/task"
	repo "cellendar/internal/repository"
	"cellendar/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTask(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListTasks(ctx context.Context, userID uuid.UUID, q repo.TaskQuery) ([]*task.Task, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateTask(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) ReopenTask(ctx context.Context, userID, id uuid.UUID, at time.Time) (*task.Task, error) {
	args := m.Called(ctx, userID, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockTaskRepository) CompleteTask(ctx context.Context, userID, id uuid.UUID, at time.Time) (*repo.Completion, error) {
	args := m.Called(ctx, userID, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repo.Completion), args.Error(1)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

// MockCultureRepository - мок репозитория культур
type MockCultureRepository struct {
	mock.Mock
}

func (m *MockCultureRepository) CreateCulture(ctx context.Context, c *culture.Culture) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCultureRepository) GetCulture(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*culture.Culture), args.Error(1)
}

func (m *MockCultureRepository) ListCultures(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*culture.Culture), args.Error(1)
}

func (m *MockCultureRepository) UpdateCulture(ctx context.Context, c *culture.Culture) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCultureRepository) DeleteCulture(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockCultureRepository) IncrementPassage(ctx context.Context, userID, id uuid.UUID, at time.Time) (*culture.Culture, error) {
	args := m.Called(ctx, userID, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*culture.Culture), args.Error(1)
}

var _ service.CultureRepository = (*MockCultureRepository)(nil)
