package service_test

import (
	"context"
	"testing"
	"time"

	"cellendar/internal/cache/memory"
	"cellendar/internal/models/culture"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"
	notifier "cellendar/internal/notifier/inmemory"
	"cellendar/internal/reminder"
	"cellendar/internal/repository/inmemory"
	"cellendar/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

// env собранный сервисный слой поверх хранилищ в памяти.
type env struct {
	clock         *clock
	store         *inmemory.Storage
	notifier      *notifier.Store
	scheduler     *reminder.Scheduler
	settings      *service.SettingsService
	cultures      *service.CultureService
	tasks         *service.TaskService
	notifications *service.NotificationService
	data          *service.DataService
	userID        uuid.UUID
}

var base = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		clock:    &clock{t: base},
		store:    inmemory.New(),
		notifier: notifier.New(),
		userID:   uuid.New(),
	}
	opts := []service.Option{service.WithClock(e.clock.Now), service.WithLocation(time.UTC)}

	e.settings = service.NewSettingsService(e.store, memory.New(time.Minute), opts...)
	e.scheduler = reminder.NewScheduler(e.notifier, e.settings, reminder.WithClock(e.clock.Now))
	e.cultures = service.NewCultureService(e.store, e.store, e.scheduler, opts...)
	e.tasks = service.NewTaskService(e.store, e.store, e.scheduler, e.settings, opts...)
	e.notifications = service.NewNotificationService(e.settings, e.store, e.scheduler, opts...)
	e.data = service.NewDataService(e.store, e.settings, e.scheduler, nil, opts...)
	return e
}

func (e *env) culture(t *testing.T, name string) *culture.Culture {
	t.Helper()
	c, err := e.cultures.Create(context.Background(), e.userID, service.CreateCultureInput{
		Name:     name,
		CellType: "HeLa",
	})
	require.NoError(t, err)
	return c
}

func (e *env) task(t *testing.T, c *culture.Culture, typ task.Type, scheduled time.Time) *task.Task {
	t.Helper()
	res, err := e.tasks.Create(context.Background(), e.userID, service.CreateTaskInput{
		CultureID:     c.ID,
		Type:          typ,
		Title:         "Task " + string(typ),
		ScheduledDate: scheduled,
	})
	require.NoError(t, err)
	require.Empty(t, res.Warnings)
	return res.Task
}

// pending уведомления пользователя по задачам: id задачи -> виды.
func (e *env) pending(t *testing.T) map[uuid.UUID][]notification.Kind {
	t.Helper()
	list, err := e.scheduler.Scheduled(context.Background(), e.userID)
	require.NoError(t, err)
	res := map[uuid.UUID][]notification.Kind{}
	for _, n := range list {
		if n.Payload.TaskID == nil {
			continue
		}
		res[*n.Payload.TaskID] = append(res[*n.Payload.TaskID], n.Payload.Kind)
	}
	return res
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	busErr, ok := service.AsBusinessError(err)
	require.True(t, ok, "ожидалась BusinessError, получено %v", err)
	assert.Equal(t, code, busErr.Code)
}

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }
