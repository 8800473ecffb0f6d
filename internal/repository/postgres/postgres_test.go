package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cellendar/internal/config"
	"cellendar/internal/models/culture"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"
	"cellendar/internal/models/user"
	"cellendar/internal/repository"
	"cellendar/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container  testcontainers.Container
	storage    *postgres.Storage
	ctx        context.Context
	connString string
	userID     uuid.UUID
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "5432")
	s.Require().NoError(err)

	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	s.Require().NoError(postgres.Migrate(s.connString, postgres.Up))

	s.storage, err = postgres.New(s.ctx, config.DatabaseConfig{URL: s.connString, MaxConnections: 10})
	s.Require().NoError(err)
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает таблицы перед каждым тестом
func (s *PostgresTestSuite) SetupTest() {
	conn, err := pgx.Connect(s.ctx, s.connString)
	s.Require().NoError(err)
	defer conn.Close(s.ctx)

	_, err = conn.Exec(s.ctx, `TRUNCATE tasks, cultures, notification_settings, sessions, users`)
	s.Require().NoError(err)

	s.userID = uuid.New()
}

// TestPostgresTestSuite запускает suite
func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) newCulture(name string) *culture.Culture {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &culture.Culture{
		ID:             uuid.New(),
		UserID:         s.userID,
		Name:           name,
		CellType:       "HeLa",
		StartDate:      now,
		LastActionDate: now,
		Status:         culture.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.Require().NoError(s.storage.CreateCulture(s.ctx, c))
	return c
}

func (s *PostgresTestSuite) newTask(c *culture.Culture, typ task.Type, scheduled time.Time) *task.Task {
	now := time.Now().UTC().Truncate(time.Microsecond)
	t := &task.Task{
		ID:            uuid.New(),
		UserID:        c.UserID,
		CultureID:     c.ID,
		Type:          typ,
		Title:         string(typ),
		ScheduledDate: scheduled,
		ReminderHours: task.DefaultReminderHours,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.Require().NoError(s.storage.CreateTask(s.ctx, t))
	return t
}

func (s *PostgresTestSuite) TestStorage_HealthCheck() {
	s.NoError(s.storage.HealthCheck(s.ctx))
}

func (s *PostgresTestSuite) TestStorage_CultureCRUD() {
	c := s.newCulture("HEK293")

	got, err := s.storage.GetCulture(s.ctx, s.userID, c.ID)
	s.Require().NoError(err)
	s.Equal("HEK293", got.Name)
	s.Equal(culture.StatusActive, got.Status)

	_, err = s.storage.GetCulture(s.ctx, uuid.New(), c.ID)
	s.ErrorIs(err, repository.ErrNotFound)

	got.Name = "HEK293T"
	got.PassageNumber = 3
	s.Require().NoError(s.storage.UpdateCulture(s.ctx, got))

	got.PassageNumber = 1
	s.Require().NoError(s.storage.UpdateCulture(s.ctx, got))
	s.Equal(3, got.PassageNumber)

	list, err := s.storage.ListCultures(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("HEK293T", list[0].Name)

	err = s.storage.CreateCulture(s.ctx, c)
	s.ErrorIs(err, repository.ErrAlreadyExists)
}

func (s *PostgresTestSuite) TestStorage_CreateTaskForeignCulture() {
	c := s.newCulture("c")

	t := &task.Task{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		CultureID:     c.ID,
		Type:          task.TypeObservation,
		Title:         "x",
		ScheduledDate: time.Now(),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.ErrorIs(s.storage.CreateTask(s.ctx, t), repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_ListTasksFilters() {
	c := s.newCulture("c")
	base := time.Now().UTC().Truncate(time.Second)

	late := s.newTask(c, task.TypeObservation, base.Add(5*time.Hour))
	early := s.newTask(c, task.TypeMediaChange, base.Add(time.Hour))

	all, err := s.storage.ListTasks(s.ctx, s.userID, repository.TaskQuery{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(early.ID, all[0].ID)
	s.Equal(late.ID, all[1].ID)

	from, to := base, base.Add(2*time.Hour)
	window, err := s.storage.ListTasks(s.ctx, s.userID, repository.TaskQuery{From: &from, To: &to, CultureID: &c.ID})
	s.Require().NoError(err)
	s.Require().Len(window, 1)
	s.Equal(early.ID, window[0].ID)

	done := true
	completed, err := s.storage.ListTasks(s.ctx, s.userID, repository.TaskQuery{Completed: &done})
	s.Require().NoError(err)
	s.Empty(completed)
}

func (s *PostgresTestSuite) TestStorage_CompleteTaskIncrementsOnce() {
	c := s.newCulture("c")
	t := s.newTask(c, task.TypePassaging, time.Now())
	at := time.Now().UTC().Truncate(time.Microsecond)

	first, err := s.storage.CompleteTask(s.ctx, s.userID, t.ID, at)
	s.Require().NoError(err)
	s.True(first.Changed)
	s.Require().NotNil(first.Culture)
	s.Equal(1, first.Culture.PassageNumber)

	second, err := s.storage.CompleteTask(s.ctx, s.userID, t.ID, at.Add(time.Minute))
	s.Require().NoError(err)
	s.False(second.Changed)
	s.Nil(second.Culture)
	s.True(second.Task.IsCompleted)

	_, err = s.storage.CompleteTask(s.ctx, s.userID, uuid.New(), at)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_UpdateTaskKeepsCompletion() {
	c := s.newCulture("c")
	t := s.newTask(c, task.TypePassaging, time.Now())

	stale, err := s.storage.GetTask(s.ctx, s.userID, t.ID)
	s.Require().NoError(err)

	_, err = s.storage.CompleteTask(s.ctx, s.userID, t.ID, time.Now().UTC())
	s.Require().NoError(err)

	stale.Title = "renamed"
	stale.UpdatedAt = time.Now().UTC()
	s.Require().NoError(s.storage.UpdateTask(s.ctx, stale))
	s.True(stale.IsCompleted)
	s.NotNil(stale.CompletedDate)

	got, err := s.storage.GetTask(s.ctx, s.userID, t.ID)
	s.Require().NoError(err)
	s.Equal("renamed", got.Title)
	s.True(got.IsCompleted)

	reopened, err := s.storage.ReopenTask(s.ctx, s.userID, t.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.False(reopened.IsCompleted)
	s.Nil(reopened.CompletedDate)

	again, err := s.storage.ReopenTask(s.ctx, s.userID, t.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.False(again.IsCompleted)

	cult, err := s.storage.GetCulture(s.ctx, s.userID, c.ID)
	s.Require().NoError(err)
	s.Equal(1, cult.PassageNumber)

	_, err = s.storage.ReopenTask(s.ctx, s.userID, uuid.New(), time.Now())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_ConcurrentPassaging() {
	c := s.newCulture("c")
	const n = 10
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = s.newTask(c, task.TypePassaging, time.Now()).ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for range 2 {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				_, err := s.storage.CompleteTask(s.ctx, s.userID, id, time.Now())
				s.NoError(err)
			}(id)
		}
	}
	wg.Wait()

	got, err := s.storage.GetCulture(s.ctx, s.userID, c.ID)
	s.Require().NoError(err)
	s.Equal(n, got.PassageNumber)
}

func (s *PostgresTestSuite) TestStorage_DeleteCultureCascades() {
	c := s.newCulture("c")
	t1 := s.newTask(c, task.TypeObservation, time.Now())
	t2 := s.newTask(c, task.TypeMediaChange, time.Now())

	removed, err := s.storage.DeleteCulture(s.ctx, s.userID, c.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]uuid.UUID{t1.ID, t2.ID}, removed)

	_, err = s.storage.GetTask(s.ctx, s.userID, t1.ID)
	s.ErrorIs(err, repository.ErrNotFound)

	_, err = s.storage.DeleteCulture(s.ctx, s.userID, c.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_SettingsUpsert() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.storage.GetSettings(s.ctx, s.userID)
	s.ErrorIs(err, repository.ErrNotFound)

	st := notification.DefaultSettings(s.userID, now)
	s.Require().NoError(s.storage.UpsertSettings(s.ctx, st))

	st.Enabled = false
	st.UpdatedAt = now.Add(time.Minute)
	s.Require().NoError(s.storage.UpsertSettings(s.ctx, st))

	got, err := s.storage.GetSettings(s.ctx, s.userID)
	s.Require().NoError(err)
	s.False(got.Enabled)
	s.True(got.CreatedAt.Equal(now))
}

func (s *PostgresTestSuite) TestStorage_UsersAndSessions() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &user.User{ID: uuid.New(), Email: "lab@example.com", PasswordHash: "hash", CreatedAt: now}
	s.Require().NoError(s.storage.CreateUser(s.ctx, u))
	s.ErrorIs(s.storage.CreateUser(s.ctx, &user.User{ID: uuid.New(), Email: u.Email, CreatedAt: now}), repository.ErrAlreadyExists)

	sess := &user.Session{ID: uuid.New(), UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	s.Require().NoError(s.storage.CreateSession(s.ctx, sess))
	s.Require().NoError(s.storage.RevokeSession(s.ctx, sess.ID, now))

	got, err := s.storage.GetSession(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.False(got.Active(now))

	s.ErrorIs(s.storage.RevokeSession(s.ctx, uuid.New(), now), repository.ErrNotFound)

	rotated := &user.Session{ID: uuid.New(), UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	s.Require().NoError(s.storage.CreateSession(s.ctx, rotated))
	s.Require().NoError(s.storage.ConsumeSession(s.ctx, rotated.ID, now))
	s.ErrorIs(s.storage.ConsumeSession(s.ctx, rotated.ID, now), repository.ErrNotFound)
	s.ErrorIs(s.storage.ConsumeSession(s.ctx, sess.ID, now), repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_ReplaceAll() {
	old := s.newCulture("old")
	s.newTask(old, task.TypeObservation, time.Now())

	now := time.Now().UTC().Truncate(time.Microsecond)
	nc := &culture.Culture{ID: uuid.New(), Name: "imported", CellType: "CHO", StartDate: now,
		LastActionDate: now, Status: culture.StatusPaused, CreatedAt: now, UpdatedAt: now}
	snap := &repository.Snapshot{
		Version:  repository.SnapshotVersion,
		Cultures: []*culture.Culture{nc},
		Tasks: []*task.Task{{ID: uuid.New(), CultureID: nc.ID, Type: task.TypeMediaChange, Title: "t",
			ScheduledDate: now, ReminderHours: 2, CreatedAt: now, UpdatedAt: now}},
		Settings: notification.DefaultSettings(s.userID, now),
	}
	s.Require().NoError(s.storage.ReplaceAll(s.ctx, s.userID, snap))

	got, err := s.storage.Snapshot(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(got.Cultures, 1)
	s.Equal("imported", got.Cultures[0].Name)
	s.Len(got.Tasks, 1)
	s.NotNil(got.Settings)

	s.Require().NoError(s.storage.DeleteAll(s.ctx, s.userID))
	got, err = s.storage.Snapshot(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(got.Cultures)
	s.Nil(got.Settings)
}
