package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/models/culture"
	"cellendar/internal/models/task"
	"cellendar/internal/reminder"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resourceTask = "Задача"

// upcomingLimit сколько ближайших задач показывать на сводной странице.
const upcomingLimit = 5

type CreateTaskInput struct {
	CultureID     uuid.UUID
	Type          task.Type
	Title         string
	Description   string
	ScheduledDate time.Time
	// ReminderHours nil значит взять default_reminder_hours пользователя.
	ReminderHours *int
}

// UpdateTaskInput nil-поля не меняются. IsCompleted=true проводится через CompleteTask.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	ScheduledDate *time.Time
	ReminderHours *int
	IsCompleted   *bool
}

type TaskFilter struct {
	CultureID *uuid.UUID
	Completed *bool
	Status    task.Criterion
}

// TaskResult задача после изменения. Culture заполнена, если изменился номер пассажа.
type TaskResult struct {
	Task             *task.Task
	Culture          *culture.Culture
	AlreadyCompleted bool
	Warnings         []string
}

type Dashboard struct {
	TotalCultures  int          `json:"total_cultures"`
	ActiveCultures int          `json:"active_cultures"`
	Counts         task.Counts  `json:"counts"`
	Today          []*task.Task `json:"today"`
	Overdue        []*task.Task `json:"overdue"`
	Upcoming       []*task.Task `json:"upcoming"`

	Cultures []*culture.Culture `json:"-"`
}

type TaskService struct {
	tasks     TaskRepository
	cultures  CultureRepository
	scheduler ReminderScheduler
	settings  reminder.SettingsSource
	options
}

func NewTaskService(tasks TaskRepository, cultures CultureRepository, scheduler ReminderScheduler, settings reminder.SettingsSource, opts ...Option) *TaskService {
	return &TaskService{
		tasks:     tasks,
		cultures:  cultures,
		scheduler: scheduler,
		settings:  settings,
		options:   buildOptions(opts),
	}
}

// Now текущее время сервиса, по нему же считается просрочка в ответах.
func (s *TaskService) Now() time.Time {
	return s.now()
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*TaskResult, error) {
	if in.CultureID == uuid.Nil {
		return nil, NewValidationError("culture_id", "поле обязательно")
	}

	now := s.now().UTC()
	t := &task.Task{
		ID:            uuid.New(),
		UserID:        userID,
		CultureID:     in.CultureID,
		Type:          in.Type,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		ScheduledDate: in.ScheduledDate,
		ReminderHours: task.DefaultReminderHours,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.ReminderHours != nil {
		t.ReminderHours = *in.ReminderHours
	}
	if err := validateTask(t); err != nil {
		return nil, err
	}

	if _, err := s.cultures.GetCulture(ctx, userID, in.CultureID); err != nil {
		return nil, fromRepo(err, resourceCulture, in.CultureID.String(), "получение культуры")
	}

	if in.ReminderHours == nil {
		t.ReminderHours = s.defaultReminderHours(ctx, userID)
	}

	if err := s.tasks.CreateTask(ctx, t); err != nil {
		return nil, fromRepo(err, resourceCulture, in.CultureID.String(), "создание задачи")
	}
	logger.Info("Service: Задача создана",
		zap.String("task_id", t.ID.String()),
		zap.String("type", string(t.Type)))

	res := s.scheduler.ScheduleTask(ctx, t)
	return &TaskResult{Task: t, Warnings: res.Warnings}, nil
}

func (s *TaskService) defaultReminderHours(ctx context.Context, userID uuid.UUID) int {
	st, err := s.settings.Settings(ctx, userID)
	if err != nil {
		logger.Warn("Service: Настройки недоступны, используем напоминание по умолчанию", zap.Error(err))
		return task.DefaultReminderHours
	}
	return st.DefaultReminderHours
}

func (s *TaskService) Get(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetTask(ctx, userID, id)
	if err != nil {
		return nil, fromRepo(err, resourceTask, id.String(), "получение задачи")
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID, f TaskFilter) ([]*task.Task, error) {
	list, err := s.tasks.ListTasks(ctx, userID, repo.TaskQuery{CultureID: f.CultureID, Completed: f.Completed})
	if err != nil {
		return nil, fromRepo(err, resourceTask, "", "список задач")
	}
	return task.Filter(list, f.Status, s.now()), nil
}

func (s *TaskService) Update(ctx context.Context, userID, id uuid.UUID, in UpdateTaskInput) (*TaskResult, error) {
	opts, err := taskOptions(in)
	if err != nil {
		return nil, err
	}

	current, err := s.tasks.GetTask(ctx, userID, id)
	if err != nil {
		return nil, fromRepo(err, resourceTask, id.String(), "получение задачи")
	}

	updated := current.Clone()
	updated.Apply(opts...)
	if err := validateTask(updated); err != nil {
		return nil, err
	}

	// UpdateTask не трогает отметку о выполнении и возвращает её из хранилища,
	// поэтому параллельное выполнение задачи не откатывается.
	if len(opts) > 0 {
		updated.UpdatedAt = s.now().UTC()
		if err := s.tasks.UpdateTask(ctx, updated); err != nil {
			return nil, fromRepo(err, resourceTask, id.String(), "обновление задачи")
		}
	}

	if in.IsCompleted != nil {
		if *in.IsCompleted {
			if !updated.IsCompleted {
				return s.CompleteTask(ctx, userID, id)
			}
		} else if updated.IsCompleted {
			reopened, err := s.tasks.ReopenTask(ctx, userID, id, s.now().UTC())
			if err != nil {
				return nil, fromRepo(err, resourceTask, id.String(), "снятие отметки о выполнении")
			}
			logger.Info("Service: Отметка о выполнении снята", zap.String("task_id", id.String()))
			updated = reopened
		}
	}

	res := &TaskResult{Task: updated}
	res.Warnings = s.reschedule(ctx, updated)
	return res, nil
}

func taskOptions(in UpdateTaskInput) ([]task.TaskOption, error) {
	var opts []task.TaskOption
	if in.Title != nil {
		if err := requireText("title", *in.Title, maxTitleLen); err != nil {
			return nil, err
		}
		opts = append(opts, task.WithTitle(strings.TrimSpace(*in.Title)))
	}
	if in.Description != nil {
		if err := limitText("description", *in.Description, maxNotesLen); err != nil {
			return nil, err
		}
		opts = append(opts, task.WithDescription(*in.Description))
	}
	if in.ScheduledDate != nil {
		if err := validateRequiredTime("scheduled_date", *in.ScheduledDate); err != nil {
			return nil, err
		}
		opts = append(opts, task.WithScheduledDate(*in.ScheduledDate))
	}
	if in.ReminderHours != nil {
		if err := validateReminderHours("reminder_hours", *in.ReminderHours); err != nil {
			return nil, err
		}
		opts = append(opts, task.WithReminderHours(*in.ReminderHours))
	}
	return opts, nil
}

// reschedule снимает уведомления задачи и ставит заново, если она не выполнена.
func (s *TaskService) reschedule(ctx context.Context, t *task.Task) []string {
	warnings := []string{}
	if _, err := s.scheduler.CancelForTask(ctx, t.UserID, t.ID); err != nil {
		logger.Warn("Service: Не удалось снять уведомления задачи", zap.Error(err), zap.String("task_id", t.ID.String()))
		warnings = append(warnings, fmt.Sprintf("задача %s: %v", t.ID, err))
	}
	if !t.IsCompleted {
		warnings = append(warnings, s.scheduler.ScheduleTask(ctx, t).Warnings...)
	}
	return warnings
}

func (s *TaskService) Delete(ctx context.Context, userID, id uuid.UUID) ([]string, error) {
	if err := s.tasks.DeleteTask(ctx, userID, id); err != nil {
		return nil, fromRepo(err, resourceTask, id.String(), "удаление задачи")
	}
	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))

	warnings := []string{}
	if _, err := s.scheduler.CancelForTask(ctx, userID, id); err != nil {
		logger.Warn("Service: Не удалось снять уведомления задачи", zap.Error(err), zap.String("task_id", id.String()))
		warnings = append(warnings, fmt.Sprintf("задача %s: %v", id, err))
	}
	return warnings, nil
}

// Cultures культуры пользователя, на которые ссылаются его задачи.
func (s *TaskService) Cultures(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error) {
	list, err := s.cultures.ListCultures(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, resourceCulture, "", "список культур")
	}
	return list, nil
}

// CompleteTask отмечает задачу выполненной. Для пассажа номер пассажа культуры растёт на 1
// в той же операции хранилища. Повторный вызов ничего не меняет и возвращает текущее состояние.
func (s *TaskService) CompleteTask(ctx context.Context, userID, id uuid.UUID) (*TaskResult, error) {
	completion, err := s.tasks.CompleteTask(ctx, userID, id, s.now().UTC())
	if err != nil {
		return nil, fromRepo(err, resourceTask, id.String(), "выполнение задачи")
	}

	res := &TaskResult{
		Task:             completion.Task,
		Culture:          completion.Culture,
		AlreadyCompleted: !completion.Changed,
		Warnings:         []string{},
	}
	if !completion.Changed {
		logger.Info("Service: Задача уже выполнена", zap.String("task_id", id.String()))
		return res, nil
	}

	s.metrics.TaskCompleted(string(completion.Task.Type))
	fields := []zap.Field{zap.String("task_id", id.String()), zap.String("type", string(completion.Task.Type))}
	if completion.Culture != nil {
		fields = append(fields, zap.Int("passage_number", completion.Culture.PassageNumber))
	}
	logger.Info("Service: Задача выполнена", fields...)

	if _, err := s.scheduler.CancelForTask(ctx, userID, id); err != nil {
		logger.Warn("Service: Не удалось снять уведомления выполненной задачи", zap.Error(err), zap.String("task_id", id.String()))
		res.Warnings = append(res.Warnings, fmt.Sprintf("задача %s: %v", id, err))
	}
	return res, nil
}

// Today задачи с датой в пределах текущих суток в настроенном часовом поясе.
func (s *TaskService) Today(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	from, to := dayBounds(s.now(), s.loc)
	list, err := s.tasks.ListTasks(ctx, userID, repo.TaskQuery{From: &from, To: &to})
	if err != nil {
		return nil, fromRepo(err, resourceTask, "", "задачи на сегодня")
	}
	return list, nil
}

func (s *TaskService) Overdue(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	incomplete := false
	list, err := s.tasks.ListTasks(ctx, userID, repo.TaskQuery{Completed: &incomplete})
	if err != nil {
		return nil, fromRepo(err, resourceTask, "", "просроченные задачи")
	}
	return task.Filter(list, task.CriterionOverdue, s.now()), nil
}

func (s *TaskService) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	cultures, err := s.cultures.ListCultures(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, resourceCulture, "", "список культур")
	}
	tasks, err := s.tasks.ListTasks(ctx, userID, repo.TaskQuery{})
	if err != nil {
		return nil, fromRepo(err, resourceTask, "", "список задач")
	}

	now := s.now()
	from, to := dayBounds(now, s.loc)
	d := &Dashboard{
		Cultures:      cultures,
		TotalCultures: len(cultures),
		Counts:        task.Count(tasks, now),
		Today:         []*task.Task{},
		Overdue:       task.Filter(tasks, task.CriterionOverdue, now),
		Upcoming:      []*task.Task{},
	}
	for _, c := range cultures {
		if c.Status == culture.StatusActive {
			d.ActiveCultures++
		}
	}
	for _, t := range tasks {
		if t.IsCompleted || t.ScheduledDate.Before(from) {
			continue
		}
		if t.ScheduledDate.Before(to) {
			d.Today = append(d.Today, t)
		} else if len(d.Upcoming) < upcomingLimit {
			d.Upcoming = append(d.Upcoming, t)
		}
	}
	return d, nil
}
