package service

import (
	"context"

	"cellendar/internal/logger"
	"cellendar/internal/models/notification"
	"cellendar/internal/reminder"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DailySummary struct {
	Count  int    `json:"count"`
	Handle string `json:"handle,omitempty"`
}

// NotificationService всё, что меняет расписание целиком: смена настроек, ручное перепланирование, сводка за день.
type NotificationService struct {
	settings  *SettingsService
	tasks     TaskRepository
	scheduler ReminderScheduler
	options
}

func NewNotificationService(settings *SettingsService, tasks TaskRepository, scheduler ReminderScheduler, opts ...Option) *NotificationService {
	return &NotificationService{
		settings:  settings,
		tasks:     tasks,
		scheduler: scheduler,
		options:   buildOptions(opts),
	}
}

func (s *NotificationService) Settings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error) {
	return s.settings.Get(ctx, userID)
}

// UpdateSettings сохраняет настройки и перепланирует уведомления под них.
// Сбой перепланирования не откатывает настройки и уходит в предупреждения.
func (s *NotificationService) UpdateSettings(ctx context.Context, userID uuid.UUID, in UpdateSettingsInput) (*notification.Settings, reminder.Report, error) {
	st, err := s.settings.Update(ctx, userID, in)
	if err != nil {
		return nil, reminder.Report{}, err
	}

	report, err := s.Reschedule(ctx, userID)
	if err != nil {
		report.Warnings = append(report.Warnings, err.Error())
	}
	return st, report, nil
}

// Reschedule снимает все уведомления пользователя и ставит заново для невыполненных задач.
func (s *NotificationService) Reschedule(ctx context.Context, userID uuid.UUID) (reminder.Report, error) {
	incomplete := false
	tasks, err := s.tasks.ListTasks(ctx, userID, repo.TaskQuery{Completed: &incomplete})
	if err != nil {
		return reminder.Report{}, fromRepo(err, resourceTask, "", "список задач")
	}

	report, err := s.scheduler.RescheduleAll(ctx, userID, tasks)
	if err != nil {
		logger.Error("Service: Ошибка перепланирования уведомлений", err, zap.String("user_id", userID.String()))
		return report, NewUpstreamError("перепланирование уведомлений", err)
	}
	return report, nil
}

func (s *NotificationService) Scheduled(ctx context.Context, userID uuid.UUID) ([]notification.Scheduled, error) {
	list, err := s.scheduler.Scheduled(ctx, userID)
	if err != nil {
		logger.Error("Service: Ошибка чтения расписания уведомлений", err)
		return nil, NewUpstreamError("список уведомлений", err)
	}
	return list, nil
}

// DailySummary ставит сводку по невыполненным задачам на сегодня.
func (s *NotificationService) DailySummary(ctx context.Context, userID uuid.UUID) (*DailySummary, error) {
	from, to := dayBounds(s.now(), s.loc)
	incomplete := false
	tasks, err := s.tasks.ListTasks(ctx, userID, repo.TaskQuery{Completed: &incomplete, From: &from, To: &to})
	if err != nil {
		return nil, fromRepo(err, resourceTask, "", "задачи на сегодня")
	}

	summary := &DailySummary{Count: len(tasks)}
	handle, err := s.scheduler.ScheduleDailySummary(ctx, userID, summary.Count)
	if err != nil {
		logger.Error("Service: Ошибка планирования сводки", err)
		return nil, NewUpstreamError("сводка за день", err)
	}
	summary.Handle = handle
	return summary, nil
}
