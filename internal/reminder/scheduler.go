// Package reminder планирует напоминания и оповещения о просрочке для задач.
//
// Для задачи планируются два одноразовых уведомления: напоминание за ReminderHours
// до срока и оповещение через час после срока. Напоминание в прошлом не ставится,
// оповещение о просрочке ставится всегда, даже если его время уже прошло.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/metrics"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OverdueGrace через сколько после срока приходит оповещение о просрочке.
const OverdueGrace = time.Hour

// Notifier планировщик одноразовых уведомлений.
// Cancel несуществующего handle не ошибка. List отдаёт только ещё не доставленные.
type Notifier interface {
	ScheduleOnce(ctx context.Context, fireAt time.Time, payload notification.Payload) (string, error)
	Cancel(ctx context.Context, handle string) error
	List(ctx context.Context) ([]notification.Scheduled, error)
}

// SettingsSource настройки читаются один раз на операцию планирования.
type SettingsSource interface {
	Settings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error)
}

type Scheduler struct {
	notifier Notifier
	settings SettingsSource
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func NewScheduler(notifier Notifier, settings SettingsSource, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifier: notifier,
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func ReminderTime(t *task.Task) time.Time {
	return t.ScheduledDate.Add(-time.Duration(t.ReminderHours) * time.Hour)
}

func OverdueAlertTime(t *task.Task) time.Time {
	return t.ScheduledDate.Add(OverdueGrace)
}

// Result итог планирования одной задачи. Warnings не фатальны и уходят клиенту как есть.
type Result struct {
	Handles  []string `json:"handles"`
	Warnings []string `json:"warnings,omitempty"`
}

// Report итог полного перепланирования.
type Report struct {
	Cancelled int      `json:"cancelled"`
	Scheduled int      `json:"scheduled"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (s *Scheduler) loadSettings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error) {
	st, err := s.settings.Settings(ctx, userID)
	if err != nil {
		s.metrics.NotificationFailed("settings")
		return nil, fmt.Errorf("чтение настроек уведомлений: %w", err)
	}
	return st, nil
}

// ScheduleReminder пустой handle без ошибки значит, что планировать было нечего.
func (s *Scheduler) ScheduleReminder(ctx context.Context, t *task.Task) (string, error) {
	st, err := s.loadSettings(ctx, t.UserID)
	if err != nil {
		return "", err
	}
	return s.scheduleReminder(ctx, st, t)
}

func (s *Scheduler) ScheduleOverdueAlert(ctx context.Context, t *task.Task) (string, error) {
	st, err := s.loadSettings(ctx, t.UserID)
	if err != nil {
		return "", err
	}
	return s.scheduleOverdueAlert(ctx, st, t)
}

func (s *Scheduler) scheduleReminder(ctx context.Context, st *notification.Settings, t *task.Task) (string, error) {
	if !st.Enabled {
		return "", nil
	}
	fireAt := ReminderTime(t)
	if !fireAt.After(s.now()) {
		return "", nil
	}

	taskID := t.ID
	return s.schedule(ctx, fireAt, notification.Payload{
		UserID: t.UserID,
		TaskID: &taskID,
		Kind:   notification.KindReminder,
		Title:  "Cell Culture Task Reminder",
		Body:   fmt.Sprintf("%s is due in %d hours", t.Title, t.ReminderHours),
	})
}

func (s *Scheduler) scheduleOverdueAlert(ctx context.Context, st *notification.Settings, t *task.Task) (string, error) {
	if !st.Enabled || !st.OverdueAlerts {
		return "", nil
	}

	taskID := t.ID
	return s.schedule(ctx, OverdueAlertTime(t), notification.Payload{
		UserID: t.UserID,
		TaskID: &taskID,
		Kind:   notification.KindOverdue,
		Title:  "Overdue Task Alert",
		Body:   fmt.Sprintf("%s is overdue!", t.Title),
	})
}

func (s *Scheduler) schedule(ctx context.Context, fireAt time.Time, payload notification.Payload) (string, error) {
	handle, err := s.notifier.ScheduleOnce(ctx, fireAt, payload)
	if err != nil {
		s.metrics.NotificationFailed("schedule")
		return "", fmt.Errorf("планирование %s: %w", payload.Kind, err)
	}
	s.metrics.NotificationScheduled(string(payload.Kind))
	return handle, nil
}

// ScheduleTask ставит оба уведомления для невыполненной задачи. Ошибки превращаются в предупреждения.
func (s *Scheduler) ScheduleTask(ctx context.Context, t *task.Task) Result {
	res := Result{Handles: []string{}}
	if t.IsCompleted {
		return res
	}

	st, err := s.loadSettings(ctx, t.UserID)
	if err != nil {
		s.warn(&res.Warnings, "Reminder: Не удалось прочитать настройки", err, t.ID)
		return res
	}
	s.scheduleBoth(ctx, st, t, &res.Handles, &res.Warnings)
	return res
}

func (s *Scheduler) scheduleBoth(ctx context.Context, st *notification.Settings, t *task.Task, handles, warnings *[]string) {
	if h, err := s.scheduleReminder(ctx, st, t); err != nil {
		s.warn(warnings, "Reminder: Не удалось запланировать напоминание", err, t.ID)
	} else if h != "" {
		*handles = append(*handles, h)
	}

	if h, err := s.scheduleOverdueAlert(ctx, st, t); err != nil {
		s.warn(warnings, "Reminder: Не удалось запланировать оповещение о просрочке", err, t.ID)
	} else if h != "" {
		*handles = append(*handles, h)
	}
}

func (s *Scheduler) warn(warnings *[]string, msg string, err error, taskID uuid.UUID) {
	logger.Warn(msg, zap.Error(err), zap.String("task_id", taskID.String()))
	*warnings = append(*warnings, fmt.Sprintf("задача %s: %v", taskID, err))
}

// CancelForTask отменяет все ожидающие уведомления задачи. Повторный вызов ничего не делает.
func (s *Scheduler) CancelForTask(ctx context.Context, userID, taskID uuid.UUID) (int, error) {
	return s.cancelMatching(ctx, func(p notification.Payload) bool {
		return p.UserID == userID && p.ForTask(taskID)
	})
}

// CancelAll отменяет все ожидающие уведомления пользователя, включая сводки.
func (s *Scheduler) CancelAll(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.cancelMatching(ctx, func(p notification.Payload) bool {
		return p.UserID == userID
	})
}

func (s *Scheduler) cancelMatching(ctx context.Context, match func(notification.Payload) bool) (int, error) {
	scheduled, err := s.notifier.List(ctx)
	if err != nil {
		s.metrics.NotificationFailed("list")
		return 0, fmt.Errorf("список уведомлений: %w", err)
	}

	cancelled := 0
	var firstErr error
	for _, n := range scheduled {
		if !match(n.Payload) {
			continue
		}
		if err := s.notifier.Cancel(ctx, n.Handle); err != nil {
			s.metrics.NotificationFailed("cancel")
			if firstErr == nil {
				firstErr = fmt.Errorf("отмена уведомления %s: %w", n.Handle, err)
			}
			continue
		}
		cancelled++
	}
	return cancelled, firstErr
}

// RescheduleAll снимает все уведомления пользователя и заново ставит их для невыполненных задач.
// Для выполненных и удалённых задач ничего не остаётся.
func (s *Scheduler) RescheduleAll(ctx context.Context, userID uuid.UUID, tasks []*task.Task) (Report, error) {
	var report Report

	cancelled, err := s.CancelAll(ctx, userID)
	report.Cancelled = cancelled
	if err != nil {
		return report, err
	}

	st, err := s.loadSettings(ctx, userID)
	if err != nil {
		return report, err
	}

	for _, t := range tasks {
		if t.IsCompleted || t.UserID != userID {
			continue
		}
		handles := []string{}
		s.scheduleBoth(ctx, st, t, &handles, &report.Warnings)
		report.Scheduled += len(handles)
	}

	logger.Info("Reminder: Уведомления перепланированы",
		zap.String("user_id", userID.String()),
		zap.Int("cancelled", report.Cancelled),
		zap.Int("scheduled", report.Scheduled),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

// ScheduleDailySummary сводка на сейчас, если на сегодня есть невыполненные задачи.
func (s *Scheduler) ScheduleDailySummary(ctx context.Context, userID uuid.UUID, count int) (string, error) {
	if count <= 0 {
		return "", nil
	}
	st, err := s.loadSettings(ctx, userID)
	if err != nil {
		return "", err
	}
	if !st.Enabled {
		return "", nil
	}

	return s.schedule(ctx, s.now(), notification.Payload{
		UserID: userID,
		Kind:   notification.KindDailySummary,
		Title:  "Daily Task Summary",
		Body:   fmt.Sprintf("You have %d task(s) scheduled for today", count),
	})
}

// Scheduled ожидающие уведомления пользователя по времени срабатывания.
func (s *Scheduler) Scheduled(ctx context.Context, userID uuid.UUID) ([]notification.Scheduled, error) {
	all, err := s.notifier.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список уведомлений: %w", err)
	}
	res := []notification.Scheduled{}
	for _, n := range all {
		if n.Payload.UserID == userID {
			res = append(res, n)
		}
	}
	sortByFireAt(res)
	return res, nil
}

func sortByFireAt(list []notification.Scheduled) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].FireAt.Before(list[j].FireAt)
	})
}
