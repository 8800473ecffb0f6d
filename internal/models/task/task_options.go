package task

import (
	"time"
)

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithScheduledDate(scheduled time.Time) TaskOption {
	if scheduled.IsZero() {
		return nil
	}
	return func(task *Task) {
		task.ScheduledDate = scheduled
	}
}

func WithReminderHours(hours int) TaskOption {
	return func(task *Task) {
		task.ReminderHours = hours
	}
}

// WithIncomplete снимает отметку о выполнении. Номер пассажа культуры при этом не откатывается.
func WithIncomplete() TaskOption {
	return func(task *Task) {
		task.MarkIncomplete()
	}
}

// Apply пропускает nil-опции, которые возвращают конструкторы на пустых значениях.
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}
