package task

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultReminderHours = 2
	MaxReminderHours     = 168
)

// Task запланированное действие над одной культурой.
// Признак просрочки не хранится: см. Classify.
type Task struct {
	ID            uuid.UUID  `json:"id" yaml:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" yaml:"user_id" db:"user_id"`
	CultureID     uuid.UUID  `json:"culture_id" yaml:"culture_id" db:"culture_id"`
	Type          Type       `json:"type" yaml:"type" db:"type"`
	Title         string     `json:"title" yaml:"title" db:"title"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty" db:"description"`
	ScheduledDate time.Time  `json:"scheduled_date" yaml:"scheduled_date" db:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty" yaml:"completed_date,omitempty" db:"completed_date"`
	IsCompleted   bool       `json:"is_completed" yaml:"is_completed" db:"is_completed"`
	ReminderHours int        `json:"reminder_hours" yaml:"reminder_hours" db:"reminder_hours"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

type Type string

const TypeMediaChange Type = "media_change"
const TypePassaging Type = "passaging"
const TypeObservation Type = "observation"

func (t Type) Valid() bool {
	switch t {
	case TypeMediaChange, TypePassaging, TypeObservation:
		return true
	}
	return false
}

// Clone возвращает копию без общих указателей.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.CompletedDate != nil {
		completed := *t.CompletedDate
		c.CompletedDate = &completed
	}
	return &c
}

// MarkCompleted держит инвариант: completed_date задан тогда и только тогда, когда задача выполнена.
func (t *Task) MarkCompleted(at time.Time) {
	t.IsCompleted = true
	t.CompletedDate = &at
}

func (t *Task) MarkIncomplete() {
	t.IsCompleted = false
	t.CompletedDate = nil
}
