package notification

import (
	"time"

	"github.com/google/uuid"
)

// Settings настройки уведомлений пользователя. Создаются со значениями по умолчанию при первом обращении.
type Settings struct {
	UserID               uuid.UUID `json:"user_id" yaml:"user_id" db:"user_id"`
	Enabled              bool      `json:"enabled" yaml:"enabled" db:"enabled"`
	DefaultReminderHours int       `json:"default_reminder_hours" yaml:"default_reminder_hours" db:"default_reminder_hours"`
	OverdueAlerts        bool      `json:"overdue_alerts" yaml:"overdue_alerts" db:"overdue_alerts"`
	CreatedAt            time.Time `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

func DefaultSettings(userID uuid.UUID, now time.Time) *Settings {
	return &Settings{
		UserID:               userID,
		Enabled:              true,
		DefaultReminderHours: 2,
		OverdueAlerts:        true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

type Kind string

const KindReminder Kind = "reminder"
const KindOverdue Kind = "overdue"
const KindDailySummary Kind = "daily_summary"

// Payload то, что получит пользователь. TaskID пуст у сводки за день.
type Payload struct {
	UserID uuid.UUID  `json:"user_id"`
	TaskID *uuid.UUID `json:"task_id,omitempty"`
	Kind   Kind       `json:"kind"`
	Title  string     `json:"title"`
	Body   string     `json:"body"`
}

func (p Payload) ForTask(id uuid.UUID) bool {
	return p.TaskID != nil && *p.TaskID == id
}

// Scheduled запланированное уведомление, как его видит планировщик.
type Scheduled struct {
	Handle      string     `json:"handle"`
	FireAt      time.Time  `json:"fire_at"`
	Payload     Payload    `json:"payload"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}
