package dto

import (
	"time"

	"cellendar/internal/models/culture"
	"cellendar/internal/models/notification"
	"cellendar/internal/models/task"
	"cellendar/internal/models/user"
	"cellendar/internal/reminder"

	"github.com/google/uuid"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User    *user.User   `json:"user"`
	Session *user.Tokens `json:"session,omitempty"`
}

type CreateCultureRequest struct {
	Name      string     `json:"name"`
	CellType  string     `json:"cell_type"`
	StartDate *time.Time `json:"start_date,omitempty"`
	Notes     string     `json:"notes"`
}

type UpdateCultureRequest struct {
	Name          *string         `json:"name,omitempty"`
	CellType      *string         `json:"cell_type,omitempty"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	Status        *culture.Status `json:"status,omitempty"`
	PassageNumber *int            `json:"passage_number,omitempty"`
}

type CreateTaskRequest struct {
	CultureID     uuid.UUID `json:"culture_id"`
	Type          task.Type `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ScheduledDate time.Time `json:"scheduled_date"`
	ReminderHours *int      `json:"reminder_hours,omitempty"`
}

type UpdateTaskRequest struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	ReminderHours *int       `json:"reminder_hours,omitempty"`
	IsCompleted   *bool      `json:"is_completed,omitempty"`
}

// TaskResponse задача с вычисленным на момент ответа состоянием.
type TaskResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	CultureID     uuid.UUID  `json:"culture_id"`
	Type          task.Type  `json:"type"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	IsCompleted   bool       `json:"is_completed"`
	ReminderHours int        `json:"reminder_hours"`
	State         task.State `json:"state"`
	IsOverdue     bool       `json:"is_overdue"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Culture *culture.Summary `json:"culture,omitempty"`
}

// CultureIndex культуры пользователя по id. Задача без культуры в индексе отдаётся без сводки.
type CultureIndex map[uuid.UUID]*culture.Culture

func NewCultureIndex(cultures []*culture.Culture) CultureIndex {
	idx := make(CultureIndex, len(cultures))
	for _, c := range cultures {
		idx[c.ID] = c
	}
	return idx
}

func (idx CultureIndex) summary(id uuid.UUID) *culture.Summary {
	c, ok := idx[id]
	if !ok {
		return nil
	}
	s := c.Summary()
	return &s
}

func FromTask(t *task.Task, now time.Time, cultures CultureIndex) TaskResponse {
	state := task.Classify(t, now)
	return TaskResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		CultureID:     t.CultureID,
		Type:          t.Type,
		Title:         t.Title,
		Description:   t.Description,
		ScheduledDate: t.ScheduledDate,
		CompletedDate: t.CompletedDate,
		IsCompleted:   t.IsCompleted,
		ReminderHours: t.ReminderHours,
		State:         state,
		IsOverdue:     state == task.StateOverdue,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		Culture:       cultures.summary(t.CultureID),
	}
}

func FromTaskList(tasks []*task.Task, now time.Time, cultures CultureIndex) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now, cultures)
	}
	return result
}

// TaskChangeResponse Culture есть только если изменился номер пассажа.
// Краткая сводка культуры всегда лежит в Task.Culture.
type TaskChangeResponse struct {
	Task             TaskResponse     `json:"task"`
	Culture          *culture.Culture `json:"culture,omitempty"`
	AlreadyCompleted bool             `json:"already_completed"`
}

type DashboardResponse struct {
	TotalCultures  int            `json:"total_cultures"`
	ActiveCultures int            `json:"active_cultures"`
	Counts         task.Counts    `json:"counts"`
	Today          []TaskResponse `json:"today"`
	Overdue        []TaskResponse `json:"overdue"`
	Upcoming       []TaskResponse `json:"upcoming"`
}

type UpdateSettingsRequest struct {
	Enabled              *bool `json:"enabled,omitempty"`
	DefaultReminderHours *int  `json:"default_reminder_hours,omitempty"`
	OverdueAlerts        *bool `json:"overdue_alerts,omitempty"`
}

type SettingsResponse struct {
	Settings   *notification.Settings `json:"settings"`
	Reschedule *reminder.Report       `json:"reschedule,omitempty"`
}

type RestoreRequest struct {
	Key string `json:"key"`
}
