package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"cellendar/internal/models/culture"
	"cellendar/internal/models/task"
)

const (
	maxNameLen        = 100
	maxTitleLen       = 200
	maxNotesLen       = 1000
	minPasswordLength = 6
)

func requireText(field, value string, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return NewValidationError(field, "поле обязательно")
	}
	return limitText(field, value, max)
}

func limitText(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return NewValidationError(field, fmt.Sprintf("не длиннее %d символов", max))
	}
	return nil
}

func validateReminderHours(field string, hours int) error {
	if hours < 0 || hours > task.MaxReminderHours {
		return NewValidationError(field, fmt.Sprintf("от 0 до %d", task.MaxReminderHours))
	}
	return nil
}

func validateRequiredTime(field string, t time.Time) error {
	if t.IsZero() {
		return NewValidationError(field, "поле обязательно")
	}
	return nil
}

// validateCulture проверка полной записи, используется и при импорте.
func validateCulture(c *culture.Culture) error {
	if err := requireText("name", c.Name, maxNameLen); err != nil {
		return err
	}
	if err := requireText("cell_type", c.CellType, maxNameLen); err != nil {
		return err
	}
	if err := limitText("notes", c.Notes, maxNotesLen); err != nil {
		return err
	}
	if c.PassageNumber < 0 {
		return NewValidationError("passage_number", "не может быть отрицательным")
	}
	if !c.Status.Valid() {
		return NewValidationError("status", "допустимо active, paused или terminated")
	}
	return validateRequiredTime("start_date", c.StartDate)
}

func validateTask(t *task.Task) error {
	if !t.Type.Valid() {
		return NewValidationError("type", "допустимо media_change, passaging или observation")
	}
	if err := requireText("title", t.Title, maxTitleLen); err != nil {
		return err
	}
	if err := limitText("description", t.Description, maxNotesLen); err != nil {
		return err
	}
	if err := validateRequiredTime("scheduled_date", t.ScheduledDate); err != nil {
		return err
	}
	if err := validateReminderHours("reminder_hours", t.ReminderHours); err != nil {
		return err
	}
	if t.IsCompleted != (t.CompletedDate != nil) {
		return NewValidationError("completed_date", "задаётся только у выполненной задачи")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewValidationError("email", "поле обязательно")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewValidationError("email", "некорректный адрес")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return NewValidationError("password", fmt.Sprintf("не короче %d символов", minPasswordLength))
	}
	return nil
}
