package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/models/notification"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) GetSettings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error) {
	start := time.Now()
	defer logSlow("get_settings", start)

	query := `SELECT user_id, enabled, default_reminder_hours, overdue_alerts, created_at, updated_at
			FROM notification_settings
			WHERE user_id = $1`

	var st notification.Settings
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&st.UserID,
		&st.Enabled,
		&st.DefaultReminderHours,
		&st.OverdueAlerts,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, repo.ErrNotFound) {
			return nil, mapped
		}
		logger.Error("Repository: Не удалось получить настройки уведомлений", err)
		return nil, fmt.Errorf("получение настроек: %w", err)
	}
	return &st, nil
}

func (s *Storage) UpsertSettings(ctx context.Context, st *notification.Settings) error {
	start := time.Now()
	defer logSlow("upsert_settings", start)

	query := `INSERT INTO notification_settings
				(user_id, enabled, default_reminder_hours, overdue_alerts, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id) DO UPDATE
			SET enabled = EXCLUDED.enabled,
				default_reminder_hours = EXCLUDED.default_reminder_hours,
				overdue_alerts = EXCLUDED.overdue_alerts,
				updated_at = EXCLUDED.updated_at
			RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		st.UserID,
		st.Enabled,
		st.DefaultReminderHours,
		st.OverdueAlerts,
		st.CreatedAt,
		st.UpdatedAt,
	).Scan(&st.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось сохранить настройки уведомлений", err)
		return fmt.Errorf("сохранение настроек: %w", err)
	}
	return nil
}
