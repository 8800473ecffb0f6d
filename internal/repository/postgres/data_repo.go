package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cellendar/internal/logger"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Storage) Snapshot(ctx context.Context, userID uuid.UUID) (*repo.Snapshot, error) {
	start := time.Now()
	defer logSlow("snapshot", start)

	cultures, err := s.ListCultures(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, userID, repo.TaskQuery{})
	if err != nil {
		return nil, err
	}

	snap := &repo.Snapshot{
		Version:  repo.SnapshotVersion,
		Cultures: cultures,
		Tasks:    tasks,
	}
	st, err := s.GetSettings(ctx, userID)
	switch {
	case err == nil:
		snap.Settings = st
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}
	return snap, nil
}

// ReplaceAll удаляет данные пользователя и загружает снимок через COPY в одной транзакции.
func (s *Storage) ReplaceAll(ctx context.Context, userID uuid.UUID, snap *repo.Snapshot) error {
	start := time.Now()
	defer logSlow("replace_all", start)

	known := make(map[uuid.UUID]struct{}, len(snap.Cultures))
	for _, c := range snap.Cultures {
		known[c.ID] = struct{}{}
	}
	for _, t := range snap.Tasks {
		if _, ok := known[t.CultureID]; !ok {
			return repo.ErrNotFound
		}
	}

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := deleteAll(ctx, tx, userID); err != nil {
			return err
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"cultures"},
			[]string{"id", "user_id", "name", "cell_type", "start_date", "passage_number",
				"last_action_date", "notes", "status", "created_at", "updated_at"},
			pgx.CopyFromSlice(len(snap.Cultures), func(i int) ([]any, error) {
				c := snap.Cultures[i]
				return []any{c.ID, userID, c.Name, c.CellType, c.StartDate, c.PassageNumber,
					c.LastActionDate, c.Notes, string(c.Status), c.CreatedAt, c.UpdatedAt}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("загрузка культур: %w", mapError(err))
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"tasks"},
			[]string{"id", "user_id", "culture_id", "type", "title", "description", "scheduled_date",
				"completed_date", "is_completed", "reminder_hours", "created_at", "updated_at"},
			pgx.CopyFromSlice(len(snap.Tasks), func(i int) ([]any, error) {
				t := snap.Tasks[i]
				return []any{t.ID, userID, t.CultureID, string(t.Type), t.Title, t.Description, t.ScheduledDate,
					t.CompletedDate, t.IsCompleted, t.ReminderHours, t.CreatedAt, t.UpdatedAt}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("загрузка задач: %w", mapError(err))
		}

		if st := snap.Settings; st != nil {
			_, err = tx.Exec(ctx,
				`INSERT INTO notification_settings
					(user_id, enabled, default_reminder_hours, overdue_alerts, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				userID, st.Enabled, st.DefaultReminderHours, st.OverdueAlerts, st.CreatedAt, st.UpdatedAt)
			if err != nil {
				return fmt.Errorf("загрузка настроек: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Repository: Не удалось заменить данные пользователя", err,
			zap.String("user_id", userID.String()),
			zap.Int("cultures", len(snap.Cultures)),
			zap.Int("tasks", len(snap.Tasks)))
		return err
	}
	return nil
}

func (s *Storage) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	start := time.Now()
	defer logSlow("delete_all", start)

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		return deleteAll(ctx, tx, userID)
	})
	if err != nil {
		logger.Error("Repository: Не удалось удалить данные пользователя", err, zap.String("user_id", userID.String()))
		return err
	}
	return nil
}

func deleteAll(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	for _, query := range []string{
		`DELETE FROM tasks WHERE user_id = $1`,
		`DELETE FROM cultures WHERE user_id = $1`,
		`DELETE FROM notification_settings WHERE user_id = $1`,
	} {
		if _, err := tx.Exec(ctx, query, userID); err != nil {
			return fmt.Errorf("очистка данных: %w", err)
		}
	}
	return nil
}

