package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/models/task"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const taskColumns = `id, user_id, culture_id, type, title, description, scheduled_date,
	completed_date, is_completed, reminder_hours, created_at, updated_at`

func scanTask(row pgx.Row) (*task.Task, error) {
	var t task.Task
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.CultureID,
		&t.Type,
		&t.Title,
		&t.Description,
		&t.ScheduledDate,
		&t.CompletedDate,
		&t.IsCompleted,
		&t.ReminderHours,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask вставка проходит, только если культура существует и принадлежит тому же пользователю.
func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer logSlow("create_task", start)

	query := `INSERT INTO tasks (` + taskColumns + `)
			SELECT $1::uuid, $2::uuid, $3::uuid, $4::varchar, $5::varchar, $6::text, $7::timestamptz,
				$8::timestamptz, $9::boolean, $10::integer, $11::timestamptz, $12::timestamptz
			WHERE EXISTS (SELECT 1 FROM cultures WHERE id = $3::uuid AND user_id = $2::uuid)`

	tag, err := s.pool.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.CultureID,
		t.Type,
		t.Title,
		t.Description,
		t.ScheduledDate,
		t.CompletedDate,
		t.IsCompleted,
		t.ReminderHours,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) GetTask(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer logSlow("get_task", start)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, repo.ErrNotFound) {
			return nil, mapped
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func buildTaskFilter(userID uuid.UUID, q repo.TaskQuery) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if q.CultureID != nil {
		add("culture_id = $%d", *q.CultureID)
	}
	if q.Completed != nil {
		add("is_completed = $%d", *q.Completed)
	}
	if q.From != nil {
		add("scheduled_date >= $%d", *q.From)
	}
	if q.To != nil {
		add("scheduled_date < $%d", *q.To)
	}
	return strings.Join(conds, " AND "), args
}

func (s *Storage) ListTasks(ctx context.Context, userID uuid.UUID, q repo.TaskQuery) ([]*task.Task, error) {
	start := time.Now()
	defer logSlow("list_tasks", start)

	where, args := buildTaskFilter(userID, q)
	query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE ` + where + `
			ORDER BY scheduled_date ASC, created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить список задач", err)
		return nil, fmt.Errorf("список задач: %w", err)
	}
	defer rows.Close()

	res := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение задачи: %w", err)
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("список задач: %w", err)
	}
	return res, nil
}

// UpdateTask отметку о выполнении не пишет: её меняют только CompleteTask и ReopenTask.
// Текущее значение из строки возвращается в t.
func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer logSlow("update_task", start)

	query := `UPDATE tasks
			SET type = $1,
				title = $2,
				description = $3,
				scheduled_date = $4,
				reminder_hours = $5,
				updated_at = $6
			WHERE id = $7 AND user_id = $8
			RETURNING culture_id, created_at, is_completed, completed_date`

	err := s.pool.QueryRow(ctx, query,
		t.Type,
		t.Title,
		t.Description,
		t.ScheduledDate,
		t.ReminderHours,
		t.UpdatedAt,
		t.ID,
		t.UserID,
	).Scan(&t.CultureID, &t.CreatedAt, &t.IsCompleted, &t.CompletedDate)
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, repo.ErrNotFound) {
			return mapped
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

// ReopenTask условный UPDATE по is_completed. Если отметки уже нет, возвращается текущая строка.
func (s *Storage) ReopenTask(ctx context.Context, userID, id uuid.UUID, at time.Time) (*task.Task, error) {
	start := time.Now()
	defer logSlow("reopen_task", start)

	query := `UPDATE tasks
			SET is_completed = FALSE,
				completed_date = NULL,
				updated_at = $1
			WHERE id = $2 AND user_id = $3 AND is_completed
			RETURNING ` + taskColumns

	t, err := scanTask(s.pool.QueryRow(ctx, query, at, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return s.GetTask(ctx, userID, id)
	}
	if err != nil {
		logger.Error("Repository: Не удалось снять отметку о выполнении", err, zap.String("task_id", id.String()))
		return nil, fmt.Errorf("снятие отметки о выполнении: %w", err)
	}
	return t, nil
}

func (s *Storage) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	start := time.Now()
	defer logSlow("delete_task", start)

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Error("Repository: Полное удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// CompleteTask условный UPDATE по NOT is_completed служит замком идемпотентности:
// из двух параллельных вызовов строку изменит только один, и только он увеличит пассаж.
func (s *Storage) CompleteTask(ctx context.Context, userID, id uuid.UUID, at time.Time) (*repo.Completion, error) {
	start := time.Now()
	defer logSlow("complete_task", start)

	res := &repo.Completion{}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		query := `UPDATE tasks
				SET is_completed = TRUE,
					completed_date = $1,
					updated_at = $1
				WHERE id = $2 AND user_id = $3 AND NOT is_completed
				RETURNING ` + taskColumns

		t, err := scanTask(tx.QueryRow(ctx, query, at, id, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			existing, getErr := scanTask(tx.QueryRow(ctx,
				`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID))
			if getErr != nil {
				return mapError(getErr)
			}
			res.Task = existing
			return nil
		}
		if err != nil {
			return fmt.Errorf("отметка выполнения: %w", err)
		}

		res.Task = t
		res.Changed = true
		if t.Type != task.TypePassaging {
			return nil
		}

		c, err := incrementPassage(ctx, tx, userID, t.CultureID, at)
		if err != nil {
			return fmt.Errorf("инкремент пассажа: %w", err)
		}
		res.Culture = c
		return nil
	})
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			logger.Error("Repository: Не удалось выполнить задачу", err, zap.String("task_id", id.String()))
		}
		return nil, err
	}
	return res, nil
}
