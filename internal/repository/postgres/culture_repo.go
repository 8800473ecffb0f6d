package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/models/culture"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const cultureColumns = `id, user_id, name, cell_type, start_date, passage_number,
	last_action_date, notes, status, created_at, updated_at`

func scanCulture(row pgx.Row) (*culture.Culture, error) {
	var c culture.Culture
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.CellType,
		&c.StartDate,
		&c.PassageNumber,
		&c.LastActionDate,
		&c.Notes,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Storage) CreateCulture(ctx context.Context, c *culture.Culture) error {
	start := time.Now()
	defer logSlow("create_culture", start)

	query := `INSERT INTO cultures (` + cultureColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.Name,
		c.CellType,
		c.StartDate,
		c.PassageNumber,
		c.LastActionDate,
		c.Notes,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить культуру", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление культуры: %w", mapError(err))
	}
	return nil
}

func (s *Storage) GetCulture(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error) {
	start := time.Now()
	defer logSlow("get_culture", start)

	query := `SELECT ` + cultureColumns + ` FROM cultures WHERE id = $1 AND user_id = $2`

	c, err := scanCulture(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, repo.ErrNotFound) {
			return nil, mapped
		}
		logger.Error("Repository: Не удалось получить культуру", err)
		return nil, fmt.Errorf("получение культуры: %w", err)
	}
	return c, nil
}

func (s *Storage) ListCultures(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error) {
	start := time.Now()
	defer logSlow("list_cultures", start)

	query := `SELECT ` + cultureColumns + ` FROM cultures
			WHERE user_id = $1
			ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: Не удалось получить список культур", err)
		return nil, fmt.Errorf("список культур: %w", err)
	}
	defer rows.Close()

	res := []*culture.Culture{}
	for rows.Next() {
		c, err := scanCulture(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение культуры: %w", err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("список культур: %w", err)
	}
	return res, nil
}

// UpdateCulture номер пассажа только растёт: GREATEST защищает от гонки с инкрементом.
func (s *Storage) UpdateCulture(ctx context.Context, c *culture.Culture) error {
	start := time.Now()
	defer logSlow("update_culture", start)

	query := `UPDATE cultures
			SET name = $1,
				cell_type = $2,
				start_date = $3,
				notes = $4,
				status = $5,
				passage_number = GREATEST(passage_number, $6),
				updated_at = $7
			WHERE id = $8 AND user_id = $9
			RETURNING passage_number, last_action_date, created_at`

	err := s.pool.QueryRow(ctx, query,
		c.Name,
		c.CellType,
		c.StartDate,
		c.Notes,
		c.Status,
		c.PassageNumber,
		c.UpdatedAt,
		c.ID,
		c.UserID,
	).Scan(&c.PassageNumber, &c.LastActionDate, &c.CreatedAt)
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, repo.ErrNotFound) {
			return mapped
		}
		logger.Error("Repository: Не удалось обновить культуру", err)
		return fmt.Errorf("обновление культуры: %w", err)
	}
	return nil
}

// DeleteCulture удаляет задачи культуры и саму культуру в одной транзакции.
func (s *Storage) DeleteCulture(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	start := time.Now()
	defer logSlow("delete_culture", start)

	removed := []uuid.UUID{}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `DELETE FROM tasks WHERE culture_id = $1 AND user_id = $2 RETURNING id`, id, userID)
		if err != nil {
			return fmt.Errorf("удаление задач культуры: %w", err)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("удаление задач культуры: %w", err)
		}
		removed = append(removed, ids...)

		tag, err := tx.Exec(ctx, `DELETE FROM cultures WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("удаление культуры: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			logger.Error("Repository: Не удалось удалить культуру", err, zap.String("culture_id", id.String()))
		}
		return nil, err
	}
	return removed, nil
}

func (s *Storage) IncrementPassage(ctx context.Context, userID, id uuid.UUID, at time.Time) (*culture.Culture, error) {
	start := time.Now()
	defer logSlow("increment_passage", start)

	c, err := incrementPassage(ctx, s.pool, userID, id, at)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		logger.Error("Repository: Не удалось увеличить номер пассажа", err)
		return nil, fmt.Errorf("инкремент пассажа: %w", err)
	}
	return c, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// incrementPassage атомарный инкремент на стороне БД, без чтения-изменения-записи.
func incrementPassage(ctx context.Context, q querier, userID, id uuid.UUID, at time.Time) (*culture.Culture, error) {
	query := `UPDATE cultures
			SET passage_number = passage_number + 1,
				last_action_date = $1,
				updated_at = $1
			WHERE id = $2 AND user_id = $3
			RETURNING ` + cultureColumns

	c, err := scanCulture(q.QueryRow(ctx, query, at, id, userID))
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}
