package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/models/notification"
	"cellendar/internal/notifier"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS scheduled_notifications (
	handle       TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	task_id      TEXT,
	kind         TEXT NOT NULL,
	title        TEXT NOT NULL,
	body         TEXT NOT NULL,
	fire_at      INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	delivered_at INTEGER
);
CREATE INDEX IF NOT EXISTS scheduled_notifications_pending_idx
	ON scheduled_notifications (delivered_at, fire_at);`

const columns = `handle, user_id, task_id, kind, title, body, fire_at, created_at, delivered_at`

// Store расписание уведомлений в файле SQLite, переживает перезапуск процесса.
// Времена хранятся как UnixNano в UTC.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = "notifications.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("создание каталога для sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}
	// sqlite не любит параллельных писателей
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("создание таблицы уведомлений: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("Notifier: Хранилище уведомлений SQLite открыто", zap.String("path", path))
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite недоступен: %w", err)
	}
	return nil
}

func (s *Store) ScheduleOnce(ctx context.Context, fireAt time.Time, payload notification.Payload) (string, error) {
	handle := uuid.NewString()

	var taskID sql.NullString
	if payload.TaskID != nil {
		taskID = sql.NullString{String: payload.TaskID.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_notifications (handle, user_id, task_id, kind, title, body, fire_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		handle, payload.UserID.String(), taskID, string(payload.Kind), payload.Title, payload.Body,
		fireAt.UTC().UnixNano(), s.now().UTC().UnixNano())
	if err != nil {
		return "", fmt.Errorf("запись уведомления: %w", err)
	}
	return handle, nil
}

func (s *Store) Cancel(ctx context.Context, handle string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_notifications WHERE handle = ?`, handle); err != nil {
		return fmt.Errorf("удаление уведомления: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]notification.Scheduled, error) {
	return s.query(ctx,
		`SELECT `+columns+` FROM scheduled_notifications
		 WHERE delivered_at IS NULL
		 ORDER BY created_at, rowid`)
}

func (s *Store) Due(ctx context.Context, now time.Time, limit int) ([]notification.Scheduled, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx,
		`SELECT `+columns+` FROM scheduled_notifications
		 WHERE delivered_at IS NULL AND fire_at <= ?
		 ORDER BY fire_at, rowid
		 LIMIT ?`, now.UTC().UnixNano(), limit)
}

func (s *Store) MarkDelivered(ctx context.Context, handle string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_notifications SET delivered_at = COALESCE(delivered_at, ?) WHERE handle = ?`,
		at.UTC().UnixNano(), handle)
	if err != nil {
		return fmt.Errorf("отметка доставки: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("отметка доставки: %w", err)
	}
	if n == 0 {
		return notifier.ErrNotFound
	}
	return nil
}

func (s *Store) PurgeDelivered(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM scheduled_notifications WHERE delivered_at IS NOT NULL AND delivered_at < ?`,
		before.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("очистка доставленных уведомлений: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("очистка доставленных уведомлений: %w", err)
	}
	return int(n), nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]notification.Scheduled, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("чтение уведомлений: %w", err)
	}
	defer func() { _ = rows.Close() }()

	res := []notification.Scheduled{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("чтение уведомлений: %w", err)
	}
	return res, nil
}

func scan(rows *sql.Rows) (notification.Scheduled, error) {
	var (
		item              notification.Scheduled
		userID, kind      string
		taskID            sql.NullString
		fireAt, createdAt int64
		deliveredAt       sql.NullInt64
	)
	if err := rows.Scan(&item.Handle, &userID, &taskID, &kind, &item.Payload.Title, &item.Payload.Body,
		&fireAt, &createdAt, &deliveredAt); err != nil {
		return item, fmt.Errorf("разбор уведомления: %w", err)
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return item, fmt.Errorf("разбор user_id уведомления %s: %w", item.Handle, err)
	}
	item.Payload.UserID = uid
	item.Payload.Kind = notification.Kind(kind)

	if taskID.Valid {
		tid, err := uuid.Parse(taskID.String)
		if err != nil {
			return item, fmt.Errorf("разбор task_id уведомления %s: %w", item.Handle, err)
		}
		item.Payload.TaskID = &tid
	}

	item.FireAt = time.Unix(0, fireAt).UTC()
	item.CreatedAt = time.Unix(0, createdAt).UTC()
	if deliveredAt.Valid {
		at := time.Unix(0, deliveredAt.Int64).UTC()
		item.DeliveredAt = &at
	}
	return item, nil
}
