// Package notifiertest общий набор проверок для хранилищ уведомлений.
package notifiertest

import (
	"context"
	"testing"
	"time"

	"cellendar/internal/models/notification"
	"cellendar/internal/notifier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Store interface {
	ScheduleOnce(ctx context.Context, fireAt time.Time, payload notification.Payload) (string, error)
	Cancel(ctx context.Context, handle string) error
	List(ctx context.Context) ([]notification.Scheduled, error)
	Due(ctx context.Context, now time.Time, limit int) ([]notification.Scheduled, error)
	MarkDelivered(ctx context.Context, handle string, at time.Time) error
	PurgeDelivered(ctx context.Context, before time.Time) (int, error)
}

// Run прогоняет проверки на свежем хранилище, которое создаёт newStore.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	base := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("schedule and list", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		taskID := uuid.New()
		payload := notification.Payload{
			UserID: uuid.New(),
			TaskID: &taskID,
			Kind:   notification.KindReminder,
			Title:  "Cell Culture Task Reminder",
			Body:   "Feed HeLa is due in 2 hours",
		}

		handle, err := s.ScheduleOnce(ctx, base.Add(time.Hour), payload)
		require.NoError(t, err)
		require.NotEmpty(t, handle)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, handle, list[0].Handle)
		assert.True(t, list[0].FireAt.Equal(base.Add(time.Hour)))
		assert.Equal(t, payload.UserID, list[0].Payload.UserID)
		require.NotNil(t, list[0].Payload.TaskID)
		assert.Equal(t, taskID, *list[0].Payload.TaskID)
		assert.Equal(t, notification.KindReminder, list[0].Payload.Kind)
		assert.Equal(t, payload.Body, list[0].Payload.Body)
		assert.Nil(t, list[0].DeliveredAt)
	})

	t.Run("summary without task", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.ScheduleOnce(ctx, base, notification.Payload{
			UserID: uuid.New(),
			Kind:   notification.KindDailySummary,
			Title:  "Daily Task Summary",
		})
		require.NoError(t, err)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Nil(t, list[0].Payload.TaskID)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		handle, err := s.ScheduleOnce(ctx, base, notification.Payload{UserID: uuid.New(), Kind: notification.KindOverdue})
		require.NoError(t, err)

		require.NoError(t, s.Cancel(ctx, handle))
		require.NoError(t, s.Cancel(ctx, handle))
		require.NoError(t, s.Cancel(ctx, "unknown"))

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("due ordering and limit", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		userID := uuid.New()

		late, err := s.ScheduleOnce(ctx, base.Add(-time.Minute), notification.Payload{UserID: userID, Kind: notification.KindOverdue})
		require.NoError(t, err)
		early, err := s.ScheduleOnce(ctx, base.Add(-time.Hour), notification.Payload{UserID: userID, Kind: notification.KindOverdue})
		require.NoError(t, err)
		_, err = s.ScheduleOnce(ctx, base.Add(time.Hour), notification.Payload{UserID: userID, Kind: notification.KindReminder})
		require.NoError(t, err)

		due, err := s.Due(ctx, base, 10)
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, early, due[0].Handle)
		assert.Equal(t, late, due[1].Handle)

		due, err = s.Due(ctx, base, 1)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, early, due[0].Handle)
	})

	t.Run("fire time equal to now is due", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		handle, err := s.ScheduleOnce(ctx, base, notification.Payload{UserID: uuid.New(), Kind: notification.KindDailySummary})
		require.NoError(t, err)

		due, err := s.Due(ctx, base, 0)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, handle, due[0].Handle)
	})

	t.Run("delivered leaves list and due", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		handle, err := s.ScheduleOnce(ctx, base.Add(-time.Hour), notification.Payload{UserID: uuid.New(), Kind: notification.KindOverdue})
		require.NoError(t, err)

		require.NoError(t, s.MarkDelivered(ctx, handle, base))
		require.NoError(t, s.MarkDelivered(ctx, handle, base.Add(time.Minute)))

		due, err := s.Due(ctx, base, 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		err = s.MarkDelivered(ctx, "unknown", base)
		assert.ErrorIs(t, err, notifier.ErrNotFound)
	})

	t.Run("purge removes only old delivered", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		userID := uuid.New()

		old, err := s.ScheduleOnce(ctx, base.Add(-48*time.Hour), notification.Payload{UserID: userID, Kind: notification.KindOverdue})
		require.NoError(t, err)
		recent, err := s.ScheduleOnce(ctx, base.Add(-time.Hour), notification.Payload{UserID: userID, Kind: notification.KindOverdue})
		require.NoError(t, err)
		pending, err := s.ScheduleOnce(ctx, base.Add(-72*time.Hour), notification.Payload{UserID: userID, Kind: notification.KindReminder})
		require.NoError(t, err)

		require.NoError(t, s.MarkDelivered(ctx, old, base.Add(-48*time.Hour)))
		require.NoError(t, s.MarkDelivered(ctx, recent, base.Add(-time.Hour)))

		removed, err := s.PurgeDelivered(ctx, base.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		err = s.MarkDelivered(ctx, old, base)
		assert.ErrorIs(t, err, notifier.ErrNotFound)
		require.NoError(t, s.MarkDelivered(ctx, recent, base))

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, pending, list[0].Handle)

		removed, err = s.PurgeDelivered(ctx, base.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}
