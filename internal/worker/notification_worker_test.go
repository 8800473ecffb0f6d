package worker_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cellendar/internal/metrics"
	"cellendar/internal/models/notification"
	"cellendar/internal/notifier"
	"cellendar/internal/notifier/inmemory"
	"cellendar/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, n notification.Scheduled) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func schedule(t *testing.T, store *inmemory.Store, fireAt time.Time, kind notification.Kind) string {
	t.Helper()
	h, err := store.ScheduleOnce(context.Background(), fireAt, notification.Payload{UserID: uuid.New(), Kind: kind})
	require.NoError(t, err)
	return h
}

func TestNotificationWorker_Check(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	m := metrics.New()

	dueHandle := schedule(t, store, now.Add(-time.Hour), notification.KindOverdue)
	futureHandle := schedule(t, store, now.Add(time.Hour), notification.KindReminder)

	deliverer := new(MockDeliverer)
	deliverer.On("Deliver", mock.Anything, mock.MatchedBy(func(n notification.Scheduled) bool {
		return n.Handle == dueHandle
	})).Return(nil).Once()

	w := worker.NewNotificationWorker(store, deliverer,
		worker.WithClock(func() time.Time { return now }),
		worker.WithMetrics(m))

	assert.Equal(t, 1, w.Check(ctx))
	deliverer.AssertExpectations(t)

	pending, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, futureHandle, pending[0].Handle)

	// второй проход ничего не доставляет повторно
	assert.Equal(t, 0, w.Check(ctx))
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `cellendar_notifications_delivered_total{kind="overdue"} 1`)
}

func TestNotificationWorker_FailedDeliveryIsRetried(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	handle := schedule(t, store, now, notification.KindDailySummary)

	deliverer := new(MockDeliverer)
	deliverer.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("push unavailable")).Once()
	deliverer.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()

	w := worker.NewNotificationWorker(store, deliverer, worker.WithClock(func() time.Time { return now }))

	assert.Equal(t, 0, w.Check(ctx))
	pending, _ := store.List(ctx)
	require.Len(t, pending, 1)
	assert.Equal(t, handle, pending[0].Handle)

	assert.Equal(t, 1, w.Check(ctx))
	pending, _ = store.List(ctx)
	assert.Empty(t, pending)
	deliverer.AssertExpectations(t)
}

func TestNotificationWorker_BatchSize(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	for i := 0; i < 5; i++ {
		schedule(t, store, now.Add(-time.Duration(i)*time.Minute), notification.KindOverdue)
	}

	w := worker.NewNotificationWorker(store, worker.LogDeliverer{},
		worker.WithClock(func() time.Time { return now }),
		worker.WithBatchSize(2))

	assert.Equal(t, 2, w.Check(ctx))
	assert.Equal(t, 2, w.Check(ctx))
	assert.Equal(t, 1, w.Check(ctx))
	assert.Equal(t, 0, w.Check(ctx))
}

type countingDeliverer struct {
	mtx   sync.Mutex
	count int
}

func (c *countingDeliverer) Deliver(ctx context.Context, n notification.Scheduled) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.count++
	return nil
}

func (c *countingDeliverer) delivered() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.count
}

func TestNotificationWorker_StartStopsOnCancel(t *testing.T) {
	store := inmemory.New()
	schedule(t, store, time.Now().Add(-time.Minute), notification.KindOverdue)

	deliverer := &countingDeliverer{}
	w := worker.NewNotificationWorker(store, deliverer, worker.WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return deliverer.delivered() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker не остановился после отмены контекста")
	}
}

func TestNotificationWorker_PurgesOldDelivered(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	clock := now

	old := schedule(t, store, clock.Add(-72*time.Hour), notification.KindOverdue)
	require.NoError(t, store.MarkDelivered(ctx, old, clock.Add(-72*time.Hour)))
	recent := schedule(t, store, clock.Add(-24*time.Hour), notification.KindOverdue)
	require.NoError(t, store.MarkDelivered(ctx, recent, clock.Add(-23*time.Hour-30*time.Minute)))

	w := worker.NewNotificationWorker(store, new(MockDeliverer),
		worker.WithClock(func() time.Time { return clock }),
		worker.WithRetention(24*time.Hour))

	assert.Equal(t, 0, w.Check(ctx))
	assert.ErrorIs(t, store.MarkDelivered(ctx, old, clock), notifier.ErrNotFound)
	assert.NoError(t, store.MarkDelivered(ctx, recent, clock))

	// recent уже старше срока, но очистка идёт не чаще раза в час
	clock = now.Add(45 * time.Minute)
	w.Check(ctx)
	assert.NoError(t, store.MarkDelivered(ctx, recent, clock))

	clock = now.Add(time.Hour)
	w.Check(ctx)
	assert.ErrorIs(t, store.MarkDelivered(ctx, recent, clock), notifier.ErrNotFound)
}

func TestNotificationWorker_RetentionDisabled(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()

	old := schedule(t, store, now.Add(-720*time.Hour), notification.KindOverdue)
	require.NoError(t, store.MarkDelivered(ctx, old, now.Add(-720*time.Hour)))

	w := worker.NewNotificationWorker(store, new(MockDeliverer),
		worker.WithClock(func() time.Time { return now }),
		worker.WithRetention(0))
	w.Check(ctx)

	assert.NoError(t, store.MarkDelivered(ctx, old, now))
}
