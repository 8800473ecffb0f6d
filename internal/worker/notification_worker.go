package worker

import (
	"context"
	"fmt"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/metrics"
	"cellendar/internal/models/notification"

	"go.uber.org/zap"
)

const (
	DefaultInterval  = 30 * time.Second
	DefaultBatchSize = 100
	DefaultRetention = 7 * 24 * time.Hour

	// purgeEvery как часто удаляются старые доставленные уведомления.
	purgeEvery = time.Hour
)

// Queue сторона хранилища уведомлений, которая отдаёт их к доставке.
type Queue interface {
	Due(ctx context.Context, now time.Time, limit int) ([]notification.Scheduled, error)
	MarkDelivered(ctx context.Context, handle string, at time.Time) error
	// PurgeDelivered удаляет уведомления, доставленные раньше before.
	PurgeDelivered(ctx context.Context, before time.Time) (int, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, n notification.Scheduled) error
}

// NotificationWorker раз в interval забирает наступившие уведомления и доставляет их.
// Не доставленное остаётся в очереди до следующего тика.
type NotificationWorker struct {
	queue     Queue
	deliverer Deliverer
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
	retention time.Duration
	nextPurge time.Time
	now       func() time.Time
}

type Option func(*NotificationWorker)

func WithInterval(interval time.Duration) Option {
	return func(w *NotificationWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *NotificationWorker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithRetention сколько хранить доставленные уведомления. 0 отключает очистку.
func WithRetention(retention time.Duration) Option {
	return func(w *NotificationWorker) {
		if retention >= 0 {
			w.retention = retention
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *NotificationWorker) {
		w.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *NotificationWorker) {
		w.now = now
	}
}

func NewNotificationWorker(queue Queue, deliverer Deliverer, opts ...Option) *NotificationWorker {
	w := &NotificationWorker{
		queue:     queue,
		deliverer: deliverer,
		interval:  DefaultInterval,
		batchSize: DefaultBatchSize,
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start блокируется до отмены ctx.
func (w *NotificationWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Доставка уведомлений запущена",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Доставка уведомлений останавливается")
			return
		}
	}
}

// Check один проход по очереди. Возвращает число доставленных уведомлений.
func (w *NotificationWorker) Check(ctx context.Context) int {
	start := time.Now()
	now := w.now()

	w.purge(ctx, now)

	due, err := w.queue.Due(ctx, now, w.batchSize)
	if err != nil {
		w.metrics.NotificationFailed("due")
		logger.Warn("Worker: Ошибка получения уведомлений", zap.Error(err))
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	delivered := 0
	for _, n := range due {
		if ctx.Err() != nil {
			break
		}
		if err := w.deliver(ctx, n, now); err != nil {
			logger.Warn("Worker: Уведомление не доставлено",
				zap.Error(err),
				zap.String("handle", n.Handle),
				zap.String("kind", string(n.Payload.Kind)))
			continue
		}
		delivered++
	}

	logger.Info("Worker: Завершение доставки уведомлений",
		zap.Duration("ms", time.Since(start)),
		zap.Int("due", len(due)),
		zap.Int("delivered", delivered))
	return delivered
}

// purge не чаще раза в purgeEvery удаляет доставленные уведомления старше retention.
func (w *NotificationWorker) purge(ctx context.Context, now time.Time) {
	if w.retention == 0 || now.Before(w.nextPurge) {
		return
	}
	w.nextPurge = now.Add(purgeEvery)

	removed, err := w.queue.PurgeDelivered(ctx, now.Add(-w.retention))
	if err != nil {
		w.metrics.NotificationFailed("purge")
		logger.Warn("Worker: Ошибка очистки доставленных уведомлений", zap.Error(err))
		return
	}
	if removed > 0 {
		logger.Info("Worker: Удалены старые доставленные уведомления",
			zap.Int("removed", removed),
			zap.Duration("retention", w.retention))
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, n notification.Scheduled, now time.Time) error {
	if err := w.deliverer.Deliver(ctx, n); err != nil {
		w.metrics.NotificationFailed("deliver")
		return fmt.Errorf("доставка: %w", err)
	}
	if err := w.queue.MarkDelivered(ctx, n.Handle, now); err != nil {
		w.metrics.NotificationFailed("mark_delivered")
		return fmt.Errorf("отметка доставки: %w", err)
	}
	w.metrics.NotificationDelivered(string(n.Payload.Kind))
	return nil
}

// LogDeliverer "доставляет" уведомление в журнал.
type LogDeliverer struct{}

func (LogDeliverer) Deliver(ctx context.Context, n notification.Scheduled) error {
	fields := []zap.Field{
		zap.String("handle", n.Handle),
		zap.String("user_id", n.Payload.UserID.String()),
		zap.String("kind", string(n.Payload.Kind)),
		zap.String("title", n.Payload.Title),
		zap.String("body", n.Payload.Body),
		zap.Time("fire_at", n.FireAt),
	}
	if n.Payload.TaskID != nil {
		fields = append(fields, zap.String("task_id", n.Payload.TaskID.String()))
	}
	logger.Info("Worker: Уведомление", fields...)
	return nil
}
