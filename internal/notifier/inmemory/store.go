package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cellendar/internal/models/notification"
	"cellendar/internal/notifier"

	"github.com/google/uuid"
)

// Store расписание уведомлений в памяти процесса. После перезапуска пусто.
type Store struct {
	mtx     *sync.RWMutex
	items   map[string]*notification.Scheduled
	handles []string
	now     func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		mtx:     &sync.RWMutex{},
		items:   make(map[string]*notification.Scheduled),
		handles: []string{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ScheduleOnce(ctx context.Context, fireAt time.Time, payload notification.Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	handle := uuid.NewString()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.items[handle] = &notification.Scheduled{
		Handle:    handle,
		FireAt:    fireAt,
		Payload:   clonePayload(payload),
		CreatedAt: s.now(),
	}
	s.handles = append(s.handles, handle)
	return handle, nil
}

func (s *Store) Cancel(ctx context.Context, handle string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.items[handle]; !ok {
		return nil
	}
	delete(s.items, handle)
	for ind, h := range s.handles {
		if h == handle {
			s.handles = append(s.handles[:ind], s.handles[ind+1:]...)
			break
		}
	}
	return nil
}

// List ожидающие доставки уведомления в порядке планирования.
func (s *Store) List(ctx context.Context) ([]notification.Scheduled, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]notification.Scheduled, 0, len(s.handles))
	for _, h := range s.handles {
		item := s.items[h]
		if item.DeliveredAt != nil {
			continue
		}
		res = append(res, copyScheduled(item))
	}
	return res, nil
}

// Due недоставленные уведомления с FireAt <= now, самые ранние первыми.
func (s *Store) Due(ctx context.Context, now time.Time, limit int) ([]notification.Scheduled, error) {
	pending, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	due := []notification.Scheduled{}
	for _, item := range pending {
		if !item.FireAt.After(now) {
			due = append(due, item)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].FireAt.Before(due[j].FireAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *Store) MarkDelivered(ctx context.Context, handle string, at time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	item, ok := s.items[handle]
	if !ok {
		return notifier.ErrNotFound
	}
	if item.DeliveredAt == nil {
		delivered := at
		item.DeliveredAt = &delivered
	}
	return nil
}

func (s *Store) PurgeDelivered(ctx context.Context, before time.Time) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	kept := s.handles[:0]
	removed := 0
	for _, h := range s.handles {
		item := s.items[h]
		if item.DeliveredAt != nil && item.DeliveredAt.Before(before) {
			delete(s.items, h)
			removed++
			continue
		}
		kept = append(kept, h)
	}
	s.handles = kept
	return removed, nil
}

func (s *Store) Close() error { return nil }

func clonePayload(p notification.Payload) notification.Payload {
	if p.TaskID != nil {
		id := *p.TaskID
		p.TaskID = &id
	}
	return p
}

func copyScheduled(item *notification.Scheduled) notification.Scheduled {
	c := *item
	c.Payload = clonePayload(item.Payload)
	if item.DeliveredAt != nil {
		at := *item.DeliveredAt
		c.DeliveredAt = &at
	}
	return c
}
