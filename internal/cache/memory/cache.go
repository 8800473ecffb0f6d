package memory

import (
	"context"
	"sync"
	"time"

	"cellendar/internal/models/notification"

	"github.com/google/uuid"
)

type entry struct {
	settings  *notification.Settings
	expiresAt time.Time
}

// Cache кэш в памяти с TTL. Нулевой TTL значит без истечения.
type Cache struct {
	mtx     *sync.RWMutex
	entries map[uuid.UUID]entry
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		mtx:     &sync.RWMutex{},
		entries: make(map[uuid.UUID]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(ctx context.Context, userID uuid.UUID) (*notification.Settings, bool, error) {
	c.mtx.RLock()
	e, ok := c.entries[userID]
	c.mtx.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && !c.now().Before(e.expiresAt) {
		c.mtx.Lock()
		delete(c.entries, userID)
		c.mtx.Unlock()
		return nil, false, nil
	}
	return e.settings.Clone(), true, nil
}

func (c *Cache) Set(ctx context.Context, st *notification.Settings) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.entries[st.UserID] = entry{settings: st.Clone(), expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	delete(c.entries, userID)
	return nil
}
