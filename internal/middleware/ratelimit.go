package middleware

import (
	"sync"
	"time"
)

type clientInfo struct {
	count   int
	resetAt time.Time
}

// rateLimiter счётчики по клиентам с фиксированным окном.
// Истёкшие окна удаляются не чаще раза за окно, поэтому карта не растёт с числом разных IP.
type rateLimiter struct {
	rpm    int
	window time.Duration
	now    func() time.Time

	mtx       sync.Mutex
	clients   map[string]*clientInfo
	nextSweep time.Time
}

func newRateLimiter(rpm int, window time.Duration, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		rpm:     rpm,
		window:  window,
		now:     now,
		clients: make(map[string]*clientInfo),
	}
}

// allow засчитывает запрос клиента. При отказе resetAt показывает, когда откроется новое окно.
func (l *rateLimiter) allow(key string) (remaining int, resetAt time.Time, allowed bool) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	l.sweep(now)

	info, exists := l.clients[key]
	if !exists || now.After(info.resetAt) {
		info = &clientInfo{resetAt: now.Add(l.window)}
		l.clients[key] = info
	}
	if info.count >= l.rpm {
		return 0, info.resetAt, false
	}
	info.count++

	remaining = l.rpm - info.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, info.resetAt, true
}

func (l *rateLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, info := range l.clients {
		if now.After(info.resetAt) {
			delete(l.clients, key)
		}
	}
	l.nextSweep = now.Add(l.window)
}
