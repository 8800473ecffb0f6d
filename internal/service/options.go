package service

import (
	"time"

	"cellendar/internal/metrics"
)

type options struct {
	now     func() time.Time
	loc     *time.Location
	metrics *metrics.Metrics
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLocation часовой пояс для границ "сегодня".
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// dayBounds полночь сегодняшнего дня и следующего в часовом поясе loc.
func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
