// Package metrics собирает счётчики сервиса в собственный prometheus-реестр.
// Все методы безопасны для nil-получателя: в тестах метрики можно не создавать.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cellendar"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests           *prometheus.CounterVec
	httpDuration           *prometheus.HistogramVec
	taskCompletions        *prometheus.CounterVec
	notificationsScheduled *prometheus.CounterVec
	notificationsDelivered *prometheus.CounterVec
	notificationFailures   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		taskCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_completions_total",
			Help:      "Tasks transitioned to completed, by task type.",
		}, []string{"type"}),
		notificationsScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_scheduled_total",
			Help:      "Notifications handed to the scheduler, by kind.",
		}, []string{"kind"}),
		notificationsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Notifications delivered by the worker, by kind.",
		}, []string{"kind"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Failed scheduler operations, by operation.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.taskCompletions,
		m.notificationsScheduled,
		m.notificationsDelivered,
		m.notificationFailures,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) TaskCompleted(taskType string) {
	if m == nil {
		return
	}
	m.taskCompletions.WithLabelValues(taskType).Inc()
}

func (m *Metrics) NotificationScheduled(kind string) {
	if m == nil {
		return
	}
	m.notificationsScheduled.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotificationDelivered(kind string) {
	if m == nil {
		return
	}
	m.notificationsDelivered.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotificationFailed(op string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(op).Inc()
}
