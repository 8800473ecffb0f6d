package handlers

import (
	"context"
	"net/http"
	"time"

	"cellendar/internal/logger"

	"go.uber.org/zap"
)

const serviceName = "cellendar"

type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
}

// NewHealthHandler checks проверяются по имени, nil-зависимости пропускаются.
func NewHealthHandler(checks map[string]HealthChecker) HealthHandler {
	clean := make(map[string]HealthChecker, len(checks))
	for name, c := range checks {
		if c != nil {
			clean[name] = c
		}
	}
	return HealthHandler{checks: clean, timeout: 2 * time.Second}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			logger.Warn("HTTP: Компонент недоступен", zap.String("component", name), zap.Error(err))
			components[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	responseWithJSON(w, status,
		toPayload("status", state),
		toPayload("service", serviceName),
		toPayload("components", components),
		toPayload("time", time.Now().UTC()))
}
