package handlers

import (
	"net/http"

	"cellendar/internal/handlers/dto"
	"cellendar/internal/logger"
	"cellendar/internal/service"

	"go.uber.org/zap"
)

type NotificationHandler struct {
	NotificationService NotificationService
}

func NewNotificationHandler(notificationService NotificationService) NotificationHandler {
	return NotificationHandler{NotificationService: notificationService}
}

func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	st, err := h.NotificationService.Settings(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, dto.SettingsResponse{Settings: st}, "")
}

// UpdateSettings сохраняет настройки и сразу перепланирует уведомления под них.
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var request dto.UpdateSettingsRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	st, report, err := h.NotificationService.UpdateSettings(r.Context(), userID, service.UpdateSettingsInput{
		Enabled:              request.Enabled,
		DefaultReminderHours: request.DefaultReminderHours,
		OverdueAlerts:        request.OverdueAlerts,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP: Настройки уведомлений обновлены",
		zap.String("user_id", userID.String()),
		zap.Int("scheduled", report.Scheduled))
	responseWithData(w, http.StatusOK, dto.SettingsResponse{Settings: st, Reschedule: &report},
		"Notification settings updated successfully", report.Warnings...)
}

func (h *NotificationHandler) Scheduled(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	list, err := h.NotificationService.Scheduled(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, list, "")
}

func (h *NotificationHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	report, err := h.NotificationService.Reschedule(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, report, "Notifications rescheduled", report.Warnings...)
}

func (h *NotificationHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	summary, err := h.NotificationService.DailySummary(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	message := "Daily summary scheduled"
	if summary.Handle == "" {
		message = "Nothing scheduled for today"
	}
	responseWithData(w, http.StatusOK, summary, message)
}
