package handlers

import (
	"net/http"

	"cellendar/internal/logger"
	"cellendar/internal/middleware"
	"cellendar/internal/service"

	"go.uber.org/zap"
)

// handleError переводит ошибку сервиса в HTTP-ответ. Подробности UPSTREAM_ERROR клиенту не уходят.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	busErr, ok := service.AsBusinessError(err)
	if !ok {
		logger.Error("HTTP: Необработанная ошибка сервиса", err, zap.String("request_id", requestID))
		responseWithError(w, http.StatusInternalServerError, service.CodeUpstream, "Внутренняя ошибка сервера")
		return
	}

	statusCode := mapBusinessErrorToHTTP(busErr)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP: Ошибка сервиса", err,
			zap.String("request_id", requestID),
			zap.String("error_code", busErr.Code))
	} else {
		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("request_id", requestID),
			zap.String("error_code", busErr.Code),
			zap.Int("http_status", statusCode))
	}

	details := make([]Payload, 0, len(busErr.Details))
	for key, value := range busErr.Details {
		details = append(details, toPayload(key, value))
	}
	responseWithError(w, statusCode, busErr.Code, busErr.Message, details...)
}

func mapBusinessErrorToHTTP(busErr *service.BusinessError) int {
	switch busErr.Code {
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeAuth:
		if busErr.Details["reason"] == "invalid_token" {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeAlreadyExists:
		return http.StatusConflict
	case service.CodeBackupDisabled:
		return http.StatusServiceUnavailable
	case service.CodeUpstream:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
