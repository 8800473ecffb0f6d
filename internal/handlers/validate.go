package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"cellendar/internal/logger"
	"cellendar/internal/middleware"
	"cellendar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodySize предел тела обычного JSON-запроса.
const maxBodySize = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeJSON читает тело запроса в dst. При ошибке ответ уже записан.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, service.CodeValidation, "Content-Type должен быть application/json")
		return false
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "Неверное тело запроса: "+err.Error(),
			toPayload("field", "body"))
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		logger.Warn("HTTP: Неверный идентификатор",
			zap.String("param", param),
			zap.String("value", raw),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "Неверный идентификатор: "+param,
			toPayload("field", param))
		return uuid.Nil, false
	}
	return id, true
}

func parseBoolQuery(w http.ResponseWriter, r *http.Request, name string) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "Неверное значение параметра "+name,
			toPayload("field", name))
		return nil, false
	}
	return &v, true
}

// currentUserID владелец запроса из контекста Auth.
func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, service.CodeAuth, "Требуется токен доступа")
		return uuid.Nil, false
	}
	return u.ID, true
}

var errEmptyBody = errors.New("пустое тело запроса")
