package handlers

import (
	"encoding/json"
	"net/http"

	"cellendar/internal/logger"
)

// Payload одно поле конверта ответа.
type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func toJSON(storage map[string]any, payload Payload) {
	storage[payload.Key] = payload.Payload
}

// responseWithJSON конверт {"success": ..., ...} с переданными полями.
// success выставляется по коду ответа, если его не передали явно.
func responseWithJSON(w http.ResponseWriter, code int, payload ...Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	storage := map[string]any{"success": code < http.StatusBadRequest}
	for _, pl := range payload {
		toJSON(storage, pl)
	}
	if err := json.NewEncoder(w).Encode(storage); err != nil {
		logger.Error("HTTP: Ошибка записи ответа", err)
	}
}

func responseWithData(w http.ResponseWriter, code int, data any, message string, warnings ...string) {
	payload := []Payload{toPayload("data", data)}
	if message != "" {
		payload = append(payload, toPayload("message", message))
	}
	if len(warnings) > 0 {
		payload = append(payload, toPayload("warnings", warnings))
	}
	responseWithJSON(w, code, payload...)
}

func responseWithError(w http.ResponseWriter, code int, errCode, message string, details ...Payload) {
	payload := []Payload{toPayload("error", message), toPayload("code", errCode)}
	if len(details) > 0 {
		fields := make(map[string]any, len(details))
		for _, d := range details {
			toJSON(fields, d)
		}
		payload = append(payload, toPayload("details", fields))
	}
	responseWithJSON(w, code, payload...)
}
