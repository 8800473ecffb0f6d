package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"cellendar/internal/handlers/dto"
	"cellendar/internal/logger"
	"cellendar/internal/service"

	"go.uber.org/zap"
)

// maxImportBody тело импорта читается с запасом в байт, размер проверяет сервис.
const maxImportBody = 10<<20 + 1

type DataHandler struct {
	DataService DataService
}

func NewDataHandler(dataService DataService) DataHandler {
	return DataHandler{DataService: dataService}
}

// Export отдаёт файл, а не конверт: ?format=json|yaml.
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	format, err := service.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	raw, err := h.DataService.Export(r.Context(), userID, format)
	if err != nil {
		handleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("cellendar-%s.%s", time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		logger.Error("HTTP: Ошибка записи выгрузки", err)
	}
}

// Import формат берётся из ?format, иначе из Content-Type.
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	rawFormat := r.URL.Query().Get("format")
	if rawFormat == "" {
		rawFormat, _, _ = mime.ParseMediaType(r.Header.Get("Content-Type"))
	}
	format, err := service.ParseFormat(rawFormat)
	if err != nil {
		handleError(w, r, err)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		logger.Warn("HTTP: Ошибка чтения тела импорта", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "Не удалось прочитать тело запроса")
		return
	}
	if len(raw) == 0 {
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, errEmptyBody.Error(), toPayload("field", "body"))
		return
	}

	res, err := h.DataService.Import(r.Context(), userID, raw, format)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, res, "Data imported successfully", res.Report.Warnings...)
}

func (h *DataHandler) Clear(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	warnings, err := h.DataService.Clear(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, nil, "All data cleared", warnings...)
}

func (h *DataHandler) Backup(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	info, err := h.DataService.Backup(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusCreated, info, "Backup created")
}

func (h *DataHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	list, err := h.DataService.ListBackups(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, list, "")
}

func (h *DataHandler) Restore(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var request dto.RestoreRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	res, err := h.DataService.Restore(r.Context(), userID, request.Key)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, res, "Backup restored", res.Report.Warnings...)
}
