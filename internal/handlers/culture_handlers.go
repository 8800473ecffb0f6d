package handlers

import (
	"net/http"
	"time"

	"cellendar/internal/handlers/dto"
	"cellendar/internal/logger"
	"cellendar/internal/service"

	"go.uber.org/zap"
)

type CultureHandler struct {
	CultureService CultureService
	now            func() time.Time
}

// NewCultureHandler now задаёт момент, на который считается просрочка задач культуры.
func NewCultureHandler(cultureService CultureService, now func() time.Time) CultureHandler {
	if now == nil {
		now = time.Now
	}
	return CultureHandler{CultureService: cultureService, now: now}
}

func (h *CultureHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	cultures, err := h.CultureService.List(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, cultures, "")
}

func (h *CultureHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.CultureService.Get(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, c, "")
}

func (h *CultureHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var request dto.CreateCultureRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	in := service.CreateCultureInput{
		Name:     request.Name,
		CellType: request.CellType,
		Notes:    request.Notes,
	}
	if request.StartDate != nil {
		in.StartDate = *request.StartDate
	}

	c, err := h.CultureService.Create(r.Context(), userID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Культура создана",
		zap.String("culture_id", c.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))
	responseWithData(w, http.StatusCreated, c, "Culture created successfully")
}

func (h *CultureHandler) Update(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var request dto.UpdateCultureRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	c, err := h.CultureService.Update(r.Context(), userID, id, service.UpdateCultureInput{
		Name:          request.Name,
		CellType:      request.CellType,
		StartDate:     request.StartDate,
		Notes:         request.Notes,
		Status:        request.Status,
		PassageNumber: request.PassageNumber,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, c, "Culture updated successfully")
}

func (h *CultureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	warnings, err := h.CultureService.Delete(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, nil, "Culture deleted successfully", warnings...)
}

// Passage ручной пассаж: номер пассажа +1.
func (h *CultureHandler) Passage(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.CultureService.IncrementPassage(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, c, "Passage recorded successfully")
}

func (h *CultureHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	tasks, err := h.CultureService.Tasks(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, dto.FromTaskList(tasks, h.now(), nil), "")
}
