package handlers

import (
	"net/http"
	"time"

	"cellendar/internal/handlers/dto"
	"cellendar/internal/logger"
	"cellendar/internal/models/task"
	"cellendar/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{TaskService: taskService}
}

// List фильтры: culture_id, completed=true|false, status=all|pending|overdue|completed.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var filter service.TaskFilter
	query := r.URL.Query()
	if raw := query.Get("culture_id"); raw != "" {
		cultureID, err := uuid.Parse(raw)
		if err != nil {
			logger.Warn("HTTP: Неверное значение параметра",
				zap.String("query", "culture_id"),
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, service.CodeValidation, "Неверное значение параметра culture_id",
				toPayload("field", "culture_id"))
			return
		}
		filter.CultureID = &cultureID
	}
	completed, ok := parseBoolQuery(w, r, "completed")
	if !ok {
		return
	}
	filter.Completed = completed

	status, err := task.ParseCriterion(query.Get("status"))
	if err != nil {
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, err.Error(), toPayload("field", "status"))
		return
	}
	filter.Status = status

	tasks, err := h.TaskService.List(r.Context(), userID, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cultures, ok := h.cultureIndex(w, r, userID)
	if !ok {
		return
	}
	responseWithData(w, http.StatusOK, dto.FromTaskList(tasks, h.TaskService.Now(), cultures), "")
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.TaskService.Get(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cultures, ok := h.cultureIndex(w, r, userID)
	if !ok {
		return
	}
	responseWithData(w, http.StatusOK, dto.FromTask(t, h.TaskService.Now(), cultures), "")
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	res, err := h.TaskService.Create(r.Context(), userID, service.CreateTaskInput{
		CultureID:     request.CultureID,
		Type:          request.Type,
		Title:         request.Title,
		Description:   request.Description,
		ScheduledDate: request.ScheduledDate,
		ReminderHours: request.ReminderHours,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	cultures, ok := h.cultureIndex(w, r, userID)
	if !ok {
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", res.Task.ID.String()),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))
	responseWithData(w, http.StatusCreated, dto.FromTask(res.Task, h.TaskService.Now(), cultures),
		"Task created successfully", res.Warnings...)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	res, err := h.TaskService.Update(r.Context(), userID, id, service.UpdateTaskInput{
		Title:         request.Title,
		Description:   request.Description,
		ScheduledDate: request.ScheduledDate,
		ReminderHours: request.ReminderHours,
		IsCompleted:   request.IsCompleted,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	change, ok := h.change(w, r, userID, res)
	if !ok {
		return
	}
	responseWithData(w, http.StatusOK, change, "Task updated successfully", res.Warnings...)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	warnings, err := h.TaskService.Delete(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, nil, "Task deleted successfully", warnings...)
}

// Complete повторный вызов для выполненной задачи отвечает 200 с already_completed=true.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.TaskService.CompleteTask(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	change, ok := h.change(w, r, userID, res)
	if !ok {
		return
	}
	message := "Task completed successfully"
	if res.AlreadyCompleted {
		message = "Task was already completed"
	}
	responseWithData(w, http.StatusOK, change, message, res.Warnings...)
}

// change свежая культура из результата выполнения заменяет прочитанную из списка.
func (h *TaskHandler) change(w http.ResponseWriter, r *http.Request, userID uuid.UUID, res *service.TaskResult) (dto.TaskChangeResponse, bool) {
	cultures, ok := h.cultureIndex(w, r, userID)
	if !ok {
		return dto.TaskChangeResponse{}, false
	}
	if res.Culture != nil {
		cultures[res.Culture.ID] = res.Culture
	}
	return dto.TaskChangeResponse{
		Task:             dto.FromTask(res.Task, h.TaskService.Now(), cultures),
		Culture:          res.Culture,
		AlreadyCompleted: res.AlreadyCompleted,
	}, true
}

func (h *TaskHandler) cultureIndex(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (dto.CultureIndex, bool) {
	cultures, err := h.TaskService.Cultures(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	return dto.NewCultureIndex(cultures), true
}

func (h *TaskHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.TaskService.Today(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cultures, ok := h.cultureIndex(w, r, userID)
	if !ok {
		return
	}
	responseWithData(w, http.StatusOK, dto.FromTaskList(tasks, h.TaskService.Now(), cultures), "")
}

func (h *TaskHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.TaskService.Overdue(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cultures, ok := h.cultureIndex(w, r, userID)
	if !ok {
		return
	}
	responseWithData(w, http.StatusOK, dto.FromTaskList(tasks, h.TaskService.Now(), cultures), "")
}

func (h *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	d, err := h.TaskService.Dashboard(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	now := h.TaskService.Now()
	cultures := dto.NewCultureIndex(d.Cultures)
	responseWithData(w, http.StatusOK, dto.DashboardResponse{
		TotalCultures:  d.TotalCultures,
		ActiveCultures: d.ActiveCultures,
		Counts:         d.Counts,
		Today:          dto.FromTaskList(d.Today, now, cultures),
		Overdue:        dto.FromTaskList(d.Overdue, now, cultures),
		Upcoming:       dto.FromTaskList(d.Upcoming, now, cultures),
	}, "")
}
