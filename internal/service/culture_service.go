package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cellendar/internal/logger"
	"cellendar/internal/models/culture"
	"cellendar/internal/models/task"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resourceCulture = "Культура"

type CreateCultureInput struct {
	Name      string
	CellType  string
	StartDate time.Time
	Notes     string
}

// UpdateCultureInput nil-поля не меняются.
type UpdateCultureInput struct {
	Name          *string
	CellType      *string
	StartDate     *time.Time
	Notes         *string
	Status        *culture.Status
	PassageNumber *int
}

type CultureService struct {
	cultures  CultureRepository
	tasks     TaskRepository
	scheduler ReminderScheduler
	options
}

func NewCultureService(cultures CultureRepository, tasks TaskRepository, scheduler ReminderScheduler, opts ...Option) *CultureService {
	return &CultureService{
		cultures:  cultures,
		tasks:     tasks,
		scheduler: scheduler,
		options:   buildOptions(opts),
	}
}

func (s *CultureService) Create(ctx context.Context, userID uuid.UUID, in CreateCultureInput) (*culture.Culture, error) {
	now := s.now().UTC()
	c := &culture.Culture{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		CellType:       strings.TrimSpace(in.CellType),
		StartDate:      in.StartDate,
		PassageNumber:  0,
		LastActionDate: now,
		Notes:          in.Notes,
		Status:         culture.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if c.StartDate.IsZero() {
		c.StartDate = now
	}
	if err := validateCulture(c); err != nil {
		return nil, err
	}

	if err := s.cultures.CreateCulture(ctx, c); err != nil {
		return nil, fromRepo(err, resourceCulture, c.ID.String(), "создание культуры")
	}
	logger.Info("Service: Культура создана", zap.String("culture_id", c.ID.String()))
	return c, nil
}

func (s *CultureService) Get(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error) {
	c, err := s.cultures.GetCulture(ctx, userID, id)
	if err != nil {
		return nil, fromRepo(err, resourceCulture, id.String(), "получение культуры")
	}
	return c, nil
}

func (s *CultureService) List(ctx context.Context, userID uuid.UUID) ([]*culture.Culture, error) {
	list, err := s.cultures.ListCultures(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, resourceCulture, "", "список культур")
	}
	return list, nil
}

func (s *CultureService) Update(ctx context.Context, userID, id uuid.UUID, in UpdateCultureInput) (*culture.Culture, error) {
	opts, err := cultureOptions(in)
	if err != nil {
		return nil, err
	}

	current, err := s.cultures.GetCulture(ctx, userID, id)
	if err != nil {
		return nil, fromRepo(err, resourceCulture, id.String(), "получение культуры")
	}
	if in.PassageNumber != nil && *in.PassageNumber < current.PassageNumber {
		return nil, NewBusinessError(CodeValidation,
			fmt.Sprintf("Номер пассажа нельзя уменьшить: текущий %d", current.PassageNumber),
			ToDetail("field", "passage_number"),
			ToDetail("current", current.PassageNumber))
	}

	updated := current.Clone()
	updated.Apply(opts...)
	if err := validateCulture(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.cultures.UpdateCulture(ctx, updated); err != nil {
		return nil, fromRepo(err, resourceCulture, id.String(), "обновление культуры")
	}
	return updated, nil
}

func cultureOptions(in UpdateCultureInput) ([]culture.CultureOption, error) {
	var opts []culture.CultureOption
	if in.Name != nil {
		if err := requireText("name", *in.Name, maxNameLen); err != nil {
			return nil, err
		}
		opts = append(opts, culture.WithName(strings.TrimSpace(*in.Name)))
	}
	if in.CellType != nil {
		if err := requireText("cell_type", *in.CellType, maxNameLen); err != nil {
			return nil, err
		}
		opts = append(opts, culture.WithCellType(strings.TrimSpace(*in.CellType)))
	}
	if in.Notes != nil {
		if err := limitText("notes", *in.Notes, maxNotesLen); err != nil {
			return nil, err
		}
		opts = append(opts, culture.WithNotes(*in.Notes))
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, NewValidationError("status", "допустимо active, paused или terminated")
		}
		opts = append(opts, culture.WithStatus(*in.Status))
	}
	if in.StartDate != nil {
		opts = append(opts, culture.WithStartDate(*in.StartDate))
	}
	if in.PassageNumber != nil {
		if *in.PassageNumber < 0 {
			return nil, NewValidationError("passage_number", "не может быть отрицательным")
		}
		opts = append(opts, culture.WithPassageNumber(*in.PassageNumber))
	}
	return opts, nil
}

// Delete удаляет культуру вместе с задачами и снимает их уведомления.
// Ошибки отмены уведомлений возвращаются как предупреждения.
func (s *CultureService) Delete(ctx context.Context, userID, id uuid.UUID) ([]string, error) {
	taskIDs, err := s.cultures.DeleteCulture(ctx, userID, id)
	if err != nil {
		return nil, fromRepo(err, resourceCulture, id.String(), "удаление культуры")
	}

	warnings := []string{}
	for _, taskID := range taskIDs {
		if _, err := s.scheduler.CancelForTask(ctx, userID, taskID); err != nil {
			logger.Warn("Service: Не удалось снять уведомления удалённой задачи",
				zap.Error(err), zap.String("task_id", taskID.String()))
			warnings = append(warnings, fmt.Sprintf("задача %s: %v", taskID, err))
		}
	}

	logger.Info("Service: Культура удалена",
		zap.String("culture_id", id.String()),
		zap.Int("tasks_deleted", len(taskIDs)))
	return warnings, nil
}

// IncrementPassage ручной пассаж без задачи.
func (s *CultureService) IncrementPassage(ctx context.Context, userID, id uuid.UUID) (*culture.Culture, error) {
	c, err := s.cultures.IncrementPassage(ctx, userID, id, s.now().UTC())
	if err != nil {
		return nil, fromRepo(err, resourceCulture, id.String(), "пассаж культуры")
	}
	logger.Info("Service: Пассаж культуры", zap.String("culture_id", id.String()), zap.Int("passage_number", c.PassageNumber))
	return c, nil
}

// Tasks задачи культуры по сроку.
func (s *CultureService) Tasks(ctx context.Context, userID, id uuid.UUID) ([]*task.Task, error) {
	if _, err := s.cultures.GetCulture(ctx, userID, id); err != nil {
		return nil, fromRepo(err, resourceCulture, id.String(), "получение культуры")
	}
	list, err := s.tasks.ListTasks(ctx, userID, repo.TaskQuery{CultureID: &id})
	if err != nil {
		return nil, fromRepo(err, resourceTask, "", "список задач культуры")
	}
	return list, nil
}
