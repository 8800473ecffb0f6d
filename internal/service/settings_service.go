package service

import (
	"context"
	"errors"

	"cellendar/internal/cache"
	"cellendar/internal/logger"
	"cellendar/internal/models/notification"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resourceSettings = "Настройки уведомлений"

// UpdateSettingsInput nil-поля не меняются.
type UpdateSettingsInput struct {
	Enabled              *bool
	DefaultReminderHours *int
	OverdueAlerts        *bool
}

// SettingsService настройки уведомлений с кэшем перед хранилищем.
// Сбой кэша не ломает чтение: идём прямо в хранилище.
type SettingsService struct {
	repo  SettingsRepository
	cache cache.SettingsCache
	options
}

func NewSettingsService(r SettingsRepository, c cache.SettingsCache, opts ...Option) *SettingsService {
	return &SettingsService{
		repo:    r,
		cache:   c,
		options: buildOptions(opts),
	}
}

// Get при первом обращении создаёт настройки по умолчанию.
func (s *SettingsService) Get(ctx context.Context, userID uuid.UUID) (*notification.Settings, error) {
	if s.cache != nil {
		st, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			logger.Warn("Service: Кэш настроек недоступен", zap.Error(err))
		} else if ok {
			return st, nil
		}
	}

	st, err := s.repo.GetSettings(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		st = notification.DefaultSettings(userID, s.now().UTC())
		if err := s.repo.UpsertSettings(ctx, st); err != nil {
			return nil, fromRepo(err, resourceSettings, userID.String(), "создание настроек")
		}
		logger.Info("Service: Созданы настройки уведомлений по умолчанию", zap.String("user_id", userID.String()))
	} else if err != nil {
		return nil, fromRepo(err, resourceSettings, userID.String(), "чтение настроек")
	}

	s.remember(ctx, st)
	return st, nil
}

// Settings источник настроек для планировщика.
func (s *SettingsService) Settings(ctx context.Context, userID uuid.UUID) (*notification.Settings, error) {
	return s.Get(ctx, userID)
}

func (s *SettingsService) Update(ctx context.Context, userID uuid.UUID, in UpdateSettingsInput) (*notification.Settings, error) {
	if in.DefaultReminderHours != nil {
		if err := validateReminderHours("default_reminder_hours", *in.DefaultReminderHours); err != nil {
			return nil, err
		}
	}

	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	st = st.Clone()
	if in.Enabled != nil {
		st.Enabled = *in.Enabled
	}
	if in.DefaultReminderHours != nil {
		st.DefaultReminderHours = *in.DefaultReminderHours
	}
	if in.OverdueAlerts != nil {
		st.OverdueAlerts = *in.OverdueAlerts
	}
	st.UpdatedAt = s.now().UTC()

	return st, s.save(ctx, st)
}

// Reset возвращает настройки по умолчанию.
func (s *SettingsService) Reset(ctx context.Context, userID uuid.UUID) (*notification.Settings, error) {
	st := notification.DefaultSettings(userID, s.now().UTC())
	return st, s.save(ctx, st)
}

// Forget сбрасывает кэш после массовой замены данных в обход сервиса.
func (s *SettingsService) Forget(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn("Service: Не удалось сбросить кэш настроек", zap.Error(err))
	}
}

func (s *SettingsService) save(ctx context.Context, st *notification.Settings) error {
	if err := s.repo.UpsertSettings(ctx, st); err != nil {
		return fromRepo(err, resourceSettings, st.UserID.String(), "сохранение настроек")
	}
	s.Forget(ctx, st.UserID)
	return nil
}

func (s *SettingsService) remember(ctx context.Context, st *notification.Settings) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, st); err != nil {
		logger.Warn("Service: Не удалось записать настройки в кэш", zap.Error(err))
	}
}
