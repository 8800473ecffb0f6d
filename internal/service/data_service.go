package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"cellendar/internal/blob"
	"cellendar/internal/logger"
	"cellendar/internal/reminder"
	repo "cellendar/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// maxImportSize предел размера импортируемого файла и восстанавливаемой копии.
const maxImportSize = 10 << 20

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json", "application/json":
		return FormatJSON, nil
	case "yaml", "yml", "application/yaml", "application/x-yaml", "text/yaml":
		return FormatYAML, nil
	}
	return "", NewValidationError("format", "допустимо json или yaml")
}

func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

type ImportResult struct {
	Cultures int             `json:"cultures"`
	Tasks    int             `json:"tasks"`
	Report   reminder.Report `json:"notifications"`
}

// DataService выгрузка, загрузка и резервные копии всех данных пользователя.
type DataService struct {
	repo      DataRepository
	settings  *SettingsService
	scheduler ReminderScheduler
	backups   blob.Store
	options
}

// NewDataService backups может быть nil, тогда операции с копиями возвращают BACKUP_DISABLED.
func NewDataService(r DataRepository, settings *SettingsService, scheduler ReminderScheduler, backups blob.Store, opts ...Option) *DataService {
	return &DataService{
		repo:      r,
		settings:  settings,
		scheduler: scheduler,
		backups:   backups,
		options:   buildOptions(opts),
	}
}

func (s *DataService) Export(ctx context.Context, userID uuid.UUID, format Format) ([]byte, error) {
	snap, err := s.repo.Snapshot(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, "Данные", userID.String(), "выгрузка данных")
	}
	snap.Version = repo.SnapshotVersion
	snap.ExportedAt = s.now().UTC()

	var raw []byte
	switch format {
	case FormatYAML:
		raw, err = yaml.Marshal(snap)
	default:
		raw, err = json.MarshalIndent(snap, "", "  ")
	}
	if err != nil {
		return nil, NewUpstreamError("сериализация данных", err)
	}

	logger.Info("Service: Данные выгружены",
		zap.String("format", string(format)),
		zap.Int("cultures", len(snap.Cultures)),
		zap.Int("tasks", len(snap.Tasks)))
	return raw, nil
}

func decodeSnapshot(raw []byte, format Format) (*repo.Snapshot, error) {
	snap := &repo.Snapshot{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, snap)
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(snap)
	}
	if err != nil {
		return nil, NewBusinessError(CodeValidation, "Файл не разобран: "+err.Error(), ToDetail("field", "body"))
	}
	if snap.Version != 0 && snap.Version != repo.SnapshotVersion {
		return nil, NewValidationError("version", fmt.Sprintf("поддерживается версия %d", repo.SnapshotVersion))
	}
	return snap, nil
}

// Import заменяет все данные пользователя содержимым файла и перепланирует уведомления.
// Файл проверяется целиком до записи.
func (s *DataService) Import(ctx context.Context, userID uuid.UUID, raw []byte, format Format) (*ImportResult, error) {
	if len(raw) > maxImportSize {
		return nil, NewValidationError("body", "файл слишком большой")
	}
	snap, err := decodeSnapshot(raw, format)
	if err != nil {
		return nil, err
	}
	if err := s.prepareSnapshot(userID, snap); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceAll(ctx, userID, snap); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, NewValidationError("tasks", "задача ссылается на культуру, которой нет в файле")
		case errors.Is(err, repo.ErrAlreadyExists):
			return nil, NewAlreadyExists("Запись", "идентификатор занят другим пользователем")
		}
		return nil, fromRepo(err, "Данные", userID.String(), "загрузка данных")
	}
	s.settings.Forget(ctx, userID)

	res := &ImportResult{Cultures: len(snap.Cultures), Tasks: len(snap.Tasks)}
	report, err := s.scheduler.RescheduleAll(ctx, userID, snap.Tasks)
	if err != nil {
		logger.Warn("Service: Не удалось перепланировать уведомления после загрузки", zap.Error(err))
		report.Warnings = append(report.Warnings, err.Error())
	}
	res.Report = report

	logger.Info("Service: Данные загружены",
		zap.String("user_id", userID.String()),
		zap.Int("cultures", res.Cultures),
		zap.Int("tasks", res.Tasks))
	return res, nil
}

func (s *DataService) prepareSnapshot(userID uuid.UUID, snap *repo.Snapshot) error {
	cultureIDs := make(map[uuid.UUID]struct{}, len(snap.Cultures))
	for i, c := range snap.Cultures {
		if c == nil || c.ID == uuid.Nil {
			return NewValidationError(fmt.Sprintf("cultures[%d].id", i), "поле обязательно")
		}
		if _, dup := cultureIDs[c.ID]; dup {
			return NewValidationError(fmt.Sprintf("cultures[%d].id", i), "повторяется")
		}
		cultureIDs[c.ID] = struct{}{}
		c.UserID = userID
		if err := validateCulture(c); err != nil {
			return withIndex(err, "cultures", i)
		}
	}

	taskIDs := make(map[uuid.UUID]struct{}, len(snap.Tasks))
	for i, t := range snap.Tasks {
		if t == nil || t.ID == uuid.Nil {
			return NewValidationError(fmt.Sprintf("tasks[%d].id", i), "поле обязательно")
		}
		if _, dup := taskIDs[t.ID]; dup {
			return NewValidationError(fmt.Sprintf("tasks[%d].id", i), "повторяется")
		}
		taskIDs[t.ID] = struct{}{}
		if _, ok := cultureIDs[t.CultureID]; !ok {
			return NewValidationError(fmt.Sprintf("tasks[%d].culture_id", i), "культуры нет в файле")
		}
		t.UserID = userID
		if err := validateTask(t); err != nil {
			return withIndex(err, "tasks", i)
		}
	}

	if snap.Settings != nil {
		snap.Settings.UserID = userID
		if err := validateReminderHours("settings.default_reminder_hours", snap.Settings.DefaultReminderHours); err != nil {
			return err
		}
	}
	return nil
}

func withIndex(err error, collection string, i int) error {
	if busErr, ok := AsBusinessError(err); ok {
		busErr.Details["index"] = i
		busErr.Details["collection"] = collection
	}
	return err
}

// Clear удаляет культуры, задачи и уведомления пользователя и сбрасывает настройки.
func (s *DataService) Clear(ctx context.Context, userID uuid.UUID) ([]string, error) {
	warnings := []string{}
	if _, err := s.scheduler.CancelAll(ctx, userID); err != nil {
		logger.Warn("Service: Не удалось снять уведомления", zap.Error(err))
		warnings = append(warnings, err.Error())
	}

	if err := s.repo.DeleteAll(ctx, userID); err != nil {
		return nil, fromRepo(err, "Данные", userID.String(), "удаление данных")
	}
	if _, err := s.settings.Reset(ctx, userID); err != nil {
		return nil, err
	}

	logger.Info("Service: Данные пользователя удалены", zap.String("user_id", userID.String()))
	return warnings, nil
}

func backupPrefix(userID uuid.UUID) string {
	return userID.String() + "/"
}

func (s *DataService) backupsEnabled() error {
	if s.backups == nil {
		return NewBusinessError(CodeBackupDisabled, "Резервное копирование не настроено")
	}
	return nil
}

// Backup сохраняет выгрузку в JSON в хранилище копий.
func (s *DataService) Backup(ctx context.Context, userID uuid.UUID) (*blob.Info, error) {
	if err := s.backupsEnabled(); err != nil {
		return nil, err
	}
	raw, err := s.Export(ctx, userID, FormatJSON)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%sbackup-%s.json", backupPrefix(userID), s.now().UTC().Format("20060102T150405.000000000Z"))
	info, err := s.backups.Put(ctx, key, bytes.NewReader(raw), FormatJSON.ContentType())
	if err != nil {
		if errors.Is(err, blob.ErrExists) {
			return nil, NewAlreadyExists("Резервная копия", key)
		}
		logger.Error("Service: Ошибка записи резервной копии", err, zap.String("key", key))
		return nil, NewUpstreamError("запись резервной копии", err)
	}
	logger.Info("Service: Резервная копия создана", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return &info, nil
}

func (s *DataService) ListBackups(ctx context.Context, userID uuid.UUID) ([]blob.Info, error) {
	if err := s.backupsEnabled(); err != nil {
		return nil, err
	}
	list, err := s.backups.List(ctx, backupPrefix(userID))
	if err != nil {
		logger.Error("Service: Ошибка чтения списка копий", err)
		return nil, NewUpstreamError("список резервных копий", err)
	}
	return list, nil
}

// Restore загружает копию пользователя. Чужой ключ выглядит как несуществующий.
func (s *DataService) Restore(ctx context.Context, userID uuid.UUID, key string) (*ImportResult, error) {
	if err := s.backupsEnabled(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, NewValidationError("key", "поле обязательно")
	}
	if !strings.HasPrefix(key, backupPrefix(userID)) || strings.Contains(key, "..") {
		return nil, NewNotFound("Резервная копия", key)
	}

	rc, err := s.backups.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, NewNotFound("Резервная копия", key)
		}
		logger.Error("Service: Ошибка чтения резервной копии", err, zap.String("key", key))
		return nil, NewUpstreamError("чтение резервной копии", err)
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(io.LimitReader(rc, maxImportSize+1))
	if err != nil {
		return nil, NewUpstreamError("чтение резервной копии", err)
	}
	return s.Import(ctx, userID, raw, FormatJSON)
}
