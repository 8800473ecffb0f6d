package service

import (
	"errors"
	"fmt"

	"cellendar/internal/logger"
	repo "cellendar/internal/repository"

	"go.uber.org/zap"
)

const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeUpstream       = "UPSTREAM_ERROR"
	CodeAuth           = "AUTH_ERROR"
	CodeAlreadyExists  = "ALREADY_EXISTS"
	CodeBackupDisabled = "BACKUP_DISABLED"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource string, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewUpstreamError сбой хранилища или другого внешнего участника. Причина не уходит клиенту.
func NewUpstreamError(op string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeUpstream,
		Message: fmt.Sprintf("Ошибка при выполнении операции: %s", op),
		Details: map[string]any{"operation": op},
		Err:     err,
	}
}

func NewAuthError(message string) *BusinessError {
	return &BusinessError{
		Code:    CodeAuth,
		Message: message,
		Details: map[string]any{},
	}
}

func NewAlreadyExists(resource, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeAlreadyExists,
		Message: fmt.Sprintf("%s уже существует: %s", resource, reason),
		Details: map[string]any{"resource": resource},
	}
}

// AsBusinessError достаёт BusinessError из цепочки ошибок.
func AsBusinessError(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

func IsCode(err error, code string) bool {
	busErr, ok := AsBusinessError(err)
	return ok && busErr.Code == code
}

// fromRepo переводит ошибки хранилища в бизнес-ошибки.
func fromRepo(err error, resource, id, op string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		logger.Info("Service: Запись не найдена", zap.String("resource", resource), zap.String("target_id", id))
		return NewNotFound(resource, id)
	case errors.Is(err, repo.ErrAlreadyExists):
		return NewAlreadyExists(resource, id)
	default:
		logger.Error("Service: Ошибка хранилища", err, zap.String("operation", op))
		return NewUpstreamError(op, err)
	}
}
