// Package cache кэш настроек уведомлений. Источник истины остаётся в репозитории,
// после записи настроек запись в кэше сбрасывается.
package cache

import (
	"context"

	"cellendar/internal/models/notification"

	"github.com/google/uuid"
)

type SettingsCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*notification.Settings, bool, error)
	Set(ctx context.Context, st *notification.Settings) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
