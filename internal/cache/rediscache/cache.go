package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cellendar/internal/config"
	"cellendar/internal/logger"
	"cellendar/internal/models/notification"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "cellendar:settings:"

// Cache настройки уведомлений в Redis в виде JSON с TTL.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

func New(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error("Cache: Неудачная проверка ping Redis", err)
		return nil, fmt.Errorf("подключение к redis: %w", err)
	}

	logger.Info("Cache: Подключение к Redis установлено")
	return NewWithClient(client, cfg.TTL), nil
}

func NewWithClient(client *goredis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

func (c *Cache) Get(ctx context.Context, userID uuid.UUID) (*notification.Settings, bool, error) {
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("чтение настроек из redis: %w", err)
	}

	var st notification.Settings
	if err := json.Unmarshal(raw, &st); err != nil {
		// битую запись просто выбрасываем
		_ = c.client.Del(ctx, key(userID)).Err()
		return nil, false, nil
	}
	return &st, true, nil
}

func (c *Cache) Set(ctx context.Context, st *notification.Settings) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("сериализация настроек: %w", err)
	}
	if err := c.client.Set(ctx, key(st.UserID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("запись настроек в redis: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("сброс настроек в redis: %w", err)
	}
	return nil
}

func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis недоступен: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
