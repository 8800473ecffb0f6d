package memory_test

import (
	"context"
	"testing"
	"time"

	"cellendar/internal/cache/memory"
	"cellendar/internal/models/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := memory.New(time.Minute)
	userID := uuid.New()

	_, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	st := notification.DefaultSettings(userID, time.Now())
	require.NoError(t, c.Set(ctx, st))

	got, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.DefaultReminderHours, got.DefaultReminderHours)

	// возвращается копия
	got.Enabled = false
	again, _, _ := c.Get(ctx, userID)
	assert.True(t, again.Enabled)

	require.NoError(t, c.Invalidate(ctx, userID))
	_, ok, err = c.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	c := memory.New(time.Minute, memory.WithClock(func() time.Time { return now }))
	userID := uuid.New()

	require.NoError(t, c.Set(ctx, notification.DefaultSettings(userID, now)))

	now = now.Add(59 * time.Second)
	_, ok, _ := c.Get(ctx, userID)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = c.Get(ctx, userID)
	assert.False(t, ok)
}
