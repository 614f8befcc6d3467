package prefs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/store"
)

func setupRedisPrefs(t *testing.T) *Preferences {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(store.NewRedisKV(client), zap.NewNop())
}

func TestPreferences_Defaults(t *testing.T) {
	p := setupRedisPrefs(t)
	ctx := context.Background()

	assert.Equal(t, "dark", p.Theme(ctx))
	assert.True(t, p.NotificationsEnabled(ctx))
	assert.True(t, p.FooterExpanded(ctx))
}

func TestPreferences_RoundTrip(t *testing.T) {
	p := setupRedisPrefs(t)
	ctx := context.Background()

	require.NoError(t, p.SetTheme(ctx, "light"))
	require.NoError(t, p.SetNotificationsEnabled(ctx, false))
	require.NoError(t, p.SetFooterExpanded(ctx, false))

	assert.Equal(t, "light", p.Theme(ctx))
	assert.False(t, p.NotificationsEnabled(ctx))
	assert.False(t, p.FooterExpanded(ctx))
}

func TestPreferences_MemoryKVFallback(t *testing.T) {
	p := New(store.NewMemoryKV(), zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, "dark", p.Theme(ctx))
	require.NoError(t, p.SetTheme(ctx, "light"))
	assert.Equal(t, "light", p.Theme(ctx))
}

func TestPreferences_StoreErrorFallsBackToDefault(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := New(store.NewRedisKV(client), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.SetTheme(ctx, "light"))
	mr.Close()

	assert.Equal(t, "dark", p.Theme(ctx), "a broken store must not block the dashboard")
	assert.True(t, p.NotificationsEnabled(ctx))
}
