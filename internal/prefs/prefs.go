// Package prefs persists client-local user preferences. They are read
// at startup, written on user action, and never synchronized to the
// server.
package prefs

import (
	"context"

	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/store"
)

const (
	keyTheme          = "dash:pref:theme"
	keyNotifications  = "dash:pref:notifications"
	keyFooterExpanded = "dash:pref:footer_expanded"

	defaultTheme = "dark"
)

// Preferences is a thin typed layer over the KV store. Reads fall back
// to defaults on a miss or a store error; a broken preference store
// must never block the dashboard.
type Preferences struct {
	kv     store.KV
	logger *zap.Logger
}

func New(kv store.KV, logger *zap.Logger) *Preferences {
	return &Preferences{kv: kv, logger: logger}
}

// Theme returns the stored theme choice, defaulting to dark.
func (p *Preferences) Theme(ctx context.Context) string {
	return p.getString(ctx, keyTheme, defaultTheme)
}

func (p *Preferences) SetTheme(ctx context.Context, theme string) error {
	return p.set(ctx, keyTheme, theme)
}

// NotificationsEnabled reports the notification opt-in, default true.
func (p *Preferences) NotificationsEnabled(ctx context.Context) bool {
	return p.getBool(ctx, keyNotifications, true)
}

func (p *Preferences) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return p.setBool(ctx, keyNotifications, enabled)
}

// FooterExpanded reports whether the message footer starts expanded,
// default true.
func (p *Preferences) FooterExpanded(ctx context.Context) bool {
	return p.getBool(ctx, keyFooterExpanded, true)
}

func (p *Preferences) SetFooterExpanded(ctx context.Context, expanded bool) error {
	return p.setBool(ctx, keyFooterExpanded, expanded)
}

func (p *Preferences) getString(ctx context.Context, key, def string) string {
	val, err := p.kv.Get(ctx, key)
	if err != nil {
		if err != store.ErrMiss {
			p.logger.Warn("failed to read preference", zap.String("key", key), zap.Error(err))
		}
		return def
	}
	return val
}

func (p *Preferences) getBool(ctx context.Context, key string, def bool) bool {
	val, err := p.kv.Get(ctx, key)
	if err != nil {
		if err != store.ErrMiss {
			p.logger.Warn("failed to read preference", zap.String("key", key), zap.Error(err))
		}
		return def
	}
	return val != "false"
}

func (p *Preferences) set(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, key, value, 0)
}

func (p *Preferences) setBool(ctx context.Context, key string, value bool) error {
	if value {
		return p.set(ctx, key, "true")
	}
	return p.set(ctx, key, "false")
}
