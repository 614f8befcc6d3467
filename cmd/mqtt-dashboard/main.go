package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/channel"
	"github.com/basajaundev/MQTT-Dashboard/internal/config"
	"github.com/basajaundev/MQTT-Dashboard/internal/core"
	"github.com/basajaundev/MQTT-Dashboard/internal/logger"
	"github.com/basajaundev/MQTT-Dashboard/internal/models"
	"github.com/basajaundev/MQTT-Dashboard/internal/prefs"
	"github.com/basajaundev/MQTT-Dashboard/internal/service"
	"github.com/basajaundev/MQTT-Dashboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Preferences: redis when configured, in-memory otherwise.
	var kv store.KV
	if cfg.Redis.Addr != "" {
		kv = store.NewRedisKV(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		kv = store.NewMemoryKV()
	}
	preferences := prefs.New(kv, log)
	log.Info("preferences loaded",
		zap.String("theme", preferences.Theme(ctx)),
		zap.Bool("notifications", preferences.NotificationsEnabled(ctx)),
		zap.Bool("footer_expanded", preferences.FooterExpanded(ctx)),
	)

	// Optional HTTP session login; admin intents are refused server-side
	// without it.
	if cfg.Auth.BaseURL != "" && cfg.Auth.Password != "" {
		login := service.NewLoginClient(cfg.Auth.BaseURL, log)
		session, err := login.Login(cfg.Auth.Password)
		if err != nil {
			log.Fatal("Failed to log in to dashboard", zap.Error(err))
		}
		cfg.Channel.Session = session
	}

	ch := channel.NewMQTTChannel(cfg, log)
	syncCore := core.NewWithOptions(ch, core.Collaborators{
		Notifier: &logNotifier{log: log, preferences: preferences, ctx: ctx},
		Errors:   &logErrorPresenter{log: log},
		Backups:  &logBackupSink{log: log},
	}, core.Options{CoalesceWindow: cfg.Coalesce.Window}, log)

	registerRenderConsumers(syncCore, log)

	if err := ch.Connect(); err != nil {
		log.Fatal("Failed to connect channel", zap.Error(err))
	}
	defer ch.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
}

// registerRenderConsumers attaches the headless render consumers: each
// one projects its group of the snapshot into the structured log.
func registerRenderConsumers(c *core.Core, log *zap.Logger) {
	c.RegisterConsumer(models.GroupStatus, func() {
		st := c.View().Status
		log.Info("status",
			zap.Bool("connected", st.Connected),
			zap.Bool("reconnecting", st.Reconnecting),
			zap.Int64("active_server", st.ActiveServerID),
			zap.Bool("admin", st.IsAdmin),
		)
	})
	c.RegisterConsumer(models.GroupDevices, func() {
		snap := c.View()
		online := 0
		for _, d := range snap.Devices {
			if d.Status == "online" {
				online++
			}
		}
		log.Info("devices",
			zap.Int("total", len(snap.Devices)),
			zap.Int("online", online),
		)
	})
	c.RegisterConsumer(models.GroupServers, func() {
		log.Info("servers", zap.Int("count", len(c.View().Servers)))
	})
	c.RegisterConsumer(models.GroupTasks, func() {
		log.Info("tasks", zap.Int("count", len(c.View().Tasks)))
	})
	c.RegisterConsumer(models.GroupAlerts, func() {
		log.Info("alerts", zap.Int("count", len(c.View().Alerts)))
	})
	c.RegisterConsumer(models.GroupAccessLists, func() {
		log.Info("whitelist", zap.Int("count", len(c.View().AccessLists.Whitelist)))
	})
	c.RegisterConsumer(models.GroupGroups, func() {
		log.Info("groups", zap.Int("count", len(c.View().Groups)))
	})
	c.RegisterConsumer(models.GroupTopics, func() {
		log.Info("topics", zap.Strings("subscribed", c.View().Topics))
	})
	c.RegisterConsumer(models.GroupTriggers, func() {
		log.Info("message triggers", zap.Int("count", len(c.View().Triggers)))
	})
	c.RegisterConsumer(models.GroupHistory, func() {
		log.Debug("history", zap.Int("messages", len(c.View().History)))
	})
}

type logNotifier struct {
	log         *zap.Logger
	preferences *prefs.Preferences
	ctx         context.Context
}

func (n *logNotifier) Alert(e models.AlertEvent) {
	n.log.Warn("ALERT", zap.String("message", e.Message), zap.String("type", e.Type))
}

func (n *logNotifier) Notification(msg models.Notification) {
	if !n.preferences.NotificationsEnabled(n.ctx) {
		return
	}
	n.log.Info("notification",
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.String("type", msg.Type),
	)
}

type logErrorPresenter struct {
	log *zap.Logger
}

func (p *logErrorPresenter) PresentError(message string) {
	p.log.Error("server error", zap.String("message", message))
}

type logBackupSink struct {
	log *zap.Logger
}

func (b *logBackupSink) Listing(backups []models.Backup) {
	b.log.Info("backups", zap.Int("count", len(backups)))
}

func (b *logBackupSink) BackupComplete(res models.BackupResult) {
	b.log.Info("backup complete", zap.Bool("success", res.Success))
}

func (b *logBackupSink) BackupDeleted(res models.BackupResult) {
	b.log.Info("backup deleted", zap.Bool("success", res.Success))
}

func (b *logBackupSink) RestoreComplete(res models.BackupResult) {
	b.log.Info("restore complete", zap.Bool("success", res.Success))
}
