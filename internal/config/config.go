package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the dashboard client configuration.
type Config struct {
	// Channel is the persistent named-message channel to the dashboard server.
	Channel struct {
		Broker   string // e.g. "tcp://localhost:1883"
		ClientID string
		Username string
		Password string
		Session  string // session id used in the topic namespace
		QoS      byte
	}

	// Auth is the dashboard HTTP endpoint used for session login.
	Auth struct {
		BaseURL  string // empty disables login
		Password string
	}

	// Redis backs the client-local preference store. Empty Addr selects
	// the in-memory store.
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Coalesce bounds the redraw rate for device telemetry bursts.
	Coalesce struct {
		Window time.Duration
	}

	Export struct {
		Path string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Channel.Broker = getEnv("DASH_BROKER", "tcp://localhost:1883")
	cfg.Channel.ClientID = getEnv("DASH_CLIENT_ID", "mqtt-dashboard")
	cfg.Channel.Username = getEnv("DASH_USERNAME", "")
	cfg.Channel.Password = getEnv("DASH_PASSWORD", "")
	cfg.Channel.Session = getEnv("DASH_SESSION", "default")
	cfg.Channel.QoS = 1

	cfg.Auth.BaseURL = getEnv("DASH_HTTP_URL", "")
	cfg.Auth.Password = getEnv("DASH_ADMIN_PASSWORD", "")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Coalesce.Window = time.Duration(getEnvInt("COALESCE_WINDOW_MS", 100)) * time.Millisecond

	cfg.Export.Path = getEnv("EXPORT_PATH", "devices.xlsx")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
