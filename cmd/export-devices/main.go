// export-devices connects to the dashboard, waits for the first full
// sync, writes the device list to an Excel workbook and exits.
package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/channel"
	"github.com/basajaundev/MQTT-Dashboard/internal/config"
	"github.com/basajaundev/MQTT-Dashboard/internal/core"
	"github.com/basajaundev/MQTT-Dashboard/internal/export"
	"github.com/basajaundev/MQTT-Dashboard/internal/logger"
	"github.com/basajaundev/MQTT-Dashboard/internal/models"
)

const syncTimeout = 30 * time.Second

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

	ch := channel.NewMQTTChannel(cfg, log)
	syncCore := core.New(ch, core.Collaborators{}, log)

	// The consumer runs while the core is applying the update, so copying
	// the map here avoids racing later updates.
	synced := make(chan map[string]models.Device, 1)
	syncCore.RegisterConsumer(models.GroupDevices, func() {
		devices := make(map[string]models.Device, len(syncCore.View().Devices))
		for key, d := range syncCore.View().Devices {
			devices[key] = d
		}
		select {
		case synced <- devices:
		default:
		}
	})

	if err := ch.Connect(); err != nil {
		log.Fatal("Failed to connect channel", zap.Error(err))
	}
	defer ch.Close()

	var devices map[string]models.Device
	select {
	case devices = <-synced:
	case <-time.After(syncTimeout):
		log.Fatal("Timed out waiting for full sync")
	}

	data, err := export.GenerateDeviceExport(devices)
	if err != nil {
		log.Fatal("Failed to generate export", zap.Error(err))
	}
	if err := os.WriteFile(cfg.Export.Path, data, 0o644); err != nil {
		log.Fatal("Failed to write export file", zap.Error(err))
	}

	log.Info("device export written",
		zap.String("path", cfg.Export.Path),
		zap.Int("devices", len(devices)),
	)
}
