// Package core is the real-time state synchronization core: it decodes
// named messages from the channel, routes them into the state store,
// coalesces device-telemetry bursts, and fans out change notifications
// to registered render consumers.
package core

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/channel"
	"github.com/basajaundev/MQTT-Dashboard/internal/dispatch"
	"github.com/basajaundev/MQTT-Dashboard/internal/models"
	"github.com/basajaundev/MQTT-Dashboard/internal/state"
)

// Notifier receives server-pushed alerts and notifications. They bypass
// the state store entirely.
type Notifier interface {
	Alert(e models.AlertEvent)
	Notification(n models.Notification)
}

// ErrorPresenter surfaces channel-reported errors to the user. The
// store is never mutated on an error message.
type ErrorPresenter interface {
	PresentError(message string)
}

// BackupSink receives backup listings and operation results.
type BackupSink interface {
	Listing(backups []models.Backup)
	BackupComplete(res models.BackupResult)
	BackupDeleted(res models.BackupResult)
	RestoreComplete(res models.BackupResult)
}

// Collaborators are the external consumers of non-store messages. Nil
// fields discard the corresponding messages.
type Collaborators struct {
	Notifier Notifier
	Errors   ErrorPresenter
	Backups  BackupSink
}

// Options tune the core. Zero values select the defaults.
type Options struct {
	CoalesceWindow time.Duration
	Clock          state.Clock // test seam for the coalescing timer
}

// Core wires channel, store, coalescer and dispatcher together. All
// mutation entry points (inbound routing and the coalescer firing)
// serialize behind one mutex, so every mutation and its dispatch run to
// completion before the next one starts.
type Core struct {
	ch         channel.Channel
	store      *state.Store
	coalescer  *state.Coalescer
	dispatcher *dispatch.Dispatcher
	details    *DetailRouter
	collab     Collaborators
	logger     *zap.Logger

	mu sync.Mutex
}

// New creates the core with default options and registers its routing
// table on the channel. Call before the channel connects.
func New(ch channel.Channel, collab Collaborators, logger *zap.Logger) *Core {
	return NewWithOptions(ch, collab, Options{}, logger)
}

// NewWithOptions creates the core with explicit options.
func NewWithOptions(ch channel.Channel, collab Collaborators, opts Options, logger *zap.Logger) *Core {
	clock := opts.Clock
	if clock == nil {
		clock = state.RealClock()
	}

	c := &Core{
		ch:         ch,
		store:      state.NewStore(logger),
		coalescer:  state.NewCoalescerWithClock(opts.CoalesceWindow, clock, logger),
		dispatcher: dispatch.New(logger),
		details:    NewDetailRouter(logger),
		collab:     collab,
		logger:     logger,
	}
	c.attach()
	return c
}

// RegisterConsumer attaches a render consumer to an entity group.
func (c *Core) RegisterConsumer(group models.Group, fn dispatch.Consumer) {
	c.dispatcher.Register(group, fn)
}

// View returns the current snapshot. Read-only by convention: render
// consumers project it, never mutate it or keep copies between calls.
func (c *Core) View() *models.Snapshot {
	return c.store.View()
}

// IsAdmin reports whether admin-only affordances should be offered. The
// server still enforces authorization on every intent.
func (c *Core) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.View().Status.IsAdmin
}

// WatchDetail subscribes a sink to per-device detail responses.
func (c *Core) WatchDetail(deviceKey string, sink DetailSink) {
	c.details.Watch(deviceKey, sink)
}

// UnwatchDetail removes a previously watched sink.
func (c *Core) UnwatchDetail(deviceKey string, sink DetailSink) {
	c.details.Unwatch(deviceKey, sink)
}

// attach registers the full inbound routing table and lifecycle hooks.
func (c *Core) attach() {
	c.ch.On(models.EventStateUpdate, c.handleFullSync)
	c.ch.On(models.EventDevicesUpdate, c.handleDevicesUpdate)

	partials := map[string]models.Group{
		models.EventAlertsUpdate:      models.GroupAlerts,
		models.EventAccessListsUpdate: models.GroupAccessLists,
		models.EventGroupsUpdate:      models.GroupGroups,
		models.EventKnownDevices:      models.GroupKnownDevices,
		models.EventTopicsUpdate:      models.GroupTopics,
		models.EventTaskUpdate:        models.GroupTasks,
		models.EventTriggersUpdate:    models.GroupTriggers,
		models.EventHistoryUpdate:     models.GroupHistory,
	}
	for event, group := range partials {
		c.ch.On(event, c.partialHandler(group))
	}

	c.ch.On(models.EventMQTTStatus, c.handleStatus)
	c.ch.On(models.EventMQTTReconnecting, c.handleReconnectFlag)

	c.ch.On(models.EventDeviceHistory, c.details.handler(detailHistory))
	c.ch.On(models.EventDeviceLogs, c.details.handler(detailLogs))
	c.ch.On(models.EventDeviceEvents, c.details.handler(detailEvents))
	c.ch.On(models.EventDeviceDetail, c.details.handler(detailDetail))
	c.ch.On(models.EventDeviceConfig, c.details.handler(detailConfig))

	c.ch.On(models.EventNewAlert, c.handleNewAlert)
	c.ch.On(models.EventNewNotification, c.handleNewNotification)

	c.ch.On(models.EventBackupsList, c.handleBackupsList)
	c.ch.On(models.EventBackupComplete, c.backupResultHandler(func(b BackupSink, r models.BackupResult) { b.BackupComplete(r) }))
	c.ch.On(models.EventBackupDeleted, c.backupResultHandler(func(b BackupSink, r models.BackupResult) { b.BackupDeleted(r) }))
	c.ch.On(models.EventRestoreDone, c.backupResultHandler(func(b BackupSink, r models.BackupResult) { b.RestoreComplete(r) }))

	c.ch.On(models.EventError, c.handleError)

	c.ch.OnConnect(c.handleChannelConnect)
	c.ch.OnConnectionLost(c.handleChannelLost)
	c.ch.OnReconnecting(c.handleChannelReconnecting)
}

// handleFullSync replaces the whole snapshot and re-renders every view
// in dependency order.
func (c *Core) handleFullSync(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.ApplyFullSync(payload)
	c.dispatcher.NotifyFullSync()
}

// handleDevicesUpdate coalesces telemetry bursts: within one window only
// the last payload is applied and rendered. Device snapshots are
// idempotent full replacements, so intermediates carry no information.
func (c *Core) handleDevicesUpdate(payload []byte) {
	p := append([]byte(nil), payload...)
	c.coalescer.Schedule(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.store.ApplyPartialUpdate(models.GroupDevices, p) {
			c.dispatcher.Notify(models.GroupDevices)
		}
	})
}

func (c *Core) partialHandler(group models.Group) channel.Handler {
	return func(payload []byte) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.store.ApplyPartialUpdate(group, payload) {
			c.dispatcher.Notify(group)
		}
	}
}

// handleStatus updates the status group and re-renders the server list
// too: active-server membership may have changed with the connection.
func (c *Core) handleStatus(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.ApplyStatus(payload)
	c.dispatcher.NotifyGroups(models.GroupStatus, models.GroupServers)
}

func (c *Core) handleReconnectFlag(payload []byte) {
	var env struct {
		Reconnecting bool `json:"reconnecting"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		c.logger.Warn("malformed reconnect indicator", zap.Error(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.SetReconnecting(env.Reconnecting)
	c.dispatcher.Notify(models.GroupStatus)
}

func (c *Core) handleNewAlert(payload []byte) {
	if c.collab.Notifier == nil {
		return
	}
	var e models.AlertEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		c.logger.Warn("malformed alert event", zap.Error(err))
		return
	}
	if e.Type == "" {
		e.Type = "warning"
	}
	c.collab.Notifier.Alert(e)
}

func (c *Core) handleNewNotification(payload []byte) {
	if c.collab.Notifier == nil {
		return
	}
	var n models.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		c.logger.Warn("malformed notification", zap.Error(err))
		return
	}
	c.collab.Notifier.Notification(n)
}

func (c *Core) handleBackupsList(payload []byte) {
	if c.collab.Backups == nil {
		return
	}
	var env struct {
		Backups []models.Backup `json:"backups"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		c.logger.Warn("malformed backup listing", zap.Error(err))
		return
	}
	c.collab.Backups.Listing(env.Backups)
}

func (c *Core) backupResultHandler(forward func(BackupSink, models.BackupResult)) channel.Handler {
	return func(payload []byte) {
		if c.collab.Backups == nil {
			return
		}
		var res models.BackupResult
		if err := json.Unmarshal(payload, &res); err != nil {
			c.logger.Warn("malformed backup result", zap.Error(err))
			return
		}
		forward(c.collab.Backups, res)
	}
}

func (c *Core) handleError(payload []byte) {
	if c.collab.Errors == nil {
		return
	}
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.Message == "" {
		env.Message = "unknown error"
	}
	c.collab.Errors.PresentError(env.Message)
}

// handleChannelConnect flips the status locally and asks the server for
// a fresh full sync plus the backup listing.
func (c *Core) handleChannelConnect() {
	c.mu.Lock()
	c.store.SetConnected(true)
	c.dispatcher.Notify(models.GroupStatus)
	c.mu.Unlock()

	if err := c.RequestInitialState(); err != nil {
		c.logger.Error("failed to request initial state", zap.Error(err))
	}
	if err := c.RequestBackups(); err != nil {
		c.logger.Error("failed to request backups", zap.Error(err))
	}
}

// handleChannelLost reflects the drop immediately, without waiting for
// any server message.
func (c *Core) handleChannelLost(err error) {
	c.logger.Warn("channel lost, marking disconnected", zap.Error(err))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.SetConnected(false)
	c.dispatcher.Notify(models.GroupStatus)
}

func (c *Core) handleChannelReconnecting() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.SetReconnecting(true)
	c.dispatcher.Notify(models.GroupStatus)
}
