package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/channel"
	"github.com/basajaundev/MQTT-Dashboard/internal/models"
)

// fakeChannel records registrations and emissions and lets tests inject
// inbound messages and lifecycle events.
type fakeChannel struct {
	handlers       map[string]channel.Handler
	emitted        []emittedIntent
	onConnect      func()
	onLost         func(error)
	onReconnecting func()
	connected      bool
}

type emittedIntent struct {
	name    string
	payload interface{}
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: map[string]channel.Handler{}}
}

func (f *fakeChannel) On(event string, h channel.Handler) { f.handlers[event] = h }

func (f *fakeChannel) Emit(event string, payload interface{}) error {
	f.emitted = append(f.emitted, emittedIntent{name: event, payload: payload})
	return nil
}

func (f *fakeChannel) OnConnect(fn func())               { f.onConnect = fn }
func (f *fakeChannel) OnConnectionLost(fn func(error))   { f.onLost = fn }
func (f *fakeChannel) OnReconnecting(fn func())          { f.onReconnecting = fn }
func (f *fakeChannel) Connect() error                    { f.connected = true; return nil }
func (f *fakeChannel) Close()                            { f.connected = false }
func (f *fakeChannel) IsConnected() bool                 { return f.connected }

func (f *fakeChannel) deliver(t *testing.T, event, payload string) {
	t.Helper()
	h, ok := f.handlers[event]
	require.True(t, ok, "core did not subscribe %s", event)
	h([]byte(payload))
}

func (f *fakeChannel) emittedNames() []string {
	names := make([]string, 0, len(f.emitted))
	for _, e := range f.emitted {
		names = append(names, e.name)
	}
	return names
}

// fakeClock mirrors the coalescer test clock.
type fakeClock struct {
	pending []func()
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) {
	c.pending = append(c.pending, f)
}

func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, c.pending, "no coalescing window open")
	f := c.pending[0]
	c.pending = c.pending[1:]
	f()
}

func newTestCore(t *testing.T, collab Collaborators) (*Core, *fakeChannel, *fakeClock) {
	t.Helper()
	ch := newFakeChannel()
	clock := &fakeClock{}
	c := NewWithOptions(ch, collab, Options{Clock: clock}, zap.NewNop())
	return c, ch, clock
}

func TestCore_FullSyncDispatchesConsumersWithUpdatedSnapshot(t *testing.T) {
	c, ch, _ := newTestCore(t, Collaborators{})

	var onlineDevices, alertCount = -1, -1
	c.RegisterConsumer(models.GroupDevices, func() {
		onlineDevices = 0
		for _, d := range c.View().Devices {
			if d.Status == "online" {
				onlineDevices++
			}
		}
	})
	c.RegisterConsumer(models.GroupAlerts, func() {
		alertCount = len(c.View().Alerts)
	})

	ch.deliver(t, models.EventStateUpdate, `{"devices": {"dev1@home": {"status": "online"}}, "alerts": []}`)

	assert.Equal(t, 1, onlineDevices, "device consumer sees exactly one online device")
	assert.Zero(t, alertCount, "alert consumer sees an empty list")
}

func TestCore_DevicesDeltaIsCoalesced(t *testing.T) {
	c, ch, clock := newTestCore(t, Collaborators{})

	dispatches := 0
	c.RegisterConsumer(models.GroupDevices, func() { dispatches++ })

	ch.deliver(t, models.EventDevicesUpdate, `{"devices": {"dev1@home": {"status": "online"}}}`)
	ch.deliver(t, models.EventDevicesUpdate, `{"devices": {"dev1@home": {"status": "offline"}}}`)
	ch.deliver(t, models.EventDevicesUpdate, `{"devices": {"dev1@home": {"status": "unknown"}}}`)

	assert.Zero(t, dispatches, "nothing renders before the window elapses")
	clock.fire(t)

	assert.Equal(t, 1, dispatches, "one burst, one render")
	assert.Equal(t, "unknown", c.View().Devices["dev1@home"].Status, "last write wins")
	assert.Empty(t, clock.pending, "window closed")
}

func TestCore_DevicesDeltasInSeparateWindows(t *testing.T) {
	c, ch, clock := newTestCore(t, Collaborators{})

	dispatches := 0
	c.RegisterConsumer(models.GroupDevices, func() { dispatches++ })

	ch.deliver(t, models.EventDevicesUpdate, `{"devices": {"dev1@home": {"status": "online"}}}`)
	clock.fire(t)
	ch.deliver(t, models.EventDevicesUpdate, `{"devices": {"dev1@home": {"status": "offline"}}}`)
	clock.fire(t)

	assert.Equal(t, 2, dispatches)
	assert.Equal(t, "offline", c.View().Devices["dev1@home"].Status)
}

func TestCore_PartialUpdateLeavesOtherGroupsAlone(t *testing.T) {
	c, ch, clock := newTestCore(t, Collaborators{})

	ch.deliver(t, models.EventStateUpdate, `{"devices": {"dev1@home": {"status": "online"}}, "alerts": []}`)
	ch.deliver(t, models.EventDevicesUpdate, `{"devices": {"dev1@home": {"status": "offline"}}}`)
	clock.fire(t)

	assert.Equal(t, "offline", c.View().Devices["dev1@home"].Status)
	assert.Empty(t, c.View().Alerts, "alerts untouched and still empty")
}

func TestCore_StatusMessageRerendersServerList(t *testing.T) {
	c, ch, _ := newTestCore(t, Collaborators{})

	var statusRuns, serverRuns int
	c.RegisterConsumer(models.GroupStatus, func() { statusRuns++ })
	c.RegisterConsumer(models.GroupServers, func() { serverRuns++ })

	ch.deliver(t, models.EventMQTTStatus, `{"connected": false}`)

	assert.False(t, c.View().Status.Connected)
	assert.Equal(t, 1, statusRuns)
	assert.Equal(t, 1, serverRuns, "server list re-renders even though no server data changed")
}

func TestCore_ReconnectIndicator(t *testing.T) {
	c, ch, _ := newTestCore(t, Collaborators{})

	statusRuns := 0
	c.RegisterConsumer(models.GroupStatus, func() { statusRuns++ })

	ch.deliver(t, models.EventMQTTReconnecting, `{"reconnecting": true}`)
	assert.True(t, c.View().Status.Reconnecting)
	assert.Equal(t, 1, statusRuns)

	ch.deliver(t, models.EventMQTTStatus, `{"connected": true}`)
	assert.False(t, c.View().Status.Reconnecting, "connect clears the flag")
}

func TestCore_ChannelConnectRequestsSyncAndBackups(t *testing.T) {
	c, ch, _ := newTestCore(t, Collaborators{})

	statusRuns := 0
	c.RegisterConsumer(models.GroupStatus, func() { statusRuns++ })

	require.NotNil(t, ch.onConnect)
	ch.onConnect()

	assert.True(t, c.View().Status.Connected)
	assert.Equal(t, 1, statusRuns)
	assert.Equal(t, []string{"request_initial_state", "request_backups"}, ch.emittedNames())
}

func TestCore_ChannelLostFlipsStatusLocally(t *testing.T) {
	c, ch, _ := newTestCore(t, Collaborators{})
	ch.onConnect()

	statusRuns := 0
	c.RegisterConsumer(models.GroupStatus, func() { statusRuns++ })

	require.NotNil(t, ch.onLost)
	ch.onLost(errors.New("broken pipe"))

	assert.False(t, c.View().Status.Connected, "no server message needed")
	assert.Equal(t, 1, statusRuns)

	require.NotNil(t, ch.onReconnecting)
	ch.onReconnecting()
	assert.True(t, c.View().Status.Reconnecting)
}

type recordingNotifier struct {
	alerts        []models.AlertEvent
	notifications []models.Notification
}

func (r *recordingNotifier) Alert(e models.AlertEvent)            { r.alerts = append(r.alerts, e) }
func (r *recordingNotifier) Notification(n models.Notification)   { r.notifications = append(r.notifications, n) }

type recordingErrors struct {
	messages []string
}

func (r *recordingErrors) PresentError(msg string) { r.messages = append(r.messages, msg) }

type recordingBackups struct {
	listings  [][]models.Backup
	completed []models.BackupResult
	deleted   []models.BackupResult
	restored  []models.BackupResult
}

func (r *recordingBackups) Listing(b []models.Backup)             { r.listings = append(r.listings, b) }
func (r *recordingBackups) BackupComplete(res models.BackupResult) { r.completed = append(r.completed, res) }
func (r *recordingBackups) BackupDeleted(res models.BackupResult)  { r.deleted = append(r.deleted, res) }
func (r *recordingBackups) RestoreComplete(res models.BackupResult) { r.restored = append(r.restored, res) }

func TestCore_NotificationsBypassTheStore(t *testing.T) {
	notifier := &recordingNotifier{}
	c, ch, _ := newTestCore(t, Collaborators{Notifier: notifier})
	before := *c.View()

	ch.deliver(t, models.EventNewAlert, `{"message": "temp above 30", "type": "warning"}`)
	ch.deliver(t, models.EventNewAlert, `{"message": "no type"}`)
	ch.deliver(t, models.EventNewNotification, `{"title": "Device connected", "body": "dev1@home", "type": "info"}`)

	require.Len(t, notifier.alerts, 2)
	assert.Equal(t, "temp above 30", notifier.alerts[0].Message)
	assert.Equal(t, "warning", notifier.alerts[1].Type, "missing type defaults to warning")
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, "Device connected", notifier.notifications[0].Title)

	assert.Equal(t, before, *c.View(), "store untouched")
}

func TestCore_BackupEventsGoToTheSink(t *testing.T) {
	backups := &recordingBackups{}
	c, ch, _ := newTestCore(t, Collaborators{Backups: backups})

	ch.deliver(t, models.EventBackupsList, `{"backups": [{"filename": "dashboard_20260830.db", "display": "2026-08-30", "size_mb": 1.2}]}`)
	ch.deliver(t, models.EventBackupComplete, `{"success": true}`)
	ch.deliver(t, models.EventBackupDeleted, `{"success": false}`)
	ch.deliver(t, models.EventRestoreDone, `{"success": true}`)

	require.Len(t, backups.listings, 1)
	assert.Equal(t, "dashboard_20260830.db", backups.listings[0][0].Filename)
	require.Len(t, backups.completed, 1)
	assert.True(t, backups.completed[0].Success)
	require.Len(t, backups.deleted, 1)
	assert.False(t, backups.deleted[0].Success)
	require.Len(t, backups.restored, 1)

	_ = c
}

func TestCore_ErrorMessagesReachThePresenter(t *testing.T) {
	errs := &recordingErrors{}
	c, ch, _ := newTestCore(t, Collaborators{Errors: errs})
	before := *c.View()

	ch.deliver(t, models.EventError, `{"message": "invalid topic"}`)
	ch.deliver(t, models.EventError, `not json`)

	assert.Equal(t, []string{"invalid topic", "unknown error"}, errs.messages)
	assert.Equal(t, before, *c.View())
}

func TestCore_NilCollaboratorsDiscardQuietly(t *testing.T) {
	_, ch, _ := newTestCore(t, Collaborators{})

	assert.NotPanics(t, func() {
		ch.deliver(t, models.EventNewAlert, `{"message": "m"}`)
		ch.deliver(t, models.EventNewNotification, `{"title": "t"}`)
		ch.deliver(t, models.EventBackupsList, `{"backups": []}`)
		ch.deliver(t, models.EventError, `{"message": "m"}`)
	})
}

func TestCore_IntentsAreFireAndForget(t *testing.T) {
	c, ch, _ := newTestCore(t, Collaborators{})

	require.NoError(t, c.RebootDevice("dev1", "home"))
	require.NoError(t, c.SubscribeTopic("iot/status/+/+"))
	require.NoError(t, c.ConnectServer(3))
	require.NoError(t, c.DeleteAlert(9))

	assert.Equal(t,
		[]string{"reboot_device", "mqtt_subscribe", "mqtt_connect", "delete_alert"},
		ch.emittedNames(),
	)

	raw, err := json.Marshal(ch.emitted[0].payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"device_id": "dev1", "location": "home"}`, string(raw))
}

func TestCore_BackupIntents(t *testing.T) {
	c, ch, _ := newTestCore(t, Collaborators{})

	require.NoError(t, c.CreateBackup())
	require.NoError(t, c.UpdateBackupConfig(true, 12))
	require.NoError(t, c.DeleteBackup("dashboard_20260830.db"))
	require.NoError(t, c.RestoreBackup("dashboard_20260830.db"))

	assert.Equal(t,
		[]string{"trigger_backup", "update_backup_config", "delete_backup", "restore_backup"},
		ch.emittedNames(),
	)

	raw, err := json.Marshal(ch.emitted[1].payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"auto_backup_enabled": true, "auto_backup_interval": 12}`, string(raw))
}

func TestCore_AdminFlagFollowsFullSync(t *testing.T) {
	c, ch, _ := newTestCore(t, Collaborators{})

	assert.False(t, c.IsAdmin())
	ch.deliver(t, models.EventStateUpdate, `{"is_admin": true}`)
	assert.True(t, c.IsAdmin())
}
