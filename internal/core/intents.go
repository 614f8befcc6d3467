package core

import (
	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/models"
)

// Outbound intents. All of them are fire-and-forget: the only
// acknowledgment is the eventual matching inbound message (a data
// refresh, an error, or an operation result). Business validation is
// the server's job; the caller is responsible for required fields.

type deviceRef struct {
	DeviceID string `json:"device_id"`
	Location string `json:"location"`
}

// RequestInitialState asks for a fresh full sync.
func (c *Core) RequestInitialState() error {
	return c.emit("request_initial_state", nil)
}

// RequestBackups asks for the stored backup listing.
func (c *Core) RequestBackups() error {
	return c.emit("request_backups", nil)
}

// PingAllDevices triggers an immediate ping round.
func (c *Core) PingAllDevices() error {
	return c.emit("ping_all_devices", nil)
}

// RequestDeviceStatus asks one device to report in.
func (c *Core) RequestDeviceStatus(deviceID, location string) error {
	return c.emit("request_single_device_status", deviceRef{deviceID, location})
}

// RequestDeviceConfig asks one device for its configuration.
func (c *Core) RequestDeviceConfig(deviceID, location string) error {
	return c.emit("request_device_config", deviceRef{deviceID, location})
}

// RebootDevice is admin-only server-side; the client merely suppresses
// the affordance when the admin flag is off.
func (c *Core) RebootDevice(deviceID, location string) error {
	return c.emit("reboot_device", deviceRef{deviceID, location})
}

// UpdateDeviceAlias renames a device's display alias.
func (c *Core) UpdateDeviceAlias(deviceID, location, alias string) error {
	return c.emit("update_device_alias", struct {
		deviceRef
		Alias string `json:"alias"`
	}{deviceRef{deviceID, location}, alias})
}

// AddToWhitelist admits a device to the dashboard views.
func (c *Core) AddToWhitelist(deviceID, location string) error {
	return c.emit("add_to_whitelist", deviceRef{deviceID, location})
}

// RemoveFromWhitelist removes a device from the views.
func (c *Core) RemoveFromWhitelist(deviceID, location string) error {
	return c.emit("remove_from_whitelist", deviceRef{deviceID, location})
}

// ConnectServer switches the active broker profile.
func (c *Core) ConnectServer(serverID int64) error {
	return c.emit("mqtt_connect", struct {
		ServerID int64 `json:"server_id"`
	}{serverID})
}

// DisconnectServer drops the active broker connection.
func (c *Core) DisconnectServer() error {
	return c.emit("mqtt_disconnect", nil)
}

// AddServer stores a new broker profile.
func (c *Core) AddServer(server models.ServerProfile) error {
	return c.emit("add_server", server)
}

// UpdateServer replaces a stored broker profile.
func (c *Core) UpdateServer(server models.ServerProfile) error {
	return c.emit("update_server", server)
}

// DeleteServer removes a stored broker profile.
func (c *Core) DeleteServer(serverID int64) error {
	return c.emit("delete_server", struct {
		ServerID int64 `json:"server_id"`
	}{serverID})
}

// SaveSettings stores server-side settings (refresh interval, missed
// ping limit, toast options).
func (c *Core) SaveSettings(settings map[string]interface{}) error {
	return c.emit("save_settings", settings)
}

// ChangePassword updates the admin password.
func (c *Core) ChangePassword(current, next string) error {
	return c.emit("change_password", struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}{current, next})
}

// AddAlert creates an alert rule.
func (c *Core) AddAlert(alert models.AlertRule) error {
	return c.emit("add_alert", alert)
}

// UpdateAlert replaces an alert rule.
func (c *Core) UpdateAlert(alert models.AlertRule) error {
	return c.emit("update_alert", alert)
}

// DeleteAlert removes an alert rule.
func (c *Core) DeleteAlert(alertID int64) error {
	return c.emit("delete_alert", struct {
		ID int64 `json:"id"`
	}{alertID})
}

// AddGroup creates a device group.
func (c *Core) AddGroup(group models.DeviceGroup) error {
	return c.emit("add_group", group)
}

// UpdateGroup replaces a device group.
func (c *Core) UpdateGroup(group models.DeviceGroup) error {
	return c.emit("update_group", group)
}

// DeleteGroup removes a device group.
func (c *Core) DeleteGroup(groupID int64) error {
	return c.emit("delete_group", struct {
		ID int64 `json:"id"`
	}{groupID})
}

// SubscribeTopic adds a broker topic subscription.
func (c *Core) SubscribeTopic(topic string) error {
	return c.emit("mqtt_subscribe", struct {
		Topic string `json:"topic"`
	}{topic})
}

// UnsubscribeTopic drops a broker topic subscription.
func (c *Core) UnsubscribeTopic(topic string) error {
	return c.emit("mqtt_unsubscribe", struct {
		Topic string `json:"topic"`
	}{topic})
}

// Publish sends a raw broker message through the server.
func (c *Core) Publish(topic, payload string) error {
	return c.emit("mqtt_publish", struct {
		Topic   string `json:"topic"`
		Payload string `json:"payload"`
	}{topic, payload})
}

// CreateTask schedules a publish task.
func (c *Core) CreateTask(task models.Task) error {
	return c.emit("task_create", task)
}

// EditTask replaces a scheduled task.
func (c *Core) EditTask(task models.Task) error {
	return c.emit("task_edit", task)
}

// DeleteTask removes a scheduled task.
func (c *Core) DeleteTask(taskID int64) error {
	return c.emit("task_delete", struct {
		ID int64 `json:"id"`
	}{taskID})
}

// ToggleTask flips a task's enabled flag.
func (c *Core) ToggleTask(taskID int64) error {
	return c.emit("task_toggle", struct {
		ID int64 `json:"id"`
	}{taskID})
}

// CreateTrigger creates a message trigger.
func (c *Core) CreateTrigger(trigger models.MessageTrigger) error {
	return c.emit("message_trigger_create", trigger)
}

// EditTrigger replaces a message trigger.
func (c *Core) EditTrigger(trigger models.MessageTrigger) error {
	return c.emit("message_trigger_edit", trigger)
}

// DeleteTrigger removes a message trigger.
func (c *Core) DeleteTrigger(triggerID int64) error {
	return c.emit("message_trigger_delete", struct {
		ID int64 `json:"id"`
	}{triggerID})
}

// ToggleTrigger flips a trigger's enabled flag.
func (c *Core) ToggleTrigger(triggerID int64) error {
	return c.emit("message_trigger_toggle", struct {
		ID int64 `json:"id"`
	}{triggerID})
}

// GetDeviceHistory requests the sensor history for a device; the
// response arrives on the detail router.
func (c *Core) GetDeviceHistory(deviceID, location string) error {
	return c.emit("get_device_history", deviceRef{deviceID, location})
}

// GetDeviceLogs requests a device's log tail.
func (c *Core) GetDeviceLogs(deviceID, location string) error {
	return c.emit("get_device_logs", deviceRef{deviceID, location})
}

// GetDeviceEvents requests a device's event log.
func (c *Core) GetDeviceEvents(deviceID, location string) error {
	return c.emit("get_device_events", deviceRef{deviceID, location})
}

// GetDeviceDetail requests the full detail view of a device.
func (c *Core) GetDeviceDetail(deviceID, location string) error {
	return c.emit("get_device_detail", deviceRef{deviceID, location})
}

// CreateBackup asks the server to back up its database. The result
// arrives as a backup_complete message on the Backups collaborator.
func (c *Core) CreateBackup() error {
	return c.emit("trigger_backup", nil)
}

// UpdateBackupConfig reconfigures the server's automatic backup
// schedule.
func (c *Core) UpdateBackupConfig(enabled bool, intervalHours int) error {
	return c.emit("update_backup_config", struct {
		Enabled  bool `json:"auto_backup_enabled"`
		Interval int  `json:"auto_backup_interval"`
	}{enabled, intervalHours})
}

// DeleteBackup removes one stored backup.
func (c *Core) DeleteBackup(filename string) error {
	return c.emit("delete_backup", struct {
		Filename string `json:"filename"`
	}{filename})
}

// RestoreBackup restores the server database from one stored backup.
func (c *Core) RestoreBackup(filename string) error {
	return c.emit("restore_backup", struct {
		Filename string `json:"filename"`
	}{filename})
}

// RestartServer restarts the dashboard server process.
func (c *Core) RestartServer() error {
	return c.emit("restart_server", nil)
}

// ClearMessageHistory empties the recent-message footer server-side.
func (c *Core) ClearMessageHistory() error {
	return c.emit("clear_message_history", nil)
}

func (c *Core) emit(intent string, payload interface{}) error {
	if err := c.ch.Emit(intent, payload); err != nil {
		c.logger.Error("failed to emit intent",
			zap.String("intent", intent),
			zap.Error(err),
		)
		return err
	}
	return nil
}
