package models

import "encoding/json"

// Inbound event names (channel -> core). These are the names the server
// emits; the core subscribes to exactly this set.
const (
	EventStateUpdate       = "state_update"
	EventDevicesUpdate     = "devices_update"
	EventAlertsUpdate      = "alerts_update"
	EventAccessListsUpdate = "access_lists_update"
	EventGroupsUpdate      = "groups_update"
	EventKnownDevices      = "known_devices_update"
	EventTopicsUpdate      = "topics_update"
	EventTaskUpdate        = "task_update"
	EventTriggersUpdate    = "message_triggers_update"
	EventHistoryUpdate     = "history_update"
	EventMQTTStatus        = "mqtt_status"
	EventMQTTReconnecting  = "mqtt_reconnecting"

	EventDeviceHistory = "device_history_response"
	EventDeviceLogs    = "device_logs_response"
	EventDeviceEvents  = "device_events_response"
	EventDeviceDetail  = "device_detail_response"
	EventDeviceConfig  = "device_config_update"

	EventNewAlert        = "new_alert"
	EventNewNotification = "new_notification"

	EventBackupsList    = "backups_list"
	EventBackupComplete = "backup_complete"
	EventBackupDeleted  = "backup_deleted"
	EventRestoreDone    = "restore_complete"

	EventError = "error"
)

// Notification is a server-pushed toast/notification payload.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Type  string `json:"type"` // info / success / warning / error
	Tag   string `json:"tag,omitempty"`
}

// AlertEvent is a fired alert-rule event.
type AlertEvent struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Backup describes one stored database backup.
type Backup struct {
	Filename string  `json:"filename"`
	Display  string  `json:"display"`
	SizeMB   float64 `json:"size_mb"`
}

// BackupResult reports the outcome of a backup operation. Backups is the
// refreshed listing when the server includes one.
type BackupResult struct {
	Success bool     `json:"success"`
	Backups []Backup `json:"backups,omitempty"`
}

// SensorSample is one point of a device history response.
type SensorSample struct {
	Timestamp string             `json:"timestamp"`
	Readings  map[string]float64 `json:"readings"`
}

// DeviceEvent is one entry of a device event log.
type DeviceEvent struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
}

// DetailResponse is the common envelope of the per-device responses; the
// concrete payload stays raw until the detail consumer decodes it.
type DetailResponse struct {
	DeviceID string          `json:"device_id"`
	Location string          `json:"location,omitempty"`
	History  []SensorSample  `json:"history,omitempty"`
	Logs     []string        `json:"logs,omitempty"`
	Events   []DeviceEvent   `json:"events,omitempty"`
	Detail   json.RawMessage `json:"detail,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Key returns the device key the response correlates to. Responses that
// carry only the composite key in device_id pass it through unchanged.
func (r DetailResponse) Key() string {
	if r.Location != "" {
		return r.DeviceID + "@" + r.Location
	}
	return r.DeviceID
}
