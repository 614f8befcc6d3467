package models

// Group names one entity category of dashboard state. Every group is
// replaced as a unit; there is no field-level merge across messages.
type Group string

const (
	GroupStatus       Group = "status"
	GroupServers      Group = "servers"
	GroupKnownDevices Group = "known_devices"
	GroupDevices      Group = "devices"
	GroupTasks        Group = "tasks"
	GroupAlerts       Group = "alerts"
	GroupAccessLists  Group = "access_lists"
	GroupGroups       Group = "groups"
	GroupTopics       Group = "topics"
	GroupTriggers     Group = "message_triggers"
	GroupHistory      Group = "history"

	// GroupAlways is never stored; consumers registered on it run after
	// every mutation (status-derived UI).
	GroupAlways Group = "always"
)

// FullSyncOrder is the dispatch order after a full sync: connection status
// first, then selector sources, then primary lists, so views that
// cross-reference groups observe already-updated upstream groups.
var FullSyncOrder = []Group{
	GroupStatus,
	GroupServers,
	GroupKnownDevices,
	GroupTopics,
	GroupTasks,
	GroupDevices,
	GroupAlerts,
	GroupAccessLists,
	GroupGroups,
	GroupTriggers,
	GroupHistory,
}

// Device is one live device, keyed "deviceId@location" in the devices map.
type Device struct {
	Name        string             `json:"name"`
	Alias       string             `json:"alias,omitempty"`
	Status      string             `json:"status"` // online / offline / unknown
	IP          string             `json:"ip,omitempty"`
	MAC         string             `json:"mac,omitempty"`
	Firmware    string             `json:"firmware,omitempty"`
	LastSeen    string             `json:"last_seen,omitempty"`
	LatencyMS   float64            `json:"latency_ms,omitempty"`
	UptimeS     int64              `json:"uptime_s,omitempty"`
	MissedPings int                `json:"missed_pings,omitempty"`
	Sensors     map[string]float64 `json:"sensors,omitempty"`
}

// ServerProfile is a stored broker configuration.
type ServerProfile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Broker   string `json:"broker"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Active   bool   `json:"active"`
}

// KnownDevice is a device the server has ever seen, whitelisted or not.
type KnownDevice struct {
	DeviceID string `json:"dev_id"`
	Name     string `json:"dev_name"`
	Location string `json:"dev_location"`
	Alias    string `json:"dev_alias,omitempty"`
}

// Key returns the composite device key.
func (d KnownDevice) Key() string { return d.DeviceID + "@" + d.Location }

// Task is a scheduled publish.
type Task struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Topic        string `json:"topic"`
	Payload      string `json:"payload"`
	ScheduleType string `json:"schedule_type"` // interval / daily / cron
	ScheduleData string `json:"schedule_data"`
	Enabled      bool   `json:"enabled"`
	Executions   int64  `json:"executions"`
	LastRun      string `json:"last_run,omitempty"`
}

// AlertRule fires when a device metric crosses a threshold. Device "*"
// matches any device.
type AlertRule struct {
	ID        int64   `json:"id"`
	Device    string  `json:"device"`
	Metric    string  `json:"metric"`
	Operator  string  `json:"operator"` // > < >= <= == !=
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
	Severity  string  `json:"severity"`
}

// DeviceGroup is a user-defined grouping of whitelisted devices.
type DeviceGroup struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WhitelistEntry admits a device to the dashboard views. A device may be
// connected without being whitelisted; it is then filtered out of device
// rendering but still appears in known devices.
type WhitelistEntry struct {
	DeviceID string `json:"device_id"`
	Location string `json:"location"`
	Name     string `json:"name,omitempty"`
	GroupID  int64  `json:"group_id,omitempty"`
}

// Key returns the composite device key.
func (w WhitelistEntry) Key() string { return w.DeviceID + "@" + w.Location }

// AccessLists holds the whitelist as delivered by the server.
type AccessLists struct {
	Whitelist []WhitelistEntry `json:"whitelist"`
}

// MessageTrigger reacts to matching broker messages server-side; the
// client only mirrors it for display and CRUD intents.
type MessageTrigger struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	TopicPattern  string `json:"topic_pattern"`
	Condition     string `json:"condition,omitempty"`
	ActionType    string `json:"action_type"` // notify / publish
	ActionTopic   string `json:"action_topic,omitempty"`
	ActionPayload string `json:"action_payload,omitempty"`
	Enabled       bool   `json:"enabled"`
	FireCount     int64  `json:"trigger_count"`
	LastTriggered string `json:"last_triggered,omitempty"`
}

// BrokerMessage is one entry of the recent-message footer history.
type BrokerMessage struct {
	Topic     string `json:"topic"`
	Payload   string `json:"payload"`
	Direction string `json:"direction,omitempty"` // in / out
	Timestamp string `json:"timestamp"`
}

// ConnectionStatus is the singleton status group.
type ConnectionStatus struct {
	Connected      bool  `json:"connected"`
	Reconnecting   bool  `json:"reconnecting"`
	ActiveServerID int64 `json:"active_server_id"`
	IsAdmin        bool  `json:"is_admin"`
}

// Snapshot is the single client-side mirror of the server state. It is
// owned by the sync core; render consumers receive read-only access and
// must not retain copies across invocations.
type Snapshot struct {
	Status       ConnectionStatus
	Servers      map[int64]ServerProfile
	Devices      map[string]Device
	KnownDevices []KnownDevice
	Tasks        []Task
	Alerts       []AlertRule
	AccessLists  AccessLists
	Groups       []DeviceGroup
	Topics       []string
	Triggers     []MessageTrigger
	History      []BrokerMessage
}

// NewSnapshot returns an empty snapshot with allocated maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Servers: map[int64]ServerProfile{},
		Devices: map[string]Device{},
	}
}
