package state

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/models"
)

// Store owns the client-side state snapshot. It is not safe for
// concurrent use; the sync core serializes every mutation entry point.
//
// Two mutation strategies exist: ApplyFullSync replaces every group, and
// ApplyPartialUpdate replaces exactly one. No group ever merges at the
// field level across messages; the last replacement per group wins.
type Store struct {
	snap   *models.Snapshot
	logger *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		snap:   models.NewSnapshot(),
		logger: logger,
	}
}

// View returns the current snapshot. Callers read only; the snapshot is
// replaced or mutated solely through the Apply methods.
func (s *Store) View() *models.Snapshot {
	return s.snap
}

// ApplyFullSync replaces every group with the server's view. Groups
// absent from the payload become empty, so no stale state survives a
// resync. A group that fails to decode also becomes empty: one bad
// field degrades one view, not the session.
func (s *Store) ApplyFullSync(payload []byte) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(payload, &env); err != nil {
		s.logger.Error("malformed full sync, resetting to empty state", zap.Error(err))
		env = nil
	}

	next := models.NewSnapshot()

	s.decodeInto(models.GroupStatus, env["is_admin"], &next.Status.IsAdmin)
	var st struct {
		Connected bool `json:"connected"`
	}
	s.decodeInto(models.GroupStatus, env["mqtt_status"], &st)
	next.Status.Connected = st.Connected
	s.decodeInto(models.GroupStatus, env["active_server_id"], &next.Status.ActiveServerID)

	var servers map[int64]models.ServerProfile
	if s.decodeInto(models.GroupServers, env["servers"], &servers) && servers != nil {
		next.Servers = servers
	}
	var devices map[string]models.Device
	if s.decodeInto(models.GroupDevices, env["devices"], &devices) && devices != nil {
		next.Devices = devices
	}

	var known []models.KnownDevice
	if s.decodeInto(models.GroupKnownDevices, env["known_devices"], &known) {
		next.KnownDevices = known
	}
	var tasks []models.Task
	if s.decodeInto(models.GroupTasks, env["tasks"], &tasks) {
		next.Tasks = tasks
	}
	var alerts []models.AlertRule
	if s.decodeInto(models.GroupAlerts, env["alerts"], &alerts) {
		next.Alerts = alerts
	}
	var access models.AccessLists
	if s.decodeInto(models.GroupAccessLists, env["access_lists"], &access) {
		next.AccessLists = access
	}
	var groups []models.DeviceGroup
	if s.decodeInto(models.GroupGroups, env["groups"], &groups) {
		next.Groups = groups
	}
	var topics []string
	if s.decodeInto(models.GroupTopics, env["topics"], &topics) {
		next.Topics = topics
	}
	var triggers []models.MessageTrigger
	if s.decodeInto(models.GroupTriggers, env["message_triggers"], &triggers) {
		next.Triggers = triggers
	}
	var history []models.BrokerMessage
	if s.decodeInto(models.GroupHistory, env["history"], &history) {
		next.History = history
	}

	*s.snap = *next
}

// ApplyPartialUpdate replaces one group from a partial-update payload.
// Returns false for an unrecognized group so the caller skips dispatch;
// unknown event shapes must never crash the client.
func (s *Store) ApplyPartialUpdate(group models.Group, payload []byte) bool {
	switch group {
	case models.GroupDevices:
		var env struct {
			Devices map[string]models.Device `json:"devices"`
		}
		devices := map[string]models.Device{}
		if s.decodeInto(group, payload, &env) && env.Devices != nil {
			devices = env.Devices
		}
		s.snap.Devices = devices

	case models.GroupServers:
		var env struct {
			Servers map[int64]models.ServerProfile `json:"servers"`
		}
		servers := map[int64]models.ServerProfile{}
		if s.decodeInto(group, payload, &env) && env.Servers != nil {
			servers = env.Servers
		}
		s.snap.Servers = servers

	case models.GroupKnownDevices:
		var env struct {
			KnownDevices []models.KnownDevice `json:"known_devices"`
		}
		if !s.decodeInto(group, payload, &env) {
			env.KnownDevices = nil
		}
		s.snap.KnownDevices = env.KnownDevices

	case models.GroupTasks:
		var env struct {
			Tasks []models.Task `json:"tasks"`
		}
		if !s.decodeInto(group, payload, &env) {
			env.Tasks = nil
		}
		s.snap.Tasks = env.Tasks

	case models.GroupAlerts:
		var env struct {
			Alerts []models.AlertRule `json:"alerts"`
		}
		if !s.decodeInto(group, payload, &env) {
			env.Alerts = nil
		}
		s.snap.Alerts = env.Alerts

	case models.GroupAccessLists:
		var access models.AccessLists
		if !s.decodeInto(group, payload, &access) {
			access = models.AccessLists{}
		}
		s.snap.AccessLists = access

	case models.GroupGroups:
		var env struct {
			Groups []models.DeviceGroup `json:"groups"`
		}
		if !s.decodeInto(group, payload, &env) {
			env.Groups = nil
		}
		s.snap.Groups = env.Groups

	case models.GroupTopics:
		var env struct {
			Topics []string `json:"topics"`
		}
		if !s.decodeInto(group, payload, &env) {
			env.Topics = nil
		}
		s.snap.Topics = env.Topics

	case models.GroupTriggers:
		var env struct {
			Triggers []models.MessageTrigger `json:"triggers"`
		}
		if !s.decodeInto(group, payload, &env) {
			env.Triggers = nil
		}
		s.snap.Triggers = env.Triggers

	case models.GroupHistory:
		var env struct {
			History []models.BrokerMessage `json:"history"`
		}
		if !s.decodeInto(group, payload, &env) {
			env.History = nil
		}
		s.snap.History = env.History

	default:
		s.logger.Warn("ignoring update for unknown group",
			zap.String("group", string(group)),
		)
		return false
	}

	return true
}

// ApplyStatus updates the status group from a connection-status payload.
// The active server id only changes when the payload carries one.
func (s *Store) ApplyStatus(payload []byte) {
	var env struct {
		Connected      bool   `json:"connected"`
		ActiveServerID *int64 `json:"active_server_id"`
	}
	if !s.decodeInto(models.GroupStatus, payload, &env) {
		return
	}
	s.snap.Status.Connected = env.Connected
	if env.Connected {
		s.snap.Status.Reconnecting = false
	}
	if env.ActiveServerID != nil {
		s.snap.Status.ActiveServerID = *env.ActiveServerID
	}
}

// SetConnected records a locally observed transport transition, without
// waiting for a server message.
func (s *Store) SetConnected(connected bool) {
	s.snap.Status.Connected = connected
	if connected {
		s.snap.Status.Reconnecting = false
	}
}

// SetReconnecting flags an in-progress reconnect attempt.
func (s *Store) SetReconnecting(reconnecting bool) {
	s.snap.Status.Reconnecting = reconnecting
}

// decodeInto unmarshals raw into dst. Absent, null and malformed input
// all report false, leaving the caller on the group's empty value.
func (s *Store) decodeInto(group models.Group, raw []byte, dst interface{}) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("malformed group payload, falling back to empty value",
			zap.String("group", string(group)),
			zap.Error(err),
		)
		return false
	}
	return true
}
