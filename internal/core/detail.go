package core

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/channel"
	"github.com/basajaundev/MQTT-Dashboard/internal/models"
)

// DetailSink receives per-device responses. These are request-scoped
// views (history chart, log pane, event list, detail modal) correlated
// by device key; they are never merged into the global snapshot.
type DetailSink interface {
	History(deviceKey string, samples []models.SensorSample)
	Logs(deviceKey string, lines []string)
	Events(deviceKey string, events []models.DeviceEvent)
	Detail(deviceKey string, detail json.RawMessage)
	ConfigUpdate(deviceKey string, config json.RawMessage)
}

type detailKind int

const (
	detailHistory detailKind = iota
	detailLogs
	detailEvents
	detailDetail
	detailConfig
)

// DetailRouter fans detail responses out to the sinks watching the
// response's device key. A response for an unwatched key is dropped.
type DetailRouter struct {
	mu     sync.Mutex
	sinks  map[string][]DetailSink
	logger *zap.Logger
}

// NewDetailRouter creates an empty router.
func NewDetailRouter(logger *zap.Logger) *DetailRouter {
	return &DetailRouter{
		sinks:  map[string][]DetailSink{},
		logger: logger,
	}
}

// Watch subscribes sink to responses for one device key.
func (r *DetailRouter) Watch(deviceKey string, sink DetailSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[deviceKey] = append(r.sinks[deviceKey], sink)
}

// Unwatch removes sink from a device key.
func (r *DetailRouter) Unwatch(deviceKey string, sink DetailSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sinks := r.sinks[deviceKey]
	for i, s := range sinks {
		if s == sink {
			r.sinks[deviceKey] = append(sinks[:i], sinks[i+1:]...)
			break
		}
	}
	if len(r.sinks[deviceKey]) == 0 {
		delete(r.sinks, deviceKey)
	}
}

func (r *DetailRouter) handler(kind detailKind) channel.Handler {
	return func(payload []byte) {
		r.route(kind, payload)
	}
}

func (r *DetailRouter) route(kind detailKind, payload []byte) {
	var resp models.DetailResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		r.logger.Warn("malformed detail response", zap.Error(err))
		return
	}
	key := resp.Key()
	if key == "" {
		r.logger.Warn("detail response without device key")
		return
	}

	r.mu.Lock()
	sinks := append([]DetailSink(nil), r.sinks[key]...)
	r.mu.Unlock()

	if len(sinks) == 0 {
		r.logger.Debug("no sink for detail response", zap.String("device", key))
		return
	}

	for _, sink := range sinks {
		switch kind {
		case detailHistory:
			sink.History(key, resp.History)
		case detailLogs:
			sink.Logs(key, resp.Logs)
		case detailEvents:
			sink.Events(key, resp.Events)
		case detailDetail:
			sink.Detail(key, resp.Detail)
		case detailConfig:
			sink.ConfigUpdate(key, resp.Config)
		}
	}
}
