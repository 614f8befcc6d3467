package channel

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/config"
)

// MQTTChannel carries named messages over MQTT topics:
// inbound on dash/<session>/event/<name>, outbound on
// dash/<session>/intent/<name>.
type MQTTChannel struct {
	client mqtt.Client
	cfg    *config.Config
	logger *zap.Logger

	mu             sync.Mutex
	handlers       map[string]Handler
	onConnect      func()
	onLost         func(error)
	onReconnecting func()
}

// NewMQTTChannel builds the channel. Connect must be called after all
// handlers are registered.
func NewMQTTChannel(cfg *config.Config, logger *zap.Logger) *MQTTChannel {
	c := &MQTTChannel{
		cfg:      cfg,
		logger:   logger,
		handlers: map[string]Handler{},
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Channel.Broker)
	// Unique suffix so parallel clients on one session id do not steal
	// each other's connection.
	opts.SetClientID(cfg.Channel.ClientID + "-" + uuid.NewString()[:8])
	if cfg.Channel.Username != "" {
		opts.SetUsername(cfg.Channel.Username)
	}
	if cfg.Channel.Password != "" {
		opts.SetPassword(cfg.Channel.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetOnConnectHandler(func(mqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) { c.handleLost(err) })
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) { c.handleReconnecting() })

	c.client = mqtt.NewClient(opts)
	return c
}

func (c *MQTTChannel) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

func (c *MQTTChannel) Emit(event string, payload interface{}) error {
	data, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to encode intent %s: %w", event, err)
	}

	token := c.client.Publish(c.intentTopic(event), c.cfg.Channel.QoS, false, data)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to emit intent %s: %w", event, token.Error())
	}
	return nil
}

func (c *MQTTChannel) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = fn
}

func (c *MQTTChannel) OnConnectionLost(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLost = fn
}

func (c *MQTTChannel) OnReconnecting(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReconnecting = fn
}

func (c *MQTTChannel) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to dashboard broker: %w", token.Error())
	}
	return nil
}

func (c *MQTTChannel) Close() {
	c.client.Disconnect(250)
}

func (c *MQTTChannel) IsConnected() bool {
	return c.client.IsConnected()
}

// handleConnect resubscribes every registered event on each (re)connect;
// the session is clean, so the broker forgets subscriptions on drop.
func (c *MQTTChannel) handleConnect() {
	c.mu.Lock()
	events := make([]string, 0, len(c.handlers))
	for event := range c.handlers {
		events = append(events, event)
	}
	onConnect := c.onConnect
	c.mu.Unlock()

	for _, event := range events {
		if err := c.subscribe(event); err != nil {
			c.logger.Error("failed to subscribe event",
				zap.String("event", event),
				zap.Error(err),
			)
		}
	}

	c.logger.Info("channel connected",
		zap.String("broker", c.cfg.Channel.Broker),
		zap.Int("events", len(events)),
	)
	if onConnect != nil {
		onConnect()
	}
}

func (c *MQTTChannel) handleLost(err error) {
	c.logger.Warn("channel connection lost", zap.Error(err))
	c.mu.Lock()
	onLost := c.onLost
	c.mu.Unlock()
	if onLost != nil {
		onLost(err)
	}
}

func (c *MQTTChannel) handleReconnecting() {
	c.logger.Info("channel reconnecting")
	c.mu.Lock()
	onReconnecting := c.onReconnecting
	c.mu.Unlock()
	if onReconnecting != nil {
		onReconnecting()
	}
}

func (c *MQTTChannel) subscribe(event string) error {
	topic := c.eventTopic(event)
	token := c.client.Subscribe(topic, c.cfg.Channel.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		c.dispatch(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}
	return nil
}

func (c *MQTTChannel) dispatch(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	event := parts[len(parts)-1]

	c.mu.Lock()
	h, ok := c.handlers[event]
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("no handler for event", zap.String("event", event))
		return
	}
	h(payload)
}

func (c *MQTTChannel) eventTopic(event string) string {
	return fmt.Sprintf("dash/%s/event/%s", c.cfg.Channel.Session, event)
}

func (c *MQTTChannel) intentTopic(event string) string {
	return fmt.Sprintf("dash/%s/intent/%s", c.cfg.Channel.Session, event)
}

func marshalPayload(payload interface{}) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	default:
		return json.Marshal(payload)
	}
}
