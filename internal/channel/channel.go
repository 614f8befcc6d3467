// Package channel defines the persistent named-message channel the sync
// core runs on, and its MQTT implementation. The channel owns reconnect
// and backoff entirely; the core never initiates a reconnect.
package channel

// Handler processes one inbound named message.
type Handler func(payload []byte)

// Channel is a persistent, auto-reconnecting, bidirectional
// named-message channel to the dashboard server.
//
// Handlers and lifecycle hooks must be registered before Connect.
// Messages for one name are delivered in send order; the core's
// per-group last-write-wins semantics depend on that.
type Channel interface {
	// On registers the handler for one inbound message name.
	On(event string, h Handler)

	// Emit sends a named message. Fire and forget: there is no
	// acknowledgment beyond an eventual matching inbound message.
	Emit(event string, payload interface{}) error

	// OnConnect fires after every successful (re)connect.
	OnConnect(fn func())

	// OnConnectionLost fires when the transport drops.
	OnConnectionLost(fn func(err error))

	// OnReconnecting fires when a reconnect attempt starts.
	OnReconnecting(fn func())

	Connect() error
	Close()
	IsConnected() bool
}
