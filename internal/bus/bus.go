// Package bus implements the pub/sub transport every workflow node,
// the game timer, and the controller talk through. Bus mirrors the
// teacher's interface-segregated realtime bus (one narrow contract, a
// real network-backed implementation, and an in-process double for
// tests) but targets MQTT instead of Redis, since the wire protocol
// here is the prop network, not a fan-out to HTTP clients.
package bus

import "context"

// Bus is the contract every workflow component depends on.
type Bus interface {
	Connect(ctx context.Context) error
	Disconnect()
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
	// OnConnect registers a callback invoked after every successful
	// (re)connection, so subscribers can restore topic subscriptions a
	// broker does not remember across a clean session.
	OnConnect(func())
}
