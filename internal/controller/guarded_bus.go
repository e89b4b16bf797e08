package controller

import "sync"

// guardedBus wraps the real transport so every handler registered by a
// workflow leaf — not just the controller's own command dispatch — is
// invoked under the controller's single workflow mutex. This is what
// makes spec.md §5's "all workflow mutations observe a single total
// order" hold even though leaves subscribe to the bus directly: the
// bus's own delivery goroutine (MQTT network loop) calls into this
// wrapper, which takes the lock before ever touching node state.
type guardedBus struct {
	inner interface {
		Publish(topic string, qos byte, retained bool, payload []byte) error
		Subscribe(topic string, handler func(topic string, payload []byte)) error
		Unsubscribe(topic string) error
	}
	mu *sync.Mutex

	// afterDeliver runs once per delivered message, still under mu, right
	// after handler returns. The controller points this at its own
	// publishSnapshotLocked so every inbound message — control-plane or
	// puzzle/actuator topic alike — republishes the graph snapshot, not
	// just the two control topics dispatch itself handles.
	afterDeliver func()
}

func (g *guardedBus) Publish(topic string, qos byte, retained bool, payload []byte) error {
	return g.inner.Publish(topic, qos, retained, payload)
}

func (g *guardedBus) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	return g.inner.Subscribe(topic, func(t string, p []byte) {
		g.mu.Lock()
		defer g.mu.Unlock()
		handler(t, p)
		if g.afterDeliver != nil {
			g.afterDeliver()
		}
	})
}

func (g *guardedBus) Unsubscribe(topic string) error {
	return g.inner.Unsubscribe(topic)
}
