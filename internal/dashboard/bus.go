package dashboard

import "context"

// Bus fans snapshot payloads across dashboard processes so multiple
// instances can serve SSE clients without each one needing its own
// MQTT subscription. Grounded on the teacher's internal/realtime/bus.Bus
// interface, narrowed from a typed SSEMessage to the raw snapshot bytes
// the controller already produces.
type Bus interface {
	Publish(ctx context.Context, snapshot []byte) error
	StartForwarder(ctx context.Context, onSnapshot func(snapshot []byte)) error
	Close() error
}
