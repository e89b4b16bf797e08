package dashboard

import (
	"testing"
	"time"

	"github.com/ubilab-escape/operator/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for dashboard message")
	}
	return SSEMessage{}
}

func TestHubBroadcastsSnapshotToConnectedClients(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	client := hub.NewClient()
	hub.AddClient(client)

	hub.Broadcast([]byte(`{"nodes":[],"edges":[]}`))

	got := recvMessage(t, client.Outbound, time.Second)
	if got.Event != SSEEventSnapshot {
		t.Fatalf("want event %s, got %s", SSEEventSnapshot, got.Event)
	}
	if string(got.Data) != `{"nodes":[],"edges":[]}` {
		t.Fatalf("unexpected snapshot payload: %s", got.Data)
	}
}

func TestHubReplaysLastSnapshotToLateJoiners(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	hub.Broadcast([]byte(`{"nodes":[1],"edges":[]}`))

	late := hub.NewClient()
	hub.AddClient(late)

	got := recvMessage(t, late.Outbound, time.Second)
	if string(got.Data) != `{"nodes":[1],"edges":[]}` {
		t.Fatalf("expected replay of last snapshot, got %s", got.Data)
	}
}

func TestHubLastReturnsNilBeforeFirstBroadcast(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	if got := hub.Last(); got != nil {
		t.Fatalf("expected nil before any broadcast, got %s", got)
	}
}

func TestHubCloseClientStopsDelivery(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	client := hub.NewClient()
	hub.AddClient(client)
	hub.CloseClient(client)

	select {
	case _, ok := <-client.Outbound:
		if ok {
			t.Fatalf("expected outbound channel to be closed")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for channel close")
	}

	// a broadcast after close must not panic even though the client is
	// no longer registered
	hub.Broadcast([]byte(`{"nodes":[],"edges":[]}`))
}

func TestHubDropsWhenOutboundBufferFull(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	client := hub.NewClient()
	hub.AddClient(client)

	for i := 0; i < 16; i++ {
		hub.Broadcast([]byte(`{"nodes":[],"edges":[]}`))
	}
	// must not block or panic; excess broadcasts are dropped for this
	// slow client once its buffer fills
}
