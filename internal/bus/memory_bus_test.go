package bus

import (
	"context"
	"testing"
)

func TestMemoryBusDeliversToSubscriber(t *testing.T) {
	b := NewMemory()
	_ = b.Connect(context.Background())

	received := make(chan string, 1)
	if err := b.Subscribe("op/topic", func(topic string, payload []byte) {
		received <- string(payload)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := b.Publish("op/topic", 0, false, []byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-received:
		if got != "hello" {
			t.Fatalf("got %q", got)
		}
	default:
		t.Fatalf("expected synchronous delivery")
	}
}

func TestMemoryBusUnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemory()
	calls := 0
	_ = b.Subscribe("op/topic", func(string, []byte) { calls++ })
	_ = b.Unsubscribe("op/topic")
	_ = b.Publish("op/topic", 0, false, nil)
	if calls != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d calls", calls)
	}
}

func TestMemoryBusOnConnectFiresOnConnect(t *testing.T) {
	b := NewMemory()
	called := false
	b.OnConnect(func() { called = true })
	_ = b.Connect(context.Background())
	if !called {
		t.Fatalf("expected onConnect callback to fire")
	}
}
