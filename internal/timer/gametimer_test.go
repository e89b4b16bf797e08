package timer

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

type fakePublisher struct {
	mu   sync.Mutex
	last map[string]string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{last: make(map[string]string)}
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last[topic] = string(payload)
	return nil
}

func (p *fakePublisher) get(topic string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last[topic]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestGameTimerPublishesFourTopicsPerTick(t *testing.T) {
	pub := newFakePublisher()
	gt := New(pub, "op/gameTime", 10*time.Millisecond, 100, nil)
	gt.Start()
	defer gt.Stop()

	waitFor(t, func() bool { return pub.get("op/gameTime_in_sec") != "" })

	if pub.get("op/gameTime_in_sec") == "" || pub.get("op/gameTime_remain_in_sec") == "" ||
		pub.get("op/gameTime_formatted") == "" || pub.get("op/gameTime_remain_formatted") == "" {
		t.Fatalf("expected all four topics published")
	}
}

func TestGameTimerFiresExpiryAndStops(t *testing.T) {
	pub := newFakePublisher()
	expired := make(chan struct{})
	gt := New(pub, "op/gameTime", 5*time.Millisecond, 2, func() { close(expired) })
	gt.Start()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry callback never fired")
	}

	waitFor(t, func() bool { return gt.State() == StateStopped })
}

func TestGameTimerPauseResumesWithoutReset(t *testing.T) {
	pub := newFakePublisher()
	gt := New(pub, "op/gameTime", 5*time.Millisecond, 1000, nil)
	gt.Start()
	waitFor(t, func() bool {
		v, _ := strconv.Atoi(pub.get("op/gameTime_in_sec"))
		return v >= 1
	})
	gt.Pause()
	if gt.State() != StatePaused {
		t.Fatalf("expected PAUSED, got %s", gt.State())
	}
	before, _ := strconv.Atoi(pub.get("op/gameTime_in_sec"))

	gt.Start()
	waitFor(t, func() bool {
		v, _ := strconv.Atoi(pub.get("op/gameTime_in_sec"))
		return v > before
	})
	gt.Stop()
}

func TestGameTimerStopResetsCounter(t *testing.T) {
	pub := newFakePublisher()
	gt := New(pub, "op/gameTime", 5*time.Millisecond, 1000, nil)
	gt.Start()
	waitFor(t, func() bool { return pub.get("op/gameTime_in_sec") != "" })
	gt.Stop()
	if gt.State() != StateStopped {
		t.Fatalf("expected STOPPED, got %s", gt.State())
	}
	gt.mu.Lock()
	elapsed := gt.elapsed
	gt.mu.Unlock()
	if elapsed != 0 {
		t.Fatalf("expected elapsed counter reset to 0, got %d", elapsed)
	}
}
