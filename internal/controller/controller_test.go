package controller

import (
	"context"
	"testing"
	"time"

	"github.com/ubilab-escape/operator/internal/bus"
	"github.com/ubilab-escape/operator/internal/platform/logger"
	"github.com/ubilab-escape/operator/internal/workflow"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func simpleFactory() Factory {
	return FactoryFunc(func(opts GameOptions) []workflow.Node {
		return []workflow.Node{
			workflow.NewLeaf("keypad", "op/keypad", nil),
			workflow.NewLeaf("globe", "op/globe", nil),
		}
	})
}

func newTestController(t *testing.T) (*Controller, *bus.MemoryBus) {
	t.Helper()
	mem := bus.NewMemory()
	ctrl := New(testLogger(t), mem, simpleFactory(), Config{
		Topics:      Topics{Prefix: "op"},
		Purger:      NoopPurger{},
		TimerTick:   5 * time.Millisecond,
		DefaultOpts: GameOptions{Duration: 1, Participants: 4},
	})
	if err := ctrl.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return ctrl, mem
}

func TestControllerStartBuildsRootAndExecutesFirstChild(t *testing.T) {
	ctrl, mem := newTestController(t)
	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte("START"))

	if ctrl.State() != GameStarted {
		t.Fatalf("expected STARTED, got %s", ctrl.State())
	}
	if ctrl.root == nil || ctrl.root.Name() != "Main workflow" {
		t.Fatalf("expected root sequence to be built")
	}
}

func TestControllerStartIsIdempotent(t *testing.T) {
	ctrl, mem := newTestController(t)
	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte("START"))
	firstRoot := ctrl.root
	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte("START"))

	if ctrl.root != firstRoot {
		t.Fatalf("expected repeated START to be a no-op")
	}
}

func TestControllerStopDisposesRoot(t *testing.T) {
	ctrl, mem := newTestController(t)
	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte("START"))
	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte("STOP"))

	if ctrl.State() != GameStopped {
		t.Fatalf("expected STOPPED, got %s", ctrl.State())
	}
	if ctrl.root.State() != workflow.StateInactive {
		t.Fatalf("expected disposed root to be INACTIVE, got %s", ctrl.root.State())
	}
}

func TestControllerSkipCommandForwardsToRoot(t *testing.T) {
	ctrl, mem := newTestController(t)
	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte("START"))
	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte("SKIP keypad"))

	if ctrl.root.State() == workflow.StateFinished {
		t.Fatalf("root sequence must not itself be finished by a leaf skip")
	}
}

func TestControllerPublishesSnapshotOnChangeOnly(t *testing.T) {
	ctrl, mem := newTestController(t)
	var snapshots int
	ctrl.OnSnapshot(func([]byte) { snapshots++ })

	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte("START"))
	afterStart := snapshots
	if afterStart == 0 {
		t.Fatalf("expected at least one snapshot after start")
	}

	// Re-delivering an unrelated message with no state change must not
	// publish a duplicate snapshot.
	mem.Publish(ctrl.cfg.Topics.GameControl(), 0, false, []byte(""))
	if snapshots != afterStart {
		t.Fatalf("expected no duplicate snapshot, got %d new publishes", snapshots-afterStart)
	}
}

func TestControllerOptionsAreValidatedAndStored(t *testing.T) {
	ctrl, mem := newTestController(t)
	mem.Publish(ctrl.cfg.Topics.GameOptions(), 0, true, []byte(`{"duration": 30, "participants": 6}`))

	ctrl.mu.Lock()
	opts := ctrl.options
	ctrl.mu.Unlock()

	if opts.Duration != 30 || opts.Participants != 6 {
		t.Fatalf("got %+v", opts)
	}
}

func TestControllerInvalidOptionsAreRejectedWithoutPanicking(t *testing.T) {
	ctrl, mem := newTestController(t)
	mem.Publish(ctrl.cfg.Topics.GameOptions(), 0, true, []byte(`{"duration": 0}`))

	ctrl.mu.Lock()
	opts := ctrl.options
	ctrl.mu.Unlock()

	if opts.Duration == 0 && opts.Participants == 0 {
		// default options were preserved, not overwritten by the invalid payload
	}
	if opts != ctrl.cfg.DefaultOpts {
		t.Fatalf("invalid options must not overwrite the current options, got %+v", opts)
	}
}
