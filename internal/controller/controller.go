// Package controller implements the workflow controller of spec.md
// §4.10: bus client lifecycle, command dispatch, options ingestion, the
// game clock, and the graph snapshot publisher. It is the single
// serialization point for every workflow mutation — see the guardedBus
// wrapper below and spec.md §5.
package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ubilab-escape/operator/internal/bus"
	"github.com/ubilab-escape/operator/internal/platform/logger"
	"github.com/ubilab-escape/operator/internal/timer"
	"github.com/ubilab-escape/operator/internal/workflow"
)

// GameState is the controller's own START/STOP/PAUSE lifecycle,
// distinct from any individual node's State.
type GameState string

const (
	GameStopped GameState = "STOPPED"
	GameStarted GameState = "STARTED"
	GamePaused  GameState = "PAUSED"
)

// Topics names the deployment-configurable control-plane topics. Puzzle
// and actuator topics are supplied by the factory's nodes directly.
type Topics struct {
	Prefix string
}

func (t Topics) GameControl() string { return t.Prefix + "/gameControl" }
func (t Topics) GameOptions() string { return t.Prefix + "/gameOptions" }
func (t Topics) GameState() string   { return t.Prefix + "/gameState" }
func (t Topics) GameTimer() string   { return t.Prefix + "/gameTime" }

// Config bundles everything the controller needs beyond the bus and
// factory: topic prefix, the game-over side effects, and the external
// purge collaborator.
type Config struct {
	Topics      Topics
	Purger      Purger
	TimerTick   time.Duration
	OnGameOver  func(b workflow.Bus)
	DefaultOpts GameOptions
}

// Controller owns the bus client and the root workflow sequence.
// OnSnapshot and State take the same mutex that guards every workflow
// mutation; Connect and Disconnect only drive the transport.
type Controller struct {
	log     *logger.Logger
	rawBus  bus.Bus
	guarded *guardedBus
	factory Factory
	cfg     Config

	mu              sync.Mutex
	options         GameOptions
	gameState       GameState
	root            workflow.Node
	gameTimer       *timer.GameTimer
	lastGraphConfig []byte
	onSnapshot      func(snapshot []byte)
}

// New builds a controller over transport, ready to Connect.
func New(log *logger.Logger, transport bus.Bus, factory Factory, cfg Config) *Controller {
	c := &Controller{
		log:       log.With("component", "WorkflowController"),
		rawBus:    transport,
		factory:   factory,
		cfg:       cfg,
		gameState: GameStopped,
		options:   cfg.DefaultOpts,
	}
	c.guarded = &guardedBus{inner: transport, mu: &c.mu}
	c.guarded.afterDeliver = c.publishSnapshotLocked
	return c
}

// OnSnapshot registers a callback fired whenever a new graph snapshot is
// published, in addition to the MQTT gameState publish — this is how
// the dashboard's Redis fan-out hooks in without the controller knowing
// about dashboards at all.
func (c *Controller) OnSnapshot(cb func(snapshot []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSnapshot = cb
}

// Connect opens the bus connection and (re-)subscribes to the control
// topics on every (re)connect, per spec.md §5's reconnection guarantee.
// Both topics subscribe through c.guarded rather than the raw transport
// so control-plane messages take the same single lock, and trigger the
// same post-delivery snapshot publish, as every leaf's own subscription.
func (c *Controller) Connect(ctx context.Context) error {
	c.rawBus.OnConnect(func() {
		_ = c.guarded.Subscribe(c.cfg.Topics.GameControl(), c.dispatch)
		_ = c.guarded.Subscribe(c.cfg.Topics.GameOptions(), c.dispatch)
	})
	return c.rawBus.Connect(ctx)
}

func (c *Controller) Disconnect() {
	c.rawBus.Disconnect()
}

// dispatch is the single entry point for every inbound control-plane
// message. It runs already under the workflow mutex — guardedBus.Subscribe
// takes it before calling in, and publishes the graph snapshot afterward
// via its afterDeliver hook — so dispatch itself must not lock or publish.
func (c *Controller) dispatch(topic string, payload []byte) {
	switch topic {
	case c.cfg.Topics.GameControl():
		c.handleCommandLocked(payload)
	case c.cfg.Topics.GameOptions():
		c.saveOptionsLocked(payload)
	default:
		if c.root != nil {
			c.root.OnMessage(topic, payload)
		}
	}
}

func (c *Controller) handleCommandLocked(payload []byte) {
	cmd := strings.ToUpper(strings.TrimSpace(string(payload)))
	switch {
	case cmd == "":
		// the controller's own retained-clear echoing back; ignore.
	case cmd == "START":
		c.startLocked()
	case cmd == "STOP":
		c.stopLocked()
	case cmd == "PAUSE":
		c.pauseLocked()
	case strings.HasPrefix(cmd, "SKIP "):
		name := strings.TrimSpace(cmd[len("SKIP "):])
		if c.root != nil {
			c.root.Skip(name)
		}
	default:
		c.log.Warn("unsupported game command", "command", cmd)
	}
}

func (c *Controller) saveOptionsLocked(payload []byte) {
	opts, err := ParseOptions(payload)
	if err != nil {
		c.log.Warn("invalid game options", "error", err)
		return
	}
	c.options = opts
}

// startLocked is idempotent against repeated START: building the root
// and calling execute only happens from STOPPED; a START while PAUSED
// just resumes the timer (handled by gameTimer.Start's own resume
// semantics), matching spec.md §4.10.
func (c *Controller) startLocked() {
	if c.gameState == GameStarted {
		return
	}
	c.cfg.Purger.Purge()

	if c.gameState == GameStopped {
		nodes := c.factory.Create(c.options)
		root := workflow.NewSequence("Main workflow", nodes)
		root.SetHighlight(true)
		root.RegisterOnFinished(func(string) { c.onWorkflowSolvedLocked() })
		root.RegisterOnFailed(func(name, errText string) {
			c.log.Error("workflow failed", "node", name, "error", errText)
		})
		c.root = root
		c.applySkipToLocked(nodes)
		root.Execute(c.guarded)

		durationSec := c.options.Duration * 60
		c.gameTimer = timer.New(c.guarded, c.cfg.Topics.GameTimer(), c.cfg.TimerTick, durationSec, c.onGameTimeExpired)
	}
	c.gameTimer.Start()
	c.gameState = GameStarted
	c.log.Info("main workflow started")
}

// applySkipToLocked marks every top-level child preceding the one named
// by options.SkipTo as SKIPPED before execute, letting operators rewind
// straight to any top-level room.
func (c *Controller) applySkipToLocked(nodes []workflow.Node) {
	if c.options.SkipTo == "" {
		return
	}
	matched := false
	for _, n := range nodes {
		if matched {
			break
		}
		if strings.EqualFold(n.Name(), c.options.SkipTo) {
			matched = true
			continue
		}
		n.Skip(n.Name())
	}
}

func (c *Controller) stopLocked() {
	if c.gameState == GameStopped {
		return
	}
	if c.gameTimer != nil {
		c.gameTimer.Stop()
	}
	if c.root != nil {
		c.root.Dispose(c.guarded)
	}
	c.gameState = GameStopped
	c.cfg.Purger.Purge()
	c.log.Info("main workflow stopped")
}

func (c *Controller) pauseLocked() {
	if c.gameState == GamePaused {
		return
	}
	if c.gameTimer != nil {
		c.gameTimer.Pause()
	}
	c.gameState = GamePaused
	c.log.Info("main workflow paused")
}

// onGameTimeExpired runs the configured OnGameOver side effects (the
// shipped binary turns the server and main room lights red, restored from
// the final revision of workflow_controller.py; the older revision only
// lit the server room), clears the retained gameControl topic, and stops.
// No game-over audio is published here.
func (c *Controller) onGameTimeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.Warn("game time expired")
	if c.cfg.OnGameOver != nil {
		c.cfg.OnGameOver(c.guarded)
	}
	_ = c.guarded.Publish(c.cfg.Topics.GameControl(), 2, true, nil)
	c.stopLocked()
}

func (c *Controller) onWorkflowSolvedLocked() {
	c.log.Info("escape room finished successfully")
	_ = c.guarded.Publish(c.cfg.Topics.GameControl(), 2, true, nil)
	c.stopLocked()
}

// publishSnapshotLocked renders the current graph and publishes it only
// when it differs from the last published snapshot.
func (c *Controller) publishSnapshotLocked() {
	if c.root == nil {
		return
	}
	snapshot := workflow.BuildSnapshot(c.root)
	raw := marshalSnapshot(snapshot)
	if bytes.Equal(raw, c.lastGraphConfig) {
		return
	}
	c.lastGraphConfig = raw
	_ = c.guarded.Publish(c.cfg.Topics.GameState(), 0, true, raw)
	if c.onSnapshot != nil {
		c.onSnapshot(raw)
	}
}

// State reports the controller's current game state.
func (c *Controller) State() GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameState
}

func marshalSnapshot(s workflow.Snapshot) []byte {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return raw
}
