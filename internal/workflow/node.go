// Package workflow implements the composite workflow engine: a tree of
// leaf and composite nodes that together form a state machine driven by
// bus messages and operator commands. See design notes in SPEC_FULL.md §4.
package workflow

import (
	"encoding/json"
	"strings"
)

// State is a node's position in its lifecycle: INACTIVE -> ACTIVE ->
// {FINISHED, SKIPPED}. SKIPPED is reachable from any non-terminal state.
type State string

const (
	StateInactive State = "INACTIVE"
	StateActive   State = "ACTIVE"
	StateFinished State = "FINISHED"
	StateSkipped  State = "SKIPPED"
)

// Bus is the narrow publish/subscribe contract every node needs. The
// concrete MQTT transport (internal/bus) and the in-memory test double
// both satisfy it structurally.
type Bus interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
}

// FinishedFunc is invoked when a node completes, naming itself.
type FinishedFunc func(name string)

// FailedFunc is invoked when a node's subtree hits an unrecoverable error.
type FailedFunc func(name string, errText string)

// Node is the common contract implemented by every leaf and composite.
type Node interface {
	Name() string
	Type() string
	State() State
	Settings() map[string]any
	Highlight() bool
	SetHighlight(bool)

	Execute(b Bus)
	Dispose(b Bus)
	Skip(name string)
	OnMessage(topic string, payload []byte)

	RegisterOnFinished(cb FinishedFunc)
	RegisterOnFailed(cb FailedFunc)

	// Graph renders this subtree's contribution to the dashboard snapshot.
	// predecessors are node IDs whose completion feeds into this subtree's
	// entry point; parent is the enclosing group's ID, if any. Returns the
	// node/edge records plus the set of IDs downstream siblings should
	// connect to next.
	Graph(predecessors []string, parent string) (nodes []GraphNode, edges []GraphEdge, finals []string)
}

// hooks is the virtual-dispatch surface concrete node kinds implement.
// base holds a reference to the concrete type (self) so its generic
// lifecycle logic (Execute/Dispose/Skip/OnFinished) can invoke the
// type-specific behavior without Go's embedding shadowing getting in the
// way — the classic "self parameter" workaround for lack of virtual calls
// through struct embedding.
type hooks interface {
	execute(b Bus)
	dispose(b Bus)
	message(topic string, payload []byte)
	skipChildren(name string, selfSkipped bool)
	// finishing runs before the parent callback fires: before the FINISHED
	// transition, or after the SKIPPED one has been applied. Leaves use it to emit a
	// trailing TRIGGER:OFF; composites default to a no-op.
	finishing(skipped bool)
	graphSelf(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string)
}

type base struct {
	name      string
	typ       string
	settings  map[string]any
	topic     string
	state     State
	highlight bool

	self hooks

	onFinishedCb FinishedFunc
	onFailedCb   FailedFunc
}

func newBase(name, typ string, settings map[string]any, self hooks) base {
	return base{name: name, typ: typ, settings: settings, state: StateInactive, self: self}
}

func (n *base) Name() string             { return n.name }
func (n *base) Type() string             { return n.typ }
func (n *base) State() State             { return n.state }
func (n *base) Settings() map[string]any { return n.settings }
func (n *base) Highlight() bool          { return n.highlight }
func (n *base) SetHighlight(v bool)      { n.highlight = v }

// Execute transitions INACTIVE/SKIPPED -> ACTIVE. A node that was already
// SKIPPED (e.g. by an upfront skipTo) signals completion immediately
// without touching the bus.
func (n *base) Execute(b Bus) {
	if n.state == StateSkipped {
		n.fireFinished(true)
		return
	}
	n.state = StateActive
	n.self.execute(b)
}

// Dispose only runs when the node is not SKIPPED. A FINISHED node releases
// its bus resources but stays FINISHED.
func (n *base) Dispose(b Bus) {
	if n.state == StateSkipped {
		return
	}
	finished := n.state == StateFinished
	n.self.dispose(b)
	if finished {
		n.state = StateFinished
	}
}

// Skip marks this node (and, via skipChildren, any matching descendant)
// SKIPPED. A node already SKIPPED or FINISHED ignores the request.
func (n *base) Skip(name string) {
	if n.state == StateSkipped || n.state == StateFinished {
		return
	}
	selfMatched := strings.EqualFold(name, n.name)
	if selfMatched {
		old := n.state
		n.state = StateSkipped
		if old == StateActive {
			n.fireFinishedNamed(n.name, true)
		}
	}
	n.self.skipChildren(name, selfMatched)
}

func (n *base) OnMessage(topic string, payload []byte) {
	n.self.message(topic, payload)
}

func (n *base) RegisterOnFinished(cb FinishedFunc) { n.onFinishedCb = cb }
func (n *base) RegisterOnFailed(cb FailedFunc)     { n.onFailedCb = cb }

func (n *base) Graph(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string) {
	return n.self.graphSelf(predecessors, parent)
}

// fireFinished completes this node under its own name.
func (n *base) fireFinished(skipped bool) {
	n.fireFinishedNamed(n.name, skipped)
}

// fireFinishedNamed runs the completion hook, applies the state
// transition (skipped completions never become FINISHED — they already
// are SKIPPED), and notifies the parent callback.
func (n *base) fireFinishedNamed(name string, skipped bool) {
	n.self.finishing(skipped)
	if !skipped {
		n.state = StateFinished
	}
	if n.onFinishedCb != nil {
		n.onFinishedCb(name)
	}
}

func (n *base) fail(name, errText string) {
	if n.onFailedCb != nil {
		n.onFailedCb(name, errText)
	}
}

// defaultGraphSelf is the leaf-shaped graph export: one node for this
// workflow plus edges from its predecessors.
func (n *base) defaultGraphSelf(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string) {
	node := GraphNode{
		ID:        n.name,
		Name:      n.name,
		Highlight: n.highlight,
		Status:    string(n.state),
		Type:      n.typ,
		Parent:    parent,
		Topic:     n.topic,
	}
	return []GraphNode{node}, createEdges(n.name, predecessors), []string{n.name}
}

// singleSetting flattens a one-entry settings map to its bare value,
// matching the original's get_settings(): a puzzle's TRIGGER:ON payload is
// the scalar when there's exactly one setting, otherwise the whole map.
func singleSetting(settings map[string]any) any {
	if len(settings) == 0 {
		return nil
	}
	if len(settings) == 1 {
		for _, v := range settings {
			return v
		}
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil
	}
	return json.RawMessage(raw)
}
