package workflow

import (
	"fmt"

	"github.com/ubilab-escape/operator/internal/codec"
)

// leafOptions tunes the rare leaf variants recovered from the original
// Python revisions without forking the standard puzzle leaf.
type leafOptions struct {
	// suppressFinishTrigger skips the trailing TRIGGER:OFF publish on
	// finish entirely. Grounded on IPWorkflow, whose on_finished calls
	// straight into the base state transition and never touches the bus.
	suppressFinishTrigger bool
	// solvedOnInactive treats a STATUS:INACTIVE message the same as
	// STATUS:SOLVED once the node has gone ACTIVE at least once.
	// Grounded on ScaleWorkflow, whose scale reports back to INACTIVE
	// when weight settles rather than publishing SOLVED.
	solvedOnInactive bool
	// onActiveHint, when set, is invoked whenever the prop reports
	// STATUS:ACTIVE and may start a repeating side-channel (e.g. a TTS hint
	// loop). The returned stop func is called on dispose, skip and finish.
	onActiveHint func(b Bus, name string, settings map[string]any) (stop func())
}

// Leaf is the standard puzzle workflow of spec.md §4.6: one physical
// prop reachable over one MQTT topic, publishing TRIGGER:ON on execute,
// listening for STATUS/TRIGGER/MESSAGE traffic, and publishing a
// trailing TRIGGER:OFF when it finishes.
type Leaf struct {
	base

	opts                leafOptions
	wentActive          bool
	stopHint            func()
	bus                 Bus
	bypassFinishTrigger bool
}

var _ Node = (*Leaf)(nil)
var _ hooks = (*Leaf)(nil)

// NewLeaf builds a standard puzzle leaf bound to topic.
func NewLeaf(name, topic string, settings map[string]any) *Leaf {
	return newLeaf(name, topic, settings, leafOptions{})
}

// NewStatusToggleLeaf is the ScaleWorkflow-equivalent: the puzzle is
// solved the moment the prop reports back INACTIVE after having gone
// ACTIVE, rather than a dedicated SOLVED status.
func NewStatusToggleLeaf(name, topic string, settings map[string]any) *Leaf {
	return newLeaf(name, topic, settings, leafOptions{solvedOnInactive: true})
}

// NewHintedLeaf is the GlobesWorkflow-equivalent: when the prop reports
// ACTIVE, onActiveHint starts a repeating hint whose interval the hook
// itself manages; the stop func it returns ends the hint when the puzzle
// finishes, is skipped or is disposed.
func NewHintedLeaf(name, topic string, settings map[string]any, onActiveHint func(b Bus, name string, settings map[string]any) (stop func())) *Leaf {
	return newLeaf(name, topic, settings, leafOptions{onActiveHint: onActiveHint})
}

// NewSilentFinishLeaf is the IPWorkflow-equivalent: it never emits a
// trailing TRIGGER:OFF on completion.
func NewSilentFinishLeaf(name, topic string, settings map[string]any) *Leaf {
	return newLeaf(name, topic, settings, leafOptions{suppressFinishTrigger: true})
}

func newLeaf(name, topic string, settings map[string]any, opts leafOptions) *Leaf {
	l := &Leaf{opts: opts}
	l.base = newBase(name, "Leaf", settings, l)
	l.topic = topic
	return l
}

func (l *Leaf) execute(b Bus) {
	l.publishTrigger(b, codec.StateOn, singleSetting(l.settings))
	_ = b.Subscribe(l.topic, func(topic string, payload []byte) { l.OnMessage(topic, payload) })
}

func (l *Leaf) dispose(b Bus) {
	l.stopHintTimer()
	_ = b.Unsubscribe(l.topic)
	l.state = StateInactive
}

func (l *Leaf) skipChildren(name string, selfSkipped bool) {
	l.stopHintTimer()
}

func (l *Leaf) finishing(skipped bool) {
	l.stopHintTimer()
	if l.opts.suppressFinishTrigger || l.bypassFinishTrigger {
		l.bypassFinishTrigger = false
		return
	}
	if skipped {
		l.publishTriggerOff(l.bus, "skipped")
		return
	}
	l.publishTriggerOff(l.bus, singleSetting(l.settings))
}

func (l *Leaf) graphSelf(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string) {
	return l.defaultGraphSelf(predecessors, parent)
}

// bus is stashed on execute so finishing() (invoked without a Bus
// parameter by the base's fireFinished path) can still publish
// TRIGGER:OFF.
func (l *Leaf) stashBus(b Bus) { l.bus = b }

func (l *Leaf) message(topic string, payload []byte) {
	if topic != l.topic {
		return
	}
	msg, err := codec.Parse(payload)
	if err != nil {
		l.fail(l.name, fmt.Sprintf("[%s] No valid JSON: %v", l.name, err))
		return
	}
	switch msg.Method {
	case codec.MethodStatus:
		l.onStatus(msg)
	case codec.MethodTrigger:
		l.onTrigger(msg)
	case codec.MethodMessage:
		// logged and ignored; logging is the caller's responsibility via
		// whatever logger wraps this node's parent tree.
	default:
		l.fail(l.name, fmt.Sprintf("[%s] unsupported method '%s'", l.name, msg.Method))
	}
}

func (l *Leaf) onStatus(msg codec.Message) {
	switch msg.State {
	case codec.StateInactive:
		if l.opts.solvedOnInactive && l.wentActive {
			l.finishWithoutTrigger()
		}
	case codec.StateActive:
		l.wentActive = true
		if l.opts.onActiveHint != nil {
			l.stopHint = l.opts.onActiveHint(l.bus, l.name, l.settings)
		}
	case codec.StateSolved:
		l.fireFinished(false)
	case codec.StateFailed:
		l.fail(l.name, fmt.Sprintf("%v", msg.Data))
	default:
		l.fail(l.name, fmt.Sprintf("[%s] unsupported status '%s'", l.name, msg.State))
	}
}

func (l *Leaf) onTrigger(msg codec.Message) {
	switch msg.State {
	case codec.StateOn, codec.StateOff:
		// hooks for subclasses that care about trigger echoes; the
		// standard puzzle leaf has nothing to do here.
	default:
		l.fail(l.name, fmt.Sprintf("[%s] unsupported trigger '%s'", l.name, msg.State))
	}
}

// finishWithoutTrigger completes the node while suppressing the single
// upcoming trailing TRIGGER:OFF publish, reproducing ScaleWorkflow's
// direct call into the base completion path without a bare unbound
// superclass call.
func (l *Leaf) finishWithoutTrigger() {
	l.bypassFinishTrigger = true
	l.fireFinished(false)
}

func (l *Leaf) stopHintTimer() {
	if l.stopHint != nil {
		l.stopHint()
		l.stopHint = nil
	}
}

func (l *Leaf) publishTrigger(b Bus, state codec.State, data any) {
	l.stashBus(b)
	payload := codec.Serialize(codec.Message{Method: codec.MethodTrigger, State: state, Data: data})
	_ = b.Publish(l.topic, 2, false, payload)
}

func (l *Leaf) publishTriggerOff(b Bus, data any) {
	if b == nil {
		return
	}
	payload := codec.Serialize(codec.Message{Method: codec.MethodTrigger, State: codec.StateOff, Data: data})
	_ = b.Publish(l.topic, 2, false, payload)
}
