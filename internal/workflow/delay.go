package workflow

import "encoding/json"

// parseGameTimeSeconds decodes the bare numeric payload the game timer
// publishes on its "_in_sec" topic.
func parseGameTimeSeconds(payload []byte) (float64, bool) {
	var v float64
	if err := json.Unmarshal(payload, &v); err != nil {
		return 0, false
	}
	return v, true
}

// Delay parks a sequence for delaySec seconds without a wall-clock
// timer, instead riding the game timer's <topic>_in_sec ticks as a
// logical clock. This keeps every Delay node's notion of elapsed time in
// lockstep with pause/resume, since the game timer is the single source
// of truth for "how much time has passed". Grounded on DelayWorkflow in
// workflow_extras.py.
type Delay struct {
	base

	gameTimeTopic string
	delaySec      float64
	startTimeSec  float64
	started       bool
}

var _ Node = (*Delay)(nil)
var _ hooks = (*Delay)(nil)

// NewDelay builds a delay leaf that fires on_finished once delaySec
// seconds of elapsed game time have passed. gameTimeTopic is the
// "<prefix>/gameTime_in_sec" topic published by the game timer.
func NewDelay(name, gameTimeTopic string, delaySec float64) *Delay {
	d := &Delay{gameTimeTopic: gameTimeTopic, delaySec: delaySec}
	d.base = newBase(name, "Delay", map[string]any{"delaySec": delaySec}, d)
	return d
}

func (d *Delay) execute(b Bus) {
	_ = b.Subscribe(d.gameTimeTopic, func(topic string, payload []byte) { d.OnMessage(topic, payload) })
}

func (d *Delay) dispose(b Bus) {
	_ = b.Unsubscribe(d.gameTimeTopic)
	d.started = false
	d.state = StateInactive
}

func (d *Delay) skipChildren(name string, selfSkipped bool) {}
func (d *Delay) finishing(skipped bool)                     {}

func (d *Delay) message(topic string, payload []byte) {
	if topic != d.gameTimeTopic {
		return
	}
	elapsedSec, ok := parseGameTimeSeconds(payload)
	if !ok {
		return
	}
	if !d.started {
		d.startTimeSec = elapsedSec
		d.started = true
		return
	}
	if elapsedSec-d.startTimeSec >= d.delaySec {
		d.fireFinished(false)
	}
}

func (d *Delay) graphSelf(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string) {
	return d.defaultGraphSelf(predecessors, parent)
}
