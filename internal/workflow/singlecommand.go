package workflow

import (
	"fmt"

	"github.com/ubilab-escape/operator/internal/codec"
)

// singleCommand is the base for fire-and-forget leaves: execute performs
// one side effect then synchronously finishes. The action is atomic, so a
// skip has nothing in flight to cancel: an executed command is already
// FINISHED and ignores it, and an unexecuted one is only marked SKIPPED and
// never publishes. Grounded on SingleCommandWorkflow in workflow.py.
type singleCommand struct {
	base
	publish func(b Bus)
}

var _ Node = (*singleCommand)(nil)
var _ hooks = (*singleCommand)(nil)

func newSingleCommand(name, typ string, settings map[string]any, publish func(b Bus)) *singleCommand {
	s := &singleCommand{publish: publish}
	s.base = newBase(name, typ, settings, s)
	return s
}

func (s *singleCommand) execute(b Bus) {
	if s.publish != nil {
		s.publish(b)
	}
	s.fireFinished(false)
}

func (s *singleCommand) dispose(b Bus) { s.state = StateInactive }
func (s *singleCommand) skipChildren(name string, selfSkipped bool) {}
func (s *singleCommand) finishing(skipped bool)                     {}
func (s *singleCommand) message(topic string, payload []byte)       {}
func (s *singleCommand) graphSelf(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string) {
	return s.defaultGraphSelf(predecessors, parent)
}

// NewSendTrigger publishes a single TRIGGER:<state> with the given data.
func NewSendTrigger(name, topic string, state codec.State, data any) Node {
	return newSingleCommand(name, "SendTrigger", nil, func(b Bus) {
		payload := codec.Serialize(codec.Message{Method: codec.MethodTrigger, State: state, Data: data})
		_ = b.Publish(topic, 2, false, payload)
	})
}

// NewSendMessage publishes a single MESSAGE with state=NONE.
func NewSendMessage(name, topic string, data any) Node {
	return newSingleCommand(name, "SendMessage", nil, func(b Bus) {
		payload := codec.Serialize(codec.Message{Method: codec.MethodMessage, State: codec.StateNone, Data: data})
		_ = b.Publish(topic, 2, false, payload)
	})
}

// TTSAudioOptions selects between the two payload shapes TTSAudioWorkflow
// supports: an inline text message or a pre-recorded file reference.
type TTSAudioOptions struct {
	Text         string
	PlayFromFile bool
	FileLocation string
}

// NewTTSAudio publishes one message to the fixed text-to-speech topic.
func NewTTSAudio(name, ttsTopic string, opts TTSAudioOptions) Node {
	return newSingleCommand(name, "TTSAudio", nil, func(b Bus) {
		var data map[string]any
		if opts.PlayFromFile {
			data = map[string]any{"play_from_file": true, "file_location": opts.FileLocation}
		} else {
			data = map[string]any{"text": opts.Text}
		}
		payload := codec.Serialize(codec.Message{Method: codec.MethodMessage, Data: data})
		_ = b.Publish(ttsTopic, 2, false, payload)
	})
}

// RGB is a three-channel color triple.
type RGB struct{ R, G, B int }

// NewSingleLight publishes rgb, brightness, and power in sequence to one
// LED strip topic, matching the three-publish protocol firmware expects.
func NewSingleLight(name, topic string, color RGB, brightness int, on bool) Node {
	return newSingleCommand(name, "SingleLight", nil, func(b Bus) {
		publishLightTriple(b, topic, color, brightness, on)
	})
}

// lightState values aren't part of codec's STATUS/TRIGGER vocabulary —
// they name an LED strip sub-command, not a node lifecycle state — so
// Serialize is used directly with an ad hoc State rather than routing
// through Parse's enum-checked path, matching LightControlWorkflow's
// own bespoke _publishTrigger in workflow_extras.py.
const (
	lightStateRGB        codec.State = "RGB"
	lightStateBrightness codec.State = "BRIGHTNESS"
	lightStatePower      codec.State = "POWER"
)

func publishLightTriple(b Bus, topic string, color RGB, brightness int, on bool) {
	power := "off"
	if on {
		power = "on"
	}
	col := fmt.Sprintf("%d,%d,%d", color.R, color.G, color.B)

	rgb := codec.Serialize(codec.Message{Method: codec.MethodTrigger, State: lightStateRGB, Data: col})
	_ = b.Publish(topic, 2, false, rgb)

	br := codec.Serialize(codec.Message{Method: codec.MethodTrigger, State: lightStateBrightness, Data: brightness})
	_ = b.Publish(topic, 2, false, br)

	pw := codec.Serialize(codec.Message{Method: codec.MethodTrigger, State: lightStatePower, Data: power})
	_ = b.Publish(topic, 2, false, pw)
}

// Location names a room's LED strip group for NewLightControl.
type Location string

const (
	LocationLobbyRoom  Location = "LOBBYROOM"
	LocationMainRoom   Location = "MAINROOM"
	LocationServerRoom Location = "SERVERROOM"
)

// lightStrip is one physical strip within a Location's topic group.
type lightStrip struct {
	name  string
	topic string
}

// locationStrips restores the full table from workflow_extras.py: the
// lobby and server rooms each drive one strip, the main (lab) room drives
// three (north/south/middle), superseding the older two-room split in
// workflow.py.
func locationStrips(prefix string, loc Location) []lightStrip {
	switch loc {
	case LocationLobbyRoom:
		return []lightStrip{{"lobby", prefix + "/ledstrip/lobby"}}
	case LocationMainRoom:
		return []lightStrip{
			{"north", prefix + "/ledstrip/labroom/north"},
			{"south", prefix + "/ledstrip/labroom/south"},
			{"middle", prefix + "/ledstrip/labroom/middle"},
		}
	case LocationServerRoom:
		return []lightStrip{{"serverroom", prefix + "/ledstrip/serverroom"}}
	default:
		return nil
	}
}

// NewLightControl is a Combined over every strip in loc, publishing the
// same rgb/brightness/power triple to each.
func NewLightControl(name, topicPrefix string, loc Location, color RGB, brightness int, on bool) Node {
	strips := locationStrips(topicPrefix, loc)
	children := make([]Node, 0, len(strips))
	for _, s := range strips {
		children = append(children, NewSingleLight(name+" "+s.name, s.topic, color, brightness, on))
	}
	return NewCombined(name, children, false)
}
