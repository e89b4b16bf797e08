package definition

import (
	"time"

	"github.com/ubilab-escape/operator/internal/codec"
	"github.com/ubilab-escape/operator/internal/controller"
	"github.com/ubilab-escape/operator/internal/workflow"
)

const globesHintInterval = 20 * time.Second

// globesHint repeats a TTS nudge on ttsTopic every 20s while the globes
// puzzle is ACTIVE, restoring GlobesWorkflow's hint-timer behavior.
func globesHint(ttsTopic string) func(b workflow.Bus, name string, settings map[string]any) func() {
	return func(b workflow.Bus, name string, settings map[string]any) func() {
		ticker := time.NewTicker(globesHintInterval)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					ticker.Stop()
					return
				case <-ticker.C:
					payload := codec.Serialize(codec.Message{
						Method: codec.MethodMessage,
						Data:   map[string]any{"text": "Hint: " + name},
					})
					_ = b.Publish(ttsTopic, 2, false, payload)
				}
			}
		}()
		return func() { close(done) }
	}
}

// EscapeRoomDefinition is the one concrete Factory this rewrite ships:
// the puzzle graph of workflow_definition.py, restated over RoomConfig's
// topics instead of literals.
type EscapeRoomDefinition struct {
	cfg RoomConfig
}

var _ controller.Factory = (*EscapeRoomDefinition)(nil)

// New builds a factory bound to cfg.
func New(cfg RoomConfig) *EscapeRoomDefinition {
	return &EscapeRoomDefinition{cfg: cfg}
}

// Create builds the top-level room graph. participants defaults to 4
// when the caller's options don't set it, matching the original's
// settings['participants'] fallback.
func (d *EscapeRoomDefinition) Create(opts controller.GameOptions) []workflow.Node {
	participants := opts.Participants
	if participants == 0 {
		participants = 4
	}
	c := d.cfg

	return []workflow.Node{
		workflow.NewInit("Init", []workflow.Node{
			workflow.NewSendTrigger("Close lab room door", c.Doors.Entrance, codec.StateOff, nil),
			workflow.NewSendTrigger("Close server room door", c.Doors.Server, codec.StateOff, nil),
			workflow.NewSendTrigger("Deactivate laser", c.Puzzles.Laser, codec.StateOff, nil),
			workflow.NewSingleLight("Turn off light north", c.Lights.LabNorth, workflow.RGB{}, 0, false),
			workflow.NewSingleLight("Turn off light south", c.Lights.LabSouth, workflow.RGB{}, 0, false),
			workflow.NewSingleLight("Turn off light middle", c.Lights.LabMiddle, workflow.RGB{}, 0, false),
			workflow.NewSingleLight("Turn off light serverroom", c.Lights.ServerRoom, workflow.RGB{}, 0, false),
			workflow.NewSingleLight("Turn off light door server room", c.Lights.DoorServer, workflow.RGB{}, 0, false),
		}),

		workflow.NewLeaf("Input keypad code", c.Puzzles.Keypad, nil),

		workflow.NewSendTrigger("Open lab room door", c.Doors.Entrance, codec.StateOn, nil),

		workflow.NewHintedLeaf("Globes riddle", c.Puzzles.Globes, map[string]any{"data": participants}, globesHint(c.TTSTopic)),

		workflow.NewSingleLight("Turn on light north", c.Lights.LabNorth, workflow.RGB{255, 255, 255}, 255, true),
		workflow.NewSingleLight("Turn on light south", c.Lights.LabSouth, workflow.RGB{255, 255, 255}, 255, true),
		workflow.NewSingleLight("Turn on light middle", c.Lights.LabMiddle, workflow.RGB{255, 255, 255}, 255, true),

		workflow.NewParallel("Lab room", []workflow.Node{
			workflow.NewSequence("Solve safe", []workflow.Node{
				workflow.NewLeaf("Activate safe", c.Puzzles.SafeActivate, nil),
				workflow.NewLeaf("Open safe", c.Puzzles.SafeControl, nil),
				workflow.NewStatusToggleLeaf("Scale riddle", c.Puzzles.Scale, nil),
			}),
			workflow.NewSequence("Solve door riddle", []workflow.Node{
				workflow.NewSendTrigger("Activate laser", c.Puzzles.Laser, codec.StateOn, nil),
				workflow.NewParallel("Solve fuse box", []workflow.Node{
					workflow.NewLeaf("Redirect laser in fusebox", c.Puzzles.FuseLaser, nil),
					workflow.NewLeaf("First rewiring of fusebox", c.Puzzles.FuseRewiring0, nil),
					workflow.NewLeaf("Second rewiring of fusebox", c.Puzzles.FuseRewiring1, nil),
					workflow.NewLeaf("Set potentiometer of fusebox", c.Puzzles.FusePotentio, nil),
				}),
				workflow.NewSingleLight("Turn on light serverroom", c.Lights.ServerRoom, workflow.RGB{255, 255, 255}, 255, true),
				workflow.NewSingleLight("Turn on light door server room", c.Lights.DoorServer, workflow.RGB{255, 255, 255}, 255, true),
				workflow.NewLeaf("Control robot", c.Puzzles.Robot, nil),
				workflow.NewSendTrigger("Open server room door", c.Doors.Server, codec.StateOn, nil),
			}),
		}),

		workflow.NewParallel("Server room", []workflow.Node{
			workflow.NewLeaf("Terminal riddle", c.Puzzles.Terminal, nil),
			workflow.NewLeaf("Maze riddle", c.Puzzles.Maze, nil),
			workflow.NewLeaf("Simon riddle", c.Puzzles.Simon, nil),
		}),

		workflow.NewSendTrigger("Open escape room door", c.Doors.Entrance, codec.StateOn, nil),
	}
}
