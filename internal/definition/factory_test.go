package definition

import (
	"testing"

	"github.com/ubilab-escape/operator/internal/controller"
)

func testConfig() RoomConfig {
	cfg := RoomConfig{TopicPrefix: "op"}
	cfg.Doors.Entrance = "4/door/entrance"
	cfg.Doors.Server = "4/door/server"
	cfg.Lights.LabNorth = "2/ledstrip/labroom/north"
	cfg.Lights.LabSouth = "2/ledstrip/labroom/south"
	cfg.Lights.LabMiddle = "2/ledstrip/labroom/middle"
	cfg.Lights.ServerRoom = "2/ledstrip/serverroom"
	cfg.Lights.DoorServer = "2/ledstrip/doorserverroom"
	cfg.Puzzles.Keypad = "4/puzzle"
	cfg.Puzzles.Globes = "4/globes"
	cfg.Puzzles.SafeActivate = "5/safe/activate"
	cfg.Puzzles.SafeControl = "5/safe/control"
	cfg.Puzzles.Scale = "6/puzzle/scale"
	cfg.Puzzles.Laser = "7/laser"
	cfg.Puzzles.FuseLaser = "7/fusebox/laserDetection"
	cfg.Puzzles.FuseRewiring0 = "7/fusebox/rewiring0"
	cfg.Puzzles.FuseRewiring1 = "7/fusebox/rewiring1"
	cfg.Puzzles.FusePotentio = "7/fusebox/potentiometer"
	cfg.Puzzles.Robot = "7/robot"
	cfg.Puzzles.Terminal = "6/puzzle/terminal"
	cfg.Puzzles.Maze = "8/puzzle/maze"
	cfg.Puzzles.Simon = "8/puzzle/simon"
	cfg.TTSTopic = "2/textToSpeech"
	return cfg
}

func TestCreateBuildsTopLevelRoomGraph(t *testing.T) {
	f := New(testConfig())
	nodes := f.Create(controller.GameOptions{Duration: 30, Participants: 6})

	wantNames := []string{
		"Init", "Input keypad code", "Open lab room door", "Globes riddle",
		"Turn on light north", "Turn on light south", "Turn on light middle",
		"Lab room", "Server room", "Open escape room door",
	}
	if len(nodes) != len(wantNames) {
		t.Fatalf("expected %d top-level nodes, got %d", len(wantNames), len(nodes))
	}
	for i, name := range wantNames {
		if nodes[i].Name() != name {
			t.Fatalf("node %d: got %q want %q", i, nodes[i].Name(), name)
		}
	}
}

func TestCreateDefaultsParticipantsToFour(t *testing.T) {
	f := New(testConfig())
	nodes := f.Create(controller.GameOptions{Duration: 30})
	globes := nodes[3]
	settings := globes.Settings()
	if settings["data"] != 4 {
		t.Fatalf("expected default participants=4, got %+v", settings)
	}
}
