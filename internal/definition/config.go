// Package definition provides the one shipped Factory implementation:
// the escape-room puzzle graph of workflow_definition.py, parameterized
// by a YAML room-topology document instead of hard-coded topic
// strings.
package definition

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ubilab-escape/operator/internal/controller"
)

// RoomConfig is the YAML document describing the MQTT topic prefix, the
// puzzle topics for each room, and the default game options. It
// parameterizes the one concrete Factory this rewrite ships, in place
// of the original's hard-coded WorkflowDefinition.create().
type RoomConfig struct {
	TopicPrefix string `yaml:"topicPrefix"`

	Doors struct {
		Entrance string `yaml:"entrance"`
		Server   string `yaml:"server"`
	} `yaml:"doors"`

	Lights struct {
		LabNorth     string `yaml:"labNorth"`
		LabSouth     string `yaml:"labSouth"`
		LabMiddle    string `yaml:"labMiddle"`
		ServerRoom   string `yaml:"serverRoom"`
		DoorServer   string `yaml:"doorServerRoom"`
	} `yaml:"lights"`

	Puzzles struct {
		Keypad          string `yaml:"keypad"`
		Globes          string `yaml:"globes"`
		SafeActivate    string `yaml:"safeActivate"`
		SafeControl     string `yaml:"safeControl"`
		Scale           string `yaml:"scale"`
		Laser           string `yaml:"laser"`
		FuseLaser       string `yaml:"fuseLaser"`
		FuseRewiring0   string `yaml:"fuseRewiring0"`
		FuseRewiring1   string `yaml:"fuseRewiring1"`
		FusePotentio    string `yaml:"fusePotentiometer"`
		Robot           string `yaml:"robot"`
		Terminal        string `yaml:"terminal"`
		Maze            string `yaml:"maze"`
		Simon           string `yaml:"simon"`
	} `yaml:"puzzles"`

	TTSTopic string `yaml:"ttsTopic"`

	DefaultOptions controller.GameOptions `yaml:"defaultOptions"`
}

// Load reads and parses a RoomConfig from path.
func Load(path string) (RoomConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RoomConfig{}, fmt.Errorf("read workflow config: %w", err)
	}
	var cfg RoomConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return RoomConfig{}, fmt.Errorf("parse workflow config: %w", err)
	}
	return cfg, nil
}
