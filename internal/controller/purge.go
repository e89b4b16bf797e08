package controller

import (
	"os/exec"
)

// Purger deletes retained broker state between sessions. Its interface
// is part of the core contract; its implementation is an external
// collaborator (the broker itself performs the deletion) and is
// deliberately swappable.
type Purger interface {
	Purge()
}

// NoopPurger is used in tests and for brokers that don't need purging
// (e.g. the in-process MemoryBus, which holds no retained state at all).
type NoopPurger struct{}

func (NoopPurger) Purge() {}

// ExecPurger shells out to a broker-side retained-message eraser,
// grounded on the original's subprocess.Popen call to mosquitto_sub
// with --remove-retained --retained-only, excluding the control and
// options topics so a running session's intent survives a purge.
type ExecPurger struct {
	BinPath string
	Host    string
}

func (p ExecPurger) Purge() {
	if p.BinPath == "" {
		return
	}
	cmd := exec.Command(p.BinPath,
		"-h", p.Host,
		"-t", "#",
		"-T", "op/gameControl",
		"-T", "op/gameOptions",
		"--remove-retained",
		"--retained-only",
	)
	_ = cmd.Start()
}
