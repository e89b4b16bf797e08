package controller

import "github.com/ubilab-escape/operator/internal/workflow"

// Factory builds the top-level list of workflow nodes for a session,
// parameterized by the current game options. The controller wraps the
// returned nodes in its own root Sequence.
type Factory interface {
	Create(opts GameOptions) []workflow.Node
}

// FactoryFunc adapts a bare function to Factory.
type FactoryFunc func(opts GameOptions) []workflow.Node

func (f FactoryFunc) Create(opts GameOptions) []workflow.Node { return f(opts) }
