package workflow

// Combined has identical runtime behavior to Sequence but collapses its
// entire subtree to a single dashboard node, optionally wrapped in a
// nested group named "<name> routines". Used to operate a set of
// actuators as a single logical step (e.g. "turn on all lab room
// lights"). Grounded on CombinedWorkflow in workflow.py.
type Combined struct {
	*Sequence
	wrapParent bool
}

var _ Node = (*Combined)(nil)

// NewCombined wraps children in Sequence semantics with a collapsed
// graph export. wrapParent adds a "<name> routines" group node under the
// combined node, matching settings.wrap_parent in the original
// InitWorkflow/ExitWorkflow; the children are not exported in either case.
func NewCombined(name string, children []Node, wrapParent bool) *Combined {
	return &Combined{Sequence: NewSequence(name, children), wrapParent: wrapParent}
}

// NewInit is the InitWorkflow-equivalent: a Combined defaulting to
// wrap_parent=true.
func NewInit(name string, children []Node) *Combined {
	return NewCombined(name, children, true)
}

// NewExit is the ExitWorkflow-equivalent: a Combined defaulting to
// wrap_parent=true.
func NewExit(name string, children []Node) *Combined {
	return NewCombined(name, children, true)
}

// Graph overrides Sequence's linear threading: the whole subtree reports
// as one node, plus, when wrapParent is set, a single nested "<name>
// routines" placeholder group node — the children themselves are never
// expanded, so the subtree still collapses to one visible group on the
// dashboard.
func (c *Combined) Graph(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string) {
	node := GraphNode{
		ID: c.name, Name: c.name, Highlight: c.highlight,
		Status: string(c.state), Type: "Combined", Parent: parent,
	}
	nodes := []GraphNode{node}
	edges := createEdges(c.name, predecessors)

	if !c.wrapParent {
		return nodes, edges, []string{c.name}
	}

	groupID := c.name + " routines"
	group := GraphNode{ID: groupID, Name: groupID, Type: "Group", Parent: c.name}
	nodes = append(nodes, group)

	return nodes, edges, []string{c.name}
}
