package workflow

import "strings"

// Sequence runs its children one at a time in declaration order. Grounded
// on SequenceWorkflow in workflow.py.
type Sequence struct {
	base

	children []Node
	current  int
	bus      Bus
}

var _ Node = (*Sequence)(nil)
var _ hooks = (*Sequence)(nil)

// NewSequence builds a sequence over children, executed in order.
func NewSequence(name string, children []Node) *Sequence {
	s := &Sequence{children: children}
	s.base = newBase(name, "Sequence", nil, s)
	return s
}

func (s *Sequence) execute(b Bus) {
	s.bus = b
	s.current = 0
	s.runCurrent()
}

func (s *Sequence) runCurrent() {
	if s.current >= len(s.children) {
		s.fireFinished(false)
		return
	}
	child := s.children[s.current]
	child.RegisterOnFinished(func(name string) { s.onChildFinished() })
	child.RegisterOnFailed(func(name, errText string) { s.fail(name, errText) })
	child.Execute(s.bus)
}

func (s *Sequence) onChildFinished() {
	if s.state == StateSkipped || s.state == StateFinished {
		// A self-skip cascade already marked us terminal; the current
		// child's finish is just that cascade unwinding, not forward
		// progress, so don't advance into the next child.
		return
	}
	child := s.children[s.current]
	child.Dispose(s.bus)
	s.current++
	s.runCurrent()
}

func (s *Sequence) dispose(b Bus) {
	if s.current < len(s.children) {
		s.children[s.current].Dispose(b)
	}
	s.state = StateInactive
}

func (s *Sequence) message(topic string, payload []byte) {
	if s.current < len(s.children) {
		s.children[s.current].OnMessage(topic, payload)
	}
}

// skipChildren cascades per spec.md §4.3: a self-match propagates a
// self-skip to every child; otherwise the original name is forwarded so a
// deeper descendant can be targeted.
func (s *Sequence) skipChildren(name string, selfSkipped bool) {
	for _, c := range s.children {
		if selfSkipped {
			c.Skip(c.Name())
		} else {
			c.Skip(name)
		}
	}
}

func (s *Sequence) finishing(skipped bool) {}

func (s *Sequence) graphSelf(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string) {
	node := GraphNode{
		ID: s.name, Name: s.name, Highlight: s.highlight,
		Status: string(s.state), Type: s.typ, Parent: parent,
	}
	nodes := []GraphNode{node}
	edges := createEdges(s.name, predecessors)

	var preds []string
	for _, c := range s.children {
		cn, ce, finals := c.Graph(preds, s.name)
		nodes = append(nodes, cn...)
		edges = append(edges, ce...)
		preds = finals
	}
	return nodes, edges, []string{s.name}
}

// stripPrefix trims a case-insensitive leading prefix and the whitespace
// after it, returning s unchanged when the prefix is absent.
func stripPrefix(s, prefix string) string {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s
	}
	return strings.TrimSpace(s[len(prefix):])
}
