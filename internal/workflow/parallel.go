package workflow

// Parallel runs all children concurrently: every child is subscribed in
// one pass, then executed in declaration order. It finishes once every
// child has reported finished. Grounded on ParallelWorkflow in
// workflow.py.
type Parallel struct {
	base

	children []Node
	finished map[string]bool
	bus      Bus
}

var _ Node = (*Parallel)(nil)
var _ hooks = (*Parallel)(nil)

// NewParallel builds a parallel composite over children.
func NewParallel(name string, children []Node) *Parallel {
	p := &Parallel{children: children, finished: make(map[string]bool, len(children))}
	p.base = newBase(name, "Parallel", nil, p)
	return p
}

func (p *Parallel) execute(b Bus) {
	p.bus = b
	for _, c := range p.children {
		p.finished[c.Name()] = false
		c.RegisterOnFinished(func(name string) { p.onChildFinished(name) })
		c.RegisterOnFailed(func(name, errText string) { p.fail(name, errText) })
	}
	for _, c := range p.children {
		c.Execute(b)
	}
}

func (p *Parallel) onChildFinished(name string) {
	if p.state == StateSkipped || p.state == StateFinished {
		return
	}
	p.finished[name] = true
	for _, done := range p.finished {
		if !done {
			return
		}
	}
	p.fireFinished(false)
}

func (p *Parallel) dispose(b Bus) {
	for _, c := range p.children {
		c.Dispose(b)
	}
	p.state = StateInactive
}

func (p *Parallel) message(topic string, payload []byte) {
	for _, c := range p.children {
		c.OnMessage(topic, payload)
	}
}

func (p *Parallel) skipChildren(name string, selfSkipped bool) {
	for _, c := range p.children {
		if selfSkipped {
			c.Skip(c.Name())
		} else {
			c.Skip(name)
		}
	}
}

func (p *Parallel) finishing(skipped bool) {}

func (p *Parallel) graphSelf(predecessors []string, parent string) ([]GraphNode, []GraphEdge, []string) {
	node := GraphNode{
		ID: p.name, Name: p.name, Highlight: p.highlight,
		Status: string(p.state), Type: p.typ, Parent: parent,
	}
	nodes := []GraphNode{node}
	edges := createEdges(p.name, predecessors)

	for _, c := range p.children {
		cn, ce, _ := c.Graph(nil, p.name)
		nodes = append(nodes, cn...)
		edges = append(edges, ce...)
	}
	return nodes, edges, []string{p.name}
}
