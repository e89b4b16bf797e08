package workflow

// GraphNode and GraphEdge mirror the cytoscape-style JSON the dashboard
// renders: {nodes: [...], edges: [...]}, one node per workflow and one
// edge per predecessor->successor relationship. Field order matches the
// Python-era graph fixtures so dashboard snapshots diff cleanly.
type GraphNode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Highlight    bool   `json:"highlight"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	Parent       string `json:"parent,omitempty"`
	Topic        string `json:"topic,omitempty"`
	MessageState string `json:"messageState,omitempty"`
	Message      string `json:"message,omitempty"`
}

type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type nodeWrapper struct {
	Data GraphNode `json:"data"`
}

type edgeWrapper struct {
	Data GraphEdge `json:"data"`
}

// Snapshot is the top-level {nodes, edges} document published on the
// gameState topic and served by the dashboard.
type Snapshot struct {
	Nodes []nodeWrapper `json:"nodes"`
	Edges []edgeWrapper `json:"edges"`
}

func wrapNodes(nodes []GraphNode) []nodeWrapper {
	out := make([]nodeWrapper, len(nodes))
	for i, n := range nodes {
		out[i] = nodeWrapper{Data: n}
	}
	return out
}

func wrapEdges(edges []GraphEdge) []edgeWrapper {
	out := make([]edgeWrapper, len(edges))
	for i, e := range edges {
		out[i] = edgeWrapper{Data: e}
	}
	return out
}

// BuildSnapshot renders the full graph rooted at root.
func BuildSnapshot(root Node) Snapshot {
	nodes, edges, _ := root.Graph(nil, "")
	return Snapshot{Nodes: wrapNodes(nodes), Edges: wrapEdges(edges)}
}

// createEdges builds one edge per predecessor feeding into target.
func createEdges(target string, predecessors []string) []GraphEdge {
	if len(predecessors) == 0 {
		return nil
	}
	edges := make([]GraphEdge, 0, len(predecessors))
	for _, pred := range predecessors {
		edges = append(edges, GraphEdge{
			ID:     pred + "->" + target,
			Source: pred,
			Target: target,
		})
	}
	return edges
}
