// Package graph implements the directed weighted relationship graph
// derived from a transaction dataset, and shortest-path search over it.
package graph

// Edge is a directed weighted edge between two entities. When several
// transactions share the same (source, target) pair their amounts are
// summed and the latest timestamp is retained.
type Edge struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Weight    float64 `json:"weight"`
	Timestamp float64 `json:"timestamp"`
}

type halfEdge struct {
	to        int
	weight    float64
	timestamp float64
}

// Graph is a directed weighted graph over entity identifiers. Nodes are
// kept in first-seen insertion order so that iteration is deterministic.
type Graph struct {
	nodes []string
	index map[string]int

	// adjacency in edge insertion order per node
	adj [][]*halfEdge

	// (from, to) -> position in adj[from], for weight accumulation
	edgeAt map[[2]int]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index:  make(map[string]int),
		edgeAt: make(map[[2]int]int),
	}
}

func (g *Graph) node(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.index[id] = i
	g.adj = append(g.adj, nil)
	return i
}

// AddEdge records a transaction from source to target. Repeated edges on
// the same pair accumulate weight and keep the most recent timestamp.
func (g *Graph) AddEdge(source, target string, weight, timestamp float64) {
	u := g.node(source)
	v := g.node(target)

	key := [2]int{u, v}
	if pos, ok := g.edgeAt[key]; ok {
		e := g.adj[u][pos]
		e.weight += weight
		if timestamp > e.timestamp {
			e.timestamp = timestamp
		}
		return
	}

	g.adj[u] = append(g.adj[u], &halfEdge{to: v, weight: weight, timestamp: timestamp})
	g.edgeAt[key] = len(g.adj[u]) - 1
}

// Nodes returns the node identifiers in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct directed edges.
func (g *Graph) EdgeCount() int { return len(g.edgeAt) }

// EdgeWeight returns the accumulated weight of the (source, target) edge.
func (g *Graph) EdgeWeight(source, target string) (float64, bool) {
	u, ok := g.index[source]
	if !ok {
		return 0, false
	}
	v, ok := g.index[target]
	if !ok {
		return 0, false
	}
	pos, ok := g.edgeAt[[2]int{u, v}]
	if !ok {
		return 0, false
	}
	return g.adj[u][pos].weight, true
}

// Edges returns every directed edge in node insertion order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for u, list := range g.adj {
		for _, e := range list {
			out = append(out, Edge{
				From:      g.nodes[u],
				To:        g.nodes[e.to],
				Weight:    e.weight,
				Timestamp: e.timestamp,
			})
		}
	}
	return out
}
