package graph

import (
	"container/heap"
	"math"
)

// Path is a minimum-total-weight route between two nodes. Total is the
// sum of edge weights along Nodes.
type Path struct {
	Nodes []string `json:"nodes"`
	Total float64  `json:"total"`
}

// PathSet holds the result of a single-source Dijkstra run. One run
// answers reachability and minimum-weight paths from the source to every
// other node, which is what the pairwise search needs.
type PathSet struct {
	g      *Graph
	source int
	dist   []float64
	prev   []int
}

type queueItem struct {
	node int
	dist float64
}

// priority queue ordered by distance, ties broken by node index so the
// search is deterministic regardless of insertion order
type priorityQueue []queueItem

func (q priorityQueue) Len() int { return len(q) }

func (q priorityQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}

func (q priorityQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *priorityQueue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// ShortestPathsFrom runs Dijkstra from source and returns the resulting
// path set. Returns nil if source is not a node of the graph.
func (g *Graph) ShortestPathsFrom(source string) *PathSet {
	s, ok := g.index[source]
	if !ok {
		return nil
	}

	n := len(g.nodes)
	dist := make([]float64, n)
	prev := make([]int, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[s] = 0

	pq := priorityQueue{{node: s, dist: 0}}
	heap.Init(&pq)

	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(queueItem)
		if done[cur.node] {
			continue
		}
		done[cur.node] = true

		for _, e := range g.adj[cur.node] {
			alt := dist[cur.node] + e.weight
			if alt < dist[e.to] {
				dist[e.to] = alt
				prev[e.to] = cur.node
				heap.Push(&pq, queueItem{node: e.to, dist: alt})
			}
		}
	}

	return &PathSet{g: g, source: s, dist: dist, prev: prev}
}

// To returns the minimum-weight path from the set's source to target.
// The second return is false when target is unknown or unreachable; that
// is an expected outcome, not an error.
func (p *PathSet) To(target string) (Path, bool) {
	if p == nil {
		return Path{}, false
	}
	t, ok := p.g.index[target]
	if !ok || t == p.source || math.IsInf(p.dist[t], 1) {
		return Path{}, false
	}

	var rev []int
	for at := t; at != -1; at = p.prev[at] {
		rev = append(rev, at)
	}

	nodes := make([]string, len(rev))
	for i, idx := range rev {
		nodes[len(rev)-1-i] = p.g.nodes[idx]
	}

	return Path{Nodes: nodes, Total: p.dist[t]}, true
}

// FindPath returns the minimum-weight path between two nodes, or false
// when no directed path exists.
func (g *Graph) FindPath(source, target string) (Path, bool) {
	return g.ShortestPathsFrom(source).To(target)
}
