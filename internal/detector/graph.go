package detector

import (
	"context"
	"fmt"
	"sync"

	"github.com/opensource-finance/harrier/internal/dataset"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/graph"
)

const defaultGraphWorkers = 8

// GraphFraudDetector searches the relationship graph for high-value
// chains: for every ordered pair of distinct nodes connected by a
// directed path, it takes the minimum-total-weight path and reports it
// when the summed amount exceeds the configured minimum.
//
// Using the minimum-weight path to find high totals means every reported
// pair's cheapest route already exceeds the limit; the behavior is kept
// for compatibility with the historical detector.
type GraphFraudDetector struct {
	minPathAmount float64
	workers       int
}

// NewGraphFraudDetector creates a graph detector. Workers bounds the
// concurrent single-source searches; pass 0 for the default.
func NewGraphFraudDetector(minPathAmount float64, workers int) (*GraphFraudDetector, error) {
	if minPathAmount < 0 {
		return nil, domain.NewConfigurationError("detector.minPathAmount", "minimum path amount must be >= 0, got %g", minPathAmount)
	}
	if workers <= 0 {
		workers = defaultGraphWorkers
	}
	return &GraphFraudDetector{minPathAmount: minPathAmount, workers: workers}, nil
}

// Name returns the detector's display name.
func (d *GraphFraudDetector) Name() string {
	return fmt.Sprintf("Graph Dijkstra Detector (min_path_amount=%g)", d.minPathAmount)
}

// NeedsSignal reports that the detector consumes the dataset directly.
func (d *GraphFraudDetector) NeedsSignal() bool { return false }

// Detect runs the pairwise shortest-path search. Each source node is an
// independent single-source Dijkstra run, so sources are fanned out to a
// bounded worker pool; results are assembled in node insertion order, so
// the output is deterministic regardless of scheduling. Node pairs with
// no connecting path are skipped silently.
func (d *GraphFraudDetector) Detect(ctx context.Context, _ []float64, ds *dataset.Dataset) (*domain.AnomalyResult, error) {
	g := ds.BuildGraph()
	nodes := g.Nodes()

	perSource := make([][]domain.SuspiciousPath, len(nodes))

	workers := d.workers
	if workers > len(nodes) {
		workers = len(nodes)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				perSource[u] = d.searchFrom(g, nodes, u)
			}
		}()
	}

feed:
	for u := range nodes {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- u:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	suspicious := []domain.SuspiciousPath{}
	for _, paths := range perSource {
		suspicious = append(suspicious, paths...)
	}

	return &domain.AnomalyResult{
		Kind:  domain.KindGraph,
		Graph: &domain.GraphResult{SuspiciousPaths: suspicious},
	}, nil
}

// searchFrom enumerates targets in node order for one source.
func (d *GraphFraudDetector) searchFrom(g *graph.Graph, nodes []string, u int) []domain.SuspiciousPath {
	paths := g.ShortestPathsFrom(nodes[u])

	var out []domain.SuspiciousPath
	for v, target := range nodes {
		if v == u {
			continue
		}
		path, ok := paths.To(target)
		if !ok {
			continue
		}
		if path.Total > d.minPathAmount {
			out = append(out, domain.SuspiciousPath{Path: path.Nodes, TotalAmount: path.Total})
		}
	}
	return out
}
