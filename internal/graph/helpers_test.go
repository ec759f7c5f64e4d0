package graph_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// tickingClock advances one second per reading so updated_at ordering is
// deterministic.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testGraph struct {
	db         *graph.DB
	nodes      *graph.Nodes
	edges      *graph.Edges
	dimensions *graph.Dimensions
	resolver   *graph.Resolver
}

func newTestGraph(t *testing.T) *testGraph {
	t.Helper()
	clock := &tickingClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	db, err := graph.Open(context.Background(), graph.Options{
		Path:   filepath.Join(t.TempDir(), "graph.db"),
		Now:    clock.Now,
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	edges := graph.NewEdges(db)
	resolver := graph.NewResolver(edges, 0)
	return &testGraph{
		db:         db,
		nodes:      graph.NewNodes(db, resolver),
		edges:      edges,
		dimensions: graph.NewDimensions(db),
		resolver:   resolver,
	}
}

func (g *testGraph) mustNode(t *testing.T, p graph.CreateNodeParams) *graph.Node {
	t.Helper()
	n, err := g.nodes.Create(context.Background(), p)
	require.NoError(t, err)
	return n
}

func (g *testGraph) mustEdge(t *testing.T, from, to int64, explanation string) *graph.Edge {
	t.Helper()
	e, err := g.edges.Create(context.Background(), graph.CreateEdgeParams{
		FromNodeID:  from,
		ToNodeID:    to,
		Explanation: explanation,
	})
	require.NoError(t, err)
	return e
}

func ids(nodes []graph.Node) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
