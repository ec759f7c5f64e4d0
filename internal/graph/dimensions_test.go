package graph_test

import (
	"context"
	"testing"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionCreate(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	d, err := g.dimensions.Create(ctx, graph.CreateDimensionParams{Name: " research ", Description: "papers", IsPriority: true})
	require.NoError(t, err)
	assert.Equal(t, "research", d.Name)
	assert.Equal(t, "papers", d.Description)
	assert.True(t, d.IsPriority)
	assert.Zero(t, d.NodeCount)

	_, err = g.dimensions.Create(ctx, graph.CreateDimensionParams{Name: "research"})
	assert.ErrorIs(t, err, graph.ErrDuplicateName)

	_, err = g.dimensions.Create(ctx, graph.CreateDimensionParams{Name: "Research"})
	assert.ErrorIs(t, err, graph.ErrDuplicateName)

	_, err = g.dimensions.Create(ctx, graph.CreateDimensionParams{Name: "   "})
	assert.ErrorIs(t, err, graph.ErrValidation)
}

func TestDimensionList_PriorityFirstThenName(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()
	for _, p := range []graph.CreateDimensionParams{
		{Name: "zeta"}, {Name: "Alpha"}, {Name: "work", IsPriority: true}, {Name: "beta"},
	} {
		_, err := g.dimensions.Create(ctx, p)
		require.NoError(t, err)
	}
	g.mustNode(t, graph.CreateNodeParams{Title: "N", Dimensions: []string{"beta", "work"}})

	dims, err := g.dimensions.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, d := range dims {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"work", "Alpha", "beta", "zeta"}, names)
	assert.Equal(t, 1, dims[0].NodeCount)
	assert.Equal(t, 1, dims[2].NodeCount)
	assert.Zero(t, dims[1].NodeCount)
}

func TestDimensionUpdate_RenameCarriesAssociations(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()
	a := g.mustNode(t, graph.CreateNodeParams{Title: "A", Dimensions: []string{"ml", "other"}})
	b := g.mustNode(t, graph.CreateNodeParams{Title: "B", Dimensions: []string{"ml"}})

	d, err := g.dimensions.Update(ctx, graph.UpdateDimensionParams{
		CurrentName: "ml",
		NewName:     ptr("machine-learning"),
		Description: ptr("models"),
	})
	require.NoError(t, err)
	assert.Equal(t, "machine-learning", d.Name)
	assert.Equal(t, "models", d.Description)
	assert.Equal(t, 2, d.NodeCount)

	_, err = g.dimensions.Get(ctx, "ml")
	assert.ErrorIs(t, err, graph.ErrNotFound)

	got, err := g.nodes.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"machine-learning", "other"}, got.Dimensions)
	got, err = g.nodes.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"machine-learning"}, got.Dimensions)
}

func TestDimensionUpdate_CaseOnlyRename(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()
	g.mustNode(t, graph.CreateNodeParams{Title: "A", Dimensions: []string{"ai"}})

	d, err := g.dimensions.Update(ctx, graph.UpdateDimensionParams{CurrentName: "ai", NewName: ptr("AI")})
	require.NoError(t, err)
	assert.Equal(t, "AI", d.Name)
	assert.Equal(t, 1, d.NodeCount)
}

func TestDimensionUpdate_RenameRejectsCaseInsensitiveCollision(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()
	n := g.mustNode(t, graph.CreateNodeParams{Title: "N", Dimensions: []string{"ai", "ML"}})

	_, err := g.dimensions.Update(ctx, graph.UpdateDimensionParams{CurrentName: "ML", NewName: ptr("AI")})
	assert.ErrorIs(t, err, graph.ErrDuplicateName)

	_, err = g.dimensions.Update(ctx, graph.UpdateDimensionParams{CurrentName: "ML", NewName: ptr("Ärger")})
	require.NoError(t, err)
	_, err = g.dimensions.Update(ctx, graph.UpdateDimensionParams{CurrentName: "ai", NewName: ptr("ärger")})
	assert.ErrorIs(t, err, graph.ErrDuplicateName)

	got, err := g.nodes.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ai", "Ärger"}, got.Dimensions)
}

func TestDimensionUpdate_Errors(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()
	for _, name := range []string{"one", "two"} {
		_, err := g.dimensions.Create(ctx, graph.CreateDimensionParams{Name: name})
		require.NoError(t, err)
	}
	n := g.mustNode(t, graph.CreateNodeParams{Title: "N", Dimensions: []string{"one"}})

	_, err := g.dimensions.Update(ctx, graph.UpdateDimensionParams{CurrentName: "one", NewName: ptr("two")})
	assert.ErrorIs(t, err, graph.ErrDuplicateName)

	_, err = g.dimensions.Update(ctx, graph.UpdateDimensionParams{CurrentName: "missing", NewName: ptr("x")})
	assert.ErrorIs(t, err, graph.ErrNotFound)

	_, err = g.dimensions.Update(ctx, graph.UpdateDimensionParams{CurrentName: "one", NewName: ptr(" ")})
	assert.ErrorIs(t, err, graph.ErrValidation)

	got, err := g.nodes.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, got.Dimensions)
}

func TestDimensionUpdate_PriorityOnly(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()
	_, err := g.dimensions.Create(ctx, graph.CreateDimensionParams{Name: "focus", Description: "keep"})
	require.NoError(t, err)

	d, err := g.dimensions.Update(ctx, graph.UpdateDimensionParams{CurrentName: "focus", IsPriority: ptr(true)})
	require.NoError(t, err)
	assert.True(t, d.IsPriority)
	assert.Equal(t, "keep", d.Description)
}

func TestDimensionDelete_KeepsNodes(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()
	n := g.mustNode(t, graph.CreateNodeParams{Title: "Tagged", Dimensions: []string{"gone", "stay"}})

	require.NoError(t, g.dimensions.Delete(ctx, "gone"))

	got, err := g.nodes.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"stay"}, got.Dimensions)
	assert.Equal(t, n.UpdatedAt, got.UpdatedAt)

	assert.ErrorIs(t, g.dimensions.Delete(ctx, "gone"), graph.ErrNotFound)
}

func TestDimensionTogglePriority(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()
	_, err := g.dimensions.Create(ctx, graph.CreateDimensionParams{Name: "flip"})
	require.NoError(t, err)

	d, err := g.dimensions.TogglePriority(ctx, "flip")
	require.NoError(t, err)
	assert.True(t, d.IsPriority)

	d, err = g.dimensions.TogglePriority(ctx, "flip")
	require.NoError(t, err)
	assert.False(t, d.IsPriority)

	_, err = g.dimensions.TogglePriority(ctx, "nope")
	assert.ErrorIs(t, err, graph.ErrNotFound)
}
