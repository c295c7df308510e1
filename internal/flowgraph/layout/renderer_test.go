package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracemoney/tracemoney/internal/flowgraph"
)

func edgeSet(edges []flowgraph.Edge) map[[2]int]bool {
	out := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		out[[2]int{e.Source, e.Target}] = true
	}
	return out
}

func linkSet(links []Link) map[[2]int]bool {
	out := make(map[[2]int]bool, len(links))
	for _, l := range links {
		out[[2]int{l.Source, l.Target}] = true
	}
	return out
}

func TestRendererNilGraphDrawsNothing(t *testing.T) {
	r := NewRenderer(Options{})
	scene, err := r.Render(nil, Viewport{Width: 640, Height: 480})
	require.NoError(t, err)
	assert.True(t, scene.Empty())

	scene, err = r.Toggle(3)
	require.NoError(t, err)
	assert.True(t, scene.Empty())
	assert.NotNil(t, scene.Nodes)
	assert.NotNil(t, scene.Links)
}

func TestRendererCollapseRemovesOutgoingEdges(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	r := NewRenderer(Options{})
	_, err := r.Render(&g, Viewport{Width: 1000, Height: 600})
	require.NoError(t, err)

	before := edgeSet(r.ActiveEdges())
	scene, err := r.Toggle(flowgraph.NodeGrossProfit)
	require.NoError(t, err)
	after := linkSet(scene.Links)

	for key := range before {
		if key[0] == flowgraph.NodeGrossProfit {
			assert.False(t, after[key], "edge %v should be hidden", key)
		} else {
			assert.True(t, after[key], "edge %v should remain", key)
		}
	}
	assert.Len(t, scene.Links, len(g.Edges)-2)
	assert.True(t, after[[2]int{flowgraph.NodeRevenue, flowgraph.NodeGrossProfit}], "incoming edge kept")

	n, ok := scene.Node(flowgraph.NodeGrossProfit)
	require.True(t, ok)
	assert.True(t, n.Collapsed)
	assert.True(t, r.Collapsed(flowgraph.NodeGrossProfit))
}

func TestRendererExpandRestoresAllEdges(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	r := NewRenderer(Options{})
	_, err := r.Render(&g, Viewport{Width: 1000, Height: 600})
	require.NoError(t, err)

	_, err = r.Toggle(flowgraph.NodeRevenue)
	require.NoError(t, err)
	_, err = r.Toggle(flowgraph.NodeOperatingCashFlow)
	require.NoError(t, err)
	require.Len(t, r.ActiveEdges(), len(g.Edges)-4)

	scene, err := r.Toggle(flowgraph.NodeOperatingCashFlow)
	require.NoError(t, err)
	assert.Equal(t, edgeSet(g.Edges), linkSet(scene.Links))
	assert.Len(t, scene.Links, len(g.Edges))
	assert.True(t, r.Collapsed(flowgraph.NodeRevenue), "other flags are left alone")
	assert.False(t, r.Collapsed(flowgraph.NodeOperatingCashFlow))
}

func TestRendererDoesNotMutateGraph(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	original := g.Clone()
	r := NewRenderer(Options{})
	_, err := r.Render(&g, Viewport{Width: 1000, Height: 600})
	require.NoError(t, err)
	_, err = r.Toggle(flowgraph.NodeRevenue)
	require.NoError(t, err)
	if diff := cmp.Diff(original, g); diff != "" {
		t.Fatalf("graph mutated (-want +got):\n%s", diff)
	}
}

func TestRendersAreIndependent(t *testing.T) {
	g := flowgraph.BuildSimplified(referenceSnapshot)
	a := NewRenderer(Options{})
	b := NewRenderer(Options{})
	vp := Viewport{Width: 500, Height: 400}
	_, err := a.Render(&g, vp)
	require.NoError(t, err)
	_, err = b.Render(&g, vp)
	require.NoError(t, err)

	_, err = a.Toggle(flowgraph.NodeRevenue)
	require.NoError(t, err)
	assert.False(t, b.Collapsed(flowgraph.NodeRevenue))
	assert.Len(t, b.ActiveEdges(), len(g.Edges))
}

func TestRendererRelayoutIsIdempotent(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	r := NewRenderer(Options{})
	first, err := r.Render(&g, Viewport{Width: 1000, Height: 600})
	require.NoError(t, err)
	second, err := r.Relayout()
	require.NoError(t, err)
	if diff := cmp.Diff(first.Nodes, second.Nodes); diff != "" {
		t.Fatalf("boxes changed (-first +second):\n%s", diff)
	}
}

func TestRendererCollapsedFlagsSurviveRerender(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	r := NewRenderer(Options{})
	vp := Viewport{Width: 1000, Height: 600}
	_, err := r.Render(&g, vp)
	require.NoError(t, err)
	_, err = r.Toggle(flowgraph.NodeNetIncome)
	require.NoError(t, err)

	next := flowgraph.Build(flowgraph.Snapshot{Revenue: 400, NetIncome: 40})
	scene, err := r.Render(&next, vp)
	require.NoError(t, err)
	assert.False(t, linkSet(scene.Links)[[2]int{flowgraph.NodeNetIncome, flowgraph.NodeOperatingCashFlow}])
	n, _ := scene.Node(flowgraph.NodeNetIncome)
	assert.True(t, n.Collapsed)

	r.Reset()
	scene, err = r.Relayout()
	require.NoError(t, err)
	assert.Len(t, scene.Links, len(next.Edges))
}

func TestRendererUnknownNode(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	r := NewRenderer(Options{})
	_, err := r.Render(&g, Viewport{})
	require.NoError(t, err)
	_, err = r.Toggle(42)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestReplay(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	scene, r, err := Replay(&g, Viewport{Width: 1000, Height: 600}, []int{flowgraph.NodeRevenue, flowgraph.NodeRevenue}, Options{})
	require.NoError(t, err)
	assert.Len(t, scene.Links, len(g.Edges))
	assert.False(t, r.Collapsed(flowgraph.NodeRevenue))

	_, _, err = Replay(&g, Viewport{}, []int{-1}, Options{})
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestStateRestoreMatchesReplay(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	vp := Viewport{Width: 1000, Height: 600}
	sequences := [][]int{
		nil,
		{flowgraph.NodeNetIncome},
		{flowgraph.NodeNetIncome, flowgraph.NodeRevenue, flowgraph.NodeRevenue},
		{flowgraph.NodeGrossProfit, flowgraph.NodeRevenue, flowgraph.NodeNetIncome},
		{0, 1, 2, 3, 1, 4, 5, 0},
	}
	for _, toggles := range sequences {
		want, replayed, err := Replay(&g, vp, toggles, Options{})
		require.NoError(t, err)

		restored := NewRenderer(Options{})
		got, err := restored.Restore(&g, vp, replayed.State())
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("toggles %v: restored scene differs (-replay +restore):\n%s", toggles, diff)
		}
		assert.Equal(t, replayed.State(), restored.State())
	}
}

func TestStateToggleMatchesRenderer(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	r := NewRenderer(Options{})
	_, err := r.Render(&g, Viewport{Width: 800, Height: 500})
	require.NoError(t, err)

	state := r.State()
	for i := 0; i < 70; i++ {
		id := []int{flowgraph.NodeRevenue, flowgraph.NodeNetIncome, flowgraph.NodeRevenue}[i%3]
		state = state.Toggle(id)
		_, err := r.Toggle(id)
		require.NoError(t, err)
		require.Equal(t, r.State(), state, "after %d toggles", i+1)
	}
	assert.LessOrEqual(t, len(state.Collapsed), len(g.Nodes))
}

func TestRestoreCollapsedButExpandedEdges(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	r := NewRenderer(Options{})
	scene, err := r.Restore(&g, Viewport{Width: 800, Height: 500}, State{Collapsed: []int{flowgraph.NodeNetIncome}})
	require.NoError(t, err)
	assert.Len(t, scene.Links, len(g.Edges))
	assert.True(t, r.Collapsed(flowgraph.NodeNetIncome))

	scene, err = r.Toggle(flowgraph.NodeNetIncome)
	require.NoError(t, err)
	assert.Len(t, scene.Links, len(g.Edges), "expand keeps every edge")
	assert.True(t, r.State().Empty())
}

func TestRestoreRejectsBadState(t *testing.T) {
	g := flowgraph.Build(referenceSnapshot)
	r := NewRenderer(Options{})

	_, err := r.Restore(&g, Viewport{}, State{Collapsed: []int{99}})
	assert.ErrorIs(t, err, ErrUnknownNode)

	_, err = r.Restore(&g, Viewport{}, State{Hidden: []int{flowgraph.NodeRevenue}})
	assert.ErrorIs(t, err, ErrInvalidState)

	scene, err := r.Restore(nil, Viewport{}, State{Collapsed: []int{99}})
	require.NoError(t, err)
	assert.True(t, scene.Empty())
}
