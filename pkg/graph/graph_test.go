package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(source, target string) Edge {
	return Edge{ID: "edge-" + source + "-" + target, Source: source, Target: target}
}

func TestTopologicalSort_LinearChain(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b", "c"},
		[]Edge{edge("a", "b"), edge("b", "c")},
	)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopologicalSort_Diamond(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b", "c", "d"},
		[]Edge{edge("a", "b"), edge("a", "c"), edge("b", "d"), edge("c", "d")},
	)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, order, 4)

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	assert.Less(t, position["a"], position["b"])
	assert.Less(t, position["a"], position["c"])
	assert.Less(t, position["b"], position["d"])
	assert.Less(t, position["c"], position["d"])
}

func TestTopologicalSort_CycleReturnsError(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b", "c"},
		[]Edge{edge("a", "b"), edge("b", "c"), edge("c", "a")},
	)

	_, err := g.TopologicalSort()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestBackEdges_SelfLoop(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b"},
		[]Edge{edge("a", "b"), edge("b", "b")},
	)

	backEdges := g.BackEdges()
	require.Len(t, backEdges, 1)
	assert.Equal(t, "b", backEdges[0].Source)
	assert.Equal(t, "b", backEdges[0].Target)
}

func TestBackEdges_LoopShape(t *testing.T) {
	g := FromEdges(
		[]string{"start", "entry", "body", "end"},
		[]Edge{
			edge("start", "entry"),
			edge("entry", "body"),
			edge("body", "entry"),
			edge("entry", "end"),
		},
	)

	backEdges := g.BackEdges()
	require.Len(t, backEdges, 1)
	assert.Equal(t, "body", backEdges[0].Source)
	assert.Equal(t, "entry", backEdges[0].Target)
}

func TestBackEdges_AcyclicGraphHasNone(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b", "c", "d"},
		[]Edge{edge("a", "b"), edge("a", "c"), edge("b", "d"), edge("c", "d")},
	)

	assert.Empty(t, g.BackEdges())
}

func TestStronglyConnectedComponents_DiscardsSingletons(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b", "c", "d"},
		[]Edge{edge("a", "b"), edge("b", "c"), edge("c", "b"), edge("c", "d")},
	)

	components := g.StronglyConnectedComponents()
	require.Len(t, components, 1)
	assert.ElementsMatch(t, []string{"b", "c"}, components[0])
}

func TestStronglyConnectedComponents_TwoCycles(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b", "c", "d", "e"},
		[]Edge{
			edge("a", "b"), edge("b", "a"),
			edge("b", "c"),
			edge("c", "d"), edge("d", "e"), edge("e", "c"),
		},
	)

	components := g.StronglyConnectedComponents()
	require.Len(t, components, 2)
}

func TestWithoutEdges_RemovesBackEdge(t *testing.T) {
	g := FromEdges(
		[]string{"entry", "body"},
		[]Edge{edge("entry", "body"), edge("body", "entry")},
	)

	stripped := g.WithoutEdges(map[string]bool{"edge-body-entry": true})

	order, err := stripped.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"entry", "body"}, order)
	assert.Equal(t, 1, stripped.EdgeCount())
	// Original graph is untouched.
	assert.Equal(t, 2, g.EdgeCount())
}

func TestLongestPath_PicksHeavierBranch(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b", "c", "d"},
		[]Edge{edge("a", "b"), edge("a", "c"), edge("b", "d"), edge("c", "d")},
	)

	weights := map[string]float64{"a": 1, "b": 10, "c": 2, "d": 1}

	path, total, err := g.LongestPath(func(nodeID string) float64 {
		return weights[nodeID]
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d"}, path)
	assert.InDelta(t, 12.0, total, 1e-9)
}

func TestLongestPath_CycleReturnsError(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b"},
		[]Edge{edge("a", "b"), edge("b", "a")},
	)

	_, _, err := g.LongestPath(func(string) float64 { return 1 })
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestReachable_FromEntry(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b", "c", "island"},
		[]Edge{edge("a", "b"), edge("b", "c")},
	)

	reachable := g.Reachable("a")
	assert.True(t, reachable["a"])
	assert.True(t, reachable["b"])
	assert.True(t, reachable["c"])
	assert.False(t, reachable["island"])
}

func TestFromEdges_DropsDanglingEdges(t *testing.T) {
	g := FromEdges(
		[]string{"a", "b"},
		[]Edge{edge("a", "b"), edge("a", "ghost"), edge("ghost", "b")},
	)

	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []string{"b"}, g.Successors("a"))
}
