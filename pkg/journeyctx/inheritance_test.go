package journeyctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/testutil"
)

func TestContextInheritanceManager_LinearChain(t *testing.T) {
	w := testutil.LinearWorkflow()
	manager := NewContextInheritanceManager(testLogger(), InheritanceOptions{})

	inheritance, warnings, err := manager.Build(w, graph.New(w))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "cascade", inheritance.Policy)
	assert.Equal(t, defaultMaxInheritanceDepth, inheritance.MaxDepth)

	assert.Equal(t, "", inheritance.Nodes["start"].Parent)
	assert.Equal(t, 0, inheritance.Nodes["start"].Depth)
	assert.Equal(t, "start", inheritance.Nodes["work"].Parent)
	assert.Equal(t, 1, inheritance.Nodes["work"].Depth)
	assert.Equal(t, "work", inheritance.Nodes["end"].Parent)
	assert.Equal(t, 2, inheritance.Nodes["end"].Depth)
	assert.Equal(t, []string{"work"}, inheritance.Nodes["start"].Children)
}

func TestContextInheritanceManager_ParentIsDeepestPredecessor(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("root", models.BlockTypeStart),
			testutil.Node("shallow", models.BlockTypeTool),
			testutil.Node("a", models.BlockTypeTool),
			testutil.Node("b", models.BlockTypeTool),
			testutil.Node("sink", models.BlockTypeEnd),
		},
		[]*models.WorkflowEdge{
			testutil.Edge("root", "shallow"),
			testutil.Edge("root", "a"),
			testutil.Edge("a", "b"),
			testutil.Edge("shallow", "sink"),
			testutil.Edge("b", "sink"),
		},
	)
	manager := NewContextInheritanceManager(testLogger(), InheritanceOptions{})

	inheritance, _, err := manager.Build(w, graph.New(w))
	require.NoError(t, err)

	// sink has predecessors shallow (depth 1) and b (depth 2); the deeper
	// chain wins.
	assert.Equal(t, "b", inheritance.Nodes["sink"].Parent)
	assert.Equal(t, 3, inheritance.Nodes["sink"].Depth)
}

func TestContextInheritanceManager_MaxDepthCutsChain(t *testing.T) {
	nodes := []*models.WorkflowNode{testutil.Node("n0", models.BlockTypeStart)}

	var edges []*models.WorkflowEdge

	previous := "n0"
	for _, id := range []string{"n1", "n2", "n3", "n4"} {
		nodes = append(nodes, testutil.Node(id, models.BlockTypeTool))
		edges = append(edges, testutil.Edge(previous, id))
		previous = id
	}

	w := testutil.CreateTestWorkflow(nodes, edges)
	manager := NewContextInheritanceManager(testLogger(), InheritanceOptions{MaxDepth: 3})

	inheritance, warnings, err := manager.Build(w, graph.New(w))
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "n4")
	assert.Equal(t, "", inheritance.Nodes["n4"].Parent)
	assert.Equal(t, 0, inheritance.Nodes["n4"].Depth)
}

func TestContextInheritanceManager_LoopBackEdgeStripped(t *testing.T) {
	w := testutil.LoopWorkflow()
	manager := NewContextInheritanceManager(testLogger(), InheritanceOptions{})

	_, _, err := manager.Build(w, graph.New(w))
	require.NoError(t, err)
}
