package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/testutil"
)

func TestDependencyAnalyzer_LinearWorkflow(t *testing.T) {
	w := testutil.LinearWorkflow()
	analyzer := NewDependencyAnalyzer(testLogger())

	dep, err := analyzer.Analyze(context.Background(), graph.New(w))
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "work", "end"}, dep.TopologicalOrder)
	assert.Empty(t, dep.Dependencies["start"])
	assert.Equal(t, []string{"work"}, dep.Dependencies["end"])
	assert.Equal(t, []string{"work"}, dep.Dependents["start"])
	assert.Equal(t, 0, dep.Levels["start"])
	assert.Equal(t, 1, dep.Levels["work"])
	assert.Equal(t, 2, dep.Levels["end"])
	assert.Empty(t, dep.CircularDependencies)
}

func TestDependencyAnalyzer_LoopIsWarningSeverity(t *testing.T) {
	w := testutil.LoopWorkflow()
	analyzer := NewDependencyAnalyzer(testLogger())

	dep, err := analyzer.Analyze(context.Background(), graph.New(w))
	require.NoError(t, err)

	require.Len(t, dep.CircularDependencies, 1)
	assert.Equal(t, "warning", dep.CircularDependencies[0].Severity)
	assert.ElementsMatch(t, []string{"entry", "body"}, dep.CircularDependencies[0].Nodes)

	// Topological order is computed over the back-edge-stripped graph.
	require.Len(t, dep.TopologicalOrder, 4)
}

func TestDependencyAnalyzer_DiamondLevels(t *testing.T) {
	w := testutil.ParallelWorkflow()
	analyzer := NewDependencyAnalyzer(testLogger())

	dep, err := analyzer.Analyze(context.Background(), graph.New(w))
	require.NoError(t, err)

	assert.Equal(t, 0, dep.Levels["start"])
	assert.Equal(t, 1, dep.Levels["split"])
	assert.Equal(t, 2, dep.Levels["left"])
	assert.Equal(t, 2, dep.Levels["right"])
	assert.Equal(t, 3, dep.Levels["join"])
	assert.Equal(t, 4, dep.Levels["end"])
}
