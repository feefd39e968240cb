package analysis

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStructureAnalyzer_EntryAndExitPoints(t *testing.T) {
	w := testutil.LinearWorkflow()
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	assert.Equal(t, []string{"start"}, structure.EntryPoints)
	assert.Equal(t, []string{"end"}, structure.ExitPoints)
	assert.Empty(t, structure.UnreachableNodes)
	assert.Empty(t, structure.OrphanedNodes)
}

func TestStructureAnalyzer_EntryFallbackOnFullCycle(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("a", models.BlockTypeTool),
			testutil.Node("b", models.BlockTypeTool),
		},
		[]*models.WorkflowEdge{
			testutil.Edge("a", "b"),
			testutil.Edge("b", "a"),
		},
	)
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, structure.EntryPoints)
}

func TestStructureAnalyzer_ConditionalBranchesSinglePath(t *testing.T) {
	w := testutil.ConditionalWorkflow()
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	require.Len(t, structure.Conditionals, 1)
	conditional := structure.Conditionals[0]

	assert.Equal(t, "check", conditional.NodeID)
	assert.Equal(t, "score > 10", conditional.Condition)
	assert.Equal(t, []string{"score"}, conditional.Variables)
	// Each branch holds exactly one walked path, not the full reachable set.
	assert.Equal(t, []string{"yes", "end"}, conditional.TruePath)
	assert.Equal(t, []string{"no", "end"}, conditional.FalsePath)
}

func TestStructureAnalyzer_UntaggedEdgeCountsAsTrueBranch(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("check", models.BlockTypeCondition, testutil.WithData(map[string]any{"condition": "ok"})),
			testutil.Node("a", models.BlockTypeTool),
			testutil.Node("b", models.BlockTypeTool),
		},
		[]*models.WorkflowEdge{
			testutil.Edge("check", "a"),
			testutil.Edge("check", "b", testutil.WithCondition("false")),
		},
	)
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	require.Len(t, structure.Conditionals, 1)
	assert.Equal(t, []string{"a"}, structure.Conditionals[0].TruePath)
	assert.Equal(t, []string{"b"}, structure.Conditionals[0].FalsePath)
}

func TestStructureAnalyzer_ParallelSectionWithExplicitJoin(t *testing.T) {
	w := testutil.ParallelWorkflow()
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	require.Len(t, structure.ParallelSections, 1)
	section := structure.ParallelSections[0]

	assert.Equal(t, "split", section.SplitNode)
	assert.Equal(t, "join", section.JoinNode)
	assert.Equal(t, models.SynchronizationAll, section.Synchronization)
	assert.Equal(t, "fail_fast", section.ErrorHandling)
	assert.False(t, section.Implicit())
	require.Len(t, section.Branches, 2)
	assert.Equal(t, []string{"left"}, section.Branches[0])
	assert.Equal(t, []string{"right"}, section.Branches[1])
}

func TestStructureAnalyzer_NonReconvergingSplitIsImplicit(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("split", models.BlockTypeParallel),
			testutil.Node("left", models.BlockTypeEnd),
			testutil.Node("right", models.BlockTypeEnd),
		},
		[]*models.WorkflowEdge{
			testutil.Edge("split", "left"),
			testutil.Edge("split", "right"),
		},
	)
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	require.Len(t, structure.ParallelSections, 1)
	section := structure.ParallelSections[0]

	assert.True(t, section.Implicit())
	assert.Equal(t, models.SynchronizationAny, section.Synchronization)
	assert.Equal(t, "continue", section.ErrorHandling)
}

func TestStructureAnalyzer_ConditionalIsNotParallelSection(t *testing.T) {
	w := testutil.ConditionalWorkflow()
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	assert.Empty(t, structure.ParallelSections)
}

func TestStructureAnalyzer_LoopDetection(t *testing.T) {
	w := testutil.LoopWorkflow()
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	require.Len(t, structure.Loops, 1)
	loop := structure.Loops[0]

	assert.Equal(t, "entry", loop.EntryNode)
	assert.Equal(t, "body", loop.ExitNode)
	assert.NotContains(t, loop.BodyNodes, "body")
	assert.Contains(t, loop.BodyNodes, "entry")
	assert.Equal(t, "items remaining", loop.Condition)
	assert.Equal(t, models.LoopTypeForeach, loop.LoopType)
}

func TestStructureAnalyzer_LoopMetadataOverrides(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("entry", models.BlockTypeLoop, testutil.WithData(map[string]any{
				"condition":      "retries < 3",
				"loop_type":      "for",
				"max_iterations": 3,
			})),
			testutil.Node("body", models.BlockTypeTool),
		},
		[]*models.WorkflowEdge{
			testutil.Edge("entry", "body"),
			testutil.Edge("body", "entry"),
		},
	)
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	require.Len(t, structure.Loops, 1)
	assert.Equal(t, models.LoopTypeFor, structure.Loops[0].LoopType)
	assert.Equal(t, 3, structure.Loops[0].MaxIterations)
}

func TestStructureAnalyzer_UnreachableAndOrphanedNodes(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("start", models.BlockTypeStart),
			testutil.Node("end", models.BlockTypeEnd),
			testutil.Node("island-a", models.BlockTypeTool),
			testutil.Node("island-b", models.BlockTypeTool),
			testutil.Node("orphan", models.BlockTypeTool),
		},
		[]*models.WorkflowEdge{
			testutil.Edge("start", "end"),
			testutil.Edge("island-a", "island-b"),
			testutil.Edge("island-b", "island-a"),
		},
	)
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	// The island is a closed cycle: neither node qualifies as an entry
	// point, so BFS from the entry set never reaches it.
	assert.Contains(t, structure.UnreachableNodes, "island-a")
	assert.Contains(t, structure.UnreachableNodes, "island-b")
	assert.NotContains(t, structure.EntryPoints, "island-a")
	assert.Equal(t, []string{"orphan"}, structure.OrphanedNodes)
}

func TestStructureAnalyzer_CriticalPathWeightsDurations(t *testing.T) {
	// user_input dominates the duration model, so the critical path must
	// run through it.
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("start", models.BlockTypeStart),
			testutil.Node("slow", models.BlockTypeUserInput),
			testutil.Node("fast", models.BlockTypeCondition, testutil.WithData(map[string]any{"condition": "x"})),
			testutil.Node("end", models.BlockTypeEnd),
		},
		[]*models.WorkflowEdge{
			testutil.Edge("start", "slow"),
			testutil.Edge("start", "fast"),
			testutil.Edge("slow", "end"),
			testutil.Edge("fast", "end"),
		},
	)
	analyzer := NewStructureAnalyzer(testLogger())

	structure, err := analyzer.Analyze(context.Background(), w, graph.New(w))
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "slow", "end"}, structure.CriticalPath)
}

func TestConditionVariables(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		want      []string
	}{
		{
			name:      "simple comparison",
			condition: "score > 10",
			want:      []string{"score"},
		},
		{
			name:      "keywords filtered",
			condition: "status == 'active' and retries < limit",
			want:      []string{"active", "limit", "retries", "status"},
		},
		{
			name:      "dotted identifiers kept whole",
			condition: "user.age >= min.age",
			want:      []string{"min.age", "user.age"},
		},
		{
			name:      "empty condition",
			condition: "",
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionVariables(tt.condition))
		})
	}
}
