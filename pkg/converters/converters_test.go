package converters

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func convertNode(t *testing.T, req Request) *models.JourneyStateDefinition {
	t.Helper()

	registry := NewDefaultRegistry(testLogger())

	state, err := registry.Convert(context.Background(), req)
	require.NoError(t, err)

	return state
}

func TestStartConverter_EmitsInitialChatState(t *testing.T) {
	node := testutil.Node("start", models.BlockTypeStart)
	state := convertNode(t, Request{Node: node})

	require.NotNil(t, state)
	assert.Equal(t, "state-start", state.ID)
	assert.True(t, state.IsInitial)
	assert.Equal(t, models.StateKindChat, state.Config.Kind)
	assert.Equal(t, "start", state.OriginalNodeID)
}

func TestEndConverter_EmitsFinalState(t *testing.T) {
	node := testutil.Node("end", models.BlockTypeEnd)
	state := convertNode(t, Request{Node: node})

	require.NotNil(t, state)
	assert.True(t, state.IsFinal)
	require.Equal(t, models.StateKindFinal, state.Config.Kind)
	assert.Equal(t, "completed", state.Config.Final.Outcome)
	assert.True(t, state.Config.Final.CleanupSession)
	assert.True(t, state.Config.Final.ReleaseResources)
}

func TestEndConverter_OutcomeOverride(t *testing.T) {
	node := testutil.Node("end", models.BlockTypeEnd, testutil.WithData(map[string]any{"outcome": "abandoned"}))
	state := convertNode(t, Request{Node: node})

	require.NotNil(t, state)
	assert.Equal(t, "abandoned", state.Config.Final.Outcome)
}

func TestToolConverter_UsesExecutionContext(t *testing.T) {
	node := testutil.Node("call", models.BlockTypeAPICall, testutil.WithData(map[string]any{"tool_id": "crm.lookup"}))
	contexts := &models.ContextMapping{
		Execution: []models.ExecutionContextEntry{
			{
				NodeID:        "call",
				Retry:         models.RetryPolicy{MaxAttempts: 3, Backoff: "exponential", Timeout: 30 * time.Second},
				ErrorStrategy: "fallback",
			},
		},
	}

	state := convertNode(t, Request{Node: node, Contexts: contexts})

	require.NotNil(t, state)
	require.Equal(t, models.StateKindTool, state.Config.Kind)
	assert.Equal(t, "crm.lookup", state.Config.Tool.ToolID)
	assert.Equal(t, 3, state.Config.Tool.Retry.MaxAttempts)
	assert.Equal(t, "fallback", state.Config.Tool.OnError)
}

func TestToolConverter_MissingToolIDFallsBackToTypeAndNode(t *testing.T) {
	node := testutil.Node("hook", models.BlockTypeWebhook, testutil.WithData(map[string]any{}))
	state := convertNode(t, Request{Node: node})

	require.NotNil(t, state)
	assert.Equal(t, "webhook:hook", state.Config.Tool.ToolID)
	assert.Equal(t, "fail", state.Config.Tool.OnError)
}

func TestConditionConverter_CarriesAnalysisVariables(t *testing.T) {
	node := testutil.Node("check", models.BlockTypeCondition, testutil.WithData(map[string]any{"condition": "score > 10"}))
	analysis := &models.WorkflowAnalysisResult{
		Structure: &models.WorkflowStructure{
			Conditionals: []models.ConditionalNode{
				{NodeID: "check", Condition: "score > 10", Variables: []string{"score"}},
			},
		},
	}

	state := convertNode(t, Request{Node: node, Analysis: analysis})

	require.NotNil(t, state)
	require.Equal(t, models.StateKindChat, state.Config.Kind)
	require.NotNil(t, state.Config.Chat.Conditional)
	assert.Equal(t, "score > 10", state.Config.Chat.Conditional.Condition)
	assert.Equal(t, []string{"score"}, state.Config.Chat.Conditional.TrueVariables)
	assert.Equal(t, []string{"score"}, state.Config.Chat.Conditional.FalseVariables)
}

func TestLoopConverter_UsesStructureRecord(t *testing.T) {
	node := testutil.Node("entry", models.BlockTypeLoop)
	analysis := &models.WorkflowAnalysisResult{
		Structure: &models.WorkflowStructure{
			Loops: []models.LoopStructure{
				{EntryNode: "entry", Condition: "items remaining", LoopType: models.LoopTypeForeach, MaxIterations: 10},
			},
		},
	}

	state := convertNode(t, Request{Node: node, Analysis: analysis})

	require.NotNil(t, state)
	require.NotNil(t, state.Config.Chat.Loop)
	assert.Equal(t, models.LoopTypeForeach, state.Config.Chat.Loop.LoopType)
	assert.Equal(t, 10, state.Config.Chat.Loop.MaxIterations)
}

func TestParallelConverter_UsesSectionRecord(t *testing.T) {
	node := testutil.Node("split", models.BlockTypeParallel)
	analysis := &models.WorkflowAnalysisResult{
		Structure: &models.WorkflowStructure{
			ParallelSections: []models.ParallelSection{
				{
					SplitNode:       "split",
					JoinNode:        "join",
					Branches:        [][]string{{"left"}, {"right"}},
					Synchronization: models.SynchronizationAll,
					ErrorHandling:   "fail_fast",
				},
			},
		},
	}

	state := convertNode(t, Request{Node: node, Analysis: analysis})

	require.NotNil(t, state)
	require.NotNil(t, state.Config.Chat.Parallel)
	assert.Equal(t, 2, state.Config.Chat.Parallel.Branches)
	assert.Equal(t, models.SynchronizationAll, state.Config.Chat.Parallel.Synchronization)
}

func TestJoinConverter_CollectsSources(t *testing.T) {
	w := testutil.ParallelWorkflow()
	node, _ := w.NodeByID("join")

	state := convertNode(t, Request{Workflow: w, Node: node})

	require.NotNil(t, state)
	require.NotNil(t, state.Config.Chat.Merge)
	assert.ElementsMatch(t, []string{"left", "right"}, state.Config.Chat.Merge.Sources)
}

func TestMergeAndVariableConvertersEmitNoState(t *testing.T) {
	tests := []struct {
		name string
		node *models.WorkflowNode
	}{
		{name: "merge node", node: testutil.Node("m", models.BlockTypeMerge)},
		{name: "variable node", node: testutil.Node("v", models.BlockTypeVariable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := convertNode(t, Request{Node: tt.node})
			assert.Nil(t, state)
		})
	}
}

func TestUserInputConverter_DefaultPrompt(t *testing.T) {
	node := testutil.Node("ask", models.BlockTypeUserInput, testutil.WithData(map[string]any{}))
	state := convertNode(t, Request{Node: node})

	require.NotNil(t, state)
	assert.Equal(t, "Please provide input", state.Config.Chat.Prompt)
}

func TestDelayConverter_SystemTools(t *testing.T) {
	delay := convertNode(t, Request{Node: testutil.Node("wait", models.BlockTypeDelay, testutil.WithData(map[string]any{"seconds": 5}))})
	require.NotNil(t, delay)
	assert.Equal(t, "system.delay", delay.Config.Tool.ToolID)
	assert.Equal(t, "continue", delay.Config.Tool.OnError)

	transform := convertNode(t, Request{Node: testutil.Node("shape", models.BlockTypeTransform, testutil.WithData(map[string]any{}))})
	require.NotNil(t, transform)
	assert.Equal(t, "system.transform", transform.Config.Tool.ToolID)
}

func TestRegistry_UnknownTypeFallsBack(t *testing.T) {
	node := testutil.Node("odd", models.BlockType("hologram"))
	state := convertNode(t, Request{Node: node})

	require.NotNil(t, state)
	assert.Equal(t, models.StateKindChat, state.Config.Kind)
	assert.Equal(t, "Continue", state.Config.Chat.Prompt)
}

func TestRegistry_PriorityOverride(t *testing.T) {
	registry := NewDefaultRegistry(testLogger())
	registry.Register(&stubConverter{})

	state, err := registry.Convert(context.Background(), Request{Node: testutil.Node("end", models.BlockTypeEnd)})
	require.NoError(t, err)
	assert.Equal(t, "stubbed", state.Name)
}

type stubConverter struct{}

func (c *stubConverter) BlockTypes() []models.BlockType { return []models.BlockType{models.BlockTypeEnd} }
func (c *stubConverter) Priority() int                  { return 200 }

func (c *stubConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           "stubbed",
		OriginalNodeID: req.Node.ID,
	}, nil
}
