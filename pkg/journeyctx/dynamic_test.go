package journeyctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/testutil"
)

func TestDynamicVariableResolver_ExtractsPerSource(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("ask", models.BlockTypeUserInput, testutil.WithData(map[string]any{"variable": "answer"})),
			testutil.Node("call", models.BlockTypeAPICall, testutil.WithData(map[string]any{"output_variable": "response"})),
			testutil.Node("calc", models.BlockTypeTransform, testutil.WithData(map[string]any{
				"variable":   "total",
				"expression": "answer + response",
			})),
		},
		[]*models.WorkflowEdge{
			testutil.Edge("ask", "call"),
			testutil.Edge("call", "calc"),
		},
	)

	resolver := NewDynamicVariableResolver(testLogger())

	resolution, err := resolver.Resolve(w)
	require.NoError(t, err)

	require.Len(t, resolution.PerState["ask"], 1)
	assert.Equal(t, models.DynamicSourceUserInput, resolution.PerState["ask"][0].Source)
	assert.Equal(t, "answer", resolution.PerState["ask"][0].Name)

	require.Len(t, resolution.PerState["call"], 1)
	assert.Equal(t, models.DynamicSourceAPIResponse, resolution.PerState["call"][0].Source)

	require.Len(t, resolution.PerState["calc"], 1)
	assert.Equal(t, models.DynamicSourceCalculated, resolution.PerState["calc"][0].Source)
	assert.ElementsMatch(t, []string{"answer", "response"}, resolution.PerState["calc"][0].DependsOn)
}

func TestDynamicVariableResolver_OrderRespectsDependencies(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("a", models.BlockTypeVariable, testutil.WithData(map[string]any{
				"variable":   "base",
				"expression": "1",
			})),
			testutil.Node("b", models.BlockTypeVariable, testutil.WithData(map[string]any{
				"variable":   "derived",
				"expression": "base * 2",
			})),
		},
		nil,
	)

	resolver := NewDynamicVariableResolver(testLogger())

	resolution, err := resolver.Resolve(w)
	require.NoError(t, err)

	position := make(map[string]int, len(resolution.Order))
	for i, name := range resolution.Order {
		position[name] = i
	}

	assert.Less(t, position["base"], position["derived"])
}

func TestDynamicVariableResolver_CycleIsFatal(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("a", models.BlockTypeVariable, testutil.WithData(map[string]any{
				"variable":   "x",
				"expression": "y + 1",
			})),
			testutil.Node("b", models.BlockTypeVariable, testutil.WithData(map[string]any{
				"variable":   "y",
				"expression": "x + 1",
			})),
		},
		nil,
	)

	resolver := NewDynamicVariableResolver(testLogger())

	_, err := resolver.Resolve(w)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircularVariableDependency)
}

func TestDynamicVariableResolver_DefaultNames(t *testing.T) {
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("ask", models.BlockTypeUserInput, testutil.WithData(map[string]any{})),
			testutil.Node("run", models.BlockTypeTool, testutil.WithData(map[string]any{})),
		},
		nil,
	)

	resolver := NewDynamicVariableResolver(testLogger())

	resolution, err := resolver.Resolve(w)
	require.NoError(t, err)

	assert.Equal(t, "ask_input", resolution.PerState["ask"][0].Name)
	assert.Equal(t, "run_response", resolution.PerState["run"][0].Name)
}

func TestDynamicVariableResolver_StaticReferencesIgnored(t *testing.T) {
	// "limit" is a static workflow variable, not a dynamic one, so it never
	// shows up in the resolution order.
	w := testutil.CreateTestWorkflow(
		[]*models.WorkflowNode{
			testutil.Node("calc", models.BlockTypeTransform, testutil.WithData(map[string]any{
				"variable":   "total",
				"expression": "limit * 2",
			})),
		},
		nil,
	)
	w.Variables = map[string]any{"limit": 10}

	resolver := NewDynamicVariableResolver(testLogger())

	resolution, err := resolver.Resolve(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"total"}, resolution.Order)
}
