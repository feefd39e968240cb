// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/dukex/journeyc/pkg/models"
)

// CreateTestNode creates a test WorkflowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:        uuid.New().String(),
		Type:      models.BlockTypeTool,
		Name:      "Test Node",
		Data:      map[string]any{"tool_id": "test.tool"},
		PositionX: 100,
		PositionY: 200,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType models.BlockType) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = nodeType
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Name = name
	}
}

// WithData sets the node data payload.
func WithData(data map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Data = data
	}
}

// Node creates a node with an explicit id and type, the common case in graph
// shape tests.
func Node(id string, nodeType models.BlockType, overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	all := append([]func(*models.WorkflowNode){WithID(id), WithType(nodeType)}, overrides...)

	return CreateTestNode(all...)
}

// Edge creates an edge between two nodes. The edge ID is derived from the
// endpoints so shapes stay readable in test failures.
func Edge(source, target string, overrides ...func(*models.WorkflowEdge)) *models.WorkflowEdge {
	edge := &models.WorkflowEdge{
		ID:     "edge-" + source + "-" + target,
		Source: source,
		Target: target,
	}

	for _, override := range overrides {
		override(edge)
	}

	return edge
}

// WithCondition tags the edge with a branch condition.
func WithCondition(condition string) func(*models.WorkflowEdge) {
	return func(e *models.WorkflowEdge) {
		if e.Data == nil {
			e.Data = &models.EdgeData{}
		}

		e.Data.Condition = condition
	}
}

// WithProbability sets an explicit traversal probability on the edge.
func WithProbability(probability float64) func(*models.WorkflowEdge) {
	return func(e *models.WorkflowEdge) {
		if e.Data == nil {
			e.Data = &models.EdgeData{}
		}

		e.Data.Probability = &probability
	}
}

// CreateTestWorkflow creates a workflow from explicit nodes and edges.
func CreateTestWorkflow(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) *models.Workflow {
	return &models.Workflow{
		ID:        uuid.New().String(),
		Name:      "Test Workflow",
		Version:   "1.0.0",
		Nodes:     nodes,
		Edges:     edges,
		UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// LinearWorkflow builds start -> tool -> end.
func LinearWorkflow() *models.Workflow {
	return CreateTestWorkflow(
		[]*models.WorkflowNode{
			Node("start", models.BlockTypeStart),
			Node("work", models.BlockTypeTool, WithData(map[string]any{"tool_id": "crm.lookup"})),
			Node("end", models.BlockTypeEnd),
		},
		[]*models.WorkflowEdge{
			Edge("start", "work"),
			Edge("work", "end"),
		},
	)
}

// ConditionalWorkflow builds a single condition node with true and false
// branches that reconverge on the end node.
func ConditionalWorkflow() *models.Workflow {
	return CreateTestWorkflow(
		[]*models.WorkflowNode{
			Node("start", models.BlockTypeStart),
			Node("check", models.BlockTypeCondition, WithData(map[string]any{"condition": "score > 10"})),
			Node("yes", models.BlockTypeTool, WithData(map[string]any{"tool_id": "crm.approve"})),
			Node("no", models.BlockTypeTool, WithData(map[string]any{"tool_id": "crm.reject"})),
			Node("end", models.BlockTypeEnd),
		},
		[]*models.WorkflowEdge{
			Edge("start", "check"),
			Edge("check", "yes", WithCondition("true")),
			Edge("check", "no", WithCondition("false")),
			Edge("yes", "end"),
			Edge("no", "end"),
		},
	)
}

// LoopWorkflow builds start -> entry -> body -> entry with an exit edge to end.
func LoopWorkflow() *models.Workflow {
	return CreateTestWorkflow(
		[]*models.WorkflowNode{
			Node("start", models.BlockTypeStart),
			Node("entry", models.BlockTypeCondition, WithData(map[string]any{"condition": "items remaining"})),
			Node("body", models.BlockTypeTool, WithData(map[string]any{"tool_id": "batch.process"})),
			Node("end", models.BlockTypeEnd),
		},
		[]*models.WorkflowEdge{
			Edge("start", "entry"),
			Edge("entry", "body", WithCondition("true")),
			Edge("body", "entry"),
			Edge("entry", "end", WithCondition("false")),
		},
	)
}

// ParallelWorkflow builds a fan-out from a parallel node into two branches
// that reconverge on an explicit join.
func ParallelWorkflow() *models.Workflow {
	return CreateTestWorkflow(
		[]*models.WorkflowNode{
			Node("start", models.BlockTypeStart),
			Node("split", models.BlockTypeParallel),
			Node("left", models.BlockTypeTool, WithData(map[string]any{"tool_id": "notify.email"})),
			Node("right", models.BlockTypeTool, WithData(map[string]any{"tool_id": "notify.sms"})),
			Node("join", models.BlockTypeParallelJoin),
			Node("end", models.BlockTypeEnd),
		},
		[]*models.WorkflowEdge{
			Edge("start", "split"),
			Edge("split", "left"),
			Edge("split", "right"),
			Edge("left", "join"),
			Edge("right", "join"),
			Edge("join", "end"),
		},
	)
}
