// Package models defines the core domain models for workflow-to-journey conversion.
package models

import "time"

// BlockType classifies a workflow node. The set is closed; unknown types are
// handled by the registry's fallback converter.
type BlockType string

const (
	BlockTypeStart        BlockType = "start"
	BlockTypeEnd          BlockType = "end"
	BlockTypeTool         BlockType = "tool"
	BlockTypeAPICall      BlockType = "api_call"
	BlockTypeCondition    BlockType = "condition"
	BlockTypeLoop         BlockType = "loop"
	BlockTypeParallel     BlockType = "parallel"
	BlockTypeParallelJoin BlockType = "parallel_join"
	BlockTypeMerge        BlockType = "merge"
	BlockTypeUserInput    BlockType = "user_input"
	BlockTypeVariable     BlockType = "variable"
	BlockTypeTransform    BlockType = "transform"
	BlockTypeDelay        BlockType = "delay"
	BlockTypeWebhook      BlockType = "webhook"
)

// WorkflowNode is a node instance in the source workflow graph.
type WorkflowNode struct {
	ID        string         `json:"id"         validate:"required"`
	Type      BlockType      `json:"type"       validate:"required"`
	Name      string         `json:"name"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
	Data      map[string]any `json:"data,omitempty"`
}

// Condition returns the node-level condition string, if any.
func (n *WorkflowNode) Condition() string {
	if n.Data == nil {
		return ""
	}

	if c, ok := n.Data["condition"].(string); ok {
		return c
	}

	return ""
}

// IsConditional reports whether the node branches on a condition, either by
// type or by carrying a condition field.
func (n *WorkflowNode) IsConditional() bool {
	return n.Type == BlockTypeCondition || n.Condition() != ""
}

// EdgeData carries optional edge annotations.
type EdgeData struct {
	Condition   string   `json:"condition,omitempty"` // "true"/"false" on conditional branches
	Priority    int      `json:"priority,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
}

// WorkflowEdge is a directed connection between two nodes.
type WorkflowEdge struct {
	ID     string    `json:"id"     validate:"required"`
	Source string    `json:"source" validate:"required"`
	Target string    `json:"target" validate:"required"`
	Data   *EdgeData `json:"data,omitempty"`
}

// Condition returns the edge condition tag ("true"/"false" or an expression).
func (e *WorkflowEdge) Condition() string {
	if e.Data == nil {
		return ""
	}

	return e.Data.Condition
}

// Priority returns the edge priority, defaulting to zero.
func (e *WorkflowEdge) Priority() int {
	if e.Data == nil {
		return 0
	}

	return e.Data.Priority
}

// Workflow is the read-only input to conversion: a directed graph of typed
// nodes plus workflow-level variables and configuration.
type Workflow struct {
	ID            string          `json:"id"      validate:"required"`
	Name          string          `json:"name"    validate:"required,min=1"`
	Version       string          `json:"version"`
	Nodes         []*WorkflowNode `json:"nodes"   validate:"required,min=1,dive"`
	Edges         []*WorkflowEdge `json:"edges"   validate:"dive"`
	Variables     map[string]any  `json:"variables,omitempty"`
	Configuration map[string]any  `json:"configuration,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NodeByID returns the node with the given id.
func (w *Workflow) NodeByID(id string) (*WorkflowNode, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return nil, false
}

// CacheKey identifies one immutable version of the workflow for analysis
// caching.
func (w *Workflow) CacheKey() string {
	return w.ID + "@" + w.UpdatedAt.UTC().Format(time.RFC3339Nano)
}
