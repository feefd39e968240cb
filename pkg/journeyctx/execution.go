package journeyctx

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
)

// executionDefaults keys default timeout, retry policy and error strategy by
// block type.
type executionDefault struct {
	timeout  time.Duration
	retry    models.RetryPolicy
	strategy string
}

var executionDefaults = map[models.BlockType]executionDefault{
	models.BlockTypeAPICall: {
		timeout:  30 * time.Second,
		retry:    models.RetryPolicy{MaxAttempts: 3, Backoff: "exponential", Timeout: 30 * time.Second},
		strategy: "fail",
	},
	models.BlockTypeTool: {
		timeout:  60 * time.Second,
		retry:    models.RetryPolicy{MaxAttempts: 2, Backoff: "fixed", Timeout: 60 * time.Second},
		strategy: "fail",
	},
	models.BlockTypeWebhook: {
		timeout:  30 * time.Second,
		retry:    models.RetryPolicy{MaxAttempts: 3, Backoff: "exponential", Timeout: 30 * time.Second},
		strategy: "fallback",
	},
	models.BlockTypeUserInput: {
		timeout:  5 * time.Minute,
		retry:    models.RetryPolicy{Backoff: "none"},
		strategy: "fail",
	},
	models.BlockTypeTransform: {
		timeout:  10 * time.Second,
		retry:    models.RetryPolicy{MaxAttempts: 1, Backoff: "none", Timeout: 10 * time.Second},
		strategy: "continue",
	},
	models.BlockTypeDelay: {
		timeout:  10 * time.Minute,
		retry:    models.RetryPolicy{Backoff: "none"},
		strategy: "continue",
	},
}

var fallbackExecutionDefault = executionDefault{
	timeout:  10 * time.Second,
	retry:    models.RetryPolicy{Backoff: "none"},
	strategy: "continue",
}

// ExecutionContextManager computes the per-node execution order and the
// runtime defaults the journey engine will apply downstream. The retry
// policy is only computed here, never applied.
type ExecutionContextManager struct {
	logger *slog.Logger
}

func NewExecutionContextManager(logger *slog.Logger) *ExecutionContextManager {
	return &ExecutionContextManager{logger: logger}
}

// Map assigns orders over the graph with back edges stripped: each node gets
// max(predecessor order) + 1, entry nodes get 1.
func (m *ExecutionContextManager) Map(w *models.Workflow, g *graph.Graph) ([]models.ExecutionContextEntry, error) {
	acyclic := g.WithoutEdges(backEdgeIDs(g))

	sorted, err := acyclic.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("execution order requires an acyclic graph: %w", err)
	}

	orders := make(map[string]int, len(sorted))

	for _, id := range sorted {
		order := 0

		for _, pred := range acyclic.Predecessors(id) {
			if orders[pred] > order {
				order = orders[pred]
			}
		}

		orders[id] = order + 1
	}

	entries := make([]models.ExecutionContextEntry, 0, len(w.Nodes))

	for _, n := range w.Nodes {
		defaults, ok := executionDefaults[n.Type]
		if !ok {
			defaults = fallbackExecutionDefault
		}

		entry := models.ExecutionContextEntry{
			NodeID:        n.ID,
			Order:         orders[n.ID],
			Timeout:       defaults.timeout,
			Retry:         defaults.retry,
			ErrorStrategy: defaults.strategy,
		}

		applyExecutionOverrides(&entry, n)
		entries = append(entries, entry)
	}

	return entries, nil
}

func applyExecutionOverrides(entry *models.ExecutionContextEntry, n *models.WorkflowNode) {
	if n.Data == nil {
		return
	}

	if seconds, ok := asFloat(n.Data["timeout_seconds"]); ok && seconds > 0 {
		entry.Timeout = time.Duration(seconds) * time.Second
	}

	if strategy, ok := n.Data["on_error"].(string); ok && strategy != "" {
		entry.ErrorStrategy = strategy
	}

	retry, ok := n.Data["retry"].(map[string]any)
	if !ok {
		return
	}

	if attempts, ok := asFloat(retry["max_attempts"]); ok && attempts >= 0 {
		entry.Retry.MaxAttempts = int(attempts)
	}

	if backoff, ok := retry["backoff"].(string); ok && backoff != "" {
		entry.Retry.Backoff = backoff
	}
}

// backEdgeIDs returns the id set of the graph's back edges.
func backEdgeIDs(g *graph.Graph) map[string]bool {
	backEdges := g.BackEdges()

	ids := make(map[string]bool, len(backEdges))
	for _, e := range backEdges {
		ids[e.ID] = true
	}

	return ids
}
