// Package converters implements the per-block-type node-to-state conversion
// strategies behind journey mapping.
package converters

import (
	"context"
	"log/slog"
	"sort"

	"github.com/dukex/journeyc/pkg/models"
)

// Request carries everything a converter may consult. Converters treat all
// of it as read-only.
type Request struct {
	Workflow *models.Workflow
	Analysis *models.WorkflowAnalysisResult
	Contexts *models.ContextMapping
	Node     *models.WorkflowNode
}

// Converter turns one workflow node into a journey state. A nil state with a
// nil error means the node contributes no explicit state (start, plain
// merge); that is a valid, expected outcome.
type Converter interface {
	BlockTypes() []models.BlockType
	Priority() int
	Convert(ctx context.Context, req Request) (*models.JourneyStateDefinition, error)
}

// Registry dispatches nodes to converters by block type, highest priority
// first, with a catch-all fallback for unknown types.
type Registry struct {
	logger     *slog.Logger
	converters map[models.BlockType][]Converter
	fallback   Converter
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:     logger,
		converters: make(map[models.BlockType][]Converter),
		fallback:   &defaultConverter{},
	}
}

// NewDefaultRegistry returns a registry with every built-in converter
// registered.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)

	r.Register(&startConverter{})
	r.Register(&endConverter{})
	r.Register(&toolConverter{})
	r.Register(&conditionConverter{})
	r.Register(&loopConverter{})
	r.Register(&parallelConverter{})
	r.Register(&joinConverter{})
	r.Register(&mergeConverter{})
	r.Register(&userInputConverter{})
	r.Register(&variableConverter{})
	r.Register(&delayConverter{})

	return r
}

// Register adds a converter for all of its block types, keeping each type's
// list ordered by descending priority.
func (r *Registry) Register(c Converter) {
	for _, bt := range c.BlockTypes() {
		r.converters[bt] = append(r.converters[bt], c)

		sort.SliceStable(r.converters[bt], func(i, j int) bool {
			return r.converters[bt][i].Priority() > r.converters[bt][j].Priority()
		})
	}
}

// SetFallback replaces the catch-all converter.
func (r *Registry) SetFallback(c Converter) {
	r.fallback = c
}

// Convert dispatches the node to the highest-priority converter for its
// type, falling back to the default converter for unknown types.
func (r *Registry) Convert(ctx context.Context, req Request) (*models.JourneyStateDefinition, error) {
	if list, ok := r.converters[req.Node.Type]; ok && len(list) > 0 {
		return list[0].Convert(ctx, req)
	}

	r.logger.Warn("no converter registered for block type, emitting generic state",
		"node_id", req.Node.ID, "block_type", req.Node.Type)

	return r.fallback.Convert(ctx, req)
}
