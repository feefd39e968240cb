package journey

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dukex/journeyc/pkg/analysis"
	"github.com/dukex/journeyc/pkg/converters"
	"github.com/dukex/journeyc/pkg/journeyctx"
	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/otelhelper"
)

// Optimizer is the pluggable structure-optimization hook of phase 5. The
// default pipeline carries none.
type Optimizer interface {
	Optimize(ctx context.Context, journey *models.JourneyDefinition) error
}

// MappingService converts workflows into journeys. Phases run strictly in
// order: tool mappings, node conversion, edge conversion, structural
// post-processing, optional optimization, metadata scoring, final
// validation.
type MappingService struct {
	logger     *slog.Logger
	engine     *analysis.Engine
	contexts   *journeyctx.ContextManager
	registry   *converters.Registry
	tracer     trace.Tracer
	optimizers []Optimizer
}

// ServiceOption configures a MappingService.
type ServiceOption func(*MappingService)

// WithTracer attaches an OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *MappingService) {
		s.tracer = tracer
	}
}

// WithOptimizers installs structure optimizers, run in order.
func WithOptimizers(optimizers ...Optimizer) ServiceOption {
	return func(s *MappingService) {
		s.optimizers = optimizers
	}
}

func NewMappingService(
	logger *slog.Logger,
	engine *analysis.Engine,
	contexts *journeyctx.ContextManager,
	registry *converters.Registry,
	opts ...ServiceOption,
) *MappingService {
	s := &MappingService{
		logger:   logger,
		engine:   engine,
		contexts: contexts,
		registry: registry,
		tracer:   noop.NewTracerProvider().Tracer("journeyc"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// MapToJourney runs the full conversion: analysis, context mapping, then
// the seven mapping phases. The returned journey has passed final
// validation and must not be mutated afterwards.
func (s *MappingService) MapToJourney(ctx context.Context, w *models.Workflow, toolCompatibility []models.ToolCompatibility) (*models.JourneyDefinition, error) {
	if w == nil {
		return nil, &ServiceError{Op: "MapToJourney", Code: "invalid_workflow", Err: ErrWorkflowNil}
	}

	if len(w.Nodes) == 0 {
		return nil, &ServiceError{Op: "MapToJourney", Code: "invalid_workflow", Err: ErrNoNodes}
	}

	logger := s.logger.With("workflow_id", w.ID)

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "journey.map",
		attribute.String(otelhelper.WorkflowIDKey, w.ID),
		attribute.String(otelhelper.WorkflowNameKey, w.Name),
	)
	defer span.End()

	result, err := s.engine.AnalyzeWorkflow(ctx, w, toolCompatibility)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, &ServiceError{Op: "MapToJourney", Code: "analysis_failed", Err: err}
	}

	mapping, err := s.contexts.BuildContextMapping(ctx, w, result)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, &ServiceError{Op: "MapToJourney", Code: "context_mapping_failed", Err: err}
	}

	journey, err := s.build(ctx, w, result, mapping)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.Error("journey build failed", "error", err)

		return nil, err
	}

	span.SetAttributes(
		attribute.String(otelhelper.JourneyIDKey, journey.ID),
		attribute.Int(otelhelper.StateCountKey, len(journey.States)),
		attribute.Int(otelhelper.TransitionCountKey, len(journey.Transitions)),
	)

	logger.Info("journey mapped",
		"journey_id", journey.ID,
		"states", len(journey.States),
		"transitions", len(journey.Transitions),
		"preservation_score", journey.Metadata.PreservationScore)

	return journey, nil
}

type buildState struct {
	workflow    *models.Workflow
	analysis    *models.WorkflowAnalysisResult
	contexts    *models.ContextMapping
	journey     *models.JourneyDefinition
	stateByNode map[string]string // originalNodeId -> stateId
	joinNodes   map[string]bool   // non-implicit join nodes, may need synthesis
	warnings    []string
}

func (s *MappingService) build(ctx context.Context, w *models.Workflow, result *models.WorkflowAnalysisResult, mapping *models.ContextMapping) (*models.JourneyDefinition, error) {
	b := &buildState{
		workflow: w,
		analysis: result,
		contexts: mapping,
		journey: &models.JourneyDefinition{
			ID:    "journey-" + uuid.New().String(),
			Title: w.Name,
		},
		stateByNode: make(map[string]string, len(w.Nodes)),
		joinNodes:   make(map[string]bool),
	}

	type phase struct {
		name string
		run  func(context.Context, *buildState) error
	}

	phases := []phase{
		{"tool_mappings", s.phaseToolMappings},
		{"convert_nodes", s.phaseConvertNodes},
		{"convert_edges", s.phaseConvertEdges},
		{"post_process", s.phasePostProcess},
		{"optimize", s.phaseOptimize},
		{"metadata", s.phaseMetadata},
		{"validate", s.phaseValidate},
	}

	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		phaseCtx, span := otelhelper.StartSpan(ctx, s.tracer, "journey.phase",
			attribute.String(otelhelper.PhaseKey, p.name))

		err := p.run(phaseCtx, b)

		if err != nil {
			otelhelper.SetError(span, err)
		}

		span.End()

		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", p.name, err)
		}
	}

	return b.journey, nil
}

// phaseToolMappings reads the tool-compatibility sub-report and records
// warnings for partial or incompatible tools.
func (s *MappingService) phaseToolMappings(_ context.Context, b *buildState) error {
	if b.analysis.Tools == nil {
		return nil
	}

	for _, tool := range b.analysis.Tools.Tools {
		switch tool.Compatibility {
		case models.CompatibilityPartial:
			b.warnings = append(b.warnings, "tool "+tool.ToolID+" is only partially compatible")
		case models.CompatibilityNone:
			b.warnings = append(b.warnings, "tool "+tool.ToolID+" is not compatible with the journey runtime")
		}
	}

	for _, missing := range b.analysis.Tools.MissingTools {
		b.warnings = append(b.warnings, "tool "+missing+" has no compatibility information")
	}

	return nil
}

// phaseConvertNodes drives the converter registry per node, recording the
// originalNodeId -> stateId map. A nil state is a valid outcome: the node
// contributes no explicit state.
func (s *MappingService) phaseConvertNodes(ctx context.Context, b *buildState) error {
	if b.analysis.Structure != nil {
		for _, section := range b.analysis.Structure.ParallelSections {
			if !section.Implicit() {
				b.joinNodes[section.JoinNode] = true
			}
		}
	}

	for _, n := range b.workflow.Nodes {
		state, err := s.registry.Convert(ctx, converters.Request{
			Workflow: b.workflow,
			Analysis: b.analysis,
			Contexts: b.contexts,
			Node:     n,
		})
		if err != nil {
			return fmt.Errorf("converting node %s: %w", n.ID, err)
		}

		if state == nil {
			s.logger.Debug("node contributes no explicit state", "node_id", n.ID, "block_type", n.Type)

			continue
		}

		b.journey.States = append(b.journey.States, state)
		b.stateByNode[n.ID] = state.ID
	}

	// Entry-point states become initial states.
	if b.analysis.Structure != nil {
		for _, entry := range b.analysis.Structure.EntryPoints {
			if stateID, ok := b.resolveForward(entry); ok {
				if state, found := b.journey.StateByID(stateID); found {
					state.IsInitial = true
				}
			}
		}
	}

	return nil
}

// resolveForward finds the state for a node, following successors through
// stateless nodes. Join nodes resolve to their (possibly future) state id.
func (b *buildState) resolveForward(nodeID string) (string, bool) {
	visited := make(map[string]bool, len(b.workflow.Nodes))
	queue := []string{nodeID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if visited[id] {
			continue
		}

		visited[id] = true

		if stateID, ok := b.stateByNode[id]; ok {
			return stateID, true
		}

		if b.joinNodes[id] {
			return converters.StateID(id), true
		}

		for _, e := range b.workflow.Edges {
			if e.Source == id && !visited[e.Target] {
				queue = append(queue, e.Target)
			}
		}
	}

	return "", false
}

// phaseConvertEdges converts edges to transitions. Edges from stateless
// nodes are skipped; edges into stateless nodes are bridged forward to the
// next node with a state, so connectivity survives dropped nodes.
func (s *MappingService) phaseConvertEdges(_ context.Context, b *buildState) error {
	seen := make(map[string]bool)

	for _, e := range b.workflow.Edges {
		fromID, ok := b.stateFor(e.Source)
		if !ok {
			s.logger.Debug("skipping edge from stateless node", "edge_id", e.ID, "source", e.Source)

			continue
		}

		toID, ok := b.resolveForward(e.Target)
		if !ok {
			s.logger.Debug("skipping edge to stateless node", "edge_id", e.ID, "target", e.Target)

			continue
		}

		key := fromID + "->" + toID + "|" + e.Condition()
		if seen[key] {
			continue
		}

		seen[key] = true

		b.journey.Transitions = append(b.journey.Transitions, &models.JourneyTransitionDefinition{
			ID:          "transition-" + e.ID,
			FromStateID: fromID,
			ToStateID:   toID,
			Condition:   e.Condition(),
			Priority:    e.Priority(),
		})
	}

	return nil
}

func (b *buildState) stateFor(nodeID string) (string, bool) {
	if stateID, ok := b.stateByNode[nodeID]; ok {
		return stateID, true
	}

	if b.joinNodes[nodeID] {
		return converters.StateID(nodeID), true
	}

	return "", false
}

// phaseOptimize runs the pluggable optimizers. The default pipeline has
// none, making this a no-op extension point.
func (s *MappingService) phaseOptimize(ctx context.Context, b *buildState) error {
	for _, o := range s.optimizers {
		if err := o.Optimize(ctx, b.journey); err != nil {
			return err
		}
	}

	return nil
}

// phaseMetadata computes the conversion quality scores.
func (s *MappingService) phaseMetadata(_ context.Context, b *buildState) error {
	b.journey.Metadata = s.buildMetadata(b)

	return nil
}

// phaseValidate enforces the final journey invariants, aggregating every
// violation into one blocking error.
func (s *MappingService) phaseValidate(_ context.Context, b *buildState) error {
	return validateJourney(b.journey)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
