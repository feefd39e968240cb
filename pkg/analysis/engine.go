package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/otelhelper"
)

// Engine orchestrates all sub-analyses over one workflow and caches the
// joined result per (workflow id, updated-at). Sub-analyses read only the
// immutable input, so they fan out concurrently; a failure in any of them
// aborts the whole call with no partial caching.
type Engine struct {
	logger       *slog.Logger
	cache        Cache
	tracer       trace.Tracer
	structure    *StructureAnalyzer
	dependencies *DependencyAnalyzer
	paths        *PathAnalyzer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTracer attaches an OpenTelemetry tracer to the engine.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

func NewEngine(logger *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		logger:       logger,
		cache:        NewMemoryCache(),
		tracer:       noop.NewTracerProvider().Tracer("journeyc"),
		structure:    NewStructureAnalyzer(logger),
		dependencies: NewDependencyAnalyzer(logger),
		paths:        NewPathAnalyzer(logger),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// AnalyzeWorkflow returns the cached result for this workflow version or
// computes it. toolCompatibility is collaborator input (see ToolReport).
func (e *Engine) AnalyzeWorkflow(ctx context.Context, w *models.Workflow, toolCompatibility []models.ToolCompatibility) (*models.WorkflowAnalysisResult, error) {
	logger := e.logger.With("workflow_id", w.ID)

	key := w.CacheKey()

	cached, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("analysis cache read failed", "error", err)
	} else if ok {
		logger.Debug("returning cached analysis result", "cache_key", key)

		return cached, nil
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "analysis.workflow",
		attribute.String(otelhelper.WorkflowIDKey, w.ID),
		attribute.Int(otelhelper.NodeCountKey, len(w.Nodes)),
	)
	defer span.End()

	result, err := e.analyze(ctx, w, toolCompatibility)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.Error("workflow analysis failed", "error", err)

		return nil, err
	}

	if err := e.cache.Set(ctx, key, result); err != nil {
		logger.Warn("analysis cache write failed", "error", err)
	}

	return result, nil
}

func (e *Engine) analyze(ctx context.Context, w *models.Workflow, toolCompatibility []models.ToolCompatibility) (*models.WorkflowAnalysisResult, error) {
	g := graph.New(w)

	// Structure feeds the path, complexity and performance passes, so it
	// runs before the fan-out.
	structure, err := e.structure.Analyze(ctx, w, g)
	if err != nil {
		return nil, fmt.Errorf("structure analysis: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &models.WorkflowAnalysisResult{
		WorkflowID: w.ID,
		Version:    w.Version,
		AnalyzedAt: time.Now().UTC(),
		Structure:  structure,
	}

	type task struct {
		name string
		run  func() error
	}

	tasks := []task{
		{"dependencies", func() error {
			dependencies, err := e.dependencies.Analyze(ctx, g)
			if err != nil {
				return err
			}

			result.Dependencies = dependencies

			return nil
		}},
		{"execution_paths", func() error {
			paths, err := e.paths.Analyze(ctx, w, g, structure.EntryPoints, structure.CriticalPath)
			if err != nil {
				return err
			}

			result.ExecutionPaths = paths

			return nil
		}},
		{"complexity", func() error {
			result.Complexity = analyzeComplexity(w, g, structure)

			return nil
		}},
		{"tools", func() error {
			result.Tools = analyzeTools(w, toolCompatibility)

			return nil
		}},
		{"variables", func() error {
			result.Variables = analyzeVariables(w)

			return nil
		}},
		{"error_handling", func() error {
			result.ErrorHandling = analyzeErrorHandling(w)

			return nil
		}},
		{"performance", func() error {
			result.Performance = analyzePerformance(w, structure)

			return nil
		}},
		{"security", func() error {
			result.Security = analyzeSecurity(w)

			return nil
		}},
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for _, t := range tasks {
		wg.Add(1)

		go func(t task) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				once.Do(func() { firstErr = err })

				return
			}

			if err := t.run(); err != nil {
				once.Do(func() { firstErr = fmt.Errorf("%s analysis: %w", t.name, err) })
			}
		}(t)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return result, nil
}
