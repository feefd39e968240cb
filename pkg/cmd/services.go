package cmd

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/journeyc/pkg/analysis"
	"github.com/dukex/journeyc/pkg/converters"
	"github.com/dukex/journeyc/pkg/journey"
	"github.com/dukex/journeyc/pkg/journeyctx"
)

// NewAnalysisEngine builds the analysis engine backed by the cache the URL
// selects. An empty URL selects the in-memory cache.
func NewAnalysisEngine(logger *slog.Logger, cacheURL string, tracer trace.Tracer) (*analysis.Engine, error) {
	cache, err := analysis.NewCache(cacheURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}

	opts := []analysis.EngineOption{analysis.WithCache(cache)}
	if tracer != nil {
		opts = append(opts, analysis.WithTracer(tracer))
	}

	return analysis.NewEngine(logger, opts...), nil
}

// NewMappingService builds the full conversion pipeline around the engine.
func NewMappingService(logger *slog.Logger, engine *analysis.Engine, tracer trace.Tracer) *journey.MappingService {
	contexts := journeyctx.NewContextManager(logger, journeyctx.InheritanceOptions{})
	registry := converters.NewDefaultRegistry(logger)

	var opts []journey.ServiceOption
	if tracer != nil {
		opts = append(opts, journey.WithTracer(tracer))
	}

	return journey.NewMappingService(logger, engine, contexts, registry, opts...)
}
