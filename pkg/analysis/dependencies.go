package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
)

// DependencyAnalyzer derives per-node dependency sets, strongly connected
// components, a topological order over the graph minus loop back edges, and
// per-node levels.
type DependencyAnalyzer struct {
	logger *slog.Logger
}

func NewDependencyAnalyzer(logger *slog.Logger) *DependencyAnalyzer {
	return &DependencyAnalyzer{logger: logger}
}

// Analyze builds the dependency graph. Strongly connected components that
// survive back-edge stripping are unclassified cycles and make topological
// ordering fail.
func (a *DependencyAnalyzer) Analyze(ctx context.Context, g *graph.Graph) (*models.DependencyGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dep := &models.DependencyGraph{
		Dependencies: make(map[string][]string, g.NodeCount()),
		Dependents:   make(map[string][]string, g.NodeCount()),
		Levels:       make(map[string]int, g.NodeCount()),
	}

	for _, id := range g.Nodes() {
		dep.Dependencies[id] = g.Predecessors(id)
		dep.Dependents[id] = g.Successors(id)
	}

	dep.StronglyConnected = g.StronglyConnectedComponents()

	acyclic := g.WithoutEdges(backEdgeIDs(g))

	sorted, err := acyclic.TopologicalSort()
	if err != nil {
		if errors.Is(err, graph.ErrCyclicGraph) {
			return nil, fmt.Errorf("dependency graph has a cycle not classified as a loop: %w", err)
		}

		return nil, err
	}

	dep.TopologicalOrder = sorted

	// Level = longest path length from a source, over the acyclic view.
	for _, id := range sorted {
		level := 0

		for _, pred := range acyclic.Predecessors(id) {
			if dep.Levels[pred]+1 > level {
				level = dep.Levels[pred] + 1
			}
		}

		dep.Levels[id] = level
	}

	dep.CircularDependencies = a.circularDependencies(g)

	return dep, nil
}

// circularDependencies records each strongly connected component with a
// severity: components whose cycle disappears once back edges are stripped
// are legitimate loops (warning), anything else is an error.
func (a *DependencyAnalyzer) circularDependencies(g *graph.Graph) []models.CircularDependency {
	components := g.StronglyConnectedComponents()
	if len(components) == 0 {
		return nil
	}

	acyclic := g.WithoutEdges(backEdgeIDs(g))
	residual := acyclic.StronglyConnectedComponents()

	stillCyclic := make(map[string]bool)

	for _, component := range residual {
		for _, id := range component {
			stillCyclic[id] = true
		}
	}

	records := make([]models.CircularDependency, 0, len(components))

	for _, component := range components {
		severity := "warning"

		for _, id := range component {
			if stillCyclic[id] {
				severity = "error"
				break
			}
		}

		records = append(records, models.CircularDependency{Nodes: component, Severity: severity})
	}

	return records
}
