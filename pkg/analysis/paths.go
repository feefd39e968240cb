package analysis

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
)

const (
	maxExecutionPaths        = 50
	minPathProbability       = 0.001
	maxPathErrorProbability  = 0.95
	maxComplexityMultiplier  = 2.0
	criticalPathOverlapRatio = 0.7
)

// PathAnalyzer enumerates candidate execution paths from each entry point
// and scores them for probability, duration and error likelihood.
type PathAnalyzer struct {
	logger *slog.Logger
}

func NewPathAnalyzer(logger *slog.Logger) *PathAnalyzer {
	return &PathAnalyzer{logger: logger}
}

// Analyze walks the graph depth-first from every entry point. A path ends
// when it reaches a node without successors or re-encounters one of its own
// nodes, which keeps enumeration finite on cyclic graphs. Results are
// de-duplicated by node sequence (keeping the highest probability) and
// truncated to the top paths by probability.
func (a *PathAnalyzer) Analyze(ctx context.Context, w *models.Workflow, g *graph.Graph, entries, criticalPath []string) ([]models.ExecutionPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nodesByID := make(map[string]*models.WorkflowNode, len(w.Nodes))
	for _, n := range w.Nodes {
		nodesByID[n.ID] = n
	}

	type frame struct {
		node        string
		path        []string
		probability float64
	}

	var raw []models.ExecutionPath

	for _, entry := range entries {
		if !g.HasNode(entry) {
			continue
		}

		stack := []frame{{node: entry, probability: 1}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			revisit := false

			for _, id := range top.path {
				if id == top.node {
					revisit = true
					break
				}
			}

			if revisit {
				raw = append(raw, a.score(top.path, top.probability, nodesByID, criticalPath))
				continue
			}

			path := make([]string, len(top.path), len(top.path)+1)
			copy(path, top.path)
			path = append(path, top.node)

			edges := g.OutEdges(top.node)
			if len(edges) == 0 {
				raw = append(raw, a.score(path, top.probability, nodesByID, criticalPath))
				continue
			}

			for _, e := range edges {
				stack = append(stack, frame{
					node:        e.Target,
					path:        path,
					probability: top.probability * edgeProbability(e, len(edges)),
				})
			}
		}
	}

	paths := dedupePaths(raw)

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].Probability > paths[j].Probability
	})

	if len(paths) > maxExecutionPaths {
		a.logger.Debug("truncating execution paths", "total", len(paths), "kept", maxExecutionPaths)

		paths = paths[:maxExecutionPaths]
	}

	return paths, nil
}

// score computes the per-path metrics.
func (a *PathAnalyzer) score(path []string, probability float64, nodes map[string]*models.WorkflowNode, criticalPath []string) models.ExecutionPath {
	if probability < minPathProbability {
		probability = minPathProbability
	}

	var duration time.Duration

	successProbability := 1.0

	for _, id := range path {
		n, ok := nodes[id]
		if !ok {
			continue
		}

		duration += time.Duration(float64(nodeDuration(n)) * complexityMultiplier(n))
		successProbability *= 1 - nodeErrorRate(n)
	}

	errorProbability := 1 - successProbability
	if errorProbability > maxPathErrorProbability {
		errorProbability = maxPathErrorProbability
	}

	if errorProbability < 0 {
		errorProbability = 0
	}

	return models.ExecutionPath{
		Nodes:             path,
		Probability:       probability,
		EstimatedDuration: duration,
		ErrorProbability:  errorProbability,
		IsCriticalPath:    overlapsCriticalPath(path, criticalPath),
	}
}

// edgeProbability returns the explicit edge probability when present,
// otherwise splits evenly across the fan-out.
func edgeProbability(e graph.Edge, fanOut int) float64 {
	if e.Probability != nil && *e.Probability > 0 && *e.Probability <= 1 {
		return *e.Probability
	}

	return 1 / float64(fanOut)
}

// complexityMultiplier scales a node's base duration by its configuration
// size, condition complexity and loop bound, capped at 2x.
func complexityMultiplier(n *models.WorkflowNode) float64 {
	multiplier := 1.0
	multiplier += 0.02 * float64(len(n.Data))

	condition := n.Condition()
	multiplier += 0.002 * float64(len(condition))
	multiplier += 0.05 * float64(operatorCount(condition))

	if n.Data != nil {
		if iterations, ok := asFloat(n.Data["max_iterations"]); ok && iterations > 0 {
			multiplier += 0.01 * iterations
		}
	}

	if multiplier > maxComplexityMultiplier {
		return maxComplexityMultiplier
	}

	return multiplier
}

func operatorCount(condition string) int {
	count := 0

	for _, op := range []string{"&&", "||", "==", "!=", ">=", "<=", ">", "<", " and ", " or ", " not "} {
		count += strings.Count(condition, op)
	}

	return count
}

// dedupePaths collapses paths with identical node sequences, keeping the
// highest probability.
func dedupePaths(paths []models.ExecutionPath) []models.ExecutionPath {
	best := make(map[string]int, len(paths))

	var out []models.ExecutionPath

	for _, p := range paths {
		key := strings.Join(p.Nodes, "\x00")

		if i, ok := best[key]; ok {
			if p.Probability > out[i].Probability {
				out[i] = p
			}

			continue
		}

		best[key] = len(out)
		out = append(out, p)
	}

	return out
}

// overlapsCriticalPath reports whether at least 70% of the path's nodes lie
// on the critical path.
func overlapsCriticalPath(path, criticalPath []string) bool {
	if len(path) == 0 || len(criticalPath) == 0 {
		return false
	}

	onCritical := make(map[string]bool, len(criticalPath))
	for _, id := range criticalPath {
		onCritical[id] = true
	}

	overlap := 0

	for _, id := range path {
		if onCritical[id] {
			overlap++
		}
	}

	return float64(overlap)/float64(len(path)) >= criticalPathOverlapRatio
}
