// Package analysis turns a raw workflow graph into a WorkflowAnalysisResult:
// structural classification, dependency graph, execution paths and the
// complexity/tool/variable/error/performance/security sub-reports.
package analysis

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
)

// StructureAnalyzer classifies the structural patterns of a workflow graph:
// entry/exit points, conditionals, parallel sections, loops, the critical
// path and unreachable/orphaned nodes.
type StructureAnalyzer struct {
	logger *slog.Logger
}

func NewStructureAnalyzer(logger *slog.Logger) *StructureAnalyzer {
	return &StructureAnalyzer{logger: logger}
}

// Analyze runs all structural detectors over the workflow.
func (a *StructureAnalyzer) Analyze(ctx context.Context, w *models.Workflow, g *graph.Graph) (*models.WorkflowStructure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	structure := &models.WorkflowStructure{
		EntryPoints: a.entryPoints(w, g),
		ExitPoints:  a.exitPoints(w, g),
	}

	structure.Loops = a.loops(w, g)
	structure.Conditionals = a.conditionals(w, g)
	structure.ParallelSections = a.parallelSections(w, g)
	structure.UnreachableNodes, structure.OrphanedNodes = a.unreachable(g, structure.EntryPoints)

	criticalPath, err := a.criticalPath(w, g, structure.Loops)
	if err != nil {
		return nil, err
	}

	structure.CriticalPath = criticalPath
	structure.AlternativePaths = a.alternativePaths(structure)

	return structure, nil
}

// entryPoints returns nodes with no incoming edge or explicit start type.
// When neither exists the first node is the documented fallback.
func (a *StructureAnalyzer) entryPoints(w *models.Workflow, g *graph.Graph) []string {
	var entries []string

	for _, n := range w.Nodes {
		if n.Type == models.BlockTypeStart || len(g.InEdges(n.ID)) == 0 {
			entries = append(entries, n.ID)
		}
	}

	if len(entries) == 0 && len(w.Nodes) > 0 {
		a.logger.Debug("no entry point found, falling back to first node", "node_id", w.Nodes[0].ID)

		entries = []string{w.Nodes[0].ID}
	}

	return entries
}

// exitPoints is the symmetric detector over outgoing edges and end-typed
// nodes, falling back to the last node.
func (a *StructureAnalyzer) exitPoints(w *models.Workflow, g *graph.Graph) []string {
	var exits []string

	for _, n := range w.Nodes {
		if n.Type == models.BlockTypeEnd || len(g.OutEdges(n.ID)) == 0 {
			exits = append(exits, n.ID)
		}
	}

	if len(exits) == 0 && len(w.Nodes) > 0 {
		last := w.Nodes[len(w.Nodes)-1]
		a.logger.Debug("no exit point found, falling back to last node", "node_id", last.ID)

		exits = []string{last.ID}
	}

	return exits
}

// conditionals detects branching nodes. True and false outgoing edges are
// distinguished by the edge-level condition tag; an untagged edge counts as
// the true branch. Each branch path is captured by a single DFS walk, so it
// holds one path per branch, not the full reachable set.
func (a *StructureAnalyzer) conditionals(w *models.Workflow, g *graph.Graph) []models.ConditionalNode {
	var conditionals []models.ConditionalNode

	for _, n := range w.Nodes {
		if !n.IsConditional() {
			continue
		}

		conditional := models.ConditionalNode{
			NodeID:    n.ID,
			Condition: n.Condition(),
			Variables: conditionVariables(n.Condition()),
		}

		for _, e := range g.OutEdges(n.ID) {
			branch := a.singleWalk(g, e.Target)

			if strings.EqualFold(e.Condition, "false") {
				conditional.FalsePath = branch
			} else if conditional.TruePath == nil {
				conditional.TruePath = branch
			}
		}

		conditionals = append(conditionals, conditional)
	}

	return conditionals
}

// singleWalk follows the first outgoing edge from start until a dead end or
// a revisit, returning the walked node sequence.
func (a *StructureAnalyzer) singleWalk(g *graph.Graph, start string) []string {
	visited := make(map[string]bool, g.NodeCount())

	var path []string

	for id := start; g.HasNode(id) && !visited[id]; {
		visited[id] = true
		path = append(path, id)

		edges := g.OutEdges(id)
		if len(edges) == 0 {
			break
		}

		id = edges[0].Target
	}

	return path
}

// parallelSections detects split candidates (>=2 outgoing edges, excluding
// conditionals) and locates their join node. Join discovery prefers an
// explicit parallel_join/merge node reachable from every branch, then falls
// back to reachable-set intersection. The intersection heuristic can
// mis-identify joins when branches contain diamond sub-patterns; sections
// without any convergence point are implicit.
func (a *StructureAnalyzer) parallelSections(w *models.Workflow, g *graph.Graph) []models.ParallelSection {
	var sections []models.ParallelSection

	for _, n := range w.Nodes {
		edges := g.OutEdges(n.ID)
		if len(edges) < 2 || n.IsConditional() {
			continue
		}

		branchHeads := make([]string, 0, len(edges))
		for _, e := range edges {
			branchHeads = append(branchHeads, e.Target)
		}

		join := a.findConvergencePoint(w, g, n.ID, branchHeads)

		section := models.ParallelSection{
			SplitNode:       n.ID,
			JoinNode:        join,
			Synchronization: models.SynchronizationAll,
			ErrorHandling:   "fail_fast",
		}

		if join == "" {
			a.logger.Debug("parallel split has no convergence point, marking implicit", "split_node", n.ID)

			section.Synchronization = models.SynchronizationAny
			section.ErrorHandling = "continue"
		}

		if n.Data != nil {
			if eh, ok := n.Data["error_handling"].(string); ok && eh != "" {
				section.ErrorHandling = eh
			}
		}

		for _, head := range branchHeads {
			section.Branches = append(section.Branches, a.branchPath(g, head, join))
		}

		sections = append(sections, section)
	}

	return sections
}

// findConvergencePoint returns the join node for a split: an explicit join
// node reachable from every branch when one exists, otherwise the earliest
// node in the intersection of the branches' reachable sets.
func (a *StructureAnalyzer) findConvergencePoint(w *models.Workflow, g *graph.Graph, split string, branchHeads []string) string {
	reachable := make([]map[string]bool, len(branchHeads))
	for i, head := range branchHeads {
		reachable[i] = g.Reachable(head)
	}

	inAll := func(id string) bool {
		for _, set := range reachable {
			if !set[id] {
				return false
			}
		}

		return true
	}

	for _, n := range w.Nodes {
		if n.ID == split {
			continue
		}

		if (n.Type == models.BlockTypeParallelJoin || n.Type == models.BlockTypeMerge) && inAll(n.ID) {
			return n.ID
		}
	}

	// BFS order from the first branch head gives the earliest common node.
	queue := []string{branchHeads[0]}
	seen := map[string]bool{branchHeads[0]: true}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id != split && inAll(id) {
			return id
		}

		for _, e := range g.OutEdges(id) {
			if !seen[e.Target] {
				seen[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	return ""
}

// branchPath walks one branch from head, stopping before the join node.
func (a *StructureAnalyzer) branchPath(g *graph.Graph, head, join string) []string {
	visited := make(map[string]bool, g.NodeCount())

	var path []string

	for id := head; g.HasNode(id) && !visited[id] && id != join; {
		visited[id] = true
		path = append(path, id)

		edges := g.OutEdges(id)
		if len(edges) == 0 {
			break
		}

		id = edges[0].Target
	}

	return path
}

// loops extracts one LoopStructure per back edge. The loop body is the node
// set reachable from the entry without continuing past the exit, and
// excludes the exit node itself.
func (a *StructureAnalyzer) loops(w *models.Workflow, g *graph.Graph) []models.LoopStructure {
	var loops []models.LoopStructure

	for _, backEdge := range g.BackEdges() {
		entry := backEdge.Target
		exit := backEdge.Source

		loop := models.LoopStructure{
			EntryNode: entry,
			ExitNode:  exit,
			BodyNodes: a.loopBody(g, entry, exit),
			LoopType:  models.LoopTypeWhile,
		}

		if n, ok := w.NodeByID(entry); ok {
			loop.Condition = n.Condition()
			a.applyLoopMetadata(&loop, n)
		}

		if loop.Condition == "" {
			if n, ok := w.NodeByID(exit); ok {
				loop.Condition = n.Condition()
			}
		}

		if loop.Condition == "" {
			loop.Condition = backEdge.Condition
		}

		if loop.LoopType == models.LoopTypeWhile {
			loop.LoopType = inferLoopType(loop.Condition)
		}

		loops = append(loops, loop)
	}

	return loops
}

// loopBody collects nodes reachable from entry via BFS that does not
// continue past exit. The exit node is excluded from the body.
func (a *StructureAnalyzer) loopBody(g *graph.Graph, entry, exit string) []string {
	visited := map[string]bool{entry: true}
	queue := []string{entry}

	var body []string

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id != exit {
			body = append(body, id)
		}

		if id == exit {
			continue
		}

		for _, e := range g.OutEdges(id) {
			if !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	return body
}

func (a *StructureAnalyzer) applyLoopMetadata(loop *models.LoopStructure, n *models.WorkflowNode) {
	if n.Data == nil {
		return
	}

	if lt, ok := n.Data["loop_type"].(string); ok {
		switch models.LoopType(lt) {
		case models.LoopTypeWhile, models.LoopTypeFor, models.LoopTypeDoWhile, models.LoopTypeForeach:
			loop.LoopType = models.LoopType(lt)
		}
	}

	if max, ok := asFloat(n.Data["max_iterations"]); ok && max > 0 {
		loop.MaxIterations = int(max)
	}
}

// inferLoopType guesses the loop kind from condition keywords, defaulting to
// while.
func inferLoopType(condition string) models.LoopType {
	lowered := strings.ToLower(condition)

	switch {
	case strings.Contains(lowered, "each") || strings.Contains(lowered, "items"):
		return models.LoopTypeForeach
	case strings.Contains(lowered, "count") || strings.Contains(lowered, "times") || strings.Contains(lowered, "iteration"):
		return models.LoopTypeFor
	case strings.Contains(lowered, "until"):
		return models.LoopTypeDoWhile
	default:
		return models.LoopTypeWhile
	}
}

// unreachable reports nodes not reachable from any entry point and nodes
// touching zero edges. Both are reported, never auto-removed.
func (a *StructureAnalyzer) unreachable(g *graph.Graph, entries []string) (unreachable, orphaned []string) {
	visited := g.Reachable(entries...)

	for _, id := range g.Nodes() {
		isOrphan := len(g.InEdges(id)) == 0 && len(g.OutEdges(id)) == 0

		if isOrphan {
			orphaned = append(orphaned, id)
			continue
		}

		if !visited[id] {
			unreachable = append(unreachable, id)
		}
	}

	return unreachable, orphaned
}

// criticalPath runs the longest-path dynamic program over the graph with
// loop back edges stripped, weighting nodes by the duration model.
func (a *StructureAnalyzer) criticalPath(w *models.Workflow, g *graph.Graph, loops []models.LoopStructure) ([]string, error) {
	acyclic := g.WithoutEdges(backEdgeIDs(g))

	nodesByID := make(map[string]*models.WorkflowNode, len(w.Nodes))
	for _, n := range w.Nodes {
		nodesByID[n.ID] = n
	}

	path, _, err := acyclic.LongestPath(func(id string) float64 {
		n, ok := nodesByID[id]
		if !ok {
			return 0
		}

		return float64(nodeDuration(n).Milliseconds())
	})
	if err != nil {
		return nil, err
	}

	return path, nil
}

// alternativePaths collects conditional branch paths that diverge from the
// critical path.
func (a *StructureAnalyzer) alternativePaths(structure *models.WorkflowStructure) [][]string {
	onCritical := make(map[string]bool, len(structure.CriticalPath))
	for _, id := range structure.CriticalPath {
		onCritical[id] = true
	}

	var alternatives [][]string

	for _, c := range structure.Conditionals {
		for _, branch := range [][]string{c.TruePath, c.FalsePath} {
			if len(branch) == 0 {
				continue
			}

			if !onCritical[branch[0]] {
				alternatives = append(alternatives, branch)
			}
		}
	}

	return alternatives
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

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.]*`)

var conditionKeywords = map[string]bool{
	"true": true, "false": true, "null": true, "and": true, "or": true,
	"not": true, "in": true, "contains": true, "matches": true,
}

// conditionVariables extracts the variable identifiers referenced by a
// condition string.
func conditionVariables(condition string) []string {
	if condition == "" {
		return nil
	}

	seen := make(map[string]bool)

	var variables []string

	for _, match := range identifierPattern.FindAllString(condition, -1) {
		key := strings.ToLower(match)
		if conditionKeywords[key] || seen[match] {
			continue
		}

		seen[match] = true
		variables = append(variables, match)
	}

	sort.Strings(variables)

	return variables
}
