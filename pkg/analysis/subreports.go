package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
)

// analyzeComplexity computes the cyclomatic, cognitive and structural
// metrics and averages them into a single score.
func analyzeComplexity(w *models.Workflow, g *graph.Graph, structure *models.WorkflowStructure) *models.ComplexityReport {
	nodes := float64(g.NodeCount())
	edges := float64(g.EdgeCount())

	cyclomatic := edges - nodes + 2
	if cyclomatic < 1 {
		cyclomatic = 1
	}

	cognitive := 2*float64(len(structure.Conditionals)) + 3*float64(len(structure.Loops)) + float64(len(structure.ParallelSections))

	structural := 0.0
	if nodes > 1 {
		structural = edges / (nodes * (nodes - 1)) * 100
	}

	return &models.ComplexityReport{
		Cyclomatic: cyclomatic,
		Cognitive:  cognitive,
		Structural: structural,
		Score:      (cyclomatic + cognitive + structural) / 3,
	}
}

// toolID extracts the tool reference from a node's data.
func toolID(n *models.WorkflowNode) string {
	if n.Data == nil {
		return ""
	}

	if id, ok := n.Data["tool_id"].(string); ok {
		return id
	}

	if id, ok := n.Data["toolId"].(string); ok {
		return id
	}

	return ""
}

// analyzeTools cross-references tool nodes against the externally supplied
// compatibility report. The engine only reads compatibility, it never
// computes it.
func analyzeTools(w *models.Workflow, compatibility []models.ToolCompatibility) *models.ToolReport {
	known := make(map[string]models.ToolCompatibility, len(compatibility))
	for _, c := range compatibility {
		known[c.ToolID] = c
	}

	report := &models.ToolReport{Tools: compatibility}

	seen := make(map[string]bool)

	for _, n := range w.Nodes {
		id := toolID(n)
		if id == "" || seen[id] {
			continue
		}

		seen[id] = true
		report.ReferencedTools = append(report.ReferencedTools, id)

		c, ok := known[id]
		if !ok {
			report.MissingTools = append(report.MissingTools, id)
			continue
		}

		if c.Compatibility == models.CompatibilityNone {
			report.IncompatibleTools = append(report.IncompatibleTools, id)
		}
	}

	sort.Strings(report.ReferencedTools)
	sort.Strings(report.IncompatibleTools)
	sort.Strings(report.MissingTools)

	return report
}

// analyzeVariables maps workflow variables to the nodes referencing them in
// conditions or data values.
func analyzeVariables(w *models.Workflow) *models.VariableUsageReport {
	report := &models.VariableUsageReport{
		Readers: make(map[string][]string, len(w.Variables)),
	}

	for name := range w.Variables {
		report.Defined = append(report.Defined, name)
	}

	sort.Strings(report.Defined)

	for _, name := range report.Defined {
		for _, n := range w.Nodes {
			if nodeReferencesVariable(n, name) {
				report.Readers[name] = append(report.Readers[name], n.ID)
			}
		}

		if len(report.Readers[name]) == 0 {
			report.Unused = append(report.Unused, name)
		}
	}

	return report
}

func nodeReferencesVariable(n *models.WorkflowNode, name string) bool {
	if strings.Contains(n.Condition(), name) {
		return true
	}

	for _, v := range n.Data {
		if s, ok := v.(string); ok && strings.Contains(s, name) {
			return true
		}
	}

	return false
}

// retryCapableTypes are block types whose failures the journey runtime can
// retry; nodes of other types need explicit error configuration to count as
// covered.
var retryCapableTypes = map[models.BlockType]bool{
	models.BlockTypeTool:    true,
	models.BlockTypeAPICall: true,
	models.BlockTypeWebhook: true,
}

// analyzeErrorHandling measures which nodes carry explicit error handling or
// are retry-capable by type.
func analyzeErrorHandling(w *models.Workflow) *models.ErrorHandlingReport {
	report := &models.ErrorHandlingReport{}

	for _, n := range w.Nodes {
		covered := retryCapableTypes[n.Type]

		if n.Data != nil {
			if _, ok := n.Data["on_error"]; ok {
				covered = true
			}

			if _, ok := n.Data["retry"]; ok {
				covered = true
			}
		}

		if covered {
			report.CoveredNodes = append(report.CoveredNodes, n.ID)
		} else {
			report.UncoveredNodes = append(report.UncoveredNodes, n.ID)
		}
	}

	if len(w.Nodes) > 0 {
		report.Coverage = float64(len(report.CoveredNodes)) / float64(len(w.Nodes))
	}

	return report
}

// analyzePerformance estimates total duration from the critical path and
// flags the slowest nodes as bottlenecks.
func analyzePerformance(w *models.Workflow, structure *models.WorkflowStructure) *models.PerformanceReport {
	report := &models.PerformanceReport{}

	nodesByID := make(map[string]*models.WorkflowNode, len(w.Nodes))
	for _, n := range w.Nodes {
		nodesByID[n.ID] = n
	}

	for _, id := range structure.CriticalPath {
		if n, ok := nodesByID[id]; ok {
			report.EstimatedDuration += nodeDuration(n)
		}
	}

	const bottleneckThreshold = 2 * time.Second

	for _, n := range w.Nodes {
		if nodeDuration(n) >= bottleneckThreshold {
			report.BottleneckNodes = append(report.BottleneckNodes, n.ID)
		}
	}

	return report
}

var sensitiveNamePatterns = []string{"password", "secret", "token", "api_key", "apikey", "credential", "ssn", "credit_card"}

// analyzeSecurity flags sensitive variables by name pattern and nodes that
// reference them without requesting encryption.
func analyzeSecurity(w *models.Workflow) *models.SecurityReport {
	report := &models.SecurityReport{}

	for name := range w.Variables {
		if isSensitiveName(name) {
			report.SensitiveVariables = append(report.SensitiveVariables, name)
		}
	}

	sort.Strings(report.SensitiveVariables)

	for _, n := range w.Nodes {
		for _, sensitive := range report.SensitiveVariables {
			if !nodeReferencesVariable(n, sensitive) {
				continue
			}

			encrypted := false
			if n.Data != nil {
				encrypted, _ = n.Data["encrypted"].(bool)
			}

			if !encrypted {
				report.UnprotectedNodes = append(report.UnprotectedNodes, n.ID)
				report.Findings = append(report.Findings, "node "+n.ID+" handles sensitive variable "+sensitive+" without encryption")
			}

			break
		}
	}

	return report
}

func isSensitiveName(name string) bool {
	lowered := strings.ToLower(name)

	for _, pattern := range sensitiveNamePatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}

	return false
}
