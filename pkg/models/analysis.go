package models

import "time"

// SynchronizationType describes how parallel branches rejoin.
type SynchronizationType string

const (
	SynchronizationAll SynchronizationType = "all" // wait for every branch at the join node
	SynchronizationAny SynchronizationType = "any" // branches run independently, no join
)

// LoopType classifies a detected loop structure.
type LoopType string

const (
	LoopTypeWhile   LoopType = "while"
	LoopTypeFor     LoopType = "for"
	LoopTypeDoWhile LoopType = "do_while"
	LoopTypeForeach LoopType = "foreach"
)

// ConditionalNode describes a branching node and the single path captured for
// each branch.
type ConditionalNode struct {
	NodeID    string   `json:"node_id"`
	Condition string   `json:"condition"`
	TruePath  []string `json:"true_path"`
	FalsePath []string `json:"false_path"`
	Variables []string `json:"variables"`
}

// ParallelSection describes a split node and its branches. JoinNode is empty
// when no convergence point exists; such sections are implicit and branches
// execute independently.
type ParallelSection struct {
	SplitNode       string              `json:"split_node"`
	JoinNode        string              `json:"join_node,omitempty"`
	Branches        [][]string          `json:"branches"`
	Synchronization SynchronizationType `json:"synchronization"`
	ErrorHandling   string              `json:"error_handling"` // fail_fast | continue
}

// Implicit reports whether the section has no discovered join node.
func (p *ParallelSection) Implicit() bool {
	return p.JoinNode == ""
}

// LoopStructure describes one back edge and the loop it induces. BodyNodes
// excludes ExitNode.
type LoopStructure struct {
	EntryNode     string   `json:"entry_node"`
	ExitNode      string   `json:"exit_node"`
	BodyNodes     []string `json:"body_nodes"`
	Condition     string   `json:"condition"`
	LoopType      LoopType `json:"loop_type"`
	MaxIterations int      `json:"max_iterations,omitempty"` // 0 = unbounded
}

// WorkflowStructure is the structural classification of the input graph.
// Every node id referenced here exists in the source workflow.
type WorkflowStructure struct {
	EntryPoints      []string          `json:"entry_points"`
	ExitPoints       []string          `json:"exit_points"`
	Conditionals     []ConditionalNode `json:"conditionals"`
	ParallelSections []ParallelSection `json:"parallel_sections"`
	Loops            []LoopStructure   `json:"loops"`
	CriticalPath     []string          `json:"critical_path"`
	AlternativePaths [][]string        `json:"alternative_paths"`
	UnreachableNodes []string          `json:"unreachable_nodes"`
	OrphanedNodes    []string          `json:"orphaned_nodes"`
}

// CircularDependency records one strongly connected component that was not
// classified as an intentional loop.
type CircularDependency struct {
	Nodes    []string `json:"nodes"`
	Severity string   `json:"severity"` // warning | error
}

// DependencyGraph captures per-node dependencies derived from edges.
// TopologicalOrder is valid only when the graph minus identified loop back
// edges is acyclic.
type DependencyGraph struct {
	Dependencies         map[string][]string  `json:"dependencies"`
	Dependents           map[string][]string  `json:"dependents"`
	StronglyConnected    [][]string           `json:"strongly_connected"`
	TopologicalOrder     []string             `json:"topological_order"`
	CircularDependencies []CircularDependency `json:"circular_dependencies"`
	Levels               map[string]int       `json:"levels"` // longest path length from a source
}

// ExecutionPath is one enumerated path through the graph with derived
// metrics. Paths are ephemeral, never persisted independently.
type ExecutionPath struct {
	Nodes             []string      `json:"nodes"`
	Probability       float64       `json:"probability"`        // [0.001, 1]
	EstimatedDuration time.Duration `json:"estimated_duration"` // nanoseconds on the wire
	ErrorProbability  float64       `json:"error_probability"`  // [0, 0.95]
	IsCriticalPath    bool          `json:"is_critical_path"`
}

// ComplexityReport aggregates the three complexity metrics.
type ComplexityReport struct {
	Cyclomatic float64 `json:"cyclomatic"`
	Cognitive  float64 `json:"cognitive"`
	Structural float64 `json:"structural"`
	Score      float64 `json:"score"` // average of the three
}

// CompatibilityLevel grades a tool's availability in the journey runtime.
type CompatibilityLevel string

const (
	CompatibilityFull    CompatibilityLevel = "full"
	CompatibilityPartial CompatibilityLevel = "partial"
	CompatibilityNone    CompatibilityLevel = "none"
)

// ToolCompatibility is collaborator input: the engine reads it, never
// computes it.
type ToolCompatibility struct {
	ToolID        string             `json:"tool_id"`
	Compatibility CompatibilityLevel `json:"compatibility"`
	Issues        []string           `json:"issues,omitempty"`
}

// ToolReport cross-references tool nodes against compatibility input.
type ToolReport struct {
	Tools             []ToolCompatibility `json:"tools"`
	ReferencedTools   []string            `json:"referenced_tools"`
	IncompatibleTools []string            `json:"incompatible_tools"`
	MissingTools      []string            `json:"missing_tools"` // referenced but absent from input
}

// VariableUsageReport maps variables to the nodes reading them.
type VariableUsageReport struct {
	Defined []string            `json:"defined"`
	Readers map[string][]string `json:"readers"` // variable -> node ids
	Unused  []string            `json:"unused"`
}

// ErrorHandlingReport measures how much of the graph has explicit error
// handling.
type ErrorHandlingReport struct {
	CoveredNodes   []string `json:"covered_nodes"`
	UncoveredNodes []string `json:"uncovered_nodes"`
	Coverage       float64  `json:"coverage"` // [0, 1]
}

// PerformanceReport estimates run cost from the node weight model.
type PerformanceReport struct {
	EstimatedDuration time.Duration `json:"estimated_duration"` // critical path weight
	BottleneckNodes   []string      `json:"bottleneck_nodes"`
}

// SecurityReport flags sensitive variables and nodes handling them without
// encryption requirements.
type SecurityReport struct {
	SensitiveVariables []string `json:"sensitive_variables"`
	UnprotectedNodes   []string `json:"unprotected_nodes"`
	Findings           []string `json:"findings"`
}

// WorkflowAnalysisResult joins all sub-analyses over one immutable workflow
// version. Computed once per (workflow id, updated-at) and never mutated
// afterwards.
type WorkflowAnalysisResult struct {
	WorkflowID     string               `json:"workflow_id"`
	Version        string               `json:"version"`
	AnalyzedAt     time.Time            `json:"analyzed_at"`
	Structure      *WorkflowStructure   `json:"structure"`
	Dependencies   *DependencyGraph     `json:"dependencies"`
	ExecutionPaths []ExecutionPath      `json:"execution_paths"`
	Complexity     *ComplexityReport    `json:"complexity"`
	Tools          *ToolReport          `json:"tools"`
	Variables      *VariableUsageReport `json:"variables"`
	ErrorHandling  *ErrorHandlingReport `json:"error_handling"`
	Performance    *PerformanceReport   `json:"performance"`
	Security       *SecurityReport      `json:"security"`
}
