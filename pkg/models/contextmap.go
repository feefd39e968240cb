package models

import "time"

// ConversionKind classifies how a workflow variable maps to its journey
// counterpart.
type ConversionKind string

const (
	ConversionDirect    ConversionKind = "direct"
	ConversionConverted ConversionKind = "converted"
	ConversionComplex   ConversionKind = "complex"
)

// VariableMapping pairs one workflow variable with its journey projection.
type VariableMapping struct {
	WorkflowName string         `json:"workflow_name"`
	JourneyName  string         `json:"journey_name"`
	WorkflowType string         `json:"workflow_type"`
	JourneyType  string         `json:"journey_type"`
	Kind         ConversionKind `json:"kind"`
	Rules        []string       `json:"rules,omitempty"` // transformation rules, in order
	DefaultValue any            `json:"default_value,omitempty"`
}

// SessionRequirement captures per-node session-state needs.
type SessionRequirement struct {
	NodeID     string        `json:"node_id"`
	Persistent bool          `json:"persistent"`
	Shared     bool          `json:"shared"`
	Encrypted  bool          `json:"encrypted"`
	TTL        time.Duration `json:"ttl,omitempty"`
}

// ExecutionContextEntry carries per-node execution defaults computed for the
// journey runtime.
type ExecutionContextEntry struct {
	NodeID        string        `json:"node_id"`
	Order         int           `json:"order"` // max(predecessor order) + 1
	Timeout       time.Duration `json:"timeout"`
	Retry         RetryPolicy   `json:"retry"`
	ErrorStrategy string        `json:"error_strategy"` // fail | continue | fallback
}

// DynamicSource classifies where a runtime-resolved variable comes from.
type DynamicSource string

const (
	DynamicSourceCalculated  DynamicSource = "calculated"
	DynamicSourceUserInput   DynamicSource = "user_input"
	DynamicSourceAPIResponse DynamicSource = "api_response"
)

// DynamicVariable is a variable resolved at journey runtime.
type DynamicVariable struct {
	Name      string        `json:"name"`
	NodeID    string        `json:"node_id"`
	Source    DynamicSource `json:"source"`
	DependsOn []string      `json:"depends_on,omitempty"`
}

// DynamicVariableResolution holds the per-state dependency graphs and the
// global resolution order. The dependency graph must be acyclic.
type DynamicVariableResolution struct {
	PerState map[string][]DynamicVariable `json:"per_state"`
	Order    []string                     `json:"order"`
}

// InheritanceNode is one entry of the parent/child context hierarchy, which
// mirrors the workflow's own edges.
type InheritanceNode struct {
	NodeID   string   `json:"node_id"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
	Depth    int      `json:"depth"`
}

// ContextInheritance is the whole hierarchy plus its policy knobs.
type ContextInheritance struct {
	Nodes    map[string]*InheritanceNode `json:"nodes"`
	MaxDepth int                         `json:"max_depth"`
	Policy   string                      `json:"policy"` // override | cascade
}

// ContextValidation aggregates the validation outcome over a whole mapping.
type ContextValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ContextMapping is the full projection of workflow context into journey
// context. Built fresh per conversion request from the immutable analysis
// result.
type ContextMapping struct {
	Variables   []VariableMapping         `json:"variables"`
	Session     []SessionRequirement      `json:"session"`
	Execution   []ExecutionContextEntry   `json:"execution"`
	Dynamic     DynamicVariableResolution `json:"dynamic"`
	Inheritance ContextInheritance        `json:"inheritance"`
	Validation  ContextValidation         `json:"validation"`
}

// VariableByWorkflowName returns the mapping for a workflow variable.
func (m *ContextMapping) VariableByWorkflowName(name string) (VariableMapping, bool) {
	for _, v := range m.Variables {
		if v.WorkflowName == name {
			return v, true
		}
	}

	return VariableMapping{}, false
}

// ExecutionEntry returns the execution context entry for a node.
func (m *ContextMapping) ExecutionEntry(nodeID string) (ExecutionContextEntry, bool) {
	for _, e := range m.Execution {
		if e.NodeID == nodeID {
			return e, true
		}
	}

	return ExecutionContextEntry{}, false
}
