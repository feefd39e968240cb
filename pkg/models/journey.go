package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StateKind discriminates the state configuration union.
type StateKind string

const (
	StateKindChat  StateKind = "chat"
	StateKindTool  StateKind = "tool"
	StateKindFinal StateKind = "final"
)

// ConditionalConfig attaches branch semantics to a chat state.
type ConditionalConfig struct {
	Condition      string   `json:"condition"`
	TrueVariables  []string `json:"true_variables"`
	FalseVariables []string `json:"false_variables"`
	TrueTarget     string   `json:"true_target,omitempty"`
	FalseTarget    string   `json:"false_target,omitempty"`
}

// LoopConfig attaches loop semantics to a chat state.
type LoopConfig struct {
	Condition     string   `json:"condition"`
	LoopType      LoopType `json:"loop_type"`
	MaxIterations int      `json:"max_iterations,omitempty"`
	BodyStates    []string `json:"body_states,omitempty"`
}

// ParallelConfig attaches split semantics to a chat state.
type ParallelConfig struct {
	Branches        int                 `json:"branches"`
	Synchronization SynchronizationType `json:"synchronization"`
	ErrorHandling   string              `json:"error_handling"`
}

// MergeConfig attaches join semantics to a chat state.
type MergeConfig struct {
	Sources []string `json:"sources,omitempty"`
}

// ChatStateConfig is the chat variant of the state union.
type ChatStateConfig struct {
	Prompt      string             `json:"prompt,omitempty"`
	Validation  string             `json:"validation,omitempty"`
	Conditional *ConditionalConfig `json:"conditional,omitempty"`
	Loop        *LoopConfig        `json:"loop,omitempty"`
	Parallel    *ParallelConfig    `json:"parallel,omitempty"`
	Merge       *MergeConfig       `json:"merge,omitempty"`
}

// RetryPolicy is computed for downstream tool execution, never applied here.
type RetryPolicy struct {
	MaxAttempts int           `json:"max_attempts"`
	Backoff     string        `json:"backoff"` // none | fixed | exponential
	Timeout     time.Duration `json:"timeout"`
}

// ToolStateConfig is the tool variant of the state union.
type ToolStateConfig struct {
	ToolID        string            `json:"tool_id"`
	Parameters    map[string]any    `json:"parameters,omitempty"`
	InputMapping  map[string]string `json:"input_mapping,omitempty"`
	OutputMapping map[string]string `json:"output_mapping,omitempty"`
	Retry         RetryPolicy       `json:"retry"`
	OnError       string            `json:"on_error"` // fail | continue | fallback
}

// FinalStateConfig is the final variant of the state union.
type FinalStateConfig struct {
	Outcome          string `json:"outcome"`
	CleanupSession   bool   `json:"cleanup_session"`
	ReleaseResources bool   `json:"release_resources"`
}

// StateConfig is a tagged union: Kind selects exactly one populated variant.
type StateConfig struct {
	Kind  StateKind
	Chat  *ChatStateConfig
	Tool  *ToolStateConfig
	Final *FinalStateConfig
}

var ErrUnknownStateKind = errors.New("unknown state kind")

type stateConfigWire struct {
	Kind  StateKind         `json:"kind"`
	Chat  *ChatStateConfig  `json:"chat,omitempty"`
	Tool  *ToolStateConfig  `json:"tool,omitempty"`
	Final *FinalStateConfig `json:"final,omitempty"`
}

func (c StateConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateConfigWire{Kind: c.Kind, Chat: c.Chat, Tool: c.Tool, Final: c.Final})
}

func (c *StateConfig) UnmarshalJSON(data []byte) error {
	var wire stateConfigWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch wire.Kind {
	case StateKindChat, StateKindTool, StateKindFinal:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStateKind, wire.Kind)
	}

	*c = StateConfig{Kind: wire.Kind, Chat: wire.Chat, Tool: wire.Tool, Final: wire.Final}

	return nil
}

// ChatConfig builds a chat-kind state configuration.
func ChatConfig(cfg *ChatStateConfig) StateConfig {
	return StateConfig{Kind: StateKindChat, Chat: cfg}
}

// ToolConfig builds a tool-kind state configuration.
func ToolConfig(cfg *ToolStateConfig) StateConfig {
	return StateConfig{Kind: StateKindTool, Tool: cfg}
}

// FinalConfig builds a final-kind state configuration.
func FinalConfig(cfg *FinalStateConfig) StateConfig {
	return StateConfig{Kind: StateKindFinal, Final: cfg}
}

// JourneyStateDefinition is one state of the output machine. OriginalNodeID
// is kept for traceability only and never drives control flow.
type JourneyStateDefinition struct {
	ID             string      `json:"id"   validate:"required"`
	Name           string      `json:"name" validate:"required"`
	IsInitial      bool        `json:"is_initial"`
	IsFinal        bool        `json:"is_final"`
	OriginalNodeID string      `json:"original_node_id,omitempty"`
	Config         StateConfig `json:"config"`
}

// JourneyTransitionDefinition connects two states. Both endpoints must
// resolve to states in the same journey.
type JourneyTransitionDefinition struct {
	ID          string `json:"id"`
	FromStateID string `json:"from_state_id" validate:"required"`
	ToStateID   string `json:"to_state_id"   validate:"required"`
	Condition   string `json:"condition,omitempty"`
	Priority    int    `json:"priority,omitempty"`
}

// JourneyMetadata carries conversion provenance and quality scores.
type JourneyMetadata struct {
	SourceWorkflowID           string    `json:"source_workflow_id"`
	SourceVersion              string    `json:"source_version"`
	ConvertedAt                time.Time `json:"converted_at"`
	PreservationScore          float64   `json:"preservation_score"`
	FunctionalEquivalenceScore float64   `json:"functional_equivalence_score"`
	StructuralIntegrityScore   float64   `json:"structural_integrity_score"`
	Warnings                   []string  `json:"warnings,omitempty"`
}

// JourneyDefinition is the output finite-state machine. It is mutated in
// place during the multi-phase build and frozen once final validation
// passes.
type JourneyDefinition struct {
	ID          string                         `json:"id"`
	Title       string                         `json:"title"`
	States      []*JourneyStateDefinition      `json:"states"`
	Transitions []*JourneyTransitionDefinition `json:"transitions"`
	Metadata    JourneyMetadata                `json:"metadata"`
}

// StateByID returns the state with the given id.
func (j *JourneyDefinition) StateByID(id string) (*JourneyStateDefinition, bool) {
	for _, s := range j.States {
		if s.ID == id {
			return s, true
		}
	}

	return nil, false
}

// StateByOriginalNode returns the state converted from the given workflow
// node, if any.
func (j *JourneyDefinition) StateByOriginalNode(nodeID string) (*JourneyStateDefinition, bool) {
	for _, s := range j.States {
		if s.OriginalNodeID == nodeID {
			return s, true
		}
	}

	return nil, false
}

// InitialStates returns all states flagged initial.
func (j *JourneyDefinition) InitialStates() []*JourneyStateDefinition {
	var initial []*JourneyStateDefinition

	for _, s := range j.States {
		if s.IsInitial {
			initial = append(initial, s)
		}
	}

	return initial
}

// FinalStates returns all states flagged final.
func (j *JourneyDefinition) FinalStates() []*JourneyStateDefinition {
	var final []*JourneyStateDefinition

	for _, s := range j.States {
		if s.IsFinal {
			final = append(final, s)
		}
	}

	return final
}
