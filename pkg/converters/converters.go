package converters

import (
	"context"

	"github.com/dukex/journeyc/pkg/models"
)

// StateID derives the journey state id for a workflow node.
func StateID(nodeID string) string {
	return "state-" + nodeID
}

func stateName(n *models.WorkflowNode, fallback string) string {
	if n.Name != "" {
		return n.Name
	}

	return fallback
}

func dataString(n *models.WorkflowNode, key string) string {
	if n.Data == nil {
		return ""
	}

	v, _ := n.Data[key].(string)

	return v
}

func dataStringMap(n *models.WorkflowNode, key string) map[string]string {
	if n.Data == nil {
		return nil
	}

	raw, ok := n.Data[key].(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string]string, len(raw))

	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// startConverter emits the initial chat state. Keeping an explicit state
// per start node preserves the node/state and edge/transition counts the
// preservation score is built on.
type startConverter struct{}

func (c *startConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeStart}
}
func (c *startConverter) Priority() int { return 100 }

func (c *startConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, "Start"),
		IsInitial:      true,
		OriginalNodeID: req.Node.ID,
		Config: models.ChatConfig(&models.ChatStateConfig{
			Prompt: dataString(req.Node, "prompt"),
		}),
	}, nil
}

// endConverter emits a final state.
type endConverter struct{}

func (c *endConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeEnd}
}
func (c *endConverter) Priority() int { return 100 }

func (c *endConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	outcome := dataString(req.Node, "outcome")
	if outcome == "" {
		outcome = "completed"
	}

	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, "End"),
		IsFinal:        true,
		OriginalNodeID: req.Node.ID,
		Config: models.FinalConfig(&models.FinalStateConfig{
			Outcome:          outcome,
			CleanupSession:   true,
			ReleaseResources: true,
		}),
	}, nil
}

// toolConverter emits tool states for tool, api_call and webhook nodes,
// pulling retry and error policy from the execution context mapping.
type toolConverter struct{}

func (c *toolConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeTool, models.BlockTypeAPICall, models.BlockTypeWebhook}
}
func (c *toolConverter) Priority() int { return 100 }

func (c *toolConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	toolID := dataString(req.Node, "tool_id")
	if toolID == "" {
		toolID = dataString(req.Node, "toolId")
	}

	if toolID == "" {
		toolID = string(req.Node.Type) + ":" + req.Node.ID
	}

	cfg := &models.ToolStateConfig{
		ToolID:        toolID,
		InputMapping:  dataStringMap(req.Node, "input_mapping"),
		OutputMapping: dataStringMap(req.Node, "output_mapping"),
		OnError:       "fail",
	}

	if req.Node.Data != nil {
		if params, ok := req.Node.Data["parameters"].(map[string]any); ok {
			cfg.Parameters = params
		}
	}

	if req.Contexts != nil {
		if entry, ok := req.Contexts.ExecutionEntry(req.Node.ID); ok {
			cfg.Retry = entry.Retry
			cfg.OnError = entry.ErrorStrategy
		}
	}

	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, "Tool "+toolID),
		OriginalNodeID: req.Node.ID,
		Config:         models.ToolConfig(cfg),
	}, nil
}

// conditionConverter emits a chat state carrying the branch configuration.
// Branch targets are filled during post-processing once all states exist.
type conditionConverter struct{}

func (c *conditionConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeCondition}
}
func (c *conditionConverter) Priority() int { return 100 }

func (c *conditionConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	conditional := &models.ConditionalConfig{Condition: req.Node.Condition()}

	if req.Analysis != nil && req.Analysis.Structure != nil {
		for _, record := range req.Analysis.Structure.Conditionals {
			if record.NodeID == req.Node.ID {
				conditional.TrueVariables = record.Variables
				conditional.FalseVariables = record.Variables

				break
			}
		}
	}

	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, "Decision"),
		OriginalNodeID: req.Node.ID,
		Config: models.ChatConfig(&models.ChatStateConfig{
			Prompt:      dataString(req.Node, "prompt"),
			Conditional: conditional,
		}),
	}, nil
}

// loopConverter emits a chat state with the loop configuration from the
// structural analysis, falling back to node data.
type loopConverter struct{}

func (c *loopConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeLoop}
}
func (c *loopConverter) Priority() int { return 100 }

func (c *loopConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	cfg := &models.LoopConfig{
		Condition: req.Node.Condition(),
		LoopType:  models.LoopTypeWhile,
	}

	if req.Analysis != nil && req.Analysis.Structure != nil {
		for _, loop := range req.Analysis.Structure.Loops {
			if loop.EntryNode == req.Node.ID {
				cfg.Condition = loop.Condition
				cfg.LoopType = loop.LoopType
				cfg.MaxIterations = loop.MaxIterations

				break
			}
		}
	}

	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, "Loop"),
		OriginalNodeID: req.Node.ID,
		Config:         models.ChatConfig(&models.ChatStateConfig{Loop: cfg}),
	}, nil
}

// parallelConverter emits a chat state with the split configuration.
type parallelConverter struct{}

func (c *parallelConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeParallel}
}
func (c *parallelConverter) Priority() int { return 100 }

func (c *parallelConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	cfg := &models.ParallelConfig{
		Synchronization: models.SynchronizationAll,
		ErrorHandling:   "fail_fast",
	}

	if req.Analysis != nil && req.Analysis.Structure != nil {
		for _, section := range req.Analysis.Structure.ParallelSections {
			if section.SplitNode == req.Node.ID {
				cfg.Branches = len(section.Branches)
				cfg.Synchronization = section.Synchronization
				cfg.ErrorHandling = section.ErrorHandling

				break
			}
		}
	}

	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, "Parallel"),
		OriginalNodeID: req.Node.ID,
		Config:         models.ChatConfig(&models.ChatStateConfig{Parallel: cfg}),
	}, nil
}

// joinConverter emits a chat state with merge semantics for explicit join
// nodes.
type joinConverter struct{}

func (c *joinConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeParallelJoin}
}
func (c *joinConverter) Priority() int { return 100 }

func (c *joinConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	merge := &models.MergeConfig{}

	for _, e := range req.Workflow.Edges {
		if e.Target == req.Node.ID {
			merge.Sources = append(merge.Sources, e.Source)
		}
	}

	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, "Join"),
		OriginalNodeID: req.Node.ID,
		Config:         models.ChatConfig(&models.ChatStateConfig{Merge: merge}),
	}, nil
}

// mergeConverter drops plain merge nodes: transitions are rewired around
// them.
type mergeConverter struct{}

func (c *mergeConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeMerge}
}
func (c *mergeConverter) Priority() int { return 100 }

func (c *mergeConverter) Convert(_ context.Context, _ Request) (*models.JourneyStateDefinition, error) {
	return nil, nil
}

// userInputConverter emits a chat state prompting the user.
type userInputConverter struct{}

func (c *userInputConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeUserInput}
}
func (c *userInputConverter) Priority() int { return 100 }

func (c *userInputConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	prompt := dataString(req.Node, "prompt")
	if prompt == "" {
		prompt = "Please provide input"
	}

	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, "User Input"),
		OriginalNodeID: req.Node.ID,
		Config: models.ChatConfig(&models.ChatStateConfig{
			Prompt:     prompt,
			Validation: dataString(req.Node, "validation"),
		}),
	}, nil
}

// variableConverter drops variable nodes: their values surface through the
// dynamic variable resolution instead of an explicit state.
type variableConverter struct{}

func (c *variableConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeVariable}
}
func (c *variableConverter) Priority() int { return 100 }

func (c *variableConverter) Convert(_ context.Context, _ Request) (*models.JourneyStateDefinition, error) {
	return nil, nil
}

// delayConverter emits a tool state backed by the built-in delay tool.
type delayConverter struct{}

func (c *delayConverter) BlockTypes() []models.BlockType {
	return []models.BlockType{models.BlockTypeDelay, models.BlockTypeTransform}
}
func (c *delayConverter) Priority() int { return 100 }

func (c *delayConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	toolID := "system.delay"
	if req.Node.Type == models.BlockTypeTransform {
		toolID = "system.transform"
	}

	cfg := &models.ToolStateConfig{
		ToolID:  toolID,
		OnError: "continue",
	}

	if req.Node.Data != nil {
		cfg.Parameters = req.Node.Data
	}

	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, toolID),
		OriginalNodeID: req.Node.ID,
		Config:         models.ToolConfig(cfg),
	}, nil
}

// defaultConverter is the catch-all for unknown block types: a generic chat
// state so the journey stays connected.
type defaultConverter struct{}

func (c *defaultConverter) BlockTypes() []models.BlockType { return nil }
func (c *defaultConverter) Priority() int                  { return 0 }

func (c *defaultConverter) Convert(_ context.Context, req Request) (*models.JourneyStateDefinition, error) {
	return &models.JourneyStateDefinition{
		ID:             StateID(req.Node.ID),
		Name:           stateName(req.Node, string(req.Node.Type)),
		OriginalNodeID: req.Node.ID,
		Config: models.ChatConfig(&models.ChatStateConfig{
			Prompt: "Continue",
		}),
	}, nil
}
