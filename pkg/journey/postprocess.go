package journey

import (
	"context"
	"strings"

	"github.com/dukex/journeyc/pkg/converters"
	"github.com/dukex/journeyc/pkg/models"
)

// phasePostProcess annotates states with structural metadata and
// synthesizes the pieces per-node conversion cannot see: implicit join
// states, loop-back transitions, conditional branch targets and final
// flags on exit states.
func (s *MappingService) phasePostProcess(_ context.Context, b *buildState) error {
	if b.analysis.Structure == nil {
		return nil
	}

	s.annotateConditionals(b)
	s.synthesizeJoinStates(b)
	s.synthesizeLoopBacks(b)
	s.markExitStates(b)

	return nil
}

// annotateConditionals fills the branch targets of conditional chat states
// from their outgoing transitions.
func (s *MappingService) annotateConditionals(b *buildState) {
	for _, record := range b.analysis.Structure.Conditionals {
		stateID, ok := b.stateByNode[record.NodeID]
		if !ok {
			continue
		}

		state, found := b.journey.StateByID(stateID)
		if !found || state.Config.Kind != models.StateKindChat || state.Config.Chat.Conditional == nil {
			continue
		}

		conditional := state.Config.Chat.Conditional

		for _, t := range b.journey.Transitions {
			if t.FromStateID != stateID {
				continue
			}

			if strings.EqualFold(t.Condition, "false") {
				conditional.FalseTarget = t.ToStateID
			} else if conditional.TrueTarget == "" {
				conditional.TrueTarget = t.ToStateID
			}
		}
	}
}

// synthesizeJoinStates creates a merge state for every non-implicit
// parallel section whose join node produced no state of its own. Sections
// without a convergence point stay implicit: no join state is synthesized.
func (s *MappingService) synthesizeJoinStates(b *buildState) {
	for _, section := range b.analysis.Structure.ParallelSections {
		if section.Implicit() {
			continue
		}

		joinStateID := converters.StateID(section.JoinNode)
		if _, exists := b.journey.StateByID(joinStateID); exists {
			continue
		}

		merge := &models.MergeConfig{}

		for _, branch := range section.Branches {
			if len(branch) > 0 {
				merge.Sources = append(merge.Sources, branch[len(branch)-1])
			}
		}

		s.logger.Debug("synthesizing join state for parallel section",
			"split_node", section.SplitNode, "join_node", section.JoinNode)

		b.journey.States = append(b.journey.States, &models.JourneyStateDefinition{
			ID:             joinStateID,
			Name:           "Join",
			OriginalNodeID: section.JoinNode,
			Config:         models.ChatConfig(&models.ChatStateConfig{Merge: merge}),
		})
		b.stateByNode[section.JoinNode] = joinStateID
	}
}

// synthesizeLoopBacks guarantees each detected loop has its loop-back
// transition and annotates the entry state with the loop configuration.
func (s *MappingService) synthesizeLoopBacks(b *buildState) {
	for _, loop := range b.analysis.Structure.Loops {
		entryStateID, entryOK := b.resolveForward(loop.EntryNode)
		exitStateID, exitOK := b.stateFor(loop.ExitNode)

		if !entryOK || !exitOK {
			continue
		}

		if entryState, found := b.journey.StateByID(entryStateID); found {
			s.annotateLoopState(entryState, loop, b)
		}

		if !b.hasTransition(exitStateID, entryStateID) {
			s.logger.Debug("synthesizing loop-back transition",
				"entry_node", loop.EntryNode, "exit_node", loop.ExitNode)

			b.journey.Transitions = append(b.journey.Transitions, &models.JourneyTransitionDefinition{
				ID:          "transition-loopback-" + loop.ExitNode + "-" + loop.EntryNode,
				FromStateID: exitStateID,
				ToStateID:   entryStateID,
				Condition:   loop.Condition,
			})
		}
	}
}

func (s *MappingService) annotateLoopState(state *models.JourneyStateDefinition, loop models.LoopStructure, b *buildState) {
	if state.Config.Kind != models.StateKindChat {
		return
	}

	if state.Config.Chat.Loop == nil {
		state.Config.Chat.Loop = &models.LoopConfig{
			Condition:     loop.Condition,
			LoopType:      loop.LoopType,
			MaxIterations: loop.MaxIterations,
		}
	}

	if len(state.Config.Chat.Loop.BodyStates) == 0 {
		for _, nodeID := range loop.BodyNodes {
			if stateID, ok := b.stateByNode[nodeID]; ok {
				state.Config.Chat.Loop.BodyStates = append(state.Config.Chat.Loop.BodyStates, stateID)
			}
		}
	}
}

// markExitStates flags genuine exit states as final so journeys without an
// explicit end node still terminate. Only end-typed nodes and nodes with no
// outgoing edge qualify: the structure analyzer's last-node fallback must
// not rescue a pure cycle from the missing-final-state validation.
func (s *MappingService) markExitStates(b *buildState) {
	hasOutgoing := make(map[string]bool, len(b.workflow.Edges))
	for _, e := range b.workflow.Edges {
		hasOutgoing[e.Source] = true
	}

	for _, exit := range b.analysis.Structure.ExitPoints {
		node, ok := b.workflow.NodeByID(exit)
		if !ok {
			continue
		}

		if node.Type != models.BlockTypeEnd && hasOutgoing[exit] {
			continue
		}

		stateID, ok := b.stateFor(exit)
		if !ok {
			continue
		}

		if state, found := b.journey.StateByID(stateID); found {
			state.IsFinal = true
		}
	}
}

func (b *buildState) hasTransition(fromStateID, toStateID string) bool {
	for _, t := range b.journey.Transitions {
		if t.FromStateID == fromStateID && t.ToStateID == toStateID {
			return true
		}
	}

	return false
}
