package journey

import (
	"github.com/dukex/journeyc/pkg/models"
)

// buildMetadata computes the conversion quality scores:
//
//	preservation  = avg(states/nodes, transitions/edges) x 100
//	functional    = 100 - 10 x incompatible tools - 50 x max(0, 0.8 - error coverage)
//	structural    = 100 - 20 x missing initial - 20 x missing final - 5 x orphaned states
func (s *MappingService) buildMetadata(b *buildState) models.JourneyMetadata {
	meta := models.JourneyMetadata{
		SourceWorkflowID: b.workflow.ID,
		SourceVersion:    b.workflow.Version,
		ConvertedAt:      nowUTC(),
		Warnings:         b.warnings,
	}

	if b.contexts != nil {
		meta.Warnings = append(meta.Warnings, b.contexts.Validation.Warnings...)
	}

	meta.PreservationScore = s.preservationScore(b)
	meta.FunctionalEquivalenceScore = s.functionalEquivalenceScore(b)
	meta.StructuralIntegrityScore = s.structuralIntegrityScore(b)

	return meta
}

func (s *MappingService) preservationScore(b *buildState) float64 {
	stateRatio := ratio(len(b.journey.States), len(b.workflow.Nodes))
	transitionRatio := ratio(len(b.journey.Transitions), len(b.workflow.Edges))

	return (stateRatio + transitionRatio) / 2 * 100
}

func (s *MappingService) functionalEquivalenceScore(b *buildState) float64 {
	score := 100.0

	if b.analysis.Tools != nil {
		score -= 10 * float64(len(b.analysis.Tools.IncompatibleTools))
	}

	coverage := 0.0
	if b.analysis.ErrorHandling != nil {
		coverage = b.analysis.ErrorHandling.Coverage
	}

	if deficit := 0.8 - coverage; deficit > 0 {
		score -= 50 * deficit
	}

	return clampScore(score)
}

func (s *MappingService) structuralIntegrityScore(b *buildState) float64 {
	score := 100.0

	if len(b.journey.InitialStates()) == 0 {
		score -= 20
	}

	if len(b.journey.FinalStates()) == 0 {
		score -= 20
	}

	score -= 5 * float64(orphanedStateCount(b.journey))

	return clampScore(score)
}

// orphanedStateCount counts non-initial states with no incoming transition.
func orphanedStateCount(j *models.JourneyDefinition) int {
	hasIncoming := make(map[string]bool, len(j.States))
	for _, t := range j.Transitions {
		hasIncoming[t.ToStateID] = true
	}

	count := 0

	for _, state := range j.States {
		if !state.IsInitial && !hasIncoming[state.ID] {
			count++
		}
	}

	return count
}

// ratio is capped at 1: synthesized states never raise preservation above
// perfect.
func ratio(actual, expected int) float64 {
	if expected == 0 {
		return 1
	}

	r := float64(actual) / float64(expected)
	if r > 1 {
		return 1
	}

	return r
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}

	if score > 100 {
		return 100
	}

	return score
}
