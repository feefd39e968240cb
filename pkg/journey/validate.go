package journey

import (
	"github.com/dukex/journeyc/pkg/models"
)

// validateJourney enforces the hard invariants of a finished journey:
// at least one initial and one final state, every transition endpoint
// resolves, and every non-initial state is reachable from the initial set.
// All violations are aggregated into a single blocking error.
func validateJourney(j *models.JourneyDefinition) error {
	var violations []string

	stateIDs := make(map[string]bool, len(j.States))
	for _, state := range j.States {
		stateIDs[state.ID] = true
	}

	initial := j.InitialStates()
	if len(initial) == 0 {
		violations = append(violations, "journey has no initial state")
	}

	if len(j.FinalStates()) == 0 {
		violations = append(violations, "journey has no final state")
	}

	for _, t := range j.Transitions {
		if !stateIDs[t.FromStateID] {
			violations = append(violations, "transition "+t.ID+" references missing from-state "+t.FromStateID)
		}

		if !stateIDs[t.ToStateID] {
			violations = append(violations, "transition "+t.ID+" references missing to-state "+t.ToStateID)
		}
	}

	for _, orphan := range unreachableStates(j, initial) {
		violations = append(violations, "state "+orphan+" is not reachable from any initial state")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	return nil
}

// unreachableStates runs BFS over transitions from the initial set and
// returns every non-initial state left unvisited.
func unreachableStates(j *models.JourneyDefinition, initial []*models.JourneyStateDefinition) []string {
	successors := make(map[string][]string, len(j.States))
	for _, t := range j.Transitions {
		successors[t.FromStateID] = append(successors[t.FromStateID], t.ToStateID)
	}

	visited := make(map[string]bool, len(j.States))

	queue := make([]string, 0, len(initial))
	for _, state := range initial {
		visited[state.ID] = true
		queue = append(queue, state.ID)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, next := range successors[id] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var unreachable []string

	for _, state := range j.States {
		if !state.IsInitial && !visited[state.ID] {
			unreachable = append(unreachable, state.ID)
		}
	}

	return unreachable
}
