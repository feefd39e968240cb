package journeyctx

import (
	"log/slog"

	"github.com/dukex/journeyc/pkg/models"
)

// incompatibleConversions lists workflow->journey type pairs that lose
// information. They are non-blocking: the value passes through unchanged.
var incompatibleConversions = map[[2]string]bool{
	{"object", "text"}: true,
	{"array", "text"}:  true,
	{"null", "number"}: true,
}

// ContextValidator aggregates the whole mapping into a pass/fail verdict
// plus warnings.
type ContextValidator struct {
	logger *slog.Logger
}

func NewContextValidator(logger *slog.Logger) *ContextValidator {
	return &ContextValidator{logger: logger}
}

// Validate checks duplicate journey names, type-incompatible conversions
// and cross-references to unmapped variables. Cycles are fatal upstream and
// never reach this point.
func (v *ContextValidator) Validate(w *models.Workflow, mapping *models.ContextMapping) models.ContextValidation {
	validation := models.ContextValidation{Valid: true}

	seen := make(map[string]string, len(mapping.Variables))

	for _, m := range mapping.Variables {
		if previous, dup := seen[m.JourneyName]; dup {
			validation.Errors = append(validation.Errors,
				"duplicate journey variable name "+m.JourneyName+" (from "+previous+" and "+m.WorkflowName+")")

			continue
		}

		seen[m.JourneyName] = m.WorkflowName

		if incompatibleConversions[[2]string{m.WorkflowType, m.JourneyType}] {
			validation.Warnings = append(validation.Warnings,
				"variable "+m.WorkflowName+": lossy conversion from "+m.WorkflowType+" to "+m.JourneyType)
		}
	}

	validation.Warnings = append(validation.Warnings, v.unmappedReferences(w, mapping)...)

	if len(validation.Errors) > 0 {
		validation.Valid = false
	}

	for _, warning := range validation.Warnings {
		v.logger.Warn("context validation", "warning", warning)
	}

	return validation
}

// unmappedReferences flags condition variables that are neither mapped
// workflow variables nor dynamic variables.
func (v *ContextValidator) unmappedReferences(w *models.Workflow, mapping *models.ContextMapping) []string {
	mapped := make(map[string]bool, len(mapping.Variables))
	for _, m := range mapping.Variables {
		mapped[m.WorkflowName] = true
	}

	dynamic := make(map[string]bool)

	for _, variables := range mapping.Dynamic.PerState {
		for _, dv := range variables {
			dynamic[dv.Name] = true
		}
	}

	var warnings []string

	seen := make(map[string]bool)

	for _, n := range w.Nodes {
		for _, name := range conditionIdentifiers(n.Condition()) {
			if mapped[name] || dynamic[name] || seen[name] {
				continue
			}

			seen[name] = true
			warnings = append(warnings, "condition on node "+n.ID+" references unmapped variable "+name)
		}
	}

	return warnings
}
