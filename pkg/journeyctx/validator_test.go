package journeyctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/testutil"
)

func TestContextValidator_DuplicateJourneyNames(t *testing.T) {
	w := testutil.LinearWorkflow()
	mapping := &models.ContextMapping{
		Variables: []models.VariableMapping{
			{WorkflowName: "user_name", JourneyName: "userName", WorkflowType: "string", JourneyType: "text"},
			{WorkflowName: "user-name", JourneyName: "userName", WorkflowType: "string", JourneyType: "text"},
		},
	}

	validator := NewContextValidator(testLogger())
	validation := validator.Validate(w, mapping)

	assert.False(t, validation.Valid)
	require.Len(t, validation.Errors, 1)
	assert.Contains(t, validation.Errors[0], "duplicate journey variable name userName")
}

func TestContextValidator_LossyConversionWarns(t *testing.T) {
	w := testutil.LinearWorkflow()
	mapping := &models.ContextMapping{
		Variables: []models.VariableMapping{
			{WorkflowName: "payload", JourneyName: "payload", WorkflowType: "object", JourneyType: "text"},
		},
	}

	validator := NewContextValidator(testLogger())
	validation := validator.Validate(w, mapping)

	assert.True(t, validation.Valid)
	require.Len(t, validation.Warnings, 1)
	assert.Contains(t, validation.Warnings[0], "lossy conversion")
}

func TestContextValidator_UnmappedConditionReference(t *testing.T) {
	w := testutil.ConditionalWorkflow()
	mapping := &models.ContextMapping{}

	validator := NewContextValidator(testLogger())
	validation := validator.Validate(w, mapping)

	assert.True(t, validation.Valid)
	require.NotEmpty(t, validation.Warnings)
	assert.Contains(t, validation.Warnings[0], "unmapped variable score")
}

func TestContextValidator_DynamicVariablesCountAsMapped(t *testing.T) {
	w := testutil.ConditionalWorkflow()
	mapping := &models.ContextMapping{
		Dynamic: models.DynamicVariableResolution{
			PerState: map[string][]models.DynamicVariable{
				"ask": {{Name: "score", NodeID: "ask", Source: models.DynamicSourceUserInput}},
			},
		},
	}

	validator := NewContextValidator(testLogger())
	validation := validator.Validate(w, mapping)

	assert.True(t, validation.Valid)
	assert.Empty(t, validation.Warnings)
}
