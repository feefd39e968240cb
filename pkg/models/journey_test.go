package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateConfig_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		config StateConfig
	}{
		{
			name: "chat with conditional",
			config: ChatConfig(&ChatStateConfig{
				Prompt: "Pick one",
				Conditional: &ConditionalConfig{
					Condition:   "score > 10",
					TrueTarget:  "state-yes",
					FalseTarget: "state-no",
				},
			}),
		},
		{
			name: "tool with retry",
			config: ToolConfig(&ToolStateConfig{
				ToolID:  "crm.lookup",
				OnError: "fallback",
				Retry:   RetryPolicy{MaxAttempts: 3, Backoff: "exponential", Timeout: 30 * time.Second},
			}),
		},
		{
			name:   "final",
			config: FinalConfig(&FinalStateConfig{Outcome: "completed", CleanupSession: true}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.config)
			require.NoError(t, err)

			var decoded StateConfig

			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, tt.config, decoded)
		})
	}
}

func TestStateConfig_UnmarshalRejectsUnknownKind(t *testing.T) {
	var decoded StateConfig

	err := json.Unmarshal([]byte(`{"kind":"hologram"}`), &decoded)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStateKind)
}

func TestJourneyDefinition_StateLookups(t *testing.T) {
	j := &JourneyDefinition{
		States: []*JourneyStateDefinition{
			{ID: "state-start", OriginalNodeID: "start", IsInitial: true},
			{ID: "state-work", OriginalNodeID: "work"},
			{ID: "state-end", OriginalNodeID: "end", IsFinal: true},
		},
	}

	state, ok := j.StateByID("state-work")
	require.True(t, ok)
	assert.Equal(t, "work", state.OriginalNodeID)

	_, ok = j.StateByID("state-missing")
	assert.False(t, ok)

	state, ok = j.StateByOriginalNode("end")
	require.True(t, ok)
	assert.Equal(t, "state-end", state.ID)

	require.Len(t, j.InitialStates(), 1)
	assert.Equal(t, "state-start", j.InitialStates()[0].ID)
	require.Len(t, j.FinalStates(), 1)
	assert.Equal(t, "state-end", j.FinalStates()[0].ID)
}

func TestWorkflow_CacheKey(t *testing.T) {
	w := &Workflow{
		ID:        "wf-1",
		UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 500, time.UTC),
	}

	assert.Equal(t, "wf-1@2025-06-01T12:00:00.0000005Z", w.CacheKey())

	w.UpdatedAt = w.UpdatedAt.Add(time.Nanosecond)
	assert.Equal(t, "wf-1@2025-06-01T12:00:00.000000501Z", w.CacheKey())
}
