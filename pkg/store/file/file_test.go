package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/testutil"
)

func TestStore_WorkflowRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	w := testutil.LinearWorkflow()
	require.NoError(t, store.SaveWorkflow(ctx, w))

	loaded, err := store.GetWorkflow(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, w.ID, loaded.ID)
	assert.Equal(t, w.Name, loaded.Name)
	assert.Len(t, loaded.Nodes, 3)
	assert.Len(t, loaded.Edges, 2)
	assert.True(t, w.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestStore_GetWorkflowMissingReturnsNil(t *testing.T) {
	store := NewStore(t.TempDir())

	loaded, err := store.GetWorkflow(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_SaveWorkflowRejectsInvalidDocument(t *testing.T) {
	store := NewStore(t.TempDir())

	w := testutil.CreateTestWorkflow(nil, nil)
	err := store.SaveWorkflow(context.Background(), w)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow schema validation failed")
}

func TestStore_ListWorkflowIDs(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"wf-b", "wf-a", "wf-c"} {
		w := testutil.LinearWorkflow()
		w.ID = id
		require.NoError(t, store.SaveWorkflow(ctx, w))
	}

	ids, err := store.ListWorkflowIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wf-a", "wf-b", "wf-c"}, ids)
}

func TestStore_JourneyRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	journey := &models.JourneyDefinition{
		ID:    "journey-1",
		Title: "Test Journey",
		States: []*models.JourneyStateDefinition{
			{
				ID:        "state-start",
				Name:      "Start",
				IsInitial: true,
				Config:    models.ChatConfig(&models.ChatStateConfig{Prompt: "Hello"}),
			},
			{
				ID:      "state-end",
				Name:    "End",
				IsFinal: true,
				Config:  models.FinalConfig(&models.FinalStateConfig{Outcome: "completed"}),
			},
		},
		Transitions: []*models.JourneyTransitionDefinition{
			{ID: "t1", FromStateID: "state-start", ToStateID: "state-end"},
		},
	}

	require.NoError(t, store.SaveJourney(ctx, journey))

	loaded, err := store.GetJourney(ctx, "journey-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, journey, loaded)
}

func TestStore_GetJourneyMissingReturnsNil(t *testing.T) {
	store := NewStore(t.TempDir())

	loaded, err := store.GetJourney(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_HealthCheck(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, NewStore(dir).HealthCheck(context.Background()))
	assert.Error(t, NewStore(filepath.Join(dir, "missing")).HealthCheck(context.Background()))
}

func TestNewStore_StripsFileScheme(t *testing.T) {
	dir := t.TempDir()
	store := NewStore("file://" + dir)

	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestLoadWorkflowFile(t *testing.T) {
	dir := t.TempDir()
	documentPath := filepath.Join(dir, "workflow.json")

	document := []byte(`{
		"id": "wf-file",
		"name": "From File",
		"nodes": [
			{"id": "start", "type": "start"},
			{"id": "end", "type": "end"}
		],
		"edges": [
			{"id": "e1", "source": "start", "target": "end"}
		]
	}`)

	require.NoError(t, os.WriteFile(documentPath, document, 0600))

	w, err := LoadWorkflowFile(documentPath)
	require.NoError(t, err)
	assert.Equal(t, "wf-file", w.ID)
	assert.Len(t, w.Nodes, 2)

	_, err = LoadWorkflowFile(filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
}

func TestLoadWorkflowFile_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	documentPath := filepath.Join(dir, "bad.json")

	require.NoError(t, os.WriteFile(documentPath, []byte(`{"id": "wf"}`), 0600))

	_, err := LoadWorkflowFile(documentPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow schema validation failed")
}
