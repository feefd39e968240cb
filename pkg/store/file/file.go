// Package file provides file-based storage for workflow documents and
// compiled journey definitions.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/journeyc/pkg/models"
	"github.com/dukex/journeyc/pkg/schema"
)

// Store reads workflow documents from and writes journey definitions to a
// directory tree rooted at root. Workflows live under root/workflows and
// journeys under root/journeys, one JSON document per file.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory. A file:// prefix
// on root is accepted and stripped.
func NewStore(root string) *Store {
	return &Store{root: strings.Replace(root, "file://", "", 1)}
}

// HealthCheck verifies the root directory exists.
func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// GetWorkflow retrieves a workflow by its ID. It returns nil without error
// when no document exists for the ID.
func (s *Store) GetWorkflow(_ context.Context, workflowID string) (*models.Workflow, error) {
	filePath := filepath.Clean(path.Join(s.root, "workflows", workflowID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	return decodeWorkflow(body)
}

// ListWorkflowIDs returns the IDs of every stored workflow, sorted.
func (s *Store) ListWorkflowIDs(_ context.Context) ([]string, error) {
	root := os.DirFS(path.Join(s.root, "workflows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	sort.Strings(ids)

	return ids, nil
}

// SaveWorkflow validates and writes a workflow document.
func (s *Store) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	err := os.MkdirAll(path.Join(s.root, "workflows"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	if err := schema.ValidateWorkflowDocument(data); err != nil {
		return err
	}

	filePath := path.Join(s.root, "workflows", workflow.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// GetJourney retrieves a compiled journey by its ID. It returns nil without
// error when no document exists for the ID.
func (s *Store) GetJourney(_ context.Context, journeyID string) (*models.JourneyDefinition, error) {
	filePath := filepath.Clean(path.Join(s.root, "journeys", journeyID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch journey %s: %w", journeyID, err)
	}

	var journey models.JourneyDefinition

	err = json.Unmarshal(body, &journey)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal journey %s: %w", journeyID, err)
	}

	return &journey, nil
}

// SaveJourney writes a compiled journey definition.
func (s *Store) SaveJourney(_ context.Context, journey *models.JourneyDefinition) error {
	err := os.MkdirAll(path.Join(s.root, "journeys"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create journeys directory: %w", err)
	}

	data, err := json.MarshalIndent(journey, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journey %s: %w", journey.ID, err)
	}

	filePath := path.Join(s.root, "journeys", journey.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// LoadWorkflowFile reads a workflow document from an arbitrary path,
// validating it against the workflow schema.
func LoadWorkflowFile(filePath string) (*models.Workflow, error) {
	body, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file %s: %w", filePath, err)
	}

	return decodeWorkflow(body)
}

func decodeWorkflow(body []byte) (*models.Workflow, error) {
	if err := schema.ValidateWorkflowDocument(body); err != nil {
		return nil, err
	}

	var workflow models.Workflow

	err := json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}

	return &workflow, nil
}
