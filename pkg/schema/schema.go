// Package schema validates workflow documents against the workflow JSON
// schema before they enter the conversion pipeline.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed workflow.schema.json
var workflowSchema string

// ValidateWorkflowDocument validates a raw workflow JSON document against the
// embedded workflow schema. It returns an error describing every violation
// when the document is invalid.
func ValidateWorkflowDocument(document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(workflowSchema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate workflow document: %w", err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, violation := range result.Errors() {
			violations = append(violations, violation.String())
		}

		return fmt.Errorf("workflow schema validation failed: %s", strings.Join(violations, "; "))
	}

	return nil
}
