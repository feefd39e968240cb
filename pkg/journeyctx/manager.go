package journeyctx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
)

// ContextManager composes the six sub-managers into one ContextMapping.
// The mapping is built fresh per conversion request from the immutable
// analysis result.
type ContextManager struct {
	logger      *slog.Logger
	variables   *VariableMapper
	session     *SessionStateManager
	execution   *ExecutionContextManager
	dynamic     *DynamicVariableResolver
	inheritance *ContextInheritanceManager
	validator   *ContextValidator
}

func NewContextManager(logger *slog.Logger, inheritanceOptions InheritanceOptions) *ContextManager {
	return &ContextManager{
		logger:      logger,
		variables:   NewVariableMapper(logger),
		session:     NewSessionStateManager(logger),
		execution:   NewExecutionContextManager(logger),
		dynamic:     NewDynamicVariableResolver(logger),
		inheritance: NewContextInheritanceManager(logger, inheritanceOptions),
		validator:   NewContextValidator(logger),
	}
}

// BuildContextMapping maps the workflow's variables, session and execution
// context into journey context. Dynamic-variable or inheritance cycles are
// fatal; everything else degrades to warnings collected in the validation.
func (m *ContextManager) BuildContextMapping(ctx context.Context, w *models.Workflow, result *models.WorkflowAnalysisResult) (*models.ContextMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := m.logger.With("workflow_id", w.ID)
	logger.Debug("building context mapping")

	g := graph.New(w)

	mapping := &models.ContextMapping{
		Variables: m.variables.Map(w),
	}

	var sensitive []string
	if result != nil && result.Security != nil {
		sensitive = result.Security.SensitiveVariables
	}

	session, sessionWarnings := m.session.Map(w, sensitive)
	mapping.Session = session

	execution, err := m.execution.Map(w, g)
	if err != nil {
		return nil, fmt.Errorf("execution context mapping: %w", err)
	}

	mapping.Execution = execution

	dynamic, err := m.dynamic.Resolve(w)
	if err != nil {
		return nil, fmt.Errorf("dynamic variable resolution: %w", err)
	}

	mapping.Dynamic = dynamic

	inheritance, inheritanceWarnings, err := m.inheritance.Build(w, g)
	if err != nil {
		return nil, fmt.Errorf("context inheritance: %w", err)
	}

	mapping.Inheritance = inheritance

	mapping.Validation = m.validator.Validate(w, mapping)
	mapping.Validation.Warnings = append(mapping.Validation.Warnings, sessionWarnings...)
	mapping.Validation.Warnings = append(mapping.Validation.Warnings, inheritanceWarnings...)

	logger.Debug("context mapping built",
		"variables", len(mapping.Variables),
		"dynamic_variables", len(mapping.Dynamic.Order),
		"valid", mapping.Validation.Valid)

	return mapping, nil
}
