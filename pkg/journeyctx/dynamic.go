package journeyctx

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/dukex/journeyc/pkg/models"
)

// DynamicVariableResolver extracts runtime-resolved variables (calculated,
// user-input, api-response) per node, builds their dependency graph and
// computes a resolution order. A dependency cycle is fatal.
type DynamicVariableResolver struct {
	logger *slog.Logger
}

func NewDynamicVariableResolver(logger *slog.Logger) *DynamicVariableResolver {
	return &DynamicVariableResolver{logger: logger}
}

// Resolve returns the per-state dynamic variables and a dependency-ordered
// resolution sequence over all of them.
func (r *DynamicVariableResolver) Resolve(w *models.Workflow) (models.DynamicVariableResolution, error) {
	resolution := models.DynamicVariableResolution{
		PerState: make(map[string][]models.DynamicVariable),
	}

	byName := make(map[string]models.DynamicVariable)

	for _, n := range w.Nodes {
		for _, v := range extractDynamicVariables(n) {
			resolution.PerState[n.ID] = append(resolution.PerState[n.ID], v)
			byName[v.Name] = v
		}
	}

	order, err := r.resolutionOrder(byName)
	if err != nil {
		return models.DynamicVariableResolution{}, err
	}

	resolution.Order = order

	return resolution, nil
}

// resolutionOrder runs a three-color DFS over the variable dependency
// graph. A gray-gray edge is a cycle and aborts resolution.
func (r *DynamicVariableResolver) resolutionOrder(variables map[string]models.DynamicVariable) ([]string, error) {
	const (
		colorWhite = 0
		colorGray  = 1
		colorBlack = 2
	)

	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}

	sort.Strings(names)

	color := make(map[string]int, len(names))
	order := make([]string, 0, len(names))

	type frame struct {
		name string
		next int
	}

	for _, root := range names {
		if color[root] != colorWhite {
			continue
		}

		stack := []frame{{name: root}}
		color[root] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := dependenciesOf(variables, top.name)

			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++

				switch color[dep] {
				case colorGray:
					return nil, fmt.Errorf("%w: %s -> %s", ErrCircularVariableDependency, top.name, dep)
				case colorWhite:
					color[dep] = colorGray
					stack = append(stack, frame{name: dep})
				}

				continue
			}

			color[top.name] = colorBlack
			order = append(order, top.name)
			stack = stack[:len(stack)-1]
		}
	}

	return order, nil
}

// dependenciesOf returns only dependencies that are themselves dynamic
// variables; references to static workflow variables resolve trivially.
func dependenciesOf(variables map[string]models.DynamicVariable, name string) []string {
	v, ok := variables[name]
	if !ok {
		return nil
	}

	var deps []string

	for _, dep := range v.DependsOn {
		if _, dynamic := variables[dep]; dynamic {
			deps = append(deps, dep)
		}
	}

	return deps
}

var expressionIdentifiers = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// extractDynamicVariables finds the variables a node produces at runtime.
func extractDynamicVariables(n *models.WorkflowNode) []models.DynamicVariable {
	switch n.Type {
	case models.BlockTypeUserInput:
		name := n.ID + "_input"
		if n.Data != nil {
			if v, ok := n.Data["variable"].(string); ok && v != "" {
				name = v
			}
		}

		return []models.DynamicVariable{{Name: name, NodeID: n.ID, Source: models.DynamicSourceUserInput}}

	case models.BlockTypeTool, models.BlockTypeAPICall, models.BlockTypeWebhook:
		name := n.ID + "_response"
		if n.Data != nil {
			if v, ok := n.Data["output_variable"].(string); ok && v != "" {
				name = v
			}
		}

		return []models.DynamicVariable{{Name: name, NodeID: n.ID, Source: models.DynamicSourceAPIResponse}}

	case models.BlockTypeVariable, models.BlockTypeTransform:
		if n.Data == nil {
			return nil
		}

		name, _ := n.Data["variable"].(string)
		if name == "" {
			name = n.ID + "_value"
		}

		expression, _ := n.Data["expression"].(string)

		v := models.DynamicVariable{Name: name, NodeID: n.ID, Source: models.DynamicSourceCalculated}

		for _, dep := range expressionIdentifiers.FindAllString(expression, -1) {
			if dep != name && !strings.EqualFold(dep, "true") && !strings.EqualFold(dep, "false") {
				v.DependsOn = append(v.DependsOn, dep)
			}
		}

		return []models.DynamicVariable{v}

	default:
		return nil
	}
}
