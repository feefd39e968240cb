package journeyctx

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dukex/journeyc/pkg/models"
)

// typeTable maps workflow variable types to journey variable types.
var typeTable = map[string]string{
	"string":   "text",
	"number":   "number",
	"integer":  "number",
	"boolean":  "boolean",
	"object":   "json",
	"array":    "list",
	"date":     "timestamp",
	"datetime": "timestamp",
	"null":     "text",
}

// VariableMapper projects each workflow variable onto a journey variable:
// type-mapped, renamed to a valid identifier and classified by conversion
// kind. Conversion failures fall back to the original value with a warning
// rather than aborting.
type VariableMapper struct {
	logger *slog.Logger
}

func NewVariableMapper(logger *slog.Logger) *VariableMapper {
	return &VariableMapper{logger: logger}
}

// Map converts all workflow variables, in name order for determinism.
func (m *VariableMapper) Map(w *models.Workflow) []models.VariableMapping {
	names := make([]string, 0, len(w.Variables))
	for name := range w.Variables {
		names = append(names, name)
	}

	sort.Strings(names)

	mappings := make([]models.VariableMapping, 0, len(names))
	for _, name := range names {
		mappings = append(mappings, m.mapOne(name, w.Variables[name]))
	}

	return mappings
}

func (m *VariableMapper) mapOne(name string, value any) models.VariableMapping {
	workflowType := inferType(value)

	journeyType, ok := typeTable[workflowType]
	if !ok {
		m.logger.Warn("no type mapping for workflow variable, defaulting to text",
			"variable", name, "workflow_type", workflowType)

		journeyType = "text"
	}

	mapping := models.VariableMapping{
		WorkflowName: name,
		JourneyName:  journeyVariableName(name),
		WorkflowType: workflowType,
		JourneyType:  journeyType,
		DefaultValue: value,
	}

	mapping.Kind, mapping.Rules = classifyConversion(workflowType, journeyType, value)

	if converted, err := applyRules(value, mapping.Rules); err != nil {
		// Fall back to the original value, never abort on conversion.
		m.logger.Warn("variable conversion failed, passing value through unchanged",
			"variable", name, "error", err)
	} else {
		mapping.DefaultValue = converted
	}

	return mapping
}

// inferType derives the workflow-side type from the value.
func inferType(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return "date"
		}

		return "string"
	case bool:
		return "boolean"
	case int, int32, int64:
		return "integer"
	case float32, float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case time.Time:
		return "date"
	default:
		return "string"
	}
}

// classifyConversion grades the mapping and attaches transformation rules.
func classifyConversion(workflowType, journeyType string, value any) (models.ConversionKind, []string) {
	switch workflowType {
	case "string", "number", "integer", "boolean":
		return models.ConversionDirect, nil
	case "date", "datetime":
		return models.ConversionConverted, []string{"format:rfc3339"}
	case "array":
		return models.ConversionConverted, []string{"wrap:list"}
	case "object":
		if deeplyNested(value, 0) {
			return models.ConversionComplex, []string{"serialize:json", "flatten:disabled"}
		}

		return models.ConversionConverted, []string{"serialize:json"}
	default:
		return models.ConversionComplex, []string{"coerce:text"}
	}
}

func deeplyNested(value any, depth int) bool {
	if depth > 1 {
		return true
	}

	m, ok := value.(map[string]any)
	if !ok {
		return false
	}

	for _, v := range m {
		if deeplyNested(v, depth+1) {
			return true
		}
	}

	return false
}

// applyRules normalizes the default value under the transformation rules.
func applyRules(value any, rules []string) (any, error) {
	for _, rule := range rules {
		if rule != "format:rfc3339" {
			continue
		}

		switch v := value.(type) {
		case time.Time:
			value = v.UTC().Format(time.RFC3339)
		case string:
			parsed, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, err
			}

			value = parsed.UTC().Format(time.RFC3339)
		}
	}

	return value, nil
}

// journeyVariableName produces a valid camelCase identifier: invalid
// characters become word breaks, and a numeric-leading name gets a prefix.
func journeyVariableName(name string) string {
	var (
		b        strings.Builder
		upperize bool
	)

	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upperize && b.Len() > 0 {
				r = unicode.ToUpper(r)
			}

			b.WriteRune(r)

			upperize = false
		default:
			upperize = true
		}
	}

	out := b.String()
	if out == "" {
		return "variable"
	}

	first, size := utf8.DecodeRuneInString(out)
	if unicode.IsDigit(first) {
		return "v" + out
	}

	return string(unicode.ToLower(first)) + out[size:]
}
