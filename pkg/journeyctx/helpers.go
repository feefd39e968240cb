package journeyctx

import (
	"regexp"
	"strings"

	"github.com/dukex/journeyc/pkg/models"
)

var conditionIdentifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

var conditionKeywords = map[string]bool{
	"true": true, "false": true, "null": true, "and": true, "or": true,
	"not": true, "in": true, "contains": true, "matches": true,
}

// conditionIdentifiers extracts candidate variable names from a condition
// string, skipping language keywords.
func conditionIdentifiers(condition string) []string {
	if condition == "" {
		return nil
	}

	seen := make(map[string]bool)

	var names []string

	for _, match := range conditionIdentifierPattern.FindAllString(condition, -1) {
		if conditionKeywords[strings.ToLower(match)] || seen[match] {
			continue
		}

		seen[match] = true
		names = append(names, match)
	}

	return names
}

func asFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}

// nodeMentions reports whether a node references the variable name in its
// condition or any string data value.
func nodeMentions(n *models.WorkflowNode, name string) bool {
	if strings.Contains(n.Condition(), name) {
		return true
	}

	for _, v := range n.Data {
		if s, ok := v.(string); ok && strings.Contains(s, name) {
			return true
		}
	}

	return false
}
