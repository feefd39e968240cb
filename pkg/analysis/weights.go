package analysis

import (
	"time"

	"github.com/dukex/journeyc/pkg/models"
)

// baseDurations is the per-block-type duration model used by critical-path
// and execution-path estimation. Nodes may override it via a "duration_ms"
// data field.
var baseDurations = map[models.BlockType]time.Duration{
	models.BlockTypeStart:        10 * time.Millisecond,
	models.BlockTypeEnd:          10 * time.Millisecond,
	models.BlockTypeTool:         2000 * time.Millisecond,
	models.BlockTypeAPICall:      3000 * time.Millisecond,
	models.BlockTypeCondition:    100 * time.Millisecond,
	models.BlockTypeLoop:         500 * time.Millisecond,
	models.BlockTypeParallel:     200 * time.Millisecond,
	models.BlockTypeParallelJoin: 200 * time.Millisecond,
	models.BlockTypeMerge:        50 * time.Millisecond,
	models.BlockTypeUserInput:    30000 * time.Millisecond,
	models.BlockTypeVariable:     20 * time.Millisecond,
	models.BlockTypeTransform:    500 * time.Millisecond,
	models.BlockTypeDelay:        1000 * time.Millisecond,
	models.BlockTypeWebhook:      2500 * time.Millisecond,
}

const defaultDuration = 1000 * time.Millisecond

// baseErrorRates is the per-block-type default error probability used when a
// node carries no explicit "error_rate" annotation.
var baseErrorRates = map[models.BlockType]float64{
	models.BlockTypeStart:        0,
	models.BlockTypeEnd:          0,
	models.BlockTypeTool:         0.05,
	models.BlockTypeAPICall:      0.1,
	models.BlockTypeCondition:    0.01,
	models.BlockTypeLoop:         0.02,
	models.BlockTypeParallel:     0.02,
	models.BlockTypeParallelJoin: 0.02,
	models.BlockTypeMerge:        0.005,
	models.BlockTypeUserInput:    0.03,
	models.BlockTypeVariable:     0.005,
	models.BlockTypeTransform:    0.03,
	models.BlockTypeDelay:        0.001,
	models.BlockTypeWebhook:      0.08,
}

const defaultErrorRate = 0.05

// nodeDuration resolves the base duration for a node, honoring a
// "duration_ms" override.
func nodeDuration(n *models.WorkflowNode) time.Duration {
	if n.Data != nil {
		if ms, ok := asFloat(n.Data["duration_ms"]); ok && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}

	if d, ok := baseDurations[n.Type]; ok {
		return d
	}

	return defaultDuration
}

// nodeErrorRate resolves the error probability for a node, honoring an
// "error_rate" override.
func nodeErrorRate(n *models.WorkflowNode) float64 {
	if n.Data != nil {
		if rate, ok := asFloat(n.Data["error_rate"]); ok && rate >= 0 && rate <= 1 {
			return rate
		}
	}

	if rate, ok := baseErrorRates[n.Type]; ok {
		return rate
	}

	return defaultErrorRate
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
