package journeyctx

import (
	"log/slog"
	"time"

	"github.com/dukex/journeyc/pkg/models"
)

const defaultSessionTTL = 30 * time.Minute

// persistentTypes and sharedTypes are the block-type whitelists driving
// default session requirements; node data overrides them.
var persistentTypes = map[models.BlockType]bool{
	models.BlockTypeUserInput: true,
	models.BlockTypeTool:      true,
	models.BlockTypeAPICall:   true,
	models.BlockTypeLoop:      true,
}

var sharedTypes = map[models.BlockType]bool{
	models.BlockTypeParallel:     true,
	models.BlockTypeParallelJoin: true,
	models.BlockTypeMerge:        true,
}

// SessionStateManager determines per-node session requirements and flags
// suspicious combinations as warnings.
type SessionStateManager struct {
	logger *slog.Logger
}

func NewSessionStateManager(logger *slog.Logger) *SessionStateManager {
	return &SessionStateManager{logger: logger}
}

// Map computes session requirements for every node. sensitiveVariables
// comes from the security sub-report and drives encryption defaults.
func (m *SessionStateManager) Map(w *models.Workflow, sensitiveVariables []string) ([]models.SessionRequirement, []string) {
	var (
		requirements []models.SessionRequirement
		warnings     []string
	)

	for _, n := range w.Nodes {
		req := models.SessionRequirement{
			NodeID:     n.ID,
			Persistent: persistentTypes[n.Type],
			Shared:     sharedTypes[n.Type],
			Encrypted:  referencesSensitive(n, sensitiveVariables),
		}

		if req.Persistent {
			req.TTL = defaultSessionTTL
		}

		applySessionOverrides(&req, n)

		if req.Persistent && req.TTL == 0 {
			warnings = append(warnings, "node "+n.ID+": persistent session state without a TTL")
		}

		if req.Encrypted && !referencesSensitive(n, sensitiveVariables) {
			warnings = append(warnings, "node "+n.ID+": encrypted session state without classified sensitive variables")
		}

		requirements = append(requirements, req)
	}

	for _, warning := range warnings {
		m.logger.Warn("session state mapping", "warning", warning)
	}

	return requirements, warnings
}

func applySessionOverrides(req *models.SessionRequirement, n *models.WorkflowNode) {
	if n.Data == nil {
		return
	}

	session, ok := n.Data["session"].(map[string]any)
	if !ok {
		return
	}

	if v, ok := session["persistent"].(bool); ok {
		req.Persistent = v
	}

	if v, ok := session["shared"].(bool); ok {
		req.Shared = v
	}

	if v, ok := session["encrypted"].(bool); ok {
		req.Encrypted = v
	}

	if seconds, ok := asFloat(session["ttl_seconds"]); ok && seconds >= 0 {
		req.TTL = time.Duration(seconds) * time.Second
	}
}

func referencesSensitive(n *models.WorkflowNode, sensitive []string) bool {
	for _, name := range sensitive {
		if nodeMentions(n, name) {
			return true
		}
	}

	return false
}
