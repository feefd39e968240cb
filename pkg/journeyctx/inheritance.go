package journeyctx

import (
	"fmt"
	"log/slog"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/models"
)

const defaultMaxInheritanceDepth = 10

// InheritanceOptions configures hierarchy construction.
type InheritanceOptions struct {
	MaxDepth int
	Policy   string // override | cascade
}

// ContextInheritanceManager builds the parent/child context hierarchy
// mirroring the graph's own edges. The hierarchy must be a DAG; a cycle
// surviving back-edge stripping is fatal.
type ContextInheritanceManager struct {
	logger  *slog.Logger
	options InheritanceOptions
}

func NewContextInheritanceManager(logger *slog.Logger, options InheritanceOptions) *ContextInheritanceManager {
	if options.MaxDepth <= 0 {
		options.MaxDepth = defaultMaxInheritanceDepth
	}

	if options.Policy == "" {
		options.Policy = "cascade"
	}

	return &ContextInheritanceManager{logger: logger, options: options}
}

// Build computes the hierarchy plus per-node depth. Nodes deeper than
// MaxDepth stop inheriting: their parent link is cut and a warning is
// returned.
func (m *ContextInheritanceManager) Build(w *models.Workflow, g *graph.Graph) (models.ContextInheritance, []string, error) {
	acyclic := g.WithoutEdges(backEdgeIDs(g))

	sorted, err := acyclic.TopologicalSort()
	if err != nil {
		return models.ContextInheritance{}, nil, fmt.Errorf("%w: hierarchy is not a DAG", ErrInheritanceCycle)
	}

	inheritance := models.ContextInheritance{
		Nodes:    make(map[string]*models.InheritanceNode, len(w.Nodes)),
		MaxDepth: m.options.MaxDepth,
		Policy:   m.options.Policy,
	}

	for _, n := range w.Nodes {
		inheritance.Nodes[n.ID] = &models.InheritanceNode{NodeID: n.ID}
	}

	var warnings []string

	for _, id := range sorted {
		node := inheritance.Nodes[id]
		if node == nil {
			continue
		}

		// Parent = deepest predecessor, so depth is the longest chain.
		for _, pred := range acyclic.Predecessors(id) {
			parent := inheritance.Nodes[pred]
			if parent == nil {
				continue
			}

			if node.Parent == "" || parent.Depth >= inheritance.Nodes[node.Parent].Depth {
				node.Parent = pred
			}
		}

		if node.Parent != "" {
			node.Depth = inheritance.Nodes[node.Parent].Depth + 1
		}

		if node.Depth > m.options.MaxDepth {
			warnings = append(warnings, "node "+id+": inheritance depth exceeds maximum, context chain cut")
			m.logger.Warn("inheritance depth exceeded", "node_id", id, "depth", node.Depth, "max_depth", m.options.MaxDepth)

			node.Parent = ""
			node.Depth = 0
		}
	}

	for _, node := range inheritance.Nodes {
		if node.Parent != "" {
			parent := inheritance.Nodes[node.Parent]
			parent.Children = append(parent.Children, node.NodeID)
		}
	}

	return inheritance, warnings, nil
}
