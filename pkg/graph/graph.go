// Package graph provides the directed-graph algorithms backing workflow
// analysis: topological ordering, strongly connected components, longest
// path, back-edge detection and reachability.
//
// All traversals are iterative with explicit stacks or queues and
// visited sets bounded by node count, so they terminate on cyclic inputs.
package graph

import (
	"errors"
	"sort"

	"github.com/dukex/journeyc/pkg/models"
)

// ErrCyclicGraph is returned by order-dependent algorithms when the graph
// still contains a cycle. Callers must strip identified loop back edges
// first.
var ErrCyclicGraph = errors.New("graph contains a cycle")

// Edge is a directed edge between two node ids.
type Edge struct {
	ID          string
	Source      string
	Target      string
	Condition   string
	Priority    int
	Probability *float64
}

// Graph is an adjacency-indexed view over a node/edge list. It is read-only
// after construction.
type Graph struct {
	order []string
	nodes map[string]bool
	out   map[string][]Edge
	in    map[string][]Edge
}

// New builds a Graph from a workflow, dropping edges whose endpoints do not
// exist in the node set.
func New(w *models.Workflow) *Graph {
	nodes := make([]string, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		nodes = append(nodes, n.ID)
	}

	edges := make([]Edge, 0, len(w.Edges))

	for _, e := range w.Edges {
		var probability *float64
		if e.Data != nil {
			probability = e.Data.Probability
		}

		edges = append(edges, Edge{
			ID:          e.ID,
			Source:      e.Source,
			Target:      e.Target,
			Condition:   e.Condition(),
			Priority:    e.Priority(),
			Probability: probability,
		})
	}

	return FromEdges(nodes, edges)
}

// FromEdges builds a Graph from raw node ids and edges.
func FromEdges(nodes []string, edges []Edge) *Graph {
	g := &Graph{
		order: make([]string, 0, len(nodes)),
		nodes: make(map[string]bool, len(nodes)),
		out:   make(map[string][]Edge, len(nodes)),
		in:    make(map[string][]Edge, len(nodes)),
	}

	for _, id := range nodes {
		if g.nodes[id] {
			continue
		}

		g.nodes[id] = true
		g.order = append(g.order, id)
	}

	for _, e := range edges {
		if !g.nodes[e.Source] || !g.nodes[e.Target] {
			continue
		}

		g.out[e.Source] = append(g.out[e.Source], e)
		g.in[e.Target] = append(g.in[e.Target], e)
	}

	return g
}

// Nodes returns node ids in insertion order.
func (g *Graph) Nodes() []string {
	return g.order
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, edges := range g.out {
		count += len(edges)
	}

	return count
}

// HasNode reports whether the node id exists.
func (g *Graph) HasNode(id string) bool {
	return g.nodes[id]
}

// OutEdges returns the outgoing edges of a node.
func (g *Graph) OutEdges(id string) []Edge {
	return g.out[id]
}

// InEdges returns the incoming edges of a node.
func (g *Graph) InEdges(id string) []Edge {
	return g.in[id]
}

// Successors returns direct successor node ids.
func (g *Graph) Successors(id string) []string {
	edges := g.out[id]
	successors := make([]string, 0, len(edges))

	for _, e := range edges {
		successors = append(successors, e.Target)
	}

	return successors
}

// Predecessors returns direct predecessor node ids.
func (g *Graph) Predecessors(id string) []string {
	edges := g.in[id]
	predecessors := make([]string, 0, len(edges))

	for _, e := range edges {
		predecessors = append(predecessors, e.Source)
	}

	return predecessors
}

// WithoutEdges returns a copy of the graph with the given edge ids removed.
// Used to strip loop back edges before acyclic-only algorithms.
func (g *Graph) WithoutEdges(skip map[string]bool) *Graph {
	if len(skip) == 0 {
		return g
	}

	edges := make([]Edge, 0, g.EdgeCount())

	for _, id := range g.order {
		for _, e := range g.out[id] {
			if !skip[e.ID] {
				edges = append(edges, e)
			}
		}
	}

	return FromEdges(g.order, edges)
}

// TopologicalSort orders nodes with Kahn's algorithm. It fails with
// ErrCyclicGraph when not every node can be emitted.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		inDegree[id] = len(g.in[id])
	}

	queue := make([]string, 0, len(g.order))

	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(g.order))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, e := range g.out[id] {
			inDegree[e.Target]--
			if inDegree[e.Target] == 0 {
				queue = append(queue, e.Target)
			}
		}
	}

	if len(sorted) != len(g.order) {
		return nil, ErrCyclicGraph
	}

	return sorted, nil
}

// BackEdges finds all edges whose target is on the active DFS stack. These
// are the loop indicators and must be classified before acyclic-only
// algorithms run.
func (g *Graph) BackEdges() []Edge {
	const (
		colorWhite = 0
		colorGray  = 1
		colorBlack = 2
	)

	color := make(map[string]int, len(g.order))

	var backEdges []Edge

	type frame struct {
		node string
		next int
	}

	for _, root := range g.order {
		if color[root] != colorWhite {
			continue
		}

		stack := []frame{{node: root}}
		color[root] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.out[top.node]

			if top.next < len(edges) {
				e := edges[top.next]
				top.next++

				switch color[e.Target] {
				case colorGray:
					backEdges = append(backEdges, e)
				case colorWhite:
					color[e.Target] = colorGray
					stack = append(stack, frame{node: e.Target})
				}

				continue
			}

			color[top.node] = colorBlack
			stack = stack[:len(stack)-1]
		}
	}

	return backEdges
}

// StronglyConnectedComponents runs Tarjan's low-link algorithm iteratively.
// Components of size one are discarded: a single node is not a cycle.
func (g *Graph) StronglyConnectedComponents() [][]string {
	index := make(map[string]int, len(g.order))
	lowLink := make(map[string]int, len(g.order))
	onStack := make(map[string]bool, len(g.order))

	var (
		counter    int
		tarjan     []string
		components [][]string
	)

	type frame struct {
		node string
		next int
	}

	for _, root := range g.order {
		if _, seen := index[root]; seen {
			continue
		}

		stack := []frame{{node: root}}

		index[root] = counter
		lowLink[root] = counter
		counter++

		tarjan = append(tarjan, root)
		onStack[root] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.out[top.node]

			if top.next < len(edges) {
				target := edges[top.next].Target
				top.next++

				if _, seen := index[target]; !seen {
					index[target] = counter
					lowLink[target] = counter
					counter++

					tarjan = append(tarjan, target)
					onStack[target] = true
					stack = append(stack, frame{node: target})
				} else if onStack[target] && index[target] < lowLink[top.node] {
					lowLink[top.node] = index[target]
				}

				continue
			}

			node := top.node
			stack = stack[:len(stack)-1]

			if len(stack) > 0 {
				parent := &stack[len(stack)-1]
				if lowLink[node] < lowLink[parent.node] {
					lowLink[parent.node] = lowLink[node]
				}
			}

			if lowLink[node] == index[node] {
				var component []string

				for {
					member := tarjan[len(tarjan)-1]
					tarjan = tarjan[:len(tarjan)-1]
					onStack[member] = false
					component = append(component, member)

					if member == node {
						break
					}
				}

				if len(component) > 1 {
					sort.Strings(component)
					components = append(components, component)
				}
			}
		}
	}

	return components
}

// LongestPath computes the maximum-weight path under a per-node weight
// function with a dynamic program over the topological order. The graph must
// be acyclic.
func (g *Graph) LongestPath(weight func(nodeID string) float64) ([]string, float64, error) {
	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil, 0, err
	}

	if len(sorted) == 0 {
		return nil, 0, nil
	}

	dist := make(map[string]float64, len(sorted))
	pred := make(map[string]string, len(sorted))

	for _, id := range sorted {
		dist[id] = weight(id)
	}

	for _, id := range sorted {
		for _, e := range g.out[id] {
			if candidate := dist[id] + weight(e.Target); candidate > dist[e.Target] {
				dist[e.Target] = candidate
				pred[e.Target] = id
			}
		}
	}

	end := sorted[0]
	for _, id := range sorted {
		if dist[id] > dist[end] {
			end = id
		}
	}

	var path []string
	for id := end; ; {
		path = append([]string{id}, path...)

		previous, ok := pred[id]
		if !ok {
			break
		}

		id = previous
	}

	return path, dist[end], nil
}

// Reachable returns the set of nodes reachable from the given start nodes,
// start nodes included, via BFS.
func (g *Graph) Reachable(starts ...string) map[string]bool {
	visited := make(map[string]bool, len(g.order))
	queue := make([]string, 0, len(starts))

	for _, id := range starts {
		if g.nodes[id] && !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, e := range g.out[id] {
			if !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	return visited
}
