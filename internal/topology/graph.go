package topology

import (
	"fmt"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Graph accumulates nodes and edges during a build. Node ids are unique;
// duplicate adds are skipped so builders can emit without pre-checking.
type Graph struct {
	Nodes []models.TopologyNode
	Edges []models.TopologyEdge

	nodeIndex map[string]int
	edgeIDs   map[string]bool
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     []models.TopologyNode{},
		Edges:     []models.TopologyEdge{},
		nodeIndex: make(map[string]int),
		edgeIDs:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(node models.TopologyNode) {
	if _, exists := g.nodeIndex[node.ID]; exists {
		return // Skip duplicates
	}
	g.nodeIndex[node.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge models.TopologyEdge) {
	if g.edgeIDs[edge.ID] {
		return // Skip duplicates
	}
	g.edgeIDs[edge.ID] = true
	g.Edges = append(g.Edges, edge)
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *models.TopologyNode {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil
	}
	return &g.Nodes[i]
}

// NodesByKind returns all nodes of the given kind, in insertion order.
func (g *Graph) NodesByKind(kind models.NodeKind) []models.TopologyNode {
	var result []models.TopologyNode
	for _, node := range g.Nodes {
		if node.Type == kind {
			result = append(result, node)
		}
	}
	return result
}

// PruneDanglingEdges removes edges whose endpoints are not both present and
// returns how many were dropped. A correct build drops zero; this is the
// defensive backstop, not an expected path.
func (g *Graph) PruneDanglingEdges() int {
	kept := g.Edges[:0]
	dropped := 0
	for _, edge := range g.Edges {
		if g.HasNode(edge.Source) && g.HasNode(edge.Target) {
			kept = append(kept, edge)
			continue
		}
		delete(g.edgeIDs, edge.ID)
		dropped++
	}
	g.Edges = kept
	return dropped
}

// Validate checks graph invariants: no orphan edges, no duplicate node ids.
func (g *Graph) Validate() error {
	for _, edge := range g.Edges {
		if !g.HasNode(edge.Source) {
			return fmt.Errorf("orphan edge %s: missing source node %s", edge.ID, edge.Source)
		}
		if !g.HasNode(edge.Target) {
			return fmt.Errorf("orphan edge %s: missing target node %s", edge.ID, edge.Target)
		}
	}
	if len(g.Nodes) != len(g.nodeIndex) {
		return fmt.Errorf("duplicate node IDs detected")
	}
	return nil
}
