package layout

import (
	"sort"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// weightedEdge is one adjacency entry of the layered solver.
type weightedEdge struct {
	node   int
	weight float64
}

// layeredSolver implements a rank-based hierarchical layout in the Sugiyama
// style: nodes are assigned to ranks along the primary axis, ordered within
// each rank by a weighted barycenter of their predecessors, then spaced along
// the secondary axis using the sizing table. Heavier edges pull children in
// line with their parents.
type layeredSolver struct {
	nodes      []models.TopologyNode
	horizontal bool
	spacing    float64

	index map[string]int
	succ  [][]weightedEdge
	pred  [][]weightedEdge

	rank  []int
	ranks [][]int // rank -> node indexes in order

	primary   []float64 // center along the rank axis
	secondary []float64 // center along the cross axis
}

// arrangeLayered positions nodes for the horizontal (LR) and vertical (TB)
// modes and returns a new slice; the input is not modified.
func arrangeLayered(nodes []models.TopologyNode, edges []models.TopologyEdge, horizontal bool, spacing float64) []models.TopologyNode {
	if len(nodes) == 0 {
		return nil
	}
	if spacing <= 0 {
		spacing = 1
	}

	s := &layeredSolver{
		nodes:      append([]models.TopologyNode(nil), nodes...),
		horizontal: horizontal,
		spacing:    spacing,
		index:      make(map[string]int, len(nodes)),
		succ:       make([][]weightedEdge, len(nodes)),
		pred:       make([][]weightedEdge, len(nodes)),
		rank:       make([]int, len(nodes)),
		primary:    make([]float64, len(nodes)),
		secondary:  make([]float64, len(nodes)),
	}
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
	for _, e := range edges {
		src, ok1 := s.index[e.Source]
		dst, ok2 := s.index[e.Target]
		if !ok1 || !ok2 || src == dst {
			continue
		}
		w := edgeWeight(e)
		s.succ[src] = append(s.succ[src], weightedEdge{node: dst, weight: w})
		s.pred[dst] = append(s.pred[dst], weightedEdge{node: src, weight: w})
	}

	s.assignRanks()
	s.orderRanks()
	s.assignCoordinates()

	for i := range s.nodes {
		size := SizeOf(s.nodes[i].Type)
		var cx, cy float64
		if s.horizontal {
			cx, cy = s.primary[i], s.secondary[i]
		} else {
			cx, cy = s.secondary[i], s.primary[i]
		}
		// Stored position is the top-left corner.
		s.nodes[i].Position = models.Position{X: cx - size.W/2, Y: cy - size.H/2}
	}
	return s.nodes
}

// assignRanks places each node on the longest path from a root. The graph is
// a DAG by construction; a defensive pass places any leftover node (cycle or
// disconnected artifact) at rank 0.
func (s *layeredSolver) assignRanks() {
	indeg := make([]int, len(s.nodes))
	for _, out := range s.succ {
		for _, e := range out {
			indeg[e.node]++
		}
	}
	queue := make([]int, 0, len(s.nodes))
	for i := range s.nodes {
		if indeg[i] == 0 {
			queue = append(queue, i)
			s.rank[i] = 0
		}
	}
	seen := make([]bool, len(s.nodes))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		seen[cur] = true
		for _, e := range s.succ[cur] {
			if r := s.rank[cur] + 1; r > s.rank[e.node] {
				s.rank[e.node] = r
			}
			indeg[e.node]--
			if indeg[e.node] == 0 {
				queue = append(queue, e.node)
			}
		}
	}
	maxRank := 0
	for i := range s.nodes {
		if !seen[i] {
			s.rank[i] = 0
		}
		if s.rank[i] > maxRank {
			maxRank = s.rank[i]
		}
	}
	s.ranks = make([][]int, maxRank+1)
	for i := range s.nodes {
		s.ranks[s.rank[i]] = append(s.ranks[s.rank[i]], i)
	}
}

// orderRanks orders each rank by the weighted barycenter of predecessor
// order, reducing crossings while staying deterministic: ties keep insertion
// order.
func (s *layeredSolver) orderRanks() {
	order := make([]int, len(s.nodes)) // node -> position within its rank
	for r, members := range s.ranks {
		if r > 0 {
			type ranked struct {
				node int
				bary float64
			}
			pairs := make([]ranked, len(members))
			for mi, n := range members {
				var sum, weight float64
				for _, p := range s.pred[n] {
					if s.rank[p.node] < r {
						sum += float64(order[p.node]) * p.weight
						weight += p.weight
					}
				}
				bary := float64(mi)
				if weight > 0 {
					bary = sum / weight
				}
				pairs[mi] = ranked{node: n, bary: bary}
			}
			sort.SliceStable(pairs, func(a, b int) bool {
				return pairs[a].bary < pairs[b].bary
			})
			for mi, p := range pairs {
				members[mi] = p.node
			}
		}
		for pos, n := range members {
			order[n] = pos
		}
	}
}

// assignCoordinates spaces ranks along the primary axis and nodes along the
// secondary axis, then nudges children toward the weighted center of their
// parents so heavy chains render as straight lines.
func (s *layeredSolver) assignCoordinates() {
	ranksep := rankSeparation * s.spacing
	nodesep := nodeSeparation * s.spacing

	// Primary axis: ranks are spaced by the tallest/widest member.
	extent := func(n int) (primary, secondary float64) {
		size := SizeOf(s.nodes[n].Type)
		if s.horizontal {
			return size.W, size.H
		}
		return size.H, size.W
	}

	cursor := layoutMargin
	for _, members := range s.ranks {
		maxPrimary := 0.0
		for _, n := range members {
			p, _ := extent(n)
			if p > maxPrimary {
				maxPrimary = p
			}
		}
		for _, n := range members {
			s.primary[n] = cursor + maxPrimary/2
		}
		cursor += maxPrimary + ranksep
	}

	// Secondary axis: sequential placement with parent alignment. A node with
	// predecessors prefers their weighted center but never overlaps the
	// neighbor already placed to its left.
	for r, members := range s.ranks {
		minCenter := layoutMargin
		for _, n := range members {
			_, sec := extent(n)
			desired := minCenter + sec/2
			if r > 0 {
				var sum, weight float64
				for _, p := range s.pred[n] {
					if s.rank[p.node] < r {
						sum += s.secondary[p.node] * p.weight
						weight += p.weight
					}
				}
				if weight > 0 {
					if c := sum / weight; c > desired {
						desired = c
					}
				}
			}
			s.secondary[n] = desired
			minCenter = desired + sec/2 + nodesep
		}
	}
}
