// Package layout positions topology graphs for rendering. It is pure
// geometry: given nodes, edges, and view options it returns positioned copies
// without touching cluster state, so the same graph always lays out the same
// way.
package layout

import (
	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Arrange positions every node and assigns edge handles according to the view
// options. Hierarchical modes run the layered solver and then relocate RBAC
// and config/secret nodes into their own section; radial mode places
// everything on a single ring. Input slices are never modified.
func Arrange(nodes []models.TopologyNode, edges []models.TopologyEdge, opts models.TopologyViewOptions) ([]models.TopologyNode, []models.TopologyEdge) {
	spacing := opts.Spacing
	if spacing <= 0 {
		spacing = 1
	}

	if opts.Layout == models.LayoutRadial {
		n, e := arrangeRadial(nodes, edges)
		return n, assignHandles(n, e, opts.Layout)
	}

	horizontal := opts.Layout == models.LayoutHorizontal
	placed := arrangeLayered(nodes, edges, horizontal, spacing)
	placed, out := partitionSections(placed, edges)
	return placed, assignHandles(placed, out, opts.Layout)
}
