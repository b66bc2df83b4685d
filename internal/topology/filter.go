package topology

import (
	"strings"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// ApplyFilters prunes nodes by search term or status and drops every edge
// that references a removed node. A non-empty search term short-circuits the
// status filter, matching the dashboard's observed behavior. The input slices
// are not modified, so this is safe to call on every keystroke.
func ApplyFilters(nodes []models.TopologyNode, edges []models.TopologyEdge, filters models.TopologyFilters) ([]models.TopologyNode, []models.TopologyEdge) {
	term := strings.TrimSpace(filters.SearchTerm)
	status := filters.StatusFilter
	if term == "" && (status == "" || status == models.StatusFilterAll) {
		return nodes, edges
	}

	kept := make([]models.TopologyNode, 0, len(nodes))
	keptIDs := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		if term != "" {
			if !matchesSearch(node, term) {
				continue
			}
		} else if node.Data.Status != status {
			continue
		}
		kept = append(kept, node)
		keptIDs[node.ID] = true
	}

	keptEdges := make([]models.TopologyEdge, 0, len(edges))
	for _, edge := range edges {
		if keptIDs[edge.Source] && keptIDs[edge.Target] {
			keptEdges = append(keptEdges, edge)
		}
	}
	return kept, keptEdges
}

// matchesSearch does a case-insensitive substring match against the node's
// label and kind.
func matchesSearch(node models.TopologyNode, term string) bool {
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(node.Data.Label), needle) ||
		strings.Contains(strings.ToLower(string(node.Type)), needle)
}
