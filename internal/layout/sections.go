package layout

import (
	"fmt"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Section geometry. The secondary section sits below the main graph, with the
// config/secret columns on the left and the RBAC block to their right.
const (
	groupThreshold  = 2
	groupPreviewCap = 3

	columnVGap = 24.0
	columnGap  = 60.0
	rbacGap    = 120.0
	rbacHGap   = 60.0
	rowStep    = 160.0
	alignVGap  = 40.0
)

func isSectionKind(kind models.NodeKind) bool {
	switch kind {
	case models.KindServiceAccount, models.KindRole, models.KindClusterRole,
		models.KindRoleBinding, models.KindClusterRoleBinding,
		models.KindConfigMap, models.KindSecret:
		return true
	}
	return false
}

// partitionSections relocates RBAC and config/secret nodes out of the primary
// layout into an independently laid-out region anchored below the main graph.
// Columns exceeding the grouping threshold collapse into a single group node
// so the graph stays bounded at scale.
func partitionSections(nodes []models.TopologyNode, edges []models.TopologyEdge) ([]models.TopologyNode, []models.TopologyEdge) {
	var main, aux []models.TopologyNode
	for _, n := range nodes {
		if isSectionKind(n.Type) {
			aux = append(aux, n)
		} else {
			main = append(main, n)
		}
	}
	if len(aux) == 0 {
		return nodes, edges
	}

	anchorX, anchorY := layoutMargin, layoutMargin
	if len(main) > 0 {
		minX, maxY := main[0].Position.X, main[0].Position.Y+SizeOf(main[0].Type).H
		for _, n := range main[1:] {
			if n.Position.X < minX {
				minX = n.Position.X
			}
			if bottom := n.Position.Y + SizeOf(n.Type).H; bottom > maxY {
				maxY = bottom
			}
		}
		anchorX, anchorY = minX, maxY+sectionOffset
	}

	var placed []models.TopologyNode
	replaced := make(map[string]string) // collapsed node id -> group node id

	byKind := func(kind models.NodeKind) []models.TopologyNode {
		var out []models.TopologyNode
		for _, n := range aux {
			if n.Type == kind {
				out = append(out, n)
			}
		}
		return out
	}

	// Config and secret columns, side by side with tight spacing.
	colX := anchorX
	for _, col := range []struct {
		kind  models.NodeKind
		group string
		label string
	}{
		{models.KindConfigMap, "group-configmaps", "ConfigMaps"},
		{models.KindSecret, "group-secrets", "Secrets"},
	} {
		items := byKind(col.kind)
		if len(items) == 0 {
			continue
		}
		colNodes := collapseColumn(items, col.group, col.label, replaced)
		colWidth := 0.0
		y := anchorY
		for i := range colNodes {
			size := SizeOf(colNodes[i].Type)
			colNodes[i].Position = models.Position{X: colX, Y: y}
			y += size.H + columnVGap
			if size.W > colWidth {
				colWidth = size.W
			}
		}
		placed = append(placed, colNodes...)
		colX += colWidth + columnGap
	}

	// RBAC block anchored to the right of the columns.
	rbacX := anchorX
	if colX > anchorX {
		rbacX = colX - columnGap + rbacGap
	}
	var rbac []models.TopologyNode
	for _, n := range aux {
		if n.Type.IsRBAC() {
			rbac = append(rbac, n)
		}
	}
	if len(rbac) > 0 {
		placed = append(placed, layoutRBAC(rbac, edges, rbacX, anchorY)...)
	}

	out := append(main, placed...)
	return out, rewriteEdges(edges, replaced, out)
}

// collapseColumn replaces a column with a single group node when it exceeds
// the threshold, recording the replaced ids. The group carries the total
// count and a capped preview.
func collapseColumn(items []models.TopologyNode, groupID, label string, replaced map[string]string) []models.TopologyNode {
	if len(items) <= groupThreshold {
		return append([]models.TopologyNode(nil), items...)
	}
	preview := make([]models.GroupItem, 0, groupPreviewCap)
	status := models.StatusHealthy
	for _, n := range items {
		if len(preview) < groupPreviewCap {
			preview = append(preview, models.GroupItem{Name: n.Data.Label, Status: n.Data.Status})
		}
		switch n.Data.Status {
		case models.StatusError:
			status = models.StatusError
		case models.StatusWarning:
			if status != models.StatusError {
				status = models.StatusWarning
			}
		}
		replaced[n.ID] = groupID
	}
	group := models.TopologyNode{
		ID:   groupID,
		Type: models.KindGroup,
		Data: models.NodeData{
			Label:     fmt.Sprintf("%s (%d)", label, len(items)),
			Status:    status,
			Namespace: items[0].Data.Namespace,
			Context:   items[0].Data.Context,
			Resource:  "Group",
			Details: &models.NodeDetails{
				ItemCount: len(items),
				Items:     preview,
				HasMore:   len(items) > groupPreviewCap,
			},
		},
	}
	return []models.TopologyNode{group}
}

// layoutRBAC lays the RBAC chain out with its own vertical layered pass and
// then enforces the alignment rules: a role sits at the same x as the binding
// referencing it and strictly below it, and a lone service account is
// centered over the span of its bindings. With no internal edges to rank on,
// it falls back to a fixed manual grid whose rows never move upward.
func layoutRBAC(rbac []models.TopologyNode, edges []models.TopologyEdge, x, y float64) []models.TopologyNode {
	ids := make(map[string]bool, len(rbac))
	for _, n := range rbac {
		ids[n.ID] = true
	}
	var internal []models.TopologyEdge
	for _, e := range edges {
		if ids[e.Source] && ids[e.Target] {
			internal = append(internal, e)
		}
	}

	var placed []models.TopologyNode
	if len(internal) == 0 {
		placed = rbacGrid(rbac, x, y)
	} else {
		placed = arrangeLayered(rbac, internal, false, 0.5)
		translateTo(placed, x, y)
		alignRoles(placed, internal)
	}
	centerServiceAccount(placed)
	return placed
}

// rbacGrid is the manual fallback: service account row, then bindings row,
// then roles row, each strictly below the previous.
func rbacGrid(rbac []models.TopologyNode, x, y float64) []models.TopologyNode {
	rows := [][]models.TopologyNode{nil, nil, nil}
	for _, n := range rbac {
		switch n.Type {
		case models.KindServiceAccount:
			rows[0] = append(rows[0], n)
		case models.KindRoleBinding, models.KindClusterRoleBinding:
			rows[1] = append(rows[1], n)
		default:
			rows[2] = append(rows[2], n)
		}
	}
	var out []models.TopologyNode
	rowY := y
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		colX := x
		for i := range row {
			size := SizeOf(row[i].Type)
			row[i].Position = models.Position{X: colX, Y: rowY}
			colX += size.W + rbacHGap
		}
		out = append(out, row...)
		rowY += rowStep
	}
	return out
}

func translateTo(nodes []models.TopologyNode, x, y float64) {
	if len(nodes) == 0 {
		return
	}
	minX, minY := nodes[0].Position.X, nodes[0].Position.Y
	for _, n := range nodes[1:] {
		if n.Position.X < minX {
			minX = n.Position.X
		}
		if n.Position.Y < minY {
			minY = n.Position.Y
		}
	}
	for i := range nodes {
		nodes[i].Position.X += x - minX
		nodes[i].Position.Y += y - minY
	}
}

// alignRoles pins each referenced role to its binding's x, strictly below it.
func alignRoles(nodes []models.TopologyNode, internal []models.TopologyEdge) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}
	for _, e := range internal {
		if e.Data == nil || e.Data.Relationship != models.RelationReferences {
			continue
		}
		bi, ok1 := index[e.Source]
		ri, ok2 := index[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		binding := &nodes[bi]
		role := &nodes[ri]
		role.Position.X = binding.Position.X
		minY := binding.Position.Y + SizeOf(binding.Type).H + alignVGap
		if role.Position.Y < minY {
			role.Position.Y = minY
		}
	}
}

// centerServiceAccount centers a lone service account over the horizontal
// span of the bindings.
func centerServiceAccount(nodes []models.TopologyNode) {
	saIdx := -1
	saCount := 0
	minX, maxX := 0.0, 0.0
	haveBinding := false
	for i, n := range nodes {
		switch n.Type {
		case models.KindServiceAccount:
			saIdx = i
			saCount++
		case models.KindRoleBinding, models.KindClusterRoleBinding:
			left := n.Position.X
			right := n.Position.X + SizeOf(n.Type).W
			if !haveBinding || left < minX {
				minX = left
			}
			if !haveBinding || right > maxX {
				maxX = right
			}
			haveBinding = true
		}
	}
	if saCount != 1 || !haveBinding {
		return
	}
	size := SizeOf(nodes[saIdx].Type)
	nodes[saIdx].Position.X = (minX+maxX)/2 - size.W/2
}

// rewriteEdges re-points edges whose endpoint collapsed into a group node and
// drops any edge left without both endpoints.
func rewriteEdges(edges []models.TopologyEdge, replaced map[string]string, nodes []models.TopologyNode) []models.TopologyEdge {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	seen := make(map[string]bool, len(edges))
	out := make([]models.TopologyEdge, 0, len(edges))
	for _, e := range edges {
		if g, ok := replaced[e.Source]; ok {
			e.Source = g
			e.ID = fmt.Sprintf("edge-%s-%s", e.Source, e.Target)
		}
		if g, ok := replaced[e.Target]; ok {
			e.Target = g
			e.ID = fmt.Sprintf("edge-%s-%s", e.Source, e.Target)
		}
		if e.Source == e.Target || !present[e.Source] || !present[e.Target] || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}
