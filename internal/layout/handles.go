package layout

import (
	"math"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// assignHandles picks which side of each node an edge attaches to, based on
// relative geometry. Handles a builder already fixed are left alone. RBAC
// edges are always vertical regardless of geometry; in horizontal mode every
// other edge is forced sideways; in vertical mode the side is chosen by
// comparing the coordinate deltas with a minimum threshold so near-aligned
// nodes don't jitter between sides.
func assignHandles(nodes []models.TopologyNode, edges []models.TopologyEdge, mode models.LayoutMode) []models.TopologyEdge {
	type center struct {
		x, y float64
		kind models.NodeKind
	}
	centers := make(map[string]center, len(nodes))
	for _, n := range nodes {
		size := SizeOf(n.Type)
		centers[n.ID] = center{
			x:    n.Position.X + size.W/2,
			y:    n.Position.Y + size.H/2,
			kind: n.Type,
		}
	}

	out := append([]models.TopologyEdge(nil), edges...)
	for i := range out {
		e := &out[i]
		if e.SourceHandle != "" && e.TargetHandle != "" {
			continue
		}
		src, ok1 := centers[e.Source]
		dst, ok2 := centers[e.Target]
		if !ok1 || !ok2 {
			continue
		}

		rbac := src.kind.IsRBAC() && dst.kind.IsRBAC()
		switch {
		case rbac:
			setVertical(e, dst.y-src.y)
		case mode == models.LayoutHorizontal:
			setHorizontal(e, dst.x-src.x)
		case mode == models.LayoutVertical:
			dx, dy := dst.x-src.x, dst.y-src.y
			if math.Abs(dx) > math.Abs(dy)+handleMinDelta {
				setHorizontal(e, dx)
			} else {
				setVertical(e, dy)
			}
		}
		// Radial mode: only RBAC edges get fixed handles.
	}
	return out
}

func setVertical(e *models.TopologyEdge, dy float64) {
	if dy >= 0 {
		e.SourceHandle = models.HandleBottom
		e.TargetHandle = models.HandleTop
	} else {
		e.SourceHandle = models.HandleTop
		e.TargetHandle = models.HandleBottom
	}
}

func setHorizontal(e *models.TopologyEdge, dx float64) {
	if dx >= 0 {
		e.SourceHandle = models.HandleRight
		e.TargetHandle = models.HandleLeft
	} else {
		e.SourceHandle = models.HandleLeft
		e.TargetHandle = models.HandleRight
	}
}
