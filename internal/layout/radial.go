package layout

import (
	"math"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// arrangeRadial places the workload root at a fixed center and every other
// node on a fixed-radius circle around it at equal angular increments. Edges
// keep their routing but get a distinct rendering type.
func arrangeRadial(nodes []models.TopologyNode, edges []models.TopologyEdge) ([]models.TopologyNode, []models.TopologyEdge) {
	out := append([]models.TopologyNode(nil), nodes...)
	if len(out) == 0 {
		return out, edges
	}

	rootIdx := 0
	for i, n := range out {
		if n.Type.IsWorkloadRoot() {
			rootIdx = i
			break
		}
	}

	placeCenter := func(i int, cx, cy float64) {
		size := SizeOf(out[i].Type)
		out[i].Position = models.Position{X: cx - size.W/2, Y: cy - size.H/2}
	}

	placeCenter(rootIdx, radialCenterX, radialCenterY)
	n := len(out) - 1
	ring := 0
	for i := range out {
		if i == rootIdx {
			continue
		}
		angle := float64(ring) * 2 * math.Pi / float64(n)
		placeCenter(i,
			radialCenterX+radialRadius*math.Cos(angle),
			radialCenterY+radialRadius*math.Sin(angle))
		ring++
	}

	outEdges := append([]models.TopologyEdge(nil), edges...)
	for i := range outEdges {
		outEdges[i].Type = "radial"
	}
	return out, outEdges
}
