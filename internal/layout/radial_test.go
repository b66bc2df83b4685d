package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

func TestArrangeRadialRootCentered(t *testing.T) {
	nodes := []models.TopologyNode{
		{ID: "pod-a", Type: models.KindPod},
		{ID: "deployment-web", Type: models.KindDeployment},
		{ID: "pod-b", Type: models.KindPod},
	}
	out, _ := arrangeRadial(nodes, nil)
	require.Len(t, out, 3)

	root := position(t, out, "deployment-web")
	size := SizeOf(models.KindDeployment)
	assert.Equal(t, radialCenterX-size.W/2, root.X)
	assert.Equal(t, radialCenterY-size.H/2, root.Y)
}

func TestArrangeRadialRing(t *testing.T) {
	nodes := []models.TopologyNode{
		{ID: "deployment-web", Type: models.KindDeployment},
		{ID: "pod-a", Type: models.KindPod},
		{ID: "pod-b", Type: models.KindPod},
		{ID: "pod-c", Type: models.KindPod},
		{ID: "pod-d", Type: models.KindPod},
	}
	out, _ := arrangeRadial(nodes, nil)

	// every non-root node center sits exactly on the circle
	for _, n := range out {
		if n.ID == "deployment-web" {
			continue
		}
		size := SizeOf(n.Type)
		cx := n.Position.X + size.W/2
		cy := n.Position.Y + size.H/2
		dist := math.Hypot(cx-radialCenterX, cy-radialCenterY)
		assert.InDelta(t, radialRadius, dist, 0.001, "node %s off the ring", n.ID)
	}

	// first ring node is at angle 0: directly right of center
	a := position(t, out, "pod-a")
	size := SizeOf(models.KindPod)
	assert.InDelta(t, radialCenterX+radialRadius, a.X+size.W/2, 0.001)
	assert.InDelta(t, radialCenterY, a.Y+size.H/2, 0.001)
}

func TestArrangeRadialEdgesTyped(t *testing.T) {
	nodes := []models.TopologyNode{
		{ID: "deployment-web", Type: models.KindDeployment},
		{ID: "pod-a", Type: models.KindPod},
	}
	edges := []models.TopologyEdge{{ID: "e", Source: "deployment-web", Target: "pod-a", Type: "default"}}
	_, outEdges := arrangeRadial(nodes, edges)
	require.Len(t, outEdges, 1)
	assert.Equal(t, "radial", outEdges[0].Type)
	// input edge untouched
	assert.Equal(t, "default", edges[0].Type)
}
