package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

func handleNodes() []models.TopologyNode {
	return []models.TopologyNode{
		{ID: "a", Type: models.KindDeployment, Position: models.Position{X: 0, Y: 0}},
		{ID: "b", Type: models.KindPod, Position: models.Position{X: 600, Y: 0}},
		{ID: "c", Type: models.KindPod, Position: models.Position{X: 0, Y: 500}},
	}
}

func TestHandlesHorizontalModeForcesSideways(t *testing.T) {
	// target below the source, but horizontal mode still attaches sideways
	edges := []models.TopologyEdge{{ID: "e", Source: "a", Target: "c"}}
	out := assignHandles(handleNodes(), edges, models.LayoutHorizontal)
	require.Len(t, out, 1)
	assert.Equal(t, models.HandleRight, out[0].SourceHandle)
	assert.Equal(t, models.HandleLeft, out[0].TargetHandle)
}

func TestHandlesVerticalModeThreshold(t *testing.T) {
	// |dx| must exceed |dy| by the threshold before flipping sideways
	nodes := []models.TopologyNode{
		{ID: "a", Type: models.KindPod, Position: models.Position{X: 0, Y: 0}},
		{ID: "near", Type: models.KindPod, Position: models.Position{X: 90, Y: 0}},
		{ID: "far", Type: models.KindPod, Position: models.Position{X: 500, Y: 0}},
	}
	edges := []models.TopologyEdge{
		{ID: "e1", Source: "a", Target: "near"},
		{ID: "e2", Source: "a", Target: "far"},
	}
	out := assignHandles(nodes, edges, models.LayoutVertical)
	assert.Equal(t, models.HandleBottom, out[0].SourceHandle)
	assert.Equal(t, models.HandleTop, out[0].TargetHandle)
	assert.Equal(t, models.HandleRight, out[1].SourceHandle)
	assert.Equal(t, models.HandleLeft, out[1].TargetHandle)
}

func TestHandlesRBACAlwaysVertical(t *testing.T) {
	nodes := []models.TopologyNode{
		{ID: "sa", Type: models.KindServiceAccount, Position: models.Position{X: 0, Y: 0}},
		{ID: "rb", Type: models.KindRoleBinding, Position: models.Position{X: 900, Y: 100}},
	}
	edges := []models.TopologyEdge{{ID: "e", Source: "sa", Target: "rb",
		Data: &models.EdgeData{Relationship: models.RelationBinds}}}

	for _, mode := range []models.LayoutMode{models.LayoutHorizontal, models.LayoutVertical, models.LayoutRadial} {
		out := assignHandles(nodes, edges, mode)
		assert.Equal(t, models.HandleBottom, out[0].SourceHandle, "mode %s", mode)
		assert.Equal(t, models.HandleTop, out[0].TargetHandle, "mode %s", mode)
	}
}

func TestHandlesRadialOnlyRBAC(t *testing.T) {
	edges := []models.TopologyEdge{{ID: "e", Source: "a", Target: "b"}}
	out := assignHandles(handleNodes(), edges, models.LayoutRadial)
	assert.Empty(t, out[0].SourceHandle)
	assert.Empty(t, out[0].TargetHandle)
}

func TestHandlesPresetKept(t *testing.T) {
	edges := []models.TopologyEdge{{ID: "e", Source: "a", Target: "b",
		SourceHandle: models.HandleTop, TargetHandle: models.HandleBottom}}
	out := assignHandles(handleNodes(), edges, models.LayoutHorizontal)
	assert.Equal(t, models.HandleTop, out[0].SourceHandle)
	assert.Equal(t, models.HandleBottom, out[0].TargetHandle)
}
