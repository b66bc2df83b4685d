package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

func TestGraphAddNodeDeduplicates(t *testing.T) {
	g := NewGraph()
	g.AddNode(models.TopologyNode{ID: "pod-a", Type: models.KindPod})
	g.AddNode(models.TopologyNode{ID: "pod-a", Type: models.KindPod})

	assert.Len(t, g.Nodes, 1)
	assert.True(t, g.HasNode("pod-a"))
	assert.NotNil(t, g.Node("pod-a"))
	assert.Nil(t, g.Node("pod-b"))
}

func TestGraphAddEdgeDeduplicates(t *testing.T) {
	g := NewGraph()
	g.AddNode(models.TopologyNode{ID: "a", Type: models.KindDeployment})
	g.AddNode(models.TopologyNode{ID: "b", Type: models.KindPod})
	g.AddEdge(models.TopologyEdge{ID: "edge-a-b", Source: "a", Target: "b"})
	g.AddEdge(models.TopologyEdge{ID: "edge-a-b", Source: "a", Target: "b"})

	assert.Len(t, g.Edges, 1)
}

func TestGraphPruneDanglingEdges(t *testing.T) {
	g := NewGraph()
	g.AddNode(models.TopologyNode{ID: "a", Type: models.KindDeployment})
	g.AddEdge(models.TopologyEdge{ID: "edge-a-b", Source: "a", Target: "b"})

	assert.Error(t, g.Validate())
	assert.Equal(t, 1, g.PruneDanglingEdges())
	assert.Empty(t, g.Edges)
	assert.NoError(t, g.Validate())
}

func TestGraphNodesByKind(t *testing.T) {
	g := NewGraph()
	g.AddNode(models.TopologyNode{ID: "pod-a", Type: models.KindPod})
	g.AddNode(models.TopologyNode{ID: "svc-a", Type: models.KindService})
	g.AddNode(models.TopologyNode{ID: "pod-b", Type: models.KindPod})

	pods := g.NodesByKind(models.KindPod)
	assert.Len(t, pods, 2)
	assert.Equal(t, "pod-a", pods[0].ID)
	assert.Equal(t, "pod-b", pods[1].ID)
}
