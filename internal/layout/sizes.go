package layout

import (
	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Size is a node's fixed footprint used for collision avoidance and for
// centering positions. The table must stay in sync with the renderer's card
// dimensions or laid-out nodes will overlap.
type Size struct {
	W float64
	H float64
}

var nodeSizes = map[models.NodeKind]Size{
	models.KindDeployment:         {W: 280, H: 120},
	models.KindDaemonSet:          {W: 320, H: 160},
	models.KindJob:                {W: 320, H: 160},
	models.KindCronJob:            {W: 360, H: 200},
	models.KindReplicaSet:         {W: 260, H: 110},
	models.KindPod:                {W: 440, H: 180},
	models.KindContainer:          {W: 300, H: 120},
	models.KindService:            {W: 220, H: 100},
	models.KindEndpoints:          {W: 220, H: 100},
	models.KindSecret:             {W: 200, H: 100},
	models.KindConfigMap:          {W: 200, H: 100},
	models.KindServiceAccount:     {W: 200, H: 100},
	models.KindRole:               {W: 200, H: 100},
	models.KindClusterRole:        {W: 200, H: 100},
	models.KindRoleBinding:        {W: 200, H: 100},
	models.KindClusterRoleBinding: {W: 200, H: 100},
	models.KindGroup:              {W: 450, H: 350},
}

var defaultSize = Size{W: 200, H: 100}

// SizeOf returns the fixed size for a node kind.
func SizeOf(kind models.NodeKind) Size {
	if s, ok := nodeSizes[kind]; ok {
		return s
	}
	return defaultSize
}

// Separation constants for the layered layout.
const (
	rankSeparation = 150.0
	nodeSeparation = 120.0
	layoutMargin   = 50.0

	// Secondary section placement.
	sectionOffset = 150.0

	// Radial mode geometry.
	radialCenterX = 600.0
	radialCenterY = 400.0
	radialRadius  = 420.0

	// Minimum coordinate delta before vertical-mode handles flip sideways.
	handleMinDelta = 100.0
)

// edgeWeight biases rank alignment: heavier edges pull their target in line
// with the source so parent/child chains render straight. RBAC edges are the
// heaviest so the chain stays vertically stacked.
func edgeWeight(edge models.TopologyEdge) float64 {
	if edge.Data == nil {
		return 1
	}
	switch edge.Data.Relationship {
	case models.RelationBinds, models.RelationReferences:
		return 10
	case models.RelationExposes:
		return 8
	case models.RelationManages:
		return 6
	case models.RelationRuns, models.RelationServes:
		return 5
	}
	return 1
}
