package models

// NodeKind is the closed set of node discriminants used in topology graphs.
// Dispatch tables (builder, sizing, edge weights) are keyed by these values.
type NodeKind string

const (
	KindDeployment         NodeKind = "deployment"
	KindDaemonSet          NodeKind = "daemonset"
	KindJob                NodeKind = "job"
	KindCronJob            NodeKind = "cronjob"
	KindReplicaSet         NodeKind = "replicaset"
	KindPod                NodeKind = "pod"
	KindContainer          NodeKind = "container"
	KindService            NodeKind = "service"
	KindEndpoints          NodeKind = "endpoints"
	KindSecret             NodeKind = "secret"
	KindConfigMap          NodeKind = "configmap"
	KindServiceAccount     NodeKind = "serviceaccount"
	KindRole               NodeKind = "role"
	KindClusterRole        NodeKind = "clusterrole"
	KindRoleBinding        NodeKind = "rolebinding"
	KindClusterRoleBinding NodeKind = "clusterrolebinding"
	KindGroup              NodeKind = "group"
)

// IsWorkloadRoot reports whether the kind is a topology root workload.
func (k NodeKind) IsWorkloadRoot() bool {
	switch k {
	case KindDeployment, KindDaemonSet, KindJob, KindCronJob:
		return true
	}
	return false
}

// IsRBAC reports whether the kind belongs to the RBAC chain.
func (k NodeKind) IsRBAC() bool {
	switch k {
	case KindServiceAccount, KindRole, KindClusterRole, KindRoleBinding, KindClusterRoleBinding:
		return true
	}
	return false
}

// Resource status values. Unknown is the sentinel for entities whose status
// could not be determined; the reconciler's dedup pass prefers any other value.
const (
	StatusHealthy = "Healthy"
	StatusWarning = "Warning"
	StatusError   = "Error"
	StatusUnknown = "Unknown"
)

// StatusFilterAll disables status filtering.
const StatusFilterAll = "all"

// Position is a node's top-left corner in layout coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GroupItem is one entry of a collapsed group node's preview.
type GroupItem struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// NodeDetails carries kind-specific extras. Group nodes use ItemCount, Items
// (capped preview) and HasMore; other kinds populate Info.
type NodeDetails struct {
	ItemCount int               `json:"itemCount,omitempty"`
	Items     []GroupItem       `json:"items,omitempty"`
	HasMore   bool              `json:"hasMore,omitempty"`
	Info      map[string]string `json:"info,omitempty"`
}

// NodeData is the renderer-facing payload of a topology node.
type NodeData struct {
	Label     string       `json:"label"`
	Status    string       `json:"status"`
	Namespace string       `json:"namespace"`
	Context   string       `json:"context,omitempty"`
	Resource  string       `json:"resource"`
	Details   *NodeDetails `json:"details,omitempty"`
}

// TopologyNode is one node of a built graph. ID is kind-prefixed (for example
// "pod-nginx-7d4b") and stable across rebuilds of the same logical resource;
// it is the reconciliation key for the rendering surface.
type TopologyNode struct {
	ID       string   `json:"id"`
	Type     NodeKind `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge handle sides.
const (
	HandleTop    = "top"
	HandleBottom = "bottom"
	HandleLeft   = "left"
	HandleRight  = "right"
)

// Edge relationship labels. Layout weighting is keyed by these.
const (
	RelationManages    = "manages"    // workload -> replicaset / pod
	RelationRuns       = "runs"       // pod -> container
	RelationExposes    = "exposes"    // service -> endpoints
	RelationServes     = "serves"     // endpoints -> pod
	RelationMounts     = "mounts"     // secret/configmap -> pod
	RelationBinds      = "binds"      // serviceaccount -> (cluster)rolebinding
	RelationReferences = "references" // (cluster)rolebinding -> (cluster)role
)

// EdgeData carries the relationship tag of an edge.
type EdgeData struct {
	Relationship string `json:"relationship,omitempty"`
}

// TopologyEdge connects two nodes of the same graph. Source and Target must
// reference existing node ids; a dangling edge is a bug, never rendered.
type TopologyEdge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Type         string    `json:"type"`
	Data         *EdgeData `json:"data,omitempty"`
	MarkerEnd    string    `json:"markerEnd,omitempty"`
}

// TopologyGraph is the output handed to the rendering surface. Node positions
// are authoritative; the renderer must not recompute them.
type TopologyGraph struct {
	Nodes []TopologyNode `json:"nodes"`
	Edges []TopologyEdge `json:"edges"`
}

// TopologyFilters are the visibility toggles re-evaluated on every change.
type TopologyFilters struct {
	ShowServices       bool   `json:"showServices"`
	ShowEndpoints      bool   `json:"showEndpoints"`
	ShowSecrets        bool   `json:"showSecrets"`
	ShowConfigMaps     bool   `json:"showConfigMaps"`
	ShowServiceAccount bool   `json:"showServiceAccount"`
	ShowRBAC           bool   `json:"showRBAC"`
	ShowContainers     bool   `json:"showContainers"`
	ShowPods           bool   `json:"showPods"`
	ShowReplicaSets    bool   `json:"showReplicaSets"`
	StatusFilter       string `json:"statusFilter"`
	SearchTerm         string `json:"searchTerm"`
}

// DefaultFilters returns the default visibility: everything except containers
// shown, no status or search filtering.
func DefaultFilters() TopologyFilters {
	return TopologyFilters{
		ShowServices:       true,
		ShowEndpoints:      true,
		ShowSecrets:        true,
		ShowConfigMaps:     true,
		ShowServiceAccount: true,
		ShowRBAC:           true,
		ShowContainers:     false,
		ShowPods:           true,
		ShowReplicaSets:    true,
		StatusFilter:       StatusFilterAll,
	}
}

// LayoutMode selects the layout algorithm.
type LayoutMode string

const (
	LayoutHorizontal LayoutMode = "horizontal"
	LayoutVertical   LayoutMode = "vertical"
	LayoutRadial     LayoutMode = "radial"
)

// TopologyViewOptions control layout and renderer chrome.
type TopologyViewOptions struct {
	Layout         LayoutMode `json:"layout"`
	Spacing        float64    `json:"spacing"`
	ShowMinimap    bool       `json:"showMinimap"`
	ShowControls   bool       `json:"showControls"`
	ShowBackground bool       `json:"showBackground"`
}

// DefaultViewOptions returns the horizontal layout with standard spacing.
func DefaultViewOptions() TopologyViewOptions {
	return TopologyViewOptions{
		Layout:         LayoutHorizontal,
		Spacing:        1.0,
		ShowMinimap:    true,
		ShowControls:   true,
		ShowBackground: true,
	}
}
