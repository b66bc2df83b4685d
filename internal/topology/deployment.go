package topology

import (
	"strconv"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// BuildDeployment builds the graph for a Deployment topology. Pods attach
// through their owning ReplicaSet; when ReplicaSets are hidden the pods
// attach to the deployment directly so the chain stays connected.
func BuildDeployment(t *models.DeploymentTopology, filters models.TopologyFilters, cluster string) *Graph {
	b := newBuilder(filters, cluster, t.Namespace)
	b.addWorkloadRoot(models.KindDeployment, t.Deployment.Name, t.Deployment.Status, map[string]string{
		"replicas":  strconv.Itoa(int(t.Deployment.Replicas)),
		"ready":     strconv.Itoa(int(t.Deployment.Ready)),
		"available": strconv.Itoa(int(t.Deployment.Available)),
	})
	b.addAuxiliary(t.TopologyBase)

	for _, rs := range t.ReplicaSets {
		if filters.ShowReplicaSets {
			rsID := nodeID(models.KindReplicaSet, rs.Name)
			b.addNode(rsID, models.KindReplicaSet, rs.Name, rs.Status, &models.NodeDetails{Info: map[string]string{
				"replicas": strconv.Itoa(int(rs.Replicas)),
				"ready":    strconv.Itoa(int(rs.Ready)),
			}})
			b.addEdge(b.rootID, rsID, models.RelationManages)
			b.addPods(rsID, rs.Pods)
		} else {
			b.addPods(b.rootID, rs.Pods)
		}
	}

	return b.finish(t.TopologyBase)
}
