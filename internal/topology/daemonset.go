package topology

import (
	"strconv"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// BuildDaemonSet builds the graph for a DaemonSet topology. There is no
// intermediate ReplicaSet, so pods attach to the workload directly.
func BuildDaemonSet(t *models.DaemonSetTopology, filters models.TopologyFilters, cluster string) *Graph {
	b := newBuilder(filters, cluster, t.Namespace)
	b.addWorkloadRoot(models.KindDaemonSet, t.DaemonSet.Name, t.DaemonSet.Status, map[string]string{
		"desired": strconv.Itoa(int(t.DaemonSet.DesiredNumberScheduled)),
		"ready":   strconv.Itoa(int(t.DaemonSet.NumberReady)),
	})
	b.addAuxiliary(t.TopologyBase)
	b.addPods(b.rootID, t.Pods)
	return b.finish(t.TopologyBase)
}
