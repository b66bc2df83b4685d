package topology

import (
	"strconv"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// BuildJob builds the graph for a Job topology. Pods attach to the workload
// directly.
func BuildJob(t *models.JobTopology, filters models.TopologyFilters, cluster string) *Graph {
	b := newBuilder(filters, cluster, t.Namespace)
	b.addWorkloadRoot(models.KindJob, t.Job.Name, t.Job.Status, map[string]string{
		"active":    strconv.Itoa(int(t.Job.Active)),
		"succeeded": strconv.Itoa(int(t.Job.Succeeded)),
		"failed":    strconv.Itoa(int(t.Job.Failed)),
	})
	b.addAuxiliary(t.TopologyBase)
	b.addPods(b.rootID, t.Pods)
	return b.finish(t.TopologyBase)
}
