package topology

import (
	"strconv"
	"strings"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// BuildCronJob builds the graph for a CronJob topology. Pods of active jobs
// attach to the workload directly.
func BuildCronJob(t *models.CronJobTopology, filters models.TopologyFilters, cluster string) *Graph {
	b := newBuilder(filters, cluster, t.Namespace)
	info := map[string]string{
		"schedule": t.CronJob.Schedule,
		"suspend":  strconv.FormatBool(t.CronJob.Suspend),
	}
	if len(t.CronJob.Active) > 0 {
		info["active"] = strings.Join(t.CronJob.Active, ",")
	}
	b.addWorkloadRoot(models.KindCronJob, t.CronJob.Name, t.CronJob.Status, info)
	b.addAuxiliary(t.TopologyBase)
	b.addPods(b.rootID, t.Pods)
	return b.finish(t.TopologyBase)
}
