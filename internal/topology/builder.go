package topology

import (
	"fmt"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Build maps a topology snapshot and visibility filters into an unpositioned
// graph. It is a pure function of its inputs: the same snapshot and filters
// always yield the same nodes and edges, in the same order. The snapshot is
// never mutated.
func Build(snap models.Snapshot, filters models.TopologyFilters, cluster string) (*Graph, error) {
	switch t := snap.(type) {
	case *models.DeploymentTopology:
		return BuildDeployment(t, filters, cluster), nil
	case *models.DaemonSetTopology:
		return BuildDaemonSet(t, filters, cluster), nil
	case *models.JobTopology:
		return BuildJob(t, filters, cluster), nil
	case *models.CronJobTopology:
		return BuildCronJob(t, filters, cluster), nil
	}
	return nil, fmt.Errorf("unsupported snapshot type %T", snap)
}
