package reconcile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// SnapshotChanges serializes a snapshot as a batch of added changes, the
// frame a server sends for a refresh. Applying the batch to an empty snapshot
// of the same workload reproduces the source state.
func SnapshotChanges(snap models.Snapshot) ([]models.ResourceChange, error) {
	now := time.Now().UTC()
	var out []models.ResourceChange

	add := func(resourceType, id, namespace string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s %q: %w", resourceType, id, err)
		}
		out = append(out, models.ResourceChange{
			Type:         models.ChangeAdded,
			ResourceType: resourceType,
			ResourceID:   id,
			Namespace:    namespace,
			Data:         data,
			Timestamp:    now,
		})
		return nil
	}

	addPod := func(pod models.PodInfo, owner string) error {
		payload := struct {
			models.PodInfo
			OwnerReplicaSet string `json:"ownerReplicaSet,omitempty"`
		}{PodInfo: pod, OwnerReplicaSet: owner}
		return add(models.ResourcePod, pod.Name, pod.Namespace, payload)
	}

	var base models.TopologyBase
	switch t := snap.(type) {
	case *models.DeploymentTopology:
		if err := add(models.ResourceDeployment, t.Deployment.Name, t.Namespace, t.Deployment); err != nil {
			return nil, err
		}
		for _, rs := range t.ReplicaSets {
			bare := rs
			bare.Pods = nil
			if err := add(models.ResourceReplicaSet, rs.Name, rs.Namespace, bare); err != nil {
				return nil, err
			}
			for _, pod := range rs.Pods {
				if err := addPod(pod, rs.Name); err != nil {
					return nil, err
				}
			}
		}
		base = t.TopologyBase
	case *models.DaemonSetTopology:
		if err := add(models.ResourceDaemonSet, t.DaemonSet.Name, t.Namespace, t.DaemonSet); err != nil {
			return nil, err
		}
		for _, pod := range t.Pods {
			if err := addPod(pod, ""); err != nil {
				return nil, err
			}
		}
		base = t.TopologyBase
	case *models.JobTopology:
		if err := add(models.ResourceJob, t.Job.Name, t.Namespace, t.Job); err != nil {
			return nil, err
		}
		for _, pod := range t.Pods {
			if err := addPod(pod, ""); err != nil {
				return nil, err
			}
		}
		base = t.TopologyBase
	case *models.CronJobTopology:
		if err := add(models.ResourceCronJob, t.CronJob.Name, t.Namespace, t.CronJob); err != nil {
			return nil, err
		}
		for _, pod := range t.Pods {
			if err := addPod(pod, ""); err != nil {
				return nil, err
			}
		}
		base = t.TopologyBase
	default:
		return nil, fmt.Errorf("unsupported snapshot type %T", snap)
	}

	for _, s := range base.Services {
		if err := add(models.ResourceService, s.Name, s.Namespace, s); err != nil {
			return nil, err
		}
	}
	for _, e := range base.Endpoints {
		if err := add(models.ResourceEndpoints, e.Name, e.Namespace, e); err != nil {
			return nil, err
		}
	}
	for _, s := range base.Secrets {
		if err := add(models.ResourceSecret, s.Name, s.Namespace, s); err != nil {
			return nil, err
		}
	}
	for _, cm := range base.ConfigMaps {
		if err := add(models.ResourceConfigMap, cm.Name, cm.Namespace, cm); err != nil {
			return nil, err
		}
	}
	if sa := base.ServiceAccount; sa != nil {
		if err := add(models.ResourceServiceAccount, sa.Name, sa.Namespace, *sa); err != nil {
			return nil, err
		}
	}
	for _, r := range base.Roles {
		if err := add(models.ResourceRole, r.Name, r.Namespace, r); err != nil {
			return nil, err
		}
	}
	for _, b := range base.RoleBindings {
		if err := add(models.ResourceRoleBinding, b.Name, b.Namespace, b); err != nil {
			return nil, err
		}
	}
	for _, r := range base.ClusterRoles {
		if err := add(models.ResourceClusterRole, r.Name, "", r); err != nil {
			return nil, err
		}
	}
	for _, b := range base.ClusterRoleBindings {
		if err := add(models.ResourceClusterRoleBinding, b.Name, "", b); err != nil {
			return nil, err
		}
	}
	return out, nil
}
