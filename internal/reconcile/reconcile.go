package reconcile

import (
	"log/slog"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/metrics"
)

// Apply returns a new snapshot with the change applied. The input snapshot is
// not modified. Changes for resource types the snapshot has no place for are
// ignored, so a stream can carry more kinds than a given workload tracks.
func Apply(snap models.Snapshot, change models.ResourceChange) (models.Snapshot, error) {
	metrics.ReconcileChangesTotal.WithLabelValues(change.ResourceType, string(change.Type)).Inc()
	switch t := snap.(type) {
	case *models.DeploymentTopology:
		c := *t
		if err := applyDeployment(&c, change); err != nil {
			return nil, err
		}
		return &c, nil
	case *models.DaemonSetTopology:
		c := *t
		if err := applyDaemonSet(&c, change); err != nil {
			return nil, err
		}
		return &c, nil
	case *models.JobTopology:
		c := *t
		if err := applyJob(&c, change); err != nil {
			return nil, err
		}
		return &c, nil
	case *models.CronJobTopology:
		c := *t
		if err := applyCronJob(&c, change); err != nil {
			return nil, err
		}
		return &c, nil
	}
	return snap, nil
}

// ApplyUpdate applies a batch of changes in order. On a malformed change it
// returns the snapshot as of the last successful change together with the
// error, so the caller can decide between keeping the partial state and
// refetching.
func ApplyUpdate(snap models.Snapshot, update models.TopologyUpdate) (models.Snapshot, error) {
	cur := snap
	for _, change := range update.Changes {
		next, err := Apply(cur, change)
		if err != nil {
			return cur, err
		}
		cur = next
	}
	return cur, nil
}

func changeNamespace(change models.ResourceChange, fallback string) string {
	if change.Namespace != "" {
		return change.Namespace
	}
	return fallback
}

// applyChange routes an added/modified change into a keyed collection. An
// added change upserts; a modified change merges into an existing entry and
// is dropped when the entity was never added.
func applyChange[T models.Keyed](list []T, change models.ResourceChange, incoming T, merge func(T) T) []T {
	if change.Type == models.ChangeModified {
		out, ok := Patch(list, incoming, merge)
		if !ok {
			dropChange(change)
			return list
		}
		return out
	}
	return Upsert(list, incoming, merge)
}

func dropChange(change models.ResourceChange) {
	slog.Debug("dropping change for untracked entity",
		"resource", change.ResourceType, "type", string(change.Type),
		"name", change.ResourceID, "namespace", change.Namespace)
	metrics.ReconcileChangesTotal.WithLabelValues(change.ResourceType, "dropped").Inc()
}

func applyDeployment(t *models.DeploymentTopology, change models.ResourceChange) error {
	switch change.ResourceType {
	case models.ResourceDeployment:
		if change.Type == models.ChangeDeleted || change.ResourceID != t.Deployment.Name {
			return nil
		}
		p, err := decode[deploymentPatch](change)
		if err != nil {
			return err
		}
		t.Deployment = p.apply(t.Deployment)
		return nil

	case models.ResourceReplicaSet:
		if change.Type == models.ChangeDeleted {
			out, _ := Remove(t.ReplicaSets, change.ResourceID, change.Namespace)
			t.ReplicaSets = out
			return nil
		}
		p, err := decode[replicaSetPatch](change)
		if err != nil {
			return err
		}
		incoming := p.apply(models.ReplicaSetInfo{
			Name:      change.ResourceID,
			Namespace: changeNamespace(change, t.Namespace),
		})
		t.ReplicaSets = applyChange(t.ReplicaSets, change, incoming, p.apply)
		return nil

	case models.ResourcePod:
		return applyDeploymentPod(t, change)
	}

	return applyBase(&t.TopologyBase, change)
}

// applyDeploymentPod routes a pod change into the owning ReplicaSet. A pod
// already tracked somewhere stays where it is. For an added pod the change's
// ownerReplicaSet picks the target, falling back to the first ReplicaSet; a
// modified pod that was never added is dropped. With no ReplicaSets there is
// nowhere to put the pod and the change is dropped.
func applyDeploymentPod(t *models.DeploymentTopology, change models.ResourceChange) error {
	if change.Type == models.ChangeDeleted {
		sets := append([]models.ReplicaSetInfo(nil), t.ReplicaSets...)
		for i := range sets {
			if out, ok := Remove(sets[i].Pods, change.ResourceID, change.Namespace); ok {
				sets[i].Pods = out
			}
		}
		t.ReplicaSets = sets
		return nil
	}

	p, err := decode[podPatch](change)
	if err != nil {
		return err
	}
	incoming := p.apply(models.PodInfo{
		Name:      change.ResourceID,
		Namespace: changeNamespace(change, t.Namespace),
	})

	if len(t.ReplicaSets) == 0 {
		dropChange(change)
		return nil
	}
	sets := append([]models.ReplicaSetInfo(nil), t.ReplicaSets...)

	target := -1
	for i := range sets {
		if findMatch(sets[i].Pods, incoming) >= 0 {
			target = i
			break
		}
	}
	if target < 0 {
		if change.Type == models.ChangeModified {
			dropChange(change)
			return nil
		}
		target = 0
		if owner := p.owner(); owner != "" {
			for i := range sets {
				if sets[i].Name == owner {
					target = i
					break
				}
			}
		}
	}

	sets[target].Pods = Dedupe(Upsert(sets[target].Pods, incoming, p.apply))
	t.ReplicaSets = sets
	return nil
}

func applyDaemonSet(t *models.DaemonSetTopology, change models.ResourceChange) error {
	switch change.ResourceType {
	case models.ResourceDaemonSet:
		if change.Type == models.ChangeDeleted || change.ResourceID != t.DaemonSet.Name {
			return nil
		}
		p, err := decode[daemonSetPatch](change)
		if err != nil {
			return err
		}
		t.DaemonSet = p.apply(t.DaemonSet)
		return nil
	case models.ResourcePod:
		pods, err := applyPods(t.Pods, change, t.Namespace)
		if err != nil {
			return err
		}
		t.Pods = pods
		return nil
	}
	return applyBase(&t.TopologyBase, change)
}

func applyJob(t *models.JobTopology, change models.ResourceChange) error {
	switch change.ResourceType {
	case models.ResourceJob:
		if change.Type == models.ChangeDeleted || change.ResourceID != t.Job.Name {
			return nil
		}
		p, err := decode[jobPatch](change)
		if err != nil {
			return err
		}
		t.Job = p.apply(t.Job)
		return nil
	case models.ResourcePod:
		pods, err := applyPods(t.Pods, change, t.Namespace)
		if err != nil {
			return err
		}
		t.Pods = pods
		return nil
	}
	return applyBase(&t.TopologyBase, change)
}

func applyCronJob(t *models.CronJobTopology, change models.ResourceChange) error {
	switch change.ResourceType {
	case models.ResourceCronJob:
		if change.Type == models.ChangeDeleted || change.ResourceID != t.CronJob.Name {
			return nil
		}
		p, err := decode[cronJobPatch](change)
		if err != nil {
			return err
		}
		t.CronJob = p.apply(t.CronJob)
		return nil
	case models.ResourcePod:
		pods, err := applyPods(t.Pods, change, t.Namespace)
		if err != nil {
			return err
		}
		t.Pods = pods
		return nil
	}
	return applyBase(&t.TopologyBase, change)
}

// applyPods handles pod changes for workloads that track pods directly.
func applyPods(pods []models.PodInfo, change models.ResourceChange, fallbackNS string) ([]models.PodInfo, error) {
	if change.Type == models.ChangeDeleted {
		out, _ := Remove(pods, change.ResourceID, change.Namespace)
		return out, nil
	}
	p, err := decode[podPatch](change)
	if err != nil {
		return nil, err
	}
	incoming := p.apply(models.PodInfo{
		Name:      change.ResourceID,
		Namespace: changeNamespace(change, fallbackNS),
	})
	return Dedupe(applyChange(pods, change, incoming, p.apply)), nil
}

// applyBase handles the auxiliary collections shared by every workload.
func applyBase(base *models.TopologyBase, change models.ResourceChange) error {
	ns := changeNamespace(change, base.Namespace)
	deleted := change.Type == models.ChangeDeleted

	switch change.ResourceType {
	case models.ResourceService:
		if deleted {
			base.Services, _ = Remove(base.Services, change.ResourceID, change.Namespace)
			return nil
		}
		p, err := decode[servicePatch](change)
		if err != nil {
			return err
		}
		base.Services = applyChange(base.Services, change, p.apply(models.ServiceInfo{Name: change.ResourceID, Namespace: ns}), p.apply)

	case models.ResourceEndpoints:
		if deleted {
			base.Endpoints, _ = Remove(base.Endpoints, change.ResourceID, change.Namespace)
			return nil
		}
		p, err := decode[endpointsPatch](change)
		if err != nil {
			return err
		}
		base.Endpoints = applyChange(base.Endpoints, change, p.apply(models.EndpointsInfo{Name: change.ResourceID, Namespace: ns}), p.apply)

	case models.ResourceSecret:
		if deleted {
			base.Secrets, _ = Remove(base.Secrets, change.ResourceID, change.Namespace)
			return nil
		}
		p, err := decode[secretPatch](change)
		if err != nil {
			return err
		}
		base.Secrets = applyChange(base.Secrets, change, p.apply(models.SecretInfo{Name: change.ResourceID, Namespace: ns}), p.apply)

	case models.ResourceConfigMap:
		if deleted {
			base.ConfigMaps, _ = Remove(base.ConfigMaps, change.ResourceID, change.Namespace)
			return nil
		}
		p, err := decode[configMapPatch](change)
		if err != nil {
			return err
		}
		base.ConfigMaps = applyChange(base.ConfigMaps, change, p.apply(models.ConfigMapInfo{Name: change.ResourceID, Namespace: ns}), p.apply)

	case models.ResourceServiceAccount:
		return applyServiceAccount(base, change, ns)

	case models.ResourceRole:
		if deleted {
			base.Roles, _ = Remove(base.Roles, change.ResourceID, change.Namespace)
			return nil
		}
		p, err := decode[rolePatch](change)
		if err != nil {
			return err
		}
		base.Roles = applyChange(base.Roles, change, p.apply(models.RoleInfo{Name: change.ResourceID, Namespace: ns}), p.apply)

	case models.ResourceClusterRole:
		if deleted {
			base.ClusterRoles, _ = Remove(base.ClusterRoles, change.ResourceID, "")
			return nil
		}
		p, err := decode[rolePatch](change)
		if err != nil {
			return err
		}
		base.ClusterRoles = applyChange(base.ClusterRoles, change, p.apply(models.RoleInfo{Name: change.ResourceID}), p.apply)

	case models.ResourceRoleBinding:
		if deleted {
			base.RoleBindings, _ = Remove(base.RoleBindings, change.ResourceID, change.Namespace)
			return nil
		}
		p, err := decode[roleBindingPatch](change)
		if err != nil {
			return err
		}
		base.RoleBindings = applyChange(base.RoleBindings, change, p.apply(models.RoleBindingInfo{Name: change.ResourceID, Namespace: ns}), p.apply)

	case models.ResourceClusterRoleBinding:
		if deleted {
			base.ClusterRoleBindings, _ = Remove(base.ClusterRoleBindings, change.ResourceID, "")
			return nil
		}
		p, err := decode[roleBindingPatch](change)
		if err != nil {
			return err
		}
		base.ClusterRoleBindings = applyChange(base.ClusterRoleBindings, change, p.apply(models.RoleBindingInfo{Name: change.ResourceID}), p.apply)
	}

	return nil
}

// applyServiceAccount maintains the single service-account slot.
func applyServiceAccount(base *models.TopologyBase, change models.ResourceChange, ns string) error {
	if change.Type == models.ChangeDeleted {
		cur := base.ServiceAccount
		if cur != nil && cur.Name == change.ResourceID && (change.Namespace == "" || cur.Namespace == change.Namespace) {
			base.ServiceAccount = nil
		}
		return nil
	}
	p, err := decode[serviceAccountPatch](change)
	if err != nil {
		return err
	}
	if cur := base.ServiceAccount; cur != nil && cur.Name == change.ResourceID && cur.Namespace == ns {
		merged := p.apply(*cur)
		base.ServiceAccount = &merged
		return nil
	}
	if change.Type == models.ChangeModified {
		dropChange(change)
		return nil
	}
	sa := p.apply(models.ServiceAccountInfo{Name: change.ResourceID, Namespace: ns})
	base.ServiceAccount = &sa
	return nil
}
