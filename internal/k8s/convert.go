package k8s

import (
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Converters from typed API objects to snapshot structs. Status mapping is
// coarse on purpose: the graph colors nodes, it does not diagnose them.

func podStatus(pod *corev1.Pod) string {
	for _, cs := range pod.Status.ContainerStatuses {
		if w := cs.State.Waiting; w != nil && (w.Reason == "CrashLoopBackOff" || w.Reason == "ImagePullBackOff" || w.Reason == "ErrImagePull") {
			return models.StatusError
		}
	}
	switch pod.Status.Phase {
	case corev1.PodRunning:
		for _, cond := range pod.Status.Conditions {
			if cond.Type == corev1.PodReady && cond.Status != corev1.ConditionTrue {
				return models.StatusWarning
			}
		}
		return models.StatusHealthy
	case corev1.PodSucceeded:
		return models.StatusHealthy
	case corev1.PodPending:
		return models.StatusWarning
	case corev1.PodFailed:
		return models.StatusError
	}
	return models.StatusUnknown
}

func containerState(cs corev1.ContainerStatus) string {
	switch {
	case cs.State.Running != nil:
		return "running"
	case cs.State.Waiting != nil:
		return cs.State.Waiting.Reason
	case cs.State.Terminated != nil:
		return cs.State.Terminated.Reason
	}
	return ""
}

// OwnerReplicaSet returns the owning ReplicaSet name, or empty.
func OwnerReplicaSet(pod *corev1.Pod) string {
	for _, ref := range pod.OwnerReferences {
		if ref.Kind == "ReplicaSet" {
			return ref.Name
		}
	}
	return ""
}

// ConvertPod maps a Pod to its snapshot form.
func ConvertPod(pod *corev1.Pod) models.PodInfo {
	info := models.PodInfo{
		Name:      pod.Name,
		Namespace: pod.Namespace,
		UID:       string(pod.UID),
		Status:    podStatus(pod),
		NodeName:  pod.Spec.NodeName,
	}
	statuses := make(map[string]corev1.ContainerStatus, len(pod.Status.ContainerStatuses))
	for _, cs := range pod.Status.ContainerStatuses {
		statuses[cs.Name] = cs
	}
	for _, c := range pod.Spec.Containers {
		ci := models.ContainerInfo{Name: c.Name, Image: c.Image}
		if cs, ok := statuses[c.Name]; ok {
			ci.Ready = cs.Ready
			ci.RestartCount = cs.RestartCount
			ci.State = containerState(cs)
		}
		info.Containers = append(info.Containers, ci)
	}
	for _, v := range pod.Spec.Volumes {
		switch {
		case v.Secret != nil:
			info.Volumes = append(info.Volumes, models.VolumeInfo{Name: v.Name, Secret: v.Secret.SecretName})
		case v.ConfigMap != nil:
			info.Volumes = append(info.Volumes, models.VolumeInfo{Name: v.Name, ConfigMap: v.ConfigMap.Name})
		}
	}
	return info
}

// ConvertService maps a Service to its snapshot form.
func ConvertService(svc *corev1.Service) models.ServiceInfo {
	info := models.ServiceInfo{
		Name:      svc.Name,
		Namespace: svc.Namespace,
		UID:       string(svc.UID),
		Type:      string(svc.Spec.Type),
		ClusterIP: svc.Spec.ClusterIP,
		Status:    models.StatusHealthy,
	}
	for _, p := range svc.Spec.Ports {
		info.Ports = append(info.Ports, models.ServicePort{
			Name:       p.Name,
			Port:       p.Port,
			TargetPort: p.TargetPort.String(),
			Protocol:   string(p.Protocol),
		})
	}
	return info
}

// ConvertEndpoints maps an Endpoints object to its snapshot form.
func ConvertEndpoints(ep *corev1.Endpoints) models.EndpointsInfo {
	info := models.EndpointsInfo{
		Name:      ep.Name,
		Namespace: ep.Namespace,
		UID:       string(ep.UID),
		Status:    models.StatusHealthy,
	}
	for _, subset := range ep.Subsets {
		for _, addr := range subset.Addresses {
			ea := models.EndpointAddress{IP: addr.IP}
			if addr.TargetRef != nil {
				ea.TargetRef = &models.ObjectRef{Kind: addr.TargetRef.Kind, Name: addr.TargetRef.Name}
			}
			info.Addresses = append(info.Addresses, ea)
		}
	}
	if len(info.Addresses) == 0 {
		info.Status = models.StatusWarning
	}
	return info
}

// ConvertSecret maps a Secret to its snapshot form. Values never leave the
// cluster; only key names are carried.
func ConvertSecret(s *corev1.Secret) models.SecretInfo {
	info := models.SecretInfo{
		Name:      s.Name,
		Namespace: s.Namespace,
		UID:       string(s.UID),
		Type:      string(s.Type),
		Status:    models.StatusHealthy,
	}
	for k := range s.Data {
		info.Keys = append(info.Keys, k)
	}
	return info
}

// ConvertConfigMap maps a ConfigMap to its snapshot form.
func ConvertConfigMap(cm *corev1.ConfigMap) models.ConfigMapInfo {
	info := models.ConfigMapInfo{
		Name:      cm.Name,
		Namespace: cm.Namespace,
		UID:       string(cm.UID),
		Status:    models.StatusHealthy,
	}
	for k := range cm.Data {
		info.Keys = append(info.Keys, k)
	}
	return info
}

// ConvertServiceAccount maps a ServiceAccount to its snapshot form.
func ConvertServiceAccount(sa *corev1.ServiceAccount) models.ServiceAccountInfo {
	return models.ServiceAccountInfo{
		Name:      sa.Name,
		Namespace: sa.Namespace,
		UID:       string(sa.UID),
		Status:    models.StatusHealthy,
	}
}

// ConvertRole maps a Role to its snapshot form.
func ConvertRole(r *rbacv1.Role) models.RoleInfo {
	return models.RoleInfo{
		Name:      r.Name,
		Namespace: r.Namespace,
		UID:       string(r.UID),
		RuleCount: len(r.Rules),
		Status:    models.StatusHealthy,
	}
}

// ConvertClusterRole maps a ClusterRole to its snapshot form.
func ConvertClusterRole(r *rbacv1.ClusterRole) models.RoleInfo {
	return models.RoleInfo{
		Name:      r.Name,
		UID:       string(r.UID),
		RuleCount: len(r.Rules),
		Status:    models.StatusHealthy,
	}
}

func convertSubjects(subjects []rbacv1.Subject) []models.Subject {
	out := make([]models.Subject, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, models.Subject{Kind: s.Kind, Name: s.Name, Namespace: s.Namespace})
	}
	return out
}

// ConvertRoleBinding maps a RoleBinding to its snapshot form.
func ConvertRoleBinding(b *rbacv1.RoleBinding) models.RoleBindingInfo {
	return models.RoleBindingInfo{
		Name:      b.Name,
		Namespace: b.Namespace,
		UID:       string(b.UID),
		RoleRef:   models.ObjectRef{Kind: b.RoleRef.Kind, Name: b.RoleRef.Name},
		Subjects:  convertSubjects(b.Subjects),
		Status:    models.StatusHealthy,
	}
}

// ConvertClusterRoleBinding maps a ClusterRoleBinding to its snapshot form.
func ConvertClusterRoleBinding(b *rbacv1.ClusterRoleBinding) models.RoleBindingInfo {
	return models.RoleBindingInfo{
		Name:     b.Name,
		UID:      string(b.UID),
		RoleRef:  models.ObjectRef{Kind: b.RoleRef.Kind, Name: b.RoleRef.Name},
		Subjects: convertSubjects(b.Subjects),
		Status:   models.StatusHealthy,
	}
}

// ConvertDeployment maps a Deployment to its snapshot form.
func ConvertDeployment(d *appsv1.Deployment) models.DeploymentInfo {
	replicas := int32(1)
	if d.Spec.Replicas != nil {
		replicas = *d.Spec.Replicas
	}
	status := models.StatusError
	switch {
	case d.Status.ReadyReplicas >= replicas:
		status = models.StatusHealthy
	case d.Status.ReadyReplicas > 0:
		status = models.StatusWarning
	}
	var selector map[string]string
	if d.Spec.Selector != nil {
		selector = d.Spec.Selector.MatchLabels
	}
	return models.DeploymentInfo{
		Name:      d.Name,
		Namespace: d.Namespace,
		UID:       string(d.UID),
		Replicas:  replicas,
		Ready:     d.Status.ReadyReplicas,
		Available: d.Status.AvailableReplicas,
		Labels:    d.Labels,
		Selector:  selector,
		Status:    status,
	}
}

// ConvertReplicaSet maps a ReplicaSet to its snapshot form (without pods).
func ConvertReplicaSet(rs *appsv1.ReplicaSet) models.ReplicaSetInfo {
	replicas := int32(0)
	if rs.Spec.Replicas != nil {
		replicas = *rs.Spec.Replicas
	}
	status := models.StatusHealthy
	if rs.Status.ReadyReplicas < replicas {
		status = models.StatusWarning
	}
	return models.ReplicaSetInfo{
		Name:      rs.Name,
		Namespace: rs.Namespace,
		UID:       string(rs.UID),
		Replicas:  replicas,
		Ready:     rs.Status.ReadyReplicas,
		Status:    status,
	}
}

// ConvertDaemonSet maps a DaemonSet to its snapshot form.
func ConvertDaemonSet(ds *appsv1.DaemonSet) models.DaemonSetInfo {
	status := models.StatusError
	switch {
	case ds.Status.NumberReady >= ds.Status.DesiredNumberScheduled:
		status = models.StatusHealthy
	case ds.Status.NumberReady > 0:
		status = models.StatusWarning
	}
	return models.DaemonSetInfo{
		Name:                   ds.Name,
		Namespace:              ds.Namespace,
		UID:                    string(ds.UID),
		DesiredNumberScheduled: ds.Status.DesiredNumberScheduled,
		NumberReady:            ds.Status.NumberReady,
		Labels:                 ds.Labels,
		Status:                 status,
	}
}

// ConvertJob maps a Job to its snapshot form.
func ConvertJob(j *batchv1.Job) models.JobInfo {
	status := models.StatusHealthy
	switch {
	case j.Status.Failed > 0:
		status = models.StatusError
	case j.Status.Active > 0:
		status = models.StatusWarning
	}
	return models.JobInfo{
		Name:        j.Name,
		Namespace:   j.Namespace,
		UID:         string(j.UID),
		Active:      j.Status.Active,
		Succeeded:   j.Status.Succeeded,
		Failed:      j.Status.Failed,
		Completions: j.Spec.Completions,
		Labels:      j.Labels,
		Status:      status,
	}
}

// ConvertCronJob maps a CronJob to its snapshot form.
func ConvertCronJob(cj *batchv1.CronJob) models.CronJobInfo {
	suspend := cj.Spec.Suspend != nil && *cj.Spec.Suspend
	status := models.StatusHealthy
	if suspend {
		status = models.StatusWarning
	}
	var active []string
	for _, ref := range cj.Status.Active {
		active = append(active, ref.Name)
	}
	return models.CronJobInfo{
		Name:      cj.Name,
		Namespace: cj.Namespace,
		UID:       string(cj.UID),
		Schedule:  cj.Spec.Schedule,
		Suspend:   suspend,
		Active:    active,
		Labels:    cj.Labels,
		Status:    status,
	}
}
