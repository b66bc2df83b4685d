package k8s

import (
	"encoding/json"
	"log/slog"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// ChangeSink receives wire-format resource changes, already scoped to the
// kinds the topology tracks.
type ChangeSink func(models.ResourceChange)

// Watcher translates informer events into models.ResourceChange frames for
// the stream. Delete frames carry no payload; the id and namespace identify
// the victim.
type Watcher struct {
	log  *slog.Logger
	sink ChangeSink
}

// NewWatcher registers change translation on every tracked informer kind.
func NewWatcher(im *InformerManager, log *slog.Logger, sink ChangeSink) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{log: log, sink: sink}
	for _, resourceType := range []string{
		models.ResourcePod,
		models.ResourceReplicaSet,
		models.ResourceDeployment,
		models.ResourceDaemonSet,
		models.ResourceJob,
		models.ResourceCronJob,
		models.ResourceService,
		models.ResourceEndpoints,
		models.ResourceSecret,
		models.ResourceConfigMap,
		models.ResourceServiceAccount,
		models.ResourceRole,
		models.ResourceRoleBinding,
		models.ResourceClusterRole,
		models.ResourceClusterRoleBinding,
	} {
		rt := resourceType
		im.RegisterHandler(rt, func(eventType string, obj interface{}) {
			w.handle(rt, eventType, obj)
		})
	}
	return w
}

func changeType(eventType string) models.ChangeType {
	switch eventType {
	case EventAdded:
		return models.ChangeAdded
	case EventDeleted:
		return models.ChangeDeleted
	}
	return models.ChangeModified
}

// podChange is the pod payload: the snapshot form plus the owning ReplicaSet
// so the reconciler can route the pod.
type podChange struct {
	models.PodInfo
	OwnerReplicaSet string `json:"ownerReplicaSet,omitempty"`
}

func (w *Watcher) handle(resourceType, eventType string, obj interface{}) {
	name, namespace, payload := w.convert(resourceType, obj)
	if name == "" {
		w.log.Warn("dropping event for unexpected object type",
			"resource", resourceType, "event", eventType)
		return
	}

	change := models.ResourceChange{
		Type:         changeType(eventType),
		ResourceType: resourceType,
		ResourceID:   name,
		Namespace:    namespace,
		Timestamp:    time.Now().UTC(),
	}
	if change.Type != models.ChangeDeleted && payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			w.log.Error("marshal change payload", "resource", resourceType, "error", err)
			return
		}
		change.Data = data
	}
	w.sink(change)
}

func (w *Watcher) convert(resourceType string, obj interface{}) (name, namespace string, payload any) {
	switch resourceType {
	case models.ResourcePod:
		if pod, ok := obj.(*corev1.Pod); ok {
			return pod.Name, pod.Namespace, podChange{
				PodInfo:         ConvertPod(pod),
				OwnerReplicaSet: OwnerReplicaSet(pod),
			}
		}
	case models.ResourceReplicaSet:
		if rs, ok := obj.(*appsv1.ReplicaSet); ok {
			return rs.Name, rs.Namespace, ConvertReplicaSet(rs)
		}
	case models.ResourceDeployment:
		if d, ok := obj.(*appsv1.Deployment); ok {
			return d.Name, d.Namespace, ConvertDeployment(d)
		}
	case models.ResourceDaemonSet:
		if d, ok := obj.(*appsv1.DaemonSet); ok {
			return d.Name, d.Namespace, ConvertDaemonSet(d)
		}
	case models.ResourceJob:
		if j, ok := obj.(*batchv1.Job); ok {
			return j.Name, j.Namespace, ConvertJob(j)
		}
	case models.ResourceCronJob:
		if j, ok := obj.(*batchv1.CronJob); ok {
			return j.Name, j.Namespace, ConvertCronJob(j)
		}
	case models.ResourceService:
		if s, ok := obj.(*corev1.Service); ok {
			return s.Name, s.Namespace, ConvertService(s)
		}
	case models.ResourceEndpoints:
		if e, ok := obj.(*corev1.Endpoints); ok {
			return e.Name, e.Namespace, ConvertEndpoints(e)
		}
	case models.ResourceSecret:
		if s, ok := obj.(*corev1.Secret); ok {
			return s.Name, s.Namespace, ConvertSecret(s)
		}
	case models.ResourceConfigMap:
		if cm, ok := obj.(*corev1.ConfigMap); ok {
			return cm.Name, cm.Namespace, ConvertConfigMap(cm)
		}
	case models.ResourceServiceAccount:
		if sa, ok := obj.(*corev1.ServiceAccount); ok {
			return sa.Name, sa.Namespace, ConvertServiceAccount(sa)
		}
	case models.ResourceRole:
		if r, ok := obj.(*rbacv1.Role); ok {
			return r.Name, r.Namespace, ConvertRole(r)
		}
	case models.ResourceRoleBinding:
		if b, ok := obj.(*rbacv1.RoleBinding); ok {
			return b.Name, b.Namespace, ConvertRoleBinding(b)
		}
	case models.ResourceClusterRole:
		if r, ok := obj.(*rbacv1.ClusterRole); ok {
			return r.Name, "", ConvertClusterRole(r)
		}
	case models.ResourceClusterRoleBinding:
		if b, ok := obj.(*rbacv1.ClusterRoleBinding); ok {
			return b.Name, "", ConvertClusterRoleBinding(b)
		}
	}
	return "", "", nil
}
