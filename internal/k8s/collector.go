package k8s

import (
	"context"
	"fmt"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Collector assembles workload snapshots from the cluster: the workload
// itself, its pod hierarchy, and every related object (services, mounted
// secrets and configmaps, the service account and its RBAC chain).
type Collector struct {
	client *Client
}

// NewCollector creates a collector over the given client.
func NewCollector(client *Client) *Collector {
	return &Collector{client: client}
}

// Snapshot collects the snapshot for one workload.
func (c *Collector) Snapshot(ctx context.Context, namespace string, kind models.WorkloadKind, name string) (models.Snapshot, error) {
	switch kind {
	case models.WorkloadDeployment:
		return c.DeploymentTopology(ctx, namespace, name)
	case models.WorkloadDaemonSet:
		return c.DaemonSetTopology(ctx, namespace, name)
	case models.WorkloadJob:
		return c.JobTopology(ctx, namespace, name)
	case models.WorkloadCronJob:
		return c.CronJobTopology(ctx, namespace, name)
	}
	return nil, fmt.Errorf("unsupported workload kind %q", kind)
}

// WorkloadNames lists workload names of a kind in a namespace, sorted.
func (c *Collector) WorkloadNames(ctx context.Context, namespace string, kind models.WorkloadKind) ([]string, error) {
	var names []string
	err := c.client.call(ctx, func(ctx context.Context) error {
		names = names[:0]
		switch kind {
		case models.WorkloadDeployment:
			list, err := c.client.Clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return err
			}
			for _, d := range list.Items {
				names = append(names, d.Name)
			}
		case models.WorkloadDaemonSet:
			list, err := c.client.Clientset.AppsV1().DaemonSets(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return err
			}
			for _, d := range list.Items {
				names = append(names, d.Name)
			}
		case models.WorkloadJob:
			list, err := c.client.Clientset.BatchV1().Jobs(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return err
			}
			for _, j := range list.Items {
				names = append(names, j.Name)
			}
		case models.WorkloadCronJob:
			list, err := c.client.Clientset.BatchV1().CronJobs(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return err
			}
			for _, j := range list.Items {
				names = append(names, j.Name)
			}
		default:
			return fmt.Errorf("unsupported workload kind %q", kind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// DeploymentTopology collects a Deployment, its ReplicaSets with their pods,
// and the shared related objects.
func (c *Collector) DeploymentTopology(ctx context.Context, namespace, name string) (*models.DeploymentTopology, error) {
	var deploy *appsv1.Deployment
	err := c.client.call(ctx, func(ctx context.Context) error {
		d, err := c.client.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		deploy = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get deployment %s/%s: %w", namespace, name, err)
	}

	var selector map[string]string
	if deploy.Spec.Selector != nil {
		selector = deploy.Spec.Selector.MatchLabels
	}

	var sets []appsv1.ReplicaSet
	err = c.client.call(ctx, func(ctx context.Context) error {
		list, err := c.client.Clientset.AppsV1().ReplicaSets(namespace).List(ctx, metav1.ListOptions{
			LabelSelector: labels.Set(selector).String(),
		})
		if err != nil {
			return err
		}
		sets = nil
		for _, rs := range list.Items {
			if ownedBy(rs.OwnerReferences, deploy.UID) {
				sets = append(sets, rs)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pods, err := c.listPods(ctx, namespace, selector)
	if err != nil {
		return nil, err
	}

	topo := &models.DeploymentTopology{Deployment: ConvertDeployment(deploy)}
	topo.Namespace = namespace

	var allPods []models.PodInfo
	for _, rs := range sets {
		info := ConvertReplicaSet(&rs)
		for _, pod := range pods {
			if ownedBy(pod.OwnerReferences, rs.UID) {
				info.Pods = append(info.Pods, ConvertPod(&pod))
			}
		}
		allPods = append(allPods, info.Pods...)
		topo.ReplicaSets = append(topo.ReplicaSets, info)
	}

	template := deploy.Spec.Template
	if err := c.collectRelated(ctx, &topo.TopologyBase, template.Spec, allPods); err != nil {
		return nil, err
	}
	return topo, nil
}

// DaemonSetTopology collects a DaemonSet with its pods and related objects.
func (c *Collector) DaemonSetTopology(ctx context.Context, namespace, name string) (*models.DaemonSetTopology, error) {
	var ds *appsv1.DaemonSet
	err := c.client.call(ctx, func(ctx context.Context) error {
		d, err := c.client.Clientset.AppsV1().DaemonSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		ds = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get daemonset %s/%s: %w", namespace, name, err)
	}

	var selector map[string]string
	if ds.Spec.Selector != nil {
		selector = ds.Spec.Selector.MatchLabels
	}
	pods, err := c.listPods(ctx, namespace, selector)
	if err != nil {
		return nil, err
	}

	topo := &models.DaemonSetTopology{DaemonSet: ConvertDaemonSet(ds)}
	topo.Namespace = namespace
	for _, pod := range pods {
		if ownedBy(pod.OwnerReferences, ds.UID) {
			topo.Pods = append(topo.Pods, ConvertPod(&pod))
		}
	}
	if err := c.collectRelated(ctx, &topo.TopologyBase, ds.Spec.Template.Spec, topo.Pods); err != nil {
		return nil, err
	}
	return topo, nil
}

// JobTopology collects a Job with its pods and related objects.
func (c *Collector) JobTopology(ctx context.Context, namespace, name string) (*models.JobTopology, error) {
	var job *batchv1.Job
	err := c.client.call(ctx, func(ctx context.Context) error {
		j, err := c.client.Clientset.BatchV1().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		job = j
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get job %s/%s: %w", namespace, name, err)
	}

	var selector map[string]string
	if job.Spec.Selector != nil {
		selector = job.Spec.Selector.MatchLabels
	}
	pods, err := c.listPods(ctx, namespace, selector)
	if err != nil {
		return nil, err
	}

	topo := &models.JobTopology{Job: ConvertJob(job)}
	topo.Namespace = namespace
	for _, pod := range pods {
		if ownedBy(pod.OwnerReferences, job.UID) {
			topo.Pods = append(topo.Pods, ConvertPod(&pod))
		}
	}
	if err := c.collectRelated(ctx, &topo.TopologyBase, job.Spec.Template.Spec, topo.Pods); err != nil {
		return nil, err
	}
	return topo, nil
}

// CronJobTopology collects a CronJob, the pods of its active Jobs, and
// related objects.
func (c *Collector) CronJobTopology(ctx context.Context, namespace, name string) (*models.CronJobTopology, error) {
	var cj *batchv1.CronJob
	err := c.client.call(ctx, func(ctx context.Context) error {
		j, err := c.client.Clientset.BatchV1().CronJobs(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		cj = j
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get cronjob %s/%s: %w", namespace, name, err)
	}

	var jobs []batchv1.Job
	err = c.client.call(ctx, func(ctx context.Context) error {
		list, err := c.client.Clientset.BatchV1().Jobs(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		jobs = nil
		for _, j := range list.Items {
			if ownedBy(j.OwnerReferences, cj.UID) {
				jobs = append(jobs, j)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var pods []corev1.Pod
	err = c.client.call(ctx, func(ctx context.Context) error {
		list, err := c.client.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		pods = nil
		for _, pod := range list.Items {
			for _, j := range jobs {
				if ownedBy(pod.OwnerReferences, j.UID) {
					pods = append(pods, pod)
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	topo := &models.CronJobTopology{CronJob: ConvertCronJob(cj)}
	topo.Namespace = namespace
	for i := range pods {
		topo.Pods = append(topo.Pods, ConvertPod(&pods[i]))
	}
	if err := c.collectRelated(ctx, &topo.TopologyBase, cj.Spec.JobTemplate.Spec.Template.Spec, topo.Pods); err != nil {
		return nil, err
	}
	return topo, nil
}

func (c *Collector) listPods(ctx context.Context, namespace string, selector map[string]string) ([]corev1.Pod, error) {
	var pods []corev1.Pod
	err := c.client.call(ctx, func(ctx context.Context) error {
		list, err := c.client.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
			LabelSelector: labels.Set(selector).String(),
		})
		if err != nil {
			return err
		}
		pods = list.Items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pods, nil
}

// collectRelated fills the shared collections: services selecting the pod
// template's labels, their endpoints, volumes' secrets and configmaps, and
// the service account with its RBAC chain.
func (c *Collector) collectRelated(ctx context.Context, base *models.TopologyBase, podSpec corev1.PodSpec, pods []models.PodInfo) error {
	namespace := base.Namespace

	// Services whose selector matches any pod of the workload. Selector-less
	// services (headless externals) are skipped.
	var services []corev1.Service
	err := c.client.call(ctx, func(ctx context.Context) error {
		list, err := c.client.Clientset.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		services = list.Items
		return nil
	})
	if err != nil {
		return err
	}
	podLabels, err := c.podLabels(ctx, namespace, pods)
	if err != nil {
		return err
	}
	for i := range services {
		svc := &services[i]
		if len(svc.Spec.Selector) == 0 {
			continue
		}
		sel := labels.Set(svc.Spec.Selector).AsSelector()
		for _, ls := range podLabels {
			if sel.Matches(labels.Set(ls)) {
				base.Services = append(base.Services, ConvertService(svc))
				break
			}
		}
	}

	// Endpoints paired with the selected services by name.
	for _, svc := range base.Services {
		var ep *corev1.Endpoints
		err := c.client.call(ctx, func(ctx context.Context) error {
			e, err := c.client.Clientset.CoreV1().Endpoints(namespace).Get(ctx, svc.Name, metav1.GetOptions{})
			if err != nil {
				return err
			}
			ep = e
			return nil
		})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return err
		}
		base.Endpoints = append(base.Endpoints, ConvertEndpoints(ep))
	}

	// Mounted secrets and configmaps, deduplicated by name.
	secretNames := map[string]bool{}
	configMapNames := map[string]bool{}
	for _, pod := range pods {
		for _, v := range pod.Volumes {
			if v.Secret != "" {
				secretNames[v.Secret] = true
			}
			if v.ConfigMap != "" {
				configMapNames[v.ConfigMap] = true
			}
		}
	}
	for _, name := range sortedKeys(secretNames) {
		var s *corev1.Secret
		err := c.client.call(ctx, func(ctx context.Context) error {
			got, err := c.client.Clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				return err
			}
			s = got
			return nil
		})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return err
		}
		base.Secrets = append(base.Secrets, ConvertSecret(s))
	}
	for _, name := range sortedKeys(configMapNames) {
		var cm *corev1.ConfigMap
		err := c.client.call(ctx, func(ctx context.Context) error {
			got, err := c.client.Clientset.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				return err
			}
			cm = got
			return nil
		})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return err
		}
		base.ConfigMaps = append(base.ConfigMaps, ConvertConfigMap(cm))
	}

	return c.collectRBAC(ctx, base, podSpec.ServiceAccountName)
}

// collectRBAC resolves the service account and every binding that names it,
// plus the roles those bindings reference.
func (c *Collector) collectRBAC(ctx context.Context, base *models.TopologyBase, saName string) error {
	if saName == "" {
		saName = "default"
	}
	namespace := base.Namespace

	var sa *corev1.ServiceAccount
	err := c.client.call(ctx, func(ctx context.Context) error {
		got, err := c.client.Clientset.CoreV1().ServiceAccounts(namespace).Get(ctx, saName, metav1.GetOptions{})
		if err != nil {
			return err
		}
		sa = got
		return nil
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	info := ConvertServiceAccount(sa)
	base.ServiceAccount = &info

	err = c.client.call(ctx, func(ctx context.Context) error {
		list, err := c.client.Clientset.RbacV1().RoleBindings(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		for i := range list.Items {
			if bindsServiceAccount(list.Items[i].Subjects, saName, namespace) {
				base.RoleBindings = append(base.RoleBindings, ConvertRoleBinding(&list.Items[i]))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = c.client.call(ctx, func(ctx context.Context) error {
		list, err := c.client.Clientset.RbacV1().ClusterRoleBindings().List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		for i := range list.Items {
			if bindsServiceAccount(list.Items[i].Subjects, saName, namespace) {
				base.ClusterRoleBindings = append(base.ClusterRoleBindings, ConvertClusterRoleBinding(&list.Items[i]))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	seenRoles := map[string]bool{}
	seenClusterRoles := map[string]bool{}
	for _, binding := range append(append([]models.RoleBindingInfo(nil), base.RoleBindings...), base.ClusterRoleBindings...) {
		switch binding.RoleRef.Kind {
		case "Role":
			if seenRoles[binding.RoleRef.Name] {
				continue
			}
			seenRoles[binding.RoleRef.Name] = true
			err := c.client.call(ctx, func(ctx context.Context) error {
				r, err := c.client.Clientset.RbacV1().Roles(namespace).Get(ctx, binding.RoleRef.Name, metav1.GetOptions{})
				if err != nil {
					return err
				}
				base.Roles = append(base.Roles, ConvertRole(r))
				return nil
			})
			if err != nil && !errors.IsNotFound(err) {
				return err
			}
		case "ClusterRole":
			if seenClusterRoles[binding.RoleRef.Name] {
				continue
			}
			seenClusterRoles[binding.RoleRef.Name] = true
			err := c.client.call(ctx, func(ctx context.Context) error {
				r, err := c.client.Clientset.RbacV1().ClusterRoles().Get(ctx, binding.RoleRef.Name, metav1.GetOptions{})
				if err != nil {
					return err
				}
				base.ClusterRoles = append(base.ClusterRoles, ConvertClusterRole(r))
				return nil
			})
			if err != nil && !errors.IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}

// podLabels re-reads labels for the collected pods; snapshot pods don't carry
// labels, and service matching needs them.
func (c *Collector) podLabels(ctx context.Context, namespace string, pods []models.PodInfo) ([]map[string]string, error) {
	var out []map[string]string
	for _, pod := range pods {
		var p *corev1.Pod
		err := c.client.call(ctx, func(ctx context.Context) error {
			got, err := c.client.Clientset.CoreV1().Pods(namespace).Get(ctx, pod.Name, metav1.GetOptions{})
			if err != nil {
				return err
			}
			p = got
			return nil
		})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, p.Labels)
	}
	return out, nil
}

func ownedBy(refs []metav1.OwnerReference, uid types.UID) bool {
	for _, ref := range refs {
		if ref.UID == uid {
			return true
		}
	}
	return false
}

func bindsServiceAccount(subjects []rbacv1.Subject, name, namespace string) bool {
	for _, s := range subjects {
		if s.Kind == "ServiceAccount" && s.Name == name && (s.Namespace == "" || s.Namespace == namespace) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
