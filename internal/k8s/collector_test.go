package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

func deploymentClusterObjects() []runtime.Object {
	selector := map[string]string{"app": "web"}
	podTemplate := corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: selector},
		Spec: corev1.PodSpec{
			ServiceAccountName: "web-sa",
			Containers:         []corev1.Container{{Name: "app", Image: "nginx:1.27"}},
		},
	}
	return []runtime.Object{
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "prod", UID: "dep-uid"},
			Spec: appsv1.DeploymentSpec{
				Replicas: int32Ptr(1),
				Selector: &metav1.LabelSelector{MatchLabels: selector},
				Template: podTemplate,
			},
			Status: appsv1.DeploymentStatus{ReadyReplicas: 1, AvailableReplicas: 1},
		},
		&appsv1.ReplicaSet{
			ObjectMeta: metav1.ObjectMeta{
				Name: "web-abc", Namespace: "prod", UID: "rs-uid", Labels: selector,
				OwnerReferences: []metav1.OwnerReference{{Kind: "Deployment", Name: "web", UID: "dep-uid"}},
			},
			Spec:   appsv1.ReplicaSetSpec{Replicas: int32Ptr(1), Selector: &metav1.LabelSelector{MatchLabels: selector}},
			Status: appsv1.ReplicaSetStatus{ReadyReplicas: 1},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name: "web-abc-1", Namespace: "prod", UID: "pod-uid", Labels: selector,
				OwnerReferences: []metav1.OwnerReference{{Kind: "ReplicaSet", Name: "web-abc", UID: "rs-uid"}},
			},
			Spec: corev1.PodSpec{
				ServiceAccountName: "web-sa",
				Containers:         []corev1.Container{{Name: "app", Image: "nginx:1.27"}},
				Volumes: []corev1.Volume{
					{Name: "certs", VolumeSource: corev1.VolumeSource{Secret: &corev1.SecretVolumeSource{SecretName: "tls"}}},
				},
			},
			Status: corev1.PodStatus{
				Phase:      corev1.PodRunning,
				Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: corev1.ConditionTrue}},
			},
		},
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "web-svc", Namespace: "prod"},
			Spec: corev1.ServiceSpec{
				Selector: selector,
				Ports:    []corev1.ServicePort{{Port: 80}},
			},
		},
		&corev1.Endpoints{
			ObjectMeta: metav1.ObjectMeta{Name: "web-svc", Namespace: "prod"},
			Subsets: []corev1.EndpointSubset{{Addresses: []corev1.EndpointAddress{
				{IP: "10.0.0.1", TargetRef: &corev1.ObjectReference{Kind: "Pod", Name: "web-abc-1"}},
			}}},
		},
		&corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{Name: "tls", Namespace: "prod"},
			Data:       map[string][]byte{"tls.crt": []byte("x")},
		},
		&corev1.ServiceAccount{
			ObjectMeta: metav1.ObjectMeta{Name: "web-sa", Namespace: "prod"},
		},
		&rbacv1.RoleBinding{
			ObjectMeta: metav1.ObjectMeta{Name: "web-rb", Namespace: "prod"},
			Subjects:   []rbacv1.Subject{{Kind: "ServiceAccount", Name: "web-sa", Namespace: "prod"}},
			RoleRef:    rbacv1.RoleRef{Kind: "Role", Name: "web-role"},
		},
		&rbacv1.Role{
			ObjectMeta: metav1.ObjectMeta{Name: "web-role", Namespace: "prod"},
			Rules:      []rbacv1.PolicyRule{{Verbs: []string{"get"}}},
		},
	}
}

func TestCollectorDeploymentTopology(t *testing.T) {
	client := NewClientForTest(fake.NewSimpleClientset(deploymentClusterObjects()...))
	c := NewCollector(client)

	topo, err := c.DeploymentTopology(context.Background(), "prod", "web")
	require.NoError(t, err)

	assert.Equal(t, "web", topo.Deployment.Name)
	assert.Equal(t, models.StatusHealthy, topo.Deployment.Status)

	require.Len(t, topo.ReplicaSets, 1)
	assert.Equal(t, "web-abc", topo.ReplicaSets[0].Name)
	require.Len(t, topo.ReplicaSets[0].Pods, 1)
	assert.Equal(t, "web-abc-1", topo.ReplicaSets[0].Pods[0].Name)

	require.Len(t, topo.Services, 1)
	assert.Equal(t, "web-svc", topo.Services[0].Name)
	require.Len(t, topo.Endpoints, 1)

	require.Len(t, topo.Secrets, 1)
	assert.Equal(t, "tls", topo.Secrets[0].Name)
	assert.Empty(t, topo.ConfigMaps)

	require.NotNil(t, topo.ServiceAccount)
	assert.Equal(t, "web-sa", topo.ServiceAccount.Name)
	require.Len(t, topo.RoleBindings, 1)
	require.Len(t, topo.Roles, 1)
	assert.Equal(t, "web-role", topo.Roles[0].Name)
	assert.Equal(t, 1, topo.Roles[0].RuleCount)
}

func TestCollectorDeploymentNotFound(t *testing.T) {
	client := NewClientForTest(fake.NewSimpleClientset())
	c := NewCollector(client)
	_, err := c.DeploymentTopology(context.Background(), "prod", "missing")
	assert.Error(t, err)
}

func TestCollectorWorkloadNames(t *testing.T) {
	client := NewClientForTest(fake.NewSimpleClientset(
		&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "zeta", Namespace: "prod"}},
		&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "alpha", Namespace: "prod"}},
		&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "other", Namespace: "staging"}},
	))
	c := NewCollector(client)

	names, err := c.WorkloadNames(context.Background(), "prod", models.WorkloadDeployment)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	_, err = c.WorkloadNames(context.Background(), "prod", "statefulset")
	assert.Error(t, err)
}

func TestCollectorSnapshotDispatch(t *testing.T) {
	client := NewClientForTest(fake.NewSimpleClientset(
		&batchv1.Job{
			ObjectMeta: metav1.ObjectMeta{Name: "backup", Namespace: "prod", UID: "job-uid"},
			Status:     batchv1.JobStatus{Succeeded: 1},
		},
	))
	c := NewCollector(client)

	snap, err := c.Snapshot(context.Background(), "prod", models.WorkloadJob, "backup")
	require.NoError(t, err)
	job, ok := snap.(*models.JobTopology)
	require.True(t, ok)
	assert.Equal(t, "backup", job.Job.Name)
	assert.Equal(t, models.StatusHealthy, job.Job.Status)

	_, err = c.Snapshot(context.Background(), "prod", "statefulset", "x")
	assert.Error(t, err)
}

func TestCollectorCronJobActivePods(t *testing.T) {
	objects := []runtime.Object{
		&batchv1.CronJob{
			ObjectMeta: metav1.ObjectMeta{Name: "sync", Namespace: "prod", UID: "cj-uid"},
			Spec:       batchv1.CronJobSpec{Schedule: "*/5 * * * *"},
		},
		&batchv1.Job{
			ObjectMeta: metav1.ObjectMeta{
				Name: "sync-1", Namespace: "prod", UID: "job-1",
				OwnerReferences: []metav1.OwnerReference{{Kind: "CronJob", Name: "sync", UID: "cj-uid"}},
			},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name: "sync-1-pod", Namespace: "prod",
				OwnerReferences: []metav1.OwnerReference{{Kind: "Job", Name: "sync-1", UID: "job-1"}},
			},
			Status: corev1.PodStatus{Phase: corev1.PodSucceeded},
		},
		// pod of an unrelated job stays out
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name: "other-pod", Namespace: "prod",
				OwnerReferences: []metav1.OwnerReference{{Kind: "Job", Name: "other", UID: "job-x"}},
			},
		},
	}
	c := NewCollector(NewClientForTest(fake.NewSimpleClientset(objects...)))

	topo, err := c.CronJobTopology(context.Background(), "prod", "sync")
	require.NoError(t, err)
	require.Len(t, topo.Pods, 1)
	assert.Equal(t, "sync-1-pod", topo.Pods[0].Name)
}

func TestClientNamespaces(t *testing.T) {
	client := NewClientForTest(fake.NewSimpleClientset(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "prod"}},
	))
	names, err := client.Namespaces(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "prod"}, names)
}
