package reconcile

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

func deploymentFixture() *models.DeploymentTopology {
	return &models.DeploymentTopology{
		TopologyBase: models.TopologyBase{
			Namespace: "prod",
			Secrets: []models.SecretInfo{
				{Name: "tls", Namespace: "prod", Status: models.StatusHealthy},
			},
		},
		Deployment: models.DeploymentInfo{
			Name: "web", Namespace: "prod", Replicas: 2, Ready: 2, Status: models.StatusHealthy,
		},
		ReplicaSets: []models.ReplicaSetInfo{
			{
				Name: "web-abc", Namespace: "prod", Replicas: 2, Ready: 2,
				Pods: []models.PodInfo{
					{Name: "web-abc-1", Namespace: "prod", Status: models.StatusHealthy},
				},
			},
			{
				Name: "web-def", Namespace: "prod",
				Pods: []models.PodInfo{
					{Name: "web-def-1", Namespace: "staging", Status: models.StatusHealthy},
				},
			},
		},
	}
}

func change(t models.ChangeType, resourceType, id, namespace string, payload any) models.ResourceChange {
	c := models.ResourceChange{Type: t, ResourceType: resourceType, ResourceID: id, Namespace: namespace}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			panic(err)
		}
		c.Data = data
	}
	return c
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeModified, models.ResourceDeployment, "web", "prod",
		map[string]any{"ready": 1, "status": models.StatusWarning}))
	require.NoError(t, err)

	next := out.(*models.DeploymentTopology)
	assert.Equal(t, int32(1), next.Deployment.Ready)
	assert.Equal(t, models.StatusWarning, next.Deployment.Status)
	// original untouched
	assert.Equal(t, int32(2), snap.Deployment.Ready)
	assert.Equal(t, models.StatusHealthy, snap.Deployment.Status)
}

func TestApplyMergesOnlyPresentFields(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeModified, models.ResourceDeployment, "web", "prod",
		map[string]any{"status": models.StatusError}))
	require.NoError(t, err)

	next := out.(*models.DeploymentTopology)
	assert.Equal(t, models.StatusError, next.Deployment.Status)
	// fields absent from the payload keep their values
	assert.Equal(t, int32(2), next.Deployment.Replicas)
	assert.Equal(t, int32(2), next.Deployment.Ready)
}

func TestApplyIdempotent(t *testing.T) {
	snap := deploymentFixture()
	c := change(models.ChangeModified, models.ResourcePod, "web-abc-1", "prod",
		map[string]any{"status": models.StatusError})

	once, err := Apply(snap, c)
	require.NoError(t, err)
	twice, err := Apply(once, c)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestApplyModifiedUnknownPodDropped(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeModified, models.ResourcePod, "web-abc-9", "prod",
		map[string]any{"status": models.StatusError}))
	require.NoError(t, err)

	// a modify for a pod that was never added leaves the snapshot unchanged
	assert.Equal(t, snap, out)
}

func TestApplyModifiedUnknownLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	_, err := Apply(deploymentFixture(), change(models.ChangeModified, models.ResourcePod, "web-abc-9", "prod",
		map[string]any{"status": models.StatusError}))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "dropping change for untracked entity")
	assert.Contains(t, buf.String(), "web-abc-9")
}

func TestApplyAddedPodRoutedByOwner(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeAdded, models.ResourcePod, "web-def-2", "prod",
		map[string]any{"status": models.StatusHealthy, "ownerReplicaSet": "web-def"}))
	require.NoError(t, err)

	next := out.(*models.DeploymentTopology)
	require.Len(t, next.ReplicaSets[1].Pods, 2)
	assert.Equal(t, "web-def-2", next.ReplicaSets[1].Pods[1].Name)
	assert.Len(t, next.ReplicaSets[0].Pods, 1)
}

func TestApplyAddedPodFallsBackToFirstReplicaSet(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeAdded, models.ResourcePod, "web-xyz-1", "prod",
		map[string]any{"status": models.StatusHealthy, "ownerReplicaSet": "web-gone"}))
	require.NoError(t, err)

	next := out.(*models.DeploymentTopology)
	require.Len(t, next.ReplicaSets[0].Pods, 2)
	assert.Equal(t, "web-xyz-1", next.ReplicaSets[0].Pods[1].Name)
}

func TestApplyAddedPodNoReplicaSetsDropped(t *testing.T) {
	snap := deploymentFixture()
	snap.ReplicaSets = nil
	out, err := Apply(snap, change(models.ChangeAdded, models.ResourcePod, "web-abc-1", "prod",
		map[string]any{"status": models.StatusHealthy}))
	require.NoError(t, err)
	assert.Empty(t, out.(*models.DeploymentTopology).ReplicaSets)
}

func TestApplyModifiedPodStaysInPlace(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeModified, models.ResourcePod, "web-abc-1", "prod",
		map[string]any{"status": models.StatusError, "ownerReplicaSet": "web-def"}))
	require.NoError(t, err)

	// the owner hint never moves a tracked pod
	next := out.(*models.DeploymentTopology)
	require.Len(t, next.ReplicaSets[0].Pods, 1)
	assert.Equal(t, models.StatusError, next.ReplicaSets[0].Pods[0].Status)
	assert.Len(t, next.ReplicaSets[1].Pods, 1)
}

func TestApplyDeletePodWithoutNamespaceRemovesEverywhere(t *testing.T) {
	snap := deploymentFixture()
	snap.ReplicaSets[0].Pods = append(snap.ReplicaSets[0].Pods,
		models.PodInfo{Name: "web-def-1", Namespace: "prod", Status: models.StatusHealthy})

	out, err := Apply(snap, change(models.ChangeDeleted, models.ResourcePod, "web-def-1", "", nil))
	require.NoError(t, err)

	next := out.(*models.DeploymentTopology)
	for _, rs := range next.ReplicaSets {
		for _, pod := range rs.Pods {
			assert.NotEqual(t, "web-def-1", pod.Name)
		}
	}
	// unrelated pod survives
	assert.Equal(t, "web-abc-1", next.ReplicaSets[0].Pods[0].Name)
}

func TestApplyDeleteReplicaSet(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeDeleted, models.ResourceReplicaSet, "web-def", "prod", nil))
	require.NoError(t, err)

	next := out.(*models.DeploymentTopology)
	require.Len(t, next.ReplicaSets, 1)
	assert.Equal(t, "web-abc", next.ReplicaSets[0].Name)
}

func TestApplyAddedSecretUpserts(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeAdded, models.ResourceSecret, "api-key", "prod",
		map[string]any{"status": models.StatusHealthy}))
	require.NoError(t, err)
	assert.Len(t, out.(*models.DeploymentTopology).Secrets, 2)

	// re-adding the same secret merges instead of duplicating
	again, err := Apply(out, change(models.ChangeAdded, models.ResourceSecret, "api-key", "prod",
		map[string]any{"status": models.StatusWarning}))
	require.NoError(t, err)
	next := again.(*models.DeploymentTopology)
	require.Len(t, next.Secrets, 2)
	assert.Equal(t, models.StatusWarning, next.Secrets[1].Status)
}

func TestApplyModifiedUnknownSecretDropped(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeModified, models.ResourceSecret, "ghost", "prod",
		map[string]any{"status": models.StatusError}))
	require.NoError(t, err)
	assert.Len(t, out.(*models.DeploymentTopology).Secrets, 1)
}

func TestApplyServiceAccountSlot(t *testing.T) {
	snap := deploymentFixture()

	// modified with no current slot is dropped
	out, err := Apply(snap, change(models.ChangeModified, models.ResourceServiceAccount, "runner", "prod",
		map[string]any{"status": models.StatusHealthy}))
	require.NoError(t, err)
	assert.Nil(t, out.(*models.DeploymentTopology).ServiceAccount)

	// added fills the slot
	out, err = Apply(snap, change(models.ChangeAdded, models.ResourceServiceAccount, "runner", "prod",
		map[string]any{"status": models.StatusHealthy}))
	require.NoError(t, err)
	sa := out.(*models.DeploymentTopology).ServiceAccount
	require.NotNil(t, sa)
	assert.Equal(t, "runner", sa.Name)

	// delete for another name leaves the slot alone
	kept, err := Apply(out, change(models.ChangeDeleted, models.ResourceServiceAccount, "other", "prod", nil))
	require.NoError(t, err)
	assert.NotNil(t, kept.(*models.DeploymentTopology).ServiceAccount)

	// delete for the held name clears it
	cleared, err := Apply(out, change(models.ChangeDeleted, models.ResourceServiceAccount, "runner", "", nil))
	require.NoError(t, err)
	assert.Nil(t, cleared.(*models.DeploymentTopology).ServiceAccount)
}

func TestApplyUnknownResourceTypeIgnored(t *testing.T) {
	snap := deploymentFixture()
	out, err := Apply(snap, change(models.ChangeAdded, "node", "worker-1", "", nil))
	require.NoError(t, err)
	assert.Equal(t, snap, out)
}

func TestApplyMalformedPayload(t *testing.T) {
	snap := deploymentFixture()
	c := models.ResourceChange{
		Type: models.ChangeModified, ResourceType: models.ResourceDeployment,
		ResourceID: "web", Namespace: "prod", Data: json.RawMessage(`{"replicas":"two"}`),
	}
	_, err := Apply(snap, c)
	assert.Error(t, err)
}

func TestApplyUpdateStopsAtMalformedChange(t *testing.T) {
	snap := deploymentFixture()
	update := models.TopologyUpdate{Changes: []models.ResourceChange{
		change(models.ChangeModified, models.ResourceDeployment, "web", "prod", map[string]any{"ready": 1}),
		{Type: models.ChangeModified, ResourceType: models.ResourceDeployment,
			ResourceID: "web", Data: json.RawMessage(`{`)},
		change(models.ChangeModified, models.ResourceDeployment, "web", "prod", map[string]any{"ready": 0}),
	}}

	out, err := ApplyUpdate(snap, update)
	require.Error(t, err)
	// state as of the last good change
	assert.Equal(t, int32(1), out.(*models.DeploymentTopology).Deployment.Ready)
}

func TestApplyDaemonSetPods(t *testing.T) {
	snap := &models.DaemonSetTopology{
		TopologyBase: models.TopologyBase{Namespace: "kube-system"},
		DaemonSet:    models.DaemonSetInfo{Name: "proxy", Namespace: "kube-system"},
		Pods: []models.PodInfo{
			{Name: "proxy-1", Namespace: "kube-system", Status: models.StatusHealthy},
		},
	}

	out, err := Apply(snap, change(models.ChangeAdded, models.ResourcePod, "proxy-2", "",
		map[string]any{"status": models.StatusHealthy}))
	require.NoError(t, err)
	next := out.(*models.DaemonSetTopology)
	require.Len(t, next.Pods, 2)
	// missing namespace falls back to the topology's
	assert.Equal(t, "kube-system", next.Pods[1].Namespace)

	out, err = Apply(next, change(models.ChangeDeleted, models.ResourcePod, "proxy-1", "", nil))
	require.NoError(t, err)
	require.Len(t, out.(*models.DaemonSetTopology).Pods, 1)
	assert.Equal(t, "proxy-2", out.(*models.DaemonSetTopology).Pods[0].Name)
}
