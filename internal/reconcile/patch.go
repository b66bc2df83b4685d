package reconcile

import (
	"encoding/json"
	"fmt"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Patches mirror the change payloads with pointer fields so that only keys
// actually present on the wire are merged; a modify carrying just a status
// leaves every other field of the existing entry alone. apply is written
// against a value receiver and returns the merged copy, so the same patch
// serves both as the merge function and, applied to a zero base, as the
// constructor for an added object.

func decode[P any](change models.ResourceChange) (P, error) {
	var p P
	if len(change.Data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(change.Data, &p); err != nil {
		return p, fmt.Errorf("decode %s change for %q: %w", change.ResourceType, change.ResourceID, err)
	}
	return p, nil
}

type podPatch struct {
	UID             *string                 `json:"uid"`
	Status          *string                 `json:"status"`
	NodeName        *string                 `json:"nodeName"`
	Containers      *[]models.ContainerInfo `json:"containers"`
	Volumes         *[]models.VolumeInfo    `json:"volumes"`
	OwnerReplicaSet *string                 `json:"ownerReplicaSet"`
}

func (p podPatch) apply(pod models.PodInfo) models.PodInfo {
	if p.UID != nil {
		pod.UID = *p.UID
	}
	if p.Status != nil {
		pod.Status = *p.Status
	}
	if p.NodeName != nil {
		pod.NodeName = *p.NodeName
	}
	if p.Containers != nil {
		pod.Containers = *p.Containers
	}
	if p.Volumes != nil {
		pod.Volumes = *p.Volumes
	}
	return pod
}

func (p podPatch) owner() string {
	if p.OwnerReplicaSet != nil {
		return *p.OwnerReplicaSet
	}
	return ""
}

type replicaSetPatch struct {
	UID      *string `json:"uid"`
	Replicas *int32  `json:"replicas"`
	Ready    *int32  `json:"ready"`
	Status   *string `json:"status"`
}

func (p replicaSetPatch) apply(rs models.ReplicaSetInfo) models.ReplicaSetInfo {
	if p.UID != nil {
		rs.UID = *p.UID
	}
	if p.Replicas != nil {
		rs.Replicas = *p.Replicas
	}
	if p.Ready != nil {
		rs.Ready = *p.Ready
	}
	if p.Status != nil {
		rs.Status = *p.Status
	}
	return rs
}

type deploymentPatch struct {
	UID       *string            `json:"uid"`
	Replicas  *int32             `json:"replicas"`
	Ready     *int32             `json:"ready"`
	Available *int32             `json:"available"`
	Labels    *map[string]string `json:"labels"`
	Selector  *map[string]string `json:"selector"`
	Status    *string            `json:"status"`
}

func (p deploymentPatch) apply(d models.DeploymentInfo) models.DeploymentInfo {
	if p.UID != nil {
		d.UID = *p.UID
	}
	if p.Replicas != nil {
		d.Replicas = *p.Replicas
	}
	if p.Ready != nil {
		d.Ready = *p.Ready
	}
	if p.Available != nil {
		d.Available = *p.Available
	}
	if p.Labels != nil {
		d.Labels = *p.Labels
	}
	if p.Selector != nil {
		d.Selector = *p.Selector
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	return d
}

type daemonSetPatch struct {
	UID                    *string            `json:"uid"`
	DesiredNumberScheduled *int32             `json:"desiredNumberScheduled"`
	NumberReady            *int32             `json:"numberReady"`
	Labels                 *map[string]string `json:"labels"`
	Status                 *string            `json:"status"`
}

func (p daemonSetPatch) apply(d models.DaemonSetInfo) models.DaemonSetInfo {
	if p.UID != nil {
		d.UID = *p.UID
	}
	if p.DesiredNumberScheduled != nil {
		d.DesiredNumberScheduled = *p.DesiredNumberScheduled
	}
	if p.NumberReady != nil {
		d.NumberReady = *p.NumberReady
	}
	if p.Labels != nil {
		d.Labels = *p.Labels
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	return d
}

type jobPatch struct {
	UID         *string            `json:"uid"`
	Active      *int32             `json:"active"`
	Succeeded   *int32             `json:"succeeded"`
	Failed      *int32             `json:"failed"`
	Completions *int32             `json:"completions"`
	Labels      *map[string]string `json:"labels"`
	Status      *string            `json:"status"`
}

func (p jobPatch) apply(j models.JobInfo) models.JobInfo {
	if p.UID != nil {
		j.UID = *p.UID
	}
	if p.Active != nil {
		j.Active = *p.Active
	}
	if p.Succeeded != nil {
		j.Succeeded = *p.Succeeded
	}
	if p.Failed != nil {
		j.Failed = *p.Failed
	}
	if p.Completions != nil {
		j.Completions = p.Completions
	}
	if p.Labels != nil {
		j.Labels = *p.Labels
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	return j
}

type cronJobPatch struct {
	UID      *string            `json:"uid"`
	Schedule *string            `json:"schedule"`
	Suspend  *bool              `json:"suspend"`
	Active   *[]string          `json:"active"`
	Labels   *map[string]string `json:"labels"`
	Status   *string            `json:"status"`
}

func (p cronJobPatch) apply(c models.CronJobInfo) models.CronJobInfo {
	if p.UID != nil {
		c.UID = *p.UID
	}
	if p.Schedule != nil {
		c.Schedule = *p.Schedule
	}
	if p.Suspend != nil {
		c.Suspend = *p.Suspend
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	if p.Labels != nil {
		c.Labels = *p.Labels
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c
}

type servicePatch struct {
	UID       *string               `json:"uid"`
	Type      *string               `json:"type"`
	ClusterIP *string               `json:"clusterIP"`
	Ports     *[]models.ServicePort `json:"ports"`
	Status    *string               `json:"status"`
}

func (p servicePatch) apply(s models.ServiceInfo) models.ServiceInfo {
	if p.UID != nil {
		s.UID = *p.UID
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.ClusterIP != nil {
		s.ClusterIP = *p.ClusterIP
	}
	if p.Ports != nil {
		s.Ports = *p.Ports
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	return s
}

type endpointsPatch struct {
	UID       *string                   `json:"uid"`
	Addresses *[]models.EndpointAddress `json:"addresses"`
	Status    *string                   `json:"status"`
}

func (p endpointsPatch) apply(e models.EndpointsInfo) models.EndpointsInfo {
	if p.UID != nil {
		e.UID = *p.UID
	}
	if p.Addresses != nil {
		e.Addresses = *p.Addresses
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	return e
}

type secretPatch struct {
	UID    *string   `json:"uid"`
	Type   *string   `json:"type"`
	Keys   *[]string `json:"keys"`
	Status *string   `json:"status"`
}

func (p secretPatch) apply(s models.SecretInfo) models.SecretInfo {
	if p.UID != nil {
		s.UID = *p.UID
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Keys != nil {
		s.Keys = *p.Keys
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	return s
}

type configMapPatch struct {
	UID    *string   `json:"uid"`
	Keys   *[]string `json:"keys"`
	Status *string   `json:"status"`
}

func (p configMapPatch) apply(c models.ConfigMapInfo) models.ConfigMapInfo {
	if p.UID != nil {
		c.UID = *p.UID
	}
	if p.Keys != nil {
		c.Keys = *p.Keys
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c
}

type serviceAccountPatch struct {
	UID    *string `json:"uid"`
	Status *string `json:"status"`
}

func (p serviceAccountPatch) apply(s models.ServiceAccountInfo) models.ServiceAccountInfo {
	if p.UID != nil {
		s.UID = *p.UID
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	return s
}

type rolePatch struct {
	UID       *string `json:"uid"`
	RuleCount *int    `json:"ruleCount"`
	Status    *string `json:"status"`
}

func (p rolePatch) apply(r models.RoleInfo) models.RoleInfo {
	if p.UID != nil {
		r.UID = *p.UID
	}
	if p.RuleCount != nil {
		r.RuleCount = *p.RuleCount
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	return r
}

type roleBindingPatch struct {
	UID      *string           `json:"uid"`
	RoleRef  *models.ObjectRef `json:"roleRef"`
	Subjects *[]models.Subject `json:"subjects"`
	Status   *string           `json:"status"`
}

func (p roleBindingPatch) apply(b models.RoleBindingInfo) models.RoleBindingInfo {
	if p.UID != nil {
		b.UID = *p.UID
	}
	if p.RoleRef != nil {
		b.RoleRef = *p.RoleRef
	}
	if p.Subjects != nil {
		b.Subjects = *p.Subjects
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	return b
}
