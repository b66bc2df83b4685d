package models

// WorkloadKind identifies which workload a topology snapshot is rooted at.
type WorkloadKind string

const (
	WorkloadDeployment WorkloadKind = "deployment"
	WorkloadDaemonSet  WorkloadKind = "daemonset"
	WorkloadJob        WorkloadKind = "job"
	WorkloadCronJob    WorkloadKind = "cronjob"
)

// Keyed is implemented by every snapshot entity the reconciler addresses.
// Lookup order is UID when present, then name+namespace.
type Keyed interface {
	GetUID() string
	GetName() string
	GetNamespace() string
	GetStatus() string
}

// ObjectRef points at another object by kind and name (roleRef, targetRef).
type ObjectRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Subject is a binding subject (ServiceAccount, User, Group).
type Subject struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// ContainerInfo describes one container of a pod.
type ContainerInfo struct {
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`
	Ready        bool   `json:"ready"`
	RestartCount int32  `json:"restartCount,omitempty"`
	State        string `json:"state,omitempty"`
}

// VolumeInfo is a declared pod volume. Exactly one of Secret or ConfigMap is
// set for the volume sources the topology cares about.
type VolumeInfo struct {
	Name      string `json:"name"`
	Secret    string `json:"secret,omitempty"`
	ConfigMap string `json:"configMap,omitempty"`
}

// PodInfo describes one pod of the workload.
type PodInfo struct {
	Name       string          `json:"name"`
	Namespace  string          `json:"namespace"`
	UID        string          `json:"uid,omitempty"`
	Status     string          `json:"status"`
	NodeName   string          `json:"nodeName,omitempty"`
	Containers []ContainerInfo `json:"containers,omitempty"`
	Volumes    []VolumeInfo    `json:"volumes,omitempty"`
}

func (p PodInfo) GetUID() string       { return p.UID }
func (p PodInfo) GetName() string      { return p.Name }
func (p PodInfo) GetNamespace() string { return p.Namespace }
func (p PodInfo) GetStatus() string    { return p.Status }

// ServicePort is one exposed port of a service.
type ServicePort struct {
	Name       string `json:"name,omitempty"`
	Port       int32  `json:"port"`
	TargetPort string `json:"targetPort,omitempty"`
	Protocol   string `json:"protocol,omitempty"`
}

// ServiceInfo describes a service selecting the workload's pods.
type ServiceInfo struct {
	Name      string        `json:"name"`
	Namespace string        `json:"namespace"`
	UID       string        `json:"uid,omitempty"`
	Type      string        `json:"type,omitempty"`
	ClusterIP string        `json:"clusterIP,omitempty"`
	Ports     []ServicePort `json:"ports,omitempty"`
	Status    string        `json:"status,omitempty"`
}

func (s ServiceInfo) GetUID() string       { return s.UID }
func (s ServiceInfo) GetName() string      { return s.Name }
func (s ServiceInfo) GetNamespace() string { return s.Namespace }
func (s ServiceInfo) GetStatus() string    { return s.Status }

// EndpointAddress is one ready address of an endpoints object.
type EndpointAddress struct {
	IP        string     `json:"ip"`
	TargetRef *ObjectRef `json:"targetRef,omitempty"`
}

// EndpointsInfo describes the endpoints object paired with a service by name.
type EndpointsInfo struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	UID       string            `json:"uid,omitempty"`
	Addresses []EndpointAddress `json:"addresses,omitempty"`
	Status    string            `json:"status,omitempty"`
}

func (e EndpointsInfo) GetUID() string       { return e.UID }
func (e EndpointsInfo) GetName() string      { return e.Name }
func (e EndpointsInfo) GetNamespace() string { return e.Namespace }
func (e EndpointsInfo) GetStatus() string    { return e.Status }

// SecretInfo describes a secret mounted by the workload's pods.
type SecretInfo struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"`
	UID       string   `json:"uid,omitempty"`
	Type      string   `json:"type,omitempty"`
	Keys      []string `json:"keys,omitempty"`
	Status    string   `json:"status,omitempty"`
}

func (s SecretInfo) GetUID() string       { return s.UID }
func (s SecretInfo) GetName() string      { return s.Name }
func (s SecretInfo) GetNamespace() string { return s.Namespace }
func (s SecretInfo) GetStatus() string    { return s.Status }

// ConfigMapInfo describes a configmap mounted by the workload's pods.
type ConfigMapInfo struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"`
	UID       string   `json:"uid,omitempty"`
	Keys      []string `json:"keys,omitempty"`
	Status    string   `json:"status,omitempty"`
}

func (c ConfigMapInfo) GetUID() string       { return c.UID }
func (c ConfigMapInfo) GetName() string      { return c.Name }
func (c ConfigMapInfo) GetNamespace() string { return c.Namespace }
func (c ConfigMapInfo) GetStatus() string    { return c.Status }

// ServiceAccountInfo is the pod template's service account.
type ServiceAccountInfo struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	UID       string `json:"uid,omitempty"`
	Status    string `json:"status,omitempty"`
}

func (s ServiceAccountInfo) GetUID() string       { return s.UID }
func (s ServiceAccountInfo) GetName() string      { return s.Name }
func (s ServiceAccountInfo) GetNamespace() string { return s.Namespace }
func (s ServiceAccountInfo) GetStatus() string    { return s.Status }

// RoleInfo describes a Role or ClusterRole (ClusterRoles have no namespace).
type RoleInfo struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
	UID       string `json:"uid,omitempty"`
	RuleCount int    `json:"ruleCount,omitempty"`
	Status    string `json:"status,omitempty"`
}

func (r RoleInfo) GetUID() string       { return r.UID }
func (r RoleInfo) GetName() string      { return r.Name }
func (r RoleInfo) GetNamespace() string { return r.Namespace }
func (r RoleInfo) GetStatus() string    { return r.Status }

// RoleBindingInfo describes a RoleBinding or ClusterRoleBinding.
type RoleBindingInfo struct {
	Name      string    `json:"name"`
	Namespace string    `json:"namespace,omitempty"`
	UID       string    `json:"uid,omitempty"`
	RoleRef   ObjectRef `json:"roleRef"`
	Subjects  []Subject `json:"subjects,omitempty"`
	Status    string    `json:"status,omitempty"`
}

func (r RoleBindingInfo) GetUID() string       { return r.UID }
func (r RoleBindingInfo) GetName() string      { return r.Name }
func (r RoleBindingInfo) GetNamespace() string { return r.Namespace }
func (r RoleBindingInfo) GetStatus() string    { return r.Status }

// DeploymentInfo is the workload info of a Deployment topology.
type DeploymentInfo struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	UID       string            `json:"uid,omitempty"`
	Replicas  int32             `json:"replicas"`
	Ready     int32             `json:"ready"`
	Available int32             `json:"available"`
	Labels    map[string]string `json:"labels,omitempty"`
	Selector  map[string]string `json:"selector,omitempty"`
	Status    string            `json:"status,omitempty"`
}

func (d DeploymentInfo) GetUID() string       { return d.UID }
func (d DeploymentInfo) GetName() string      { return d.Name }
func (d DeploymentInfo) GetNamespace() string { return d.Namespace }
func (d DeploymentInfo) GetStatus() string    { return d.Status }

// ReplicaSetInfo nests the pods it owns; the reconciler routes pod changes
// into the owning ReplicaSet.
type ReplicaSetInfo struct {
	Name      string    `json:"name"`
	Namespace string    `json:"namespace"`
	UID       string    `json:"uid,omitempty"`
	Replicas  int32     `json:"replicas"`
	Ready     int32     `json:"ready"`
	Status    string    `json:"status,omitempty"`
	Pods      []PodInfo `json:"pods,omitempty"`
}

func (r ReplicaSetInfo) GetUID() string       { return r.UID }
func (r ReplicaSetInfo) GetName() string      { return r.Name }
func (r ReplicaSetInfo) GetNamespace() string { return r.Namespace }
func (r ReplicaSetInfo) GetStatus() string    { return r.Status }

// DaemonSetInfo is the workload info of a DaemonSet topology.
type DaemonSetInfo struct {
	Name                   string            `json:"name"`
	Namespace              string            `json:"namespace"`
	UID                    string            `json:"uid,omitempty"`
	DesiredNumberScheduled int32             `json:"desiredNumberScheduled"`
	NumberReady            int32             `json:"numberReady"`
	Labels                 map[string]string `json:"labels,omitempty"`
	Status                 string            `json:"status,omitempty"`
}

func (d DaemonSetInfo) GetUID() string       { return d.UID }
func (d DaemonSetInfo) GetName() string      { return d.Name }
func (d DaemonSetInfo) GetNamespace() string { return d.Namespace }
func (d DaemonSetInfo) GetStatus() string    { return d.Status }

// JobInfo is the workload info of a Job topology.
type JobInfo struct {
	Name        string            `json:"name"`
	Namespace   string            `json:"namespace"`
	UID         string            `json:"uid,omitempty"`
	Active      int32             `json:"active"`
	Succeeded   int32             `json:"succeeded"`
	Failed      int32             `json:"failed"`
	Completions *int32            `json:"completions,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Status      string            `json:"status,omitempty"`
}

func (j JobInfo) GetUID() string       { return j.UID }
func (j JobInfo) GetName() string      { return j.Name }
func (j JobInfo) GetNamespace() string { return j.Namespace }
func (j JobInfo) GetStatus() string    { return j.Status }

// CronJobInfo is the workload info of a CronJob topology. Active lists the
// names of currently running Jobs.
type CronJobInfo struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	UID       string            `json:"uid,omitempty"`
	Schedule  string            `json:"schedule"`
	Suspend   bool              `json:"suspend"`
	Active    []string          `json:"active,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Status    string            `json:"status,omitempty"`
}

func (c CronJobInfo) GetUID() string       { return c.UID }
func (c CronJobInfo) GetName() string      { return c.Name }
func (c CronJobInfo) GetNamespace() string { return c.Namespace }
func (c CronJobInfo) GetStatus() string    { return c.Status }

// TopologyBase holds the auxiliary collections every workload topology shares.
type TopologyBase struct {
	Namespace           string              `json:"namespace"`
	Services            []ServiceInfo       `json:"services,omitempty"`
	Endpoints           []EndpointsInfo     `json:"endpoints,omitempty"`
	Secrets             []SecretInfo        `json:"secrets,omitempty"`
	ConfigMaps          []ConfigMapInfo     `json:"configmaps,omitempty"`
	ServiceAccount      *ServiceAccountInfo `json:"serviceAccount,omitempty"`
	Roles               []RoleInfo          `json:"roles,omitempty"`
	RoleBindings        []RoleBindingInfo   `json:"roleBindings,omitempty"`
	ClusterRoles        []RoleInfo          `json:"clusterRoles,omitempty"`
	ClusterRoleBindings []RoleBindingInfo   `json:"clusterRoleBindings,omitempty"`
}

// Snapshot is the nested description of a workload and its related objects at
// a point in time. Snapshots are caller-owned: builders never mutate them and
// the reconciler returns a new snapshot instead of editing in place.
type Snapshot interface {
	Kind() WorkloadKind
	Workload() string
	SnapshotNamespace() string
}

// DeploymentTopology nests pods inside their owning ReplicaSets.
type DeploymentTopology struct {
	TopologyBase
	Deployment  DeploymentInfo   `json:"deployment"`
	ReplicaSets []ReplicaSetInfo `json:"replicaSets,omitempty"`
}

func (t *DeploymentTopology) Kind() WorkloadKind        { return WorkloadDeployment }
func (t *DeploymentTopology) Workload() string          { return t.Deployment.Name }
func (t *DeploymentTopology) SnapshotNamespace() string { return t.Namespace }

// DaemonSetTopology attaches pods directly to the workload.
type DaemonSetTopology struct {
	TopologyBase
	DaemonSet DaemonSetInfo `json:"daemonSet"`
	Pods      []PodInfo     `json:"pods,omitempty"`
}

func (t *DaemonSetTopology) Kind() WorkloadKind        { return WorkloadDaemonSet }
func (t *DaemonSetTopology) Workload() string          { return t.DaemonSet.Name }
func (t *DaemonSetTopology) SnapshotNamespace() string { return t.Namespace }

// JobTopology attaches pods directly to the workload.
type JobTopology struct {
	TopologyBase
	Job  JobInfo   `json:"job"`
	Pods []PodInfo `json:"pods,omitempty"`
}

func (t *JobTopology) Kind() WorkloadKind        { return WorkloadJob }
func (t *JobTopology) Workload() string          { return t.Job.Name }
func (t *JobTopology) SnapshotNamespace() string { return t.Namespace }

// CronJobTopology attaches pods of active jobs directly to the workload.
type CronJobTopology struct {
	TopologyBase
	CronJob CronJobInfo `json:"cronJob"`
	Pods    []PodInfo   `json:"pods,omitempty"`
}

func (t *CronJobTopology) Kind() WorkloadKind        { return WorkloadCronJob }
func (t *CronJobTopology) Workload() string          { return t.CronJob.Name }
func (t *CronJobTopology) SnapshotNamespace() string { return t.Namespace }
