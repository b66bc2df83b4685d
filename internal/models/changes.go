package models

import (
	"encoding/json"
	"time"
)

// ChangeType is the mutation kind of a streamed resource change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// Resource type tags carried on the wire by ResourceChange.
const (
	ResourcePod                = "pod"
	ResourceReplicaSet         = "replicaset"
	ResourceDeployment         = "deployment"
	ResourceDaemonSet          = "daemonset"
	ResourceJob                = "job"
	ResourceCronJob            = "cronjob"
	ResourceService            = "service"
	ResourceEndpoints          = "endpoints"
	ResourceSecret             = "secret"
	ResourceConfigMap          = "configmap"
	ResourceServiceAccount     = "serviceaccount"
	ResourceRole               = "role"
	ResourceRoleBinding        = "rolebinding"
	ResourceClusterRole        = "clusterrole"
	ResourceClusterRoleBinding = "clusterrolebinding"
)

// ResourceChange is the wire schema for a single resource mutation. Namespace
// may legitimately be empty on delete events; such deletes match by name only.
type ResourceChange struct {
	Type         ChangeType      `json:"type"`
	ResourceType string          `json:"resourceType"`
	ResourceID   string          `json:"resourceId"`
	Namespace    string          `json:"namespace,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// TopologyUpdate is the batch envelope pushed over the stream.
type TopologyUpdate struct {
	Changes   []ResourceChange `json:"changes"`
	Timestamp time.Time        `json:"timestamp"`
}

// Stream control message types (client to server).
const (
	StreamSubscribe = "subscribe"
	StreamRefresh   = "refresh"
)

// StreamRequest is the subscribe/refresh frame a stream consumer sends. The
// workload name travels under a key named after its kind, matching the browser
// client's wire format.
type StreamRequest struct {
	Type      string       `json:"type"`
	Namespace string       `json:"namespace"`
	Kind      WorkloadKind `json:"-"`
	Name      string       `json:"-"`
}

// MarshalJSON writes the workload name under its kind key, for example
// {"type":"subscribe","namespace":"default","deployment":"nginx"}.
func (r StreamRequest) MarshalJSON() ([]byte, error) {
	m := map[string]string{
		"type":      r.Type,
		"namespace": r.Namespace,
	}
	if r.Name != "" {
		m[string(r.Kind)] = r.Name
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts any known workload kind key as the name field.
func (r *StreamRequest) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.Type = m["type"]
	r.Namespace = m["namespace"]
	for _, k := range []WorkloadKind{WorkloadDeployment, WorkloadDaemonSet, WorkloadJob, WorkloadCronJob} {
		if name, ok := m[string(k)]; ok {
			r.Kind = k
			r.Name = name
			break
		}
	}
	return nil
}
