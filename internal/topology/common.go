package topology

import (
	"fmt"
	"strconv"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// builder carries shared state while a workload graph is assembled. The
// constructors here are shared by all four workload builders.
type builder struct {
	g       *Graph
	f       models.TopologyFilters
	cluster string
	ns      string

	rootID string

	// name -> node id lookups for edge construction
	podIDs        map[string]string
	serviceIDs    map[string]string
	secretIDs     map[string]string
	configMapIDs  map[string]string
	endpointIDs   map[string]string
	roleIDs       map[string]string
	clusterRoles  map[string]string
	bindingIDs    []string
	saID          string

	// pods emitted so far, for volume and endpoint edge scans
	pods []models.PodInfo
}

func newBuilder(f models.TopologyFilters, cluster, namespace string) *builder {
	return &builder{
		g:            NewGraph(),
		f:            f,
		cluster:      cluster,
		ns:           namespace,
		podIDs:       make(map[string]string),
		serviceIDs:   make(map[string]string),
		secretIDs:    make(map[string]string),
		configMapIDs: make(map[string]string),
		endpointIDs:  make(map[string]string),
		roleIDs:      make(map[string]string),
		clusterRoles: make(map[string]string),
	}
}

func nodeID(kind models.NodeKind, name string) string {
	return fmt.Sprintf("%s-%s", kind, name)
}

func indexedID(kind models.NodeKind, index int, name string) string {
	return fmt.Sprintf("%s-%d-%s", kind, index, name)
}

func edgeID(source, target string) string {
	return fmt.Sprintf("edge-%s-%s", source, target)
}

func orUnknown(status string) string {
	if status == "" {
		return models.StatusUnknown
	}
	return status
}

func (b *builder) addNode(id string, kind models.NodeKind, label, status string, details *models.NodeDetails) {
	b.g.AddNode(models.TopologyNode{
		ID:   id,
		Type: kind,
		Data: models.NodeData{
			Label:     label,
			Status:    orUnknown(status),
			Namespace: b.ns,
			Context:   b.cluster,
			Resource:  resourceName(kind),
			Details:   details,
		},
	})
}

func (b *builder) addEdge(source, target, relationship string) {
	b.g.AddEdge(models.TopologyEdge{
		ID:        edgeID(source, target),
		Source:    source,
		Target:    target,
		Type:      "default",
		Data:      &models.EdgeData{Relationship: relationship},
		MarkerEnd: "arrowclosed",
	})
}

// resourceName maps a node kind to the Kubernetes resource kind shown in the
// node payload.
func resourceName(kind models.NodeKind) string {
	switch kind {
	case models.KindDeployment:
		return "Deployment"
	case models.KindDaemonSet:
		return "DaemonSet"
	case models.KindJob:
		return "Job"
	case models.KindCronJob:
		return "CronJob"
	case models.KindReplicaSet:
		return "ReplicaSet"
	case models.KindPod:
		return "Pod"
	case models.KindContainer:
		return "Container"
	case models.KindService:
		return "Service"
	case models.KindEndpoints:
		return "Endpoints"
	case models.KindSecret:
		return "Secret"
	case models.KindConfigMap:
		return "ConfigMap"
	case models.KindServiceAccount:
		return "ServiceAccount"
	case models.KindRole:
		return "Role"
	case models.KindClusterRole:
		return "ClusterRole"
	case models.KindRoleBinding:
		return "RoleBinding"
	case models.KindClusterRoleBinding:
		return "ClusterRoleBinding"
	case models.KindGroup:
		return "Group"
	}
	return string(kind)
}

func (b *builder) addWorkloadRoot(kind models.NodeKind, name, status string, info map[string]string) {
	b.rootID = nodeID(kind, name)
	b.addNode(b.rootID, kind, name, status, &models.NodeDetails{Info: info})
}

// addServices emits service nodes in snapshot order.
func (b *builder) addServices(services []models.ServiceInfo) {
	if !b.f.ShowServices {
		return
	}
	for i, svc := range services {
		id := indexedID(models.KindService, i, svc.Name)
		b.serviceIDs[svc.Name] = id
		info := map[string]string{}
		if svc.Type != "" {
			info["type"] = svc.Type
		}
		if svc.ClusterIP != "" {
			info["clusterIP"] = svc.ClusterIP
		}
		b.addNode(id, models.KindService, svc.Name, svc.Status, &models.NodeDetails{Info: info})
	}
}

// addEndpoints emits endpoints nodes in snapshot order.
func (b *builder) addEndpoints(endpoints []models.EndpointsInfo) {
	if !b.f.ShowEndpoints {
		return
	}
	for i, ep := range endpoints {
		id := indexedID(models.KindEndpoints, i, ep.Name)
		b.endpointIDs[ep.Name] = id
		b.addNode(id, models.KindEndpoints, ep.Name, ep.Status, &models.NodeDetails{
			Info: map[string]string{"addresses": strconv.Itoa(len(ep.Addresses))},
		})
	}
}

func (b *builder) addSecrets(secrets []models.SecretInfo) {
	if !b.f.ShowSecrets {
		return
	}
	for i, sec := range secrets {
		id := indexedID(models.KindSecret, i, sec.Name)
		b.secretIDs[sec.Name] = id
		info := map[string]string{"keys": strconv.Itoa(len(sec.Keys))}
		if sec.Type != "" {
			info["type"] = sec.Type
		}
		b.addNode(id, models.KindSecret, sec.Name, sec.Status, &models.NodeDetails{Info: info})
	}
}

func (b *builder) addConfigMaps(configMaps []models.ConfigMapInfo) {
	if !b.f.ShowConfigMaps {
		return
	}
	for i, cm := range configMaps {
		id := indexedID(models.KindConfigMap, i, cm.Name)
		b.configMapIDs[cm.Name] = id
		b.addNode(id, models.KindConfigMap, cm.Name, cm.Status, &models.NodeDetails{
			Info: map[string]string{"keys": strconv.Itoa(len(cm.Keys))},
		})
	}
}

func (b *builder) addServiceAccount(sa *models.ServiceAccountInfo) {
	if !b.f.ShowServiceAccount || sa == nil {
		return
	}
	b.saID = nodeID(models.KindServiceAccount, sa.Name)
	b.addNode(b.saID, models.KindServiceAccount, sa.Name, sa.Status, nil)
}

// addRBACNodes emits role and binding nodes. Role name lookups are kept
// separate per kind so roleRef matching can honor roleRef.kind.
func (b *builder) addRBACNodes(base models.TopologyBase) {
	if !b.f.ShowRBAC {
		return
	}
	for i, role := range base.Roles {
		id := indexedID(models.KindRole, i, role.Name)
		b.roleIDs[role.Name] = id
		b.addNode(id, models.KindRole, role.Name, role.Status, &models.NodeDetails{
			Info: map[string]string{"rules": strconv.Itoa(role.RuleCount)},
		})
	}
	for i, role := range base.ClusterRoles {
		id := indexedID(models.KindClusterRole, i, role.Name)
		b.clusterRoles[role.Name] = id
		b.addNode(id, models.KindClusterRole, role.Name, role.Status, &models.NodeDetails{
			Info: map[string]string{"rules": strconv.Itoa(role.RuleCount)},
		})
	}
	for i, rb := range base.RoleBindings {
		id := indexedID(models.KindRoleBinding, i, rb.Name)
		b.bindingIDs = append(b.bindingIDs, id)
		b.addNode(id, models.KindRoleBinding, rb.Name, rb.Status, nil)
		b.connectRoleRef(id, rb.RoleRef)
	}
	for i, rb := range base.ClusterRoleBindings {
		id := indexedID(models.KindClusterRoleBinding, i, rb.Name)
		b.bindingIDs = append(b.bindingIDs, id)
		b.addNode(id, models.KindClusterRoleBinding, rb.Name, rb.Status, nil)
		b.connectRoleRef(id, rb.RoleRef)
	}
}

// connectRoleRef links a binding to the role it references, matched by
// roleRef.name and roleRef.kind. A missing role simply omits the edge.
func (b *builder) connectRoleRef(bindingID string, ref models.ObjectRef) {
	var roleID string
	switch ref.Kind {
	case "Role":
		roleID = b.roleIDs[ref.Name]
	case "ClusterRole":
		roleID = b.clusterRoles[ref.Name]
	}
	if roleID == "" {
		return
	}
	b.addEdge(bindingID, roleID, models.RelationReferences)
}

// connectServiceAccount links the service account to every binding.
func (b *builder) connectServiceAccount() {
	if b.saID == "" {
		return
	}
	for _, bindingID := range b.bindingIDs {
		b.addEdge(b.saID, bindingID, models.RelationBinds)
	}
}

// addPods attaches pods (and their containers) under the given parent.
func (b *builder) addPods(parentID string, pods []models.PodInfo) {
	if !b.f.ShowPods {
		return
	}
	for _, pod := range pods {
		id := nodeID(models.KindPod, pod.Name)
		b.podIDs[pod.Name] = id
		b.pods = append(b.pods, pod)
		info := map[string]string{"containers": strconv.Itoa(len(pod.Containers))}
		if pod.NodeName != "" {
			info["node"] = pod.NodeName
		}
		b.addNode(id, models.KindPod, pod.Name, pod.Status, &models.NodeDetails{Info: info})
		b.addEdge(parentID, id, models.RelationManages)
		b.addContainers(pod)
	}
}

// addContainers emits container children in the pod's container array order.
func (b *builder) addContainers(pod models.PodInfo) {
	if !b.f.ShowContainers {
		return
	}
	podID := b.podIDs[pod.Name]
	for i, c := range pod.Containers {
		id := fmt.Sprintf("%s-%s-%d-%s", models.KindContainer, pod.Name, i, c.Name)
		status := models.StatusWarning
		if c.Ready {
			status = models.StatusHealthy
		}
		info := map[string]string{"image": c.Image}
		if c.State != "" {
			info["state"] = c.State
		}
		if c.RestartCount > 0 {
			info["restarts"] = strconv.Itoa(int(c.RestartCount))
		}
		b.addNode(id, models.KindContainer, c.Name, status, &models.NodeDetails{Info: info})
		b.addEdge(podID, id, models.RelationRuns)
	}
}

// connectServiceEndpoints links each service to the endpoints object sharing
// its name, and endpoints to the emitted pods their addresses target.
func (b *builder) connectServiceEndpoints(endpoints []models.EndpointsInfo) {
	for _, ep := range endpoints {
		epID, ok := b.endpointIDs[ep.Name]
		if !ok {
			continue
		}
		if svcID, ok := b.serviceIDs[ep.Name]; ok {
			b.addEdge(svcID, epID, models.RelationExposes)
		}
		for _, addr := range ep.Addresses {
			if addr.TargetRef == nil || addr.TargetRef.Kind != "Pod" {
				continue
			}
			if podID, ok := b.podIDs[addr.TargetRef.Name]; ok {
				b.addEdge(epID, podID, models.RelationServes)
			}
		}
	}
}

// connectVolumes derives Secret/ConfigMap -> Pod mount edges by scanning each
// emitted pod's declared volumes against the visible secret/configmap set.
func (b *builder) connectVolumes() {
	for _, pod := range b.pods {
		podID := b.podIDs[pod.Name]
		for _, vol := range pod.Volumes {
			if vol.Secret != "" {
				if id, ok := b.secretIDs[vol.Secret]; ok {
					b.addEdge(id, podID, models.RelationMounts)
				}
			}
			if vol.ConfigMap != "" {
				if id, ok := b.configMapIDs[vol.ConfigMap]; ok {
					b.addEdge(id, podID, models.RelationMounts)
				}
			}
		}
	}
}

// addAuxiliary emits every auxiliary kind of the shared base in snapshot order.
func (b *builder) addAuxiliary(base models.TopologyBase) {
	b.addServices(base.Services)
	b.addEndpoints(base.Endpoints)
	b.addSecrets(base.Secrets)
	b.addConfigMaps(base.ConfigMaps)
	b.addServiceAccount(base.ServiceAccount)
	b.addRBACNodes(base)
}

// finish applies the defensive edge prune and the search/status filter, then
// returns the assembled graph.
func (b *builder) finish(base models.TopologyBase) *Graph {
	b.connectServiceEndpoints(base.Endpoints)
	b.connectVolumes()
	b.connectServiceAccount()
	b.g.PruneDanglingEdges()

	nodes, edges := ApplyFilters(b.g.Nodes, b.g.Edges, b.f)
	if len(nodes) != len(b.g.Nodes) {
		filtered := NewGraph()
		for _, n := range nodes {
			filtered.AddNode(n)
		}
		for _, e := range edges {
			filtered.AddEdge(e)
		}
		return filtered
	}
	return b.g
}
