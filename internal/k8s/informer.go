package k8s

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/client-go/informers"
	"k8s.io/client-go/tools/cache"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// Informer event types, matching the watch verbs.
const (
	EventAdded    = "ADDED"
	EventModified = "MODIFIED"
	EventDeleted  = "DELETED"
)

// ResourceEventHandler receives informer events for one resource type.
type ResourceEventHandler func(eventType string, obj interface{})

// InformerManager runs shared informers for every resource kind the topology
// tracks. Informers get real-time watch events; the resync is a safety net
// for missed events, not a data source.
type InformerManager struct {
	client  *Client
	factory informers.SharedInformerFactory
	stopCh  chan struct{}

	mu       sync.RWMutex
	handlers map[string]ResourceEventHandler
}

// NewInformerManager creates a manager with a 5 minute resync period.
func NewInformerManager(client *Client) *InformerManager {
	return &InformerManager{
		client:   client,
		factory:  informers.NewSharedInformerFactory(client.Clientset, 5*time.Minute),
		stopCh:   make(chan struct{}),
		handlers: make(map[string]ResourceEventHandler),
	}
}

// RegisterHandler registers the event handler for a resource type tag (the
// models.Resource* constants).
func (im *InformerManager) RegisterHandler(resourceType string, handler ResourceEventHandler) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.handlers[resourceType] = handler
}

func (im *InformerManager) dispatch(resourceType, eventType string, obj interface{}) {
	im.mu.RLock()
	handler := im.handlers[resourceType]
	im.mu.RUnlock()
	if handler != nil {
		handler(eventType, obj)
	}
}

func (im *InformerManager) watch(resourceType string, informer cache.SharedIndexInformer) {
	informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			im.dispatch(resourceType, EventAdded, obj)
		},
		UpdateFunc: func(_, newObj interface{}) {
			im.dispatch(resourceType, EventModified, newObj)
		},
		DeleteFunc: func(obj interface{}) {
			if tomb, ok := obj.(cache.DeletedFinalStateUnknown); ok {
				obj = tomb.Obj
			}
			im.dispatch(resourceType, EventDeleted, obj)
		},
	})
}

// Start wires the informers for the tracked kinds and blocks until their
// caches sync.
func (im *InformerManager) Start() error {
	im.watch(models.ResourcePod, im.factory.Core().V1().Pods().Informer())
	im.watch(models.ResourceService, im.factory.Core().V1().Services().Informer())
	im.watch(models.ResourceEndpoints, im.factory.Core().V1().Endpoints().Informer())
	im.watch(models.ResourceSecret, im.factory.Core().V1().Secrets().Informer())
	im.watch(models.ResourceConfigMap, im.factory.Core().V1().ConfigMaps().Informer())
	im.watch(models.ResourceServiceAccount, im.factory.Core().V1().ServiceAccounts().Informer())

	im.watch(models.ResourceDeployment, im.factory.Apps().V1().Deployments().Informer())
	im.watch(models.ResourceReplicaSet, im.factory.Apps().V1().ReplicaSets().Informer())
	im.watch(models.ResourceDaemonSet, im.factory.Apps().V1().DaemonSets().Informer())

	im.watch(models.ResourceJob, im.factory.Batch().V1().Jobs().Informer())
	im.watch(models.ResourceCronJob, im.factory.Batch().V1().CronJobs().Informer())

	im.watch(models.ResourceRole, im.factory.Rbac().V1().Roles().Informer())
	im.watch(models.ResourceRoleBinding, im.factory.Rbac().V1().RoleBindings().Informer())
	im.watch(models.ResourceClusterRole, im.factory.Rbac().V1().ClusterRoles().Informer())
	im.watch(models.ResourceClusterRoleBinding, im.factory.Rbac().V1().ClusterRoleBindings().Informer())

	im.factory.Start(im.stopCh)
	for resource, ok := range im.factory.WaitForCacheSync(im.stopCh) {
		if !ok {
			return fmt.Errorf("failed to sync cache for resource: %v", resource)
		}
	}
	return nil
}

// Stop stops all informers.
func (im *InformerManager) Stop() {
	close(im.stopCh)
}
