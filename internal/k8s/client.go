// Package k8s wraps client-go for the topology backend: connection setup,
// informers for the watched resource kinds, and snapshot collection.
package k8s

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps a Kubernetes clientset with per-cluster guard rails: call
// timeout, an optional token-bucket rate limiter, and a circuit breaker so a
// dead API server fails fast instead of piling up goroutines.
type Client struct {
	Clientset kubernetes.Interface
	Config    *rest.Config
	Context   string

	// Timeout for outbound API calls; 0 means request context only.
	Timeout time.Duration

	limiter *rate.Limiter
	breaker *CircuitBreaker

	healthMu        sync.RWMutex
	lastSuccessTime time.Time
	lastError       error
}

// NewClient connects using in-cluster config when available, falling back to
// the kubeconfig at the given path (or ~/.kube/config).
func NewClient(kubeconfigPath, kubeContext string) (*Client, error) {
	var config *rest.Config
	var err error

	if kubeconfigPath == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			homeDir, _ := os.UserHomeDir()
			if homeDir != "" {
				kubeconfigPath = filepath.Join(homeDir, ".kube", "config")
			}
		}
	}
	if config == nil {
		config, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath},
			&clientcmd.ConfigOverrides{CurrentContext: kubeContext},
		).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to build config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return &Client{
		Clientset:       clientset,
		Config:          config,
		Context:         kubeContext,
		breaker:         NewCircuitBreaker(kubeContext),
		lastSuccessTime: time.Now(),
	}, nil
}

// SetTimeout sets the timeout for outbound API calls.
func (c *Client) SetTimeout(d time.Duration) {
	c.Timeout = d
}

// SetLimiter installs a token-bucket rate limiter for outbound API calls.
func (c *Client) SetLimiter(l *rate.Limiter) {
	c.limiter = l
}

func (c *Client) waitRateLimit(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return ctx, func() {}
}

// call runs fn behind the rate limiter, circuit breaker, timeout, and retry
// policy, and records the result for health reporting.
func (c *Client) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.waitRateLimit(ctx); err != nil {
		return err
	}
	err := c.breaker.Execute(ctx, func() error {
		ctx, cancel := c.withTimeout(ctx)
		defer cancel()
		return doWithRetry(ctx, defaultRetryAttempts, func() error {
			return fn(ctx)
		})
	})
	c.updateHealth(err)
	return err
}

// TestConnection verifies connectivity to the cluster.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.call(ctx, func(ctx context.Context) error {
		_, err := c.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
		return err
	})
}

// ServerVersion returns the Kubernetes server version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var version string
	err := c.call(ctx, func(context.Context) error {
		v, err := c.Clientset.Discovery().ServerVersion()
		if err != nil {
			return err
		}
		version = v.GitVersion
		return nil
	})
	return version, err
}

// Namespaces lists all namespace names.
func (c *Client) Namespaces(ctx context.Context) ([]string, error) {
	var names []string
	err := c.call(ctx, func(ctx context.Context) error {
		list, err := c.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		names = names[:0]
		for _, ns := range list.Items {
			names = append(names, ns.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Client) updateHealth(err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	if err == nil {
		c.lastSuccessTime = time.Now()
		c.lastError = nil
	} else {
		c.lastError = err
	}
}

// HealthStatus reports the connection health and breaker state.
func (c *Client) HealthStatus() (healthy bool, lastSuccess time.Time, lastErr error, state CircuitBreakerState) {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	state = c.breaker.State()
	healthy = state == StateClosed && c.lastError == nil
	return healthy, c.lastSuccessTime, c.lastError, state
}

// NewClientForTest creates a Client around a fake clientset. Config is nil;
// only Clientset-backed methods may be used.
func NewClientForTest(clientset kubernetes.Interface) *Client {
	return &Client{
		Clientset:       clientset,
		breaker:         NewCircuitBreaker("test"),
		lastSuccessTime: time.Now(),
	}
}
