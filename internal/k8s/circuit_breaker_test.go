package k8s

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var errConnRefused = errors.New("dial tcp 10.0.0.1:6443: connection refused")

func failN(cb *CircuitBreaker, n int) error {
	var err error
	for i := 0; i < n; i++ {
		err = cb.Execute(context.Background(), func() error { return errConnRefused })
	}
	return err
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test")
	require.Equal(t, StateClosed, cb.State())

	failN(cb, 4)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 4, cb.FailureCount())

	failN(cb, 1)
	assert.Equal(t, StateOpen, cb.State())

	// open circuit fails fast without calling fn
	called := false
	err := cb.Execute(context.Background(), func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.openDuration = 10 * time.Millisecond
	failN(cb, 5)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// first call after the open window is the probe; success closes
	err := cb.Execute(context.Background(), func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.openDuration = 10 * time.Millisecond
	failN(cb, 5)
	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return errConnRefused })
	assert.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerIgnoresNonRetryableErrors(t *testing.T) {
	cb := NewCircuitBreaker("test")
	gr := schema.GroupResource{Group: "apps", Resource: "deployments"}
	for i := 0; i < 10; i++ {
		cb.Execute(context.Background(), func() error {
			return apierrors.NewNotFound(gr, "web")
		})
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker("test")
	failN(cb, 3)
	require.Equal(t, 3, cb.FailureCount())

	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	assert.Equal(t, 0, cb.FailureCount())
	assert.Equal(t, StateClosed, cb.State())
}
