package k8s

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/metrics"
)

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open: cluster API unavailable")

// CircuitBreakerState is the breaker state.
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreaker fails fast once the cluster API keeps erroring: after the
// failure threshold the circuit opens for the open duration, then a single
// probe call decides between closing again and reopening.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	openDuration     time.Duration
	halfOpenMaxCalls int
	cluster          string

	state             CircuitBreakerState
	failureCount      int
	lastFailureTime   time.Time
	halfOpenCallCount int
}

// NewCircuitBreaker creates a breaker with default settings: 5 consecutive
// failures open the circuit for 30 seconds.
func NewCircuitBreaker(cluster string) *CircuitBreaker {
	cb := &CircuitBreaker{
		failureThreshold: 5,
		openDuration:     30 * time.Second,
		halfOpenMaxCalls: 1,
		cluster:          cluster,
		state:            StateClosed,
	}
	metrics.CircuitBreakerState.WithLabelValues(cluster).Set(float64(StateClosed))
	return cb
}

func (cb *CircuitBreaker) setState(state CircuitBreakerState) {
	if cb.state == state {
		return
	}
	cb.state = state
	metrics.CircuitBreakerState.WithLabelValues(cb.cluster).Set(float64(state))
}

// Execute runs fn behind the breaker. Non-retryable errors (404, 403) do not
// count toward opening the circuit.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailureTime) < cb.openDuration {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.halfOpenCallCount = 1
	case StateHalfOpen:
		if cb.halfOpenCallCount >= cb.halfOpenMaxCalls {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.halfOpenCallCount++
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		if isBreakerError(err) {
			cb.failureCount++
			cb.lastFailureTime = time.Now()
			if cb.state == StateHalfOpen || cb.failureCount >= cb.failureThreshold {
				cb.setState(StateOpen)
				cb.halfOpenCallCount = 0
			}
		} else {
			cb.failureCount = 0
		}
		return err
	}

	cb.failureCount = 0
	if cb.state != StateClosed {
		cb.setState(StateClosed)
		cb.halfOpenCallCount = 0
	}
	return nil
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the consecutive failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// isBreakerError reports whether the error should count toward opening the
// circuit: timeouts, 5xx/429, and network-level failures.
func isBreakerError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if isRetryable(err) {
		return true
	}
	msg := err.Error()
	for _, sub := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"unreachable",
		"no such host",
		"dial tcp",
	} {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
