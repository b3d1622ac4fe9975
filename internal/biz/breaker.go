package biz

import (
	"sync"
	"time"
)

// CircuitBreaker gates probe attempts for one service. It opens after
// failureThreshold consecutive failures and fully resets once more than
// resetTimeout has elapsed since the last failure: one qualifying elapse
// clears all history, there is no half-open trial state.
//
// State is mutex-guarded because a reset request may arrive while a run
// is recording outcomes (see CheckerUsecase.ResetCircuit).
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	resetTimeout     time.Duration
	failureCount     int
	lastFailureTime  time.Time
	open             bool

	// now is the clock; tests replace it to drive the reset window
	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given policy.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// CanTry reports whether a probe attempt is allowed. An open breaker
// whose reset timeout has elapsed since the last failure fully resets
// and allows the attempt.
func (cb *CircuitBreaker) CanTry() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return true
	}
	if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
		cb.resetLocked()
		return true
	}
	return false
}

// RecordSuccess closes the breaker and clears accumulated failures.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.resetLocked()
}

// RecordFailure counts one failed probe sequence; reaching the threshold
// opens the breaker.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()
	if cb.failureCount >= cb.failureThreshold {
		cb.open = true
	}
}

// Reset closes the breaker on demand. It backs the alert's reset
// affordance and the reset API endpoint.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.resetLocked()
}

// Open reports whether the breaker currently blocks attempts.
func (cb *CircuitBreaker) Open() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open
}

// FailureCount returns the current consecutive failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// resetLocked clears all breaker state; callers must hold mu.
func (cb *CircuitBreaker) resetLocked() {
	cb.failureCount = 0
	cb.lastFailureTime = time.Time{}
	cb.open = false
}
