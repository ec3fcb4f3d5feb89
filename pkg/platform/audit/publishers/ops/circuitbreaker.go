package ops

import (
	"sync"
	"time"
)

// CircuitBreaker sheds ops events while the audit store is down instead of
// hammering it with writes that will fail anyway. After enough consecutive
// failures the breaker opens; once the cooldown passes, the next Allow lets a
// probe write through and a success closes it again.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration

	consecutive int
	open        bool
	reopenAt    time.Time
}

// NewCircuitBreaker builds a breaker that opens after threshold consecutive
// failures and stays open for the cooldown. Non-positive arguments fall back
// to 5 failures and one minute.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a write may proceed. An open breaker whose cooldown
// has elapsed closes here, so the caller's write doubles as the probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return true
	}
	if time.Now().After(cb.reopenAt) {
		cb.open = false
		cb.consecutive = 0
		return true
	}
	return false
}

// RecordSuccess closes the breaker and clears the failure run.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	cb.consecutive = 0
	cb.open = false
	cb.mu.Unlock()
}

// RecordFailure extends the failure run and opens the breaker once it
// reaches the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.consecutive++
	if cb.consecutive >= cb.threshold {
		cb.open = true
		cb.reopenAt = time.Now().Add(cb.cooldown)
	}
	cb.mu.Unlock()
}

// IsOpen reports whether the breaker is currently shedding writes.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open
}
