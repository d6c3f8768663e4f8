package api

import (
	"sync"
	"time"
)

const (
	probeFailureLimit  = 5
	probeFailureWindow = time.Minute
)

// probeBreaker guards the implicit "who am I" probe against retry
// storms from a broken session. Only that endpoint is guarded; it is
// the one call every page load triggers on its own.
type probeBreaker struct {
	mu          sync.Mutex
	now         func() time.Time
	failures    int
	lastFailure time.Time
}

func newProbeBreaker() *probeBreaker {
	return &probeBreaker{now: time.Now}
}

// Allow reports whether a probe may hit the network. Once the failure
// limit is reached, probes stay blocked until the window since the last
// failure elapses.
func (b *probeBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures >= probeFailureLimit {
		if b.now().Sub(b.lastFailure) < probeFailureWindow {
			return false
		}
		// Window of failure silence has passed.
		b.failures = 0
	}
	return true
}

// Failure records one failed probe.
func (b *probeBreaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()
}

// Success resets the failure count.
func (b *probeBreaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}
