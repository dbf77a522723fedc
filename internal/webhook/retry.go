package webhook

import (
	"math/rand"
	"sync"
	"time"
)

// Default retry bounds. The 1s base with a 60s ceiling keeps retry bursts
// away from struggling merchant endpoints; both are configurable.
const (
	DefaultBaseDelay  = 1000 * time.Millisecond
	DefaultMaxDelay   = 60000 * time.Millisecond
	DefaultMaxRetries = 5
)

// RetryScheduler computes exponential-backoff delays with jitter and owns
// the maximum attempt count. Safe for concurrent use by delivery workers.
type RetryScheduler struct {
	base       time.Duration
	max        time.Duration
	maxRetries int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRetryScheduler builds a scheduler. Non-positive arguments fall back to
// the defaults.
func NewRetryScheduler(base, max time.Duration, maxRetries int) *RetryScheduler {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryScheduler{
		base:       base,
		max:        max,
		maxRetries: maxRetries,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// MaxRetries is the total number of delivery attempts allowed per event.
func (s *RetryScheduler) MaxRetries() int { return s.maxRetries }

// ShouldRetry reports whether another attempt is allowed after the given
// number of completed attempts.
func (s *RetryScheduler) ShouldRetry(attempts int) bool {
	return attempts < s.maxRetries
}

// NextDelay returns the backoff before the attempt following the given
// completed attempt count: min(base * 2^(attempts-1), max) with a ±10%
// jitter, never exceeding the configured maximum.
func (s *RetryScheduler) NextDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	d := s.base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= s.max {
			d = s.max
			break
		}
	}

	s.mu.Lock()
	// jitter factor in [0.9, 1.1)
	factor := 0.9 + s.rng.Float64()*0.2
	s.mu.Unlock()

	jittered := time.Duration(float64(d) * factor)
	if jittered > s.max {
		jittered = s.max
	}
	return jittered
}
