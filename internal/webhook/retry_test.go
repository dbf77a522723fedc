package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrySchedulerDefaults(t *testing.T) {
	s := NewRetryScheduler(0, 0, 0)

	assert.Equal(t, DefaultMaxRetries, s.MaxRetries())
	d := s.NextDelay(1)
	assert.GreaterOrEqual(t, d, 900*time.Millisecond)
	assert.LessOrEqual(t, d, 1100*time.Millisecond)
}

func TestRetrySchedulerShouldRetry(t *testing.T) {
	s := NewRetryScheduler(time.Second, time.Minute, 5)

	assert.True(t, s.ShouldRetry(1))
	assert.True(t, s.ShouldRetry(4))
	assert.False(t, s.ShouldRetry(5))
	assert.False(t, s.ShouldRetry(6))
}

func TestRetrySchedulerDelayDoubles(t *testing.T) {
	s := NewRetryScheduler(time.Second, time.Minute, 5)

	cases := []struct {
		attempts int
		lo, hi   time.Duration
	}{
		{1, 900 * time.Millisecond, 1100 * time.Millisecond},
		{2, 1800 * time.Millisecond, 2200 * time.Millisecond},
		{3, 3600 * time.Millisecond, 4400 * time.Millisecond},
		{4, 7200 * time.Millisecond, 8800 * time.Millisecond},
	}
	for _, c := range cases {
		for i := 0; i < 50; i++ {
			d := s.NextDelay(c.attempts)
			assert.GreaterOrEqual(t, d, c.lo, "attempts=%d", c.attempts)
			assert.LessOrEqual(t, d, c.hi, "attempts=%d", c.attempts)
		}
	}
}

func TestRetrySchedulerDelayCappedAtMax(t *testing.T) {
	s := NewRetryScheduler(time.Second, 5*time.Second, 10)

	for attempts := 3; attempts <= 10; attempts++ {
		for i := 0; i < 50; i++ {
			assert.LessOrEqual(t, s.NextDelay(attempts), 5*time.Second,
				"jitter must never push the delay past the maximum")
		}
	}
}

func TestRetrySchedulerJitterSpread(t *testing.T) {
	s := NewRetryScheduler(time.Second, time.Minute, 5)

	seen := make(map[time.Duration]struct{})
	for i := 0; i < 20; i++ {
		seen[s.NextDelay(1)] = struct{}{}
	}
	assert.Greater(t, len(seen), 1, "jitter should produce varying delays")
}
