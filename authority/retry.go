package authority

import (
	randv2 "math/rand"
	"sync/atomic"
	"time"
)

type fixedBackoff time.Duration

func (backoff fixedBackoff) Next() time.Duration {
	return time.Duration(backoff)
}

// EndlessRetry retries forever with a constant backoff.
func EndlessRetry(backoff time.Duration) RetryStrategy {
	return fixedBackoff(backoff)
}

// NoRetry gives up after the first attempt.
func NoRetry() RetryStrategy {
	return fixedBackoff(0)
}

type exponentialBackoff struct {
	duration time.Duration
	cap      time.Duration
	factor   float64
	jitter   float64
	steps    int64
}

func (backoff *exponentialBackoff) Next() time.Duration {
	if atomic.AddInt64(&backoff.steps, -1) < 0 {
		return 0
	}
	duration := backoff.duration
	if backoff.factor > 0 {
		backoff.duration = time.Duration(float64(backoff.duration) * backoff.factor)
		if backoff.cap > 0 && backoff.duration > backoff.cap {
			backoff.duration = backoff.cap
		}
	}
	if backoff.jitter > 0 {
		duration = duration + time.Duration(randv2.Float64()*backoff.jitter*float64(duration))
	}
	return duration
}

func ExponentialBackoffRetry(maxSteps int64, initBackoff, maxBackoff time.Duration, backoffFactor, jitter float64) RetryStrategy {
	return &exponentialBackoff{
		duration: initBackoff,
		cap:      maxBackoff,
		factor:   backoffFactor,
		jitter:   jitter,
		steps:    maxSteps,
	}
}

// LimitedRetry retries up to maxCount times with a constant backoff.
func LimitedRetry(backoff time.Duration, maxCount int64) RetryStrategy {
	if backoff.Milliseconds() <= 0 {
		return NoRetry()
	}
	return ExponentialBackoffRetry(maxCount, backoff, 0, 1.0, 0.1)
}

func DefaultExponentialBackoffRetry() RetryStrategy {
	return ExponentialBackoffRetry(5, 10*time.Millisecond, 0, 1.0, 0.1)
}
