package queue

import (
	"math/rand"
	"time"
)

// Backoff computes retry delays: exponential doubling from Base with
// ±10% jitter, capped at Max. Attempt counts from 1.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{
		Base: 30 * time.Second,
		Max:  15 * time.Minute,
	}
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := b.Base << uint(attempt-1)
	if delay > b.Max || delay < 0 {
		delay = b.Max
	}
	// Jitter keeps retries from the same burst from landing together.
	jitter := time.Duration(rand.Int63n(int64(delay)/5+1)) - delay/10
	return delay + jitter
}

// NextAttemptAt returns the absolute time the next attempt becomes due.
func (b Backoff) NextAttemptAt(now time.Time, attempt int) time.Time {
	return now.Add(b.Delay(attempt))
}
