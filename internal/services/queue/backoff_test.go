package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Base: 30 * time.Second, Max: 15 * time.Minute}

	// Jitter is bounded by ±20%, so check the envelope per attempt.
	for attempt := 1; attempt <= 10; attempt++ {
		nominal := b.Base << uint(attempt-1)
		if nominal > b.Max || nominal < 0 {
			nominal = b.Max
		}
		for i := 0; i < 20; i++ {
			delay := b.Delay(attempt)
			assert.GreaterOrEqual(t, delay, nominal-nominal/5, "attempt %d", attempt)
			assert.LessOrEqual(t, delay, nominal+nominal/5, "attempt %d", attempt)
		}
	}
}

func TestBackoff_DelayGrows(t *testing.T) {
	b := Backoff{Base: time.Minute, Max: time.Hour}

	// With jitter bounded at 20%, doubling guarantees strict growth between
	// consecutive attempts below the cap.
	assert.Greater(t, b.Delay(3), b.Delay(1))
	assert.Greater(t, b.Delay(5), b.Delay(3))
}

func TestBackoff_CapsAtMax(t *testing.T) {
	b := Backoff{Base: time.Minute, Max: 10 * time.Minute}
	for i := 0; i < 50; i++ {
		assert.LessOrEqual(t, b.Delay(30), b.Max+b.Max/5)
	}
}

func TestBackoff_ClampsAttempt(t *testing.T) {
	b := DefaultBackoff()
	assert.NotPanics(t, func() { b.Delay(0) })
	assert.NotPanics(t, func() { b.Delay(-4) })
}

func TestBackoff_NextAttemptAt(t *testing.T) {
	b := Backoff{Base: time.Minute, Max: time.Hour}
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	next := b.NextAttemptAt(now, 1)
	assert.True(t, next.After(now))
}
