package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestSetClock(t *testing.T) {
	t.Run("set custom clock", func(t *testing.T) {
		fixedTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mockClock := clockwork.NewFakeClockAt(fixedTime)

		SetClock(mockClock)
		assert.Equal(t, fixedTime, clock.Now())

		SetClock(nil) // reset
	})

	t.Run("reset to real clock", func(t *testing.T) {
		fixedTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mockClock := clockwork.NewFakeClockAt(fixedTime)

		SetClock(mockClock)
		SetClock(nil)

		// Real clock should return current time (within a small window)
		now := clock.Now()
		assert.True(t, time.Since(now) < time.Second)
	})
}
