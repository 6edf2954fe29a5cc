package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/precip-history-service/internal/domain"
)

func TestLiveAddressesInsideMonth(t *testing.T) {
	live := LiveAddresses(200, 72, 744, 744)

	assert.Len(t, live, 73)
	assert.True(t, live.Contains(128))
	assert.True(t, live.Contains(200))
	assert.False(t, live.Contains(127))
	assert.False(t, live.Contains(201))
}

func TestLiveAddressesStraddle(t *testing.T) {
	// Day 1 at 10:00 with a 72-hour window after a 31-day month: everything
	// so far this month plus the previous month's tail.
	live := LiveAddresses(10, 72, 696, 744)

	assert.Len(t, live, 73)
	for a := 0; a <= 10; a++ {
		assert.True(t, live.Contains(domain.Address(a)), "current-month address %d", a)
	}
	assert.True(t, live.Contains(683))
	assert.True(t, live.Contains(744))
	assert.False(t, live.Contains(682))
	assert.False(t, live.Contains(11))
}

func TestLiveAddressesNoPriorMonth(t *testing.T) {
	// With no prior-month capacity the tail range collapses: only the
	// current month's addresses survive.
	live := LiveAddresses(40, 72, 720, 0)

	assert.Equal(t, 41, len(live))
	assert.True(t, live.Contains(0))
	assert.True(t, live.Contains(40))
	assert.False(t, live.Contains(41))
}

func TestLiveAddressesWindowSize(t *testing.T) {
	// The live set is exactly retentionHours+1 slots for every supported
	// window, on both sides of the straddle.
	for _, w := range []int{48, 72, 96, 144, 168} {
		for _, c := range []int{0, 1, w - 1, w, w + 1, 300, 743} {
			t.Run(fmt.Sprintf("w%d_c%d", w, c), func(t *testing.T) {
				live := LiveAddresses(domain.Address(c), w, 744, 744)
				assert.Len(t, live, w+1)
			})
		}
	}
}

func TestLiveAddressesShortPrevMonth(t *testing.T) {
	// March 1st after a 28-day February: the tail ends at slot 672.
	live := LiveAddresses(5, 72, 744, 672)

	assert.Len(t, live, 73)
	assert.True(t, live.Contains(672))
	assert.True(t, live.Contains(606))
	assert.False(t, live.Contains(605))
	assert.False(t, live.Contains(673))
}

func TestPurge(t *testing.T) {
	buildStore := func() *Store {
		store := NewStore()
		for _, addr := range []domain.Address{100, 150, 200, 250} {
			day := int(addr)/24 + 1
			hour := int(addr) % 24
			store.InsertIfAbsent(addr, domain.Observation{
				Year: 2025, Month: time.March, DayOfMonth: day, HourOfDay: hour,
			})
		}
		return store
	}

	t.Run("removes everything outside the live set", func(t *testing.T) {
		store := buildStore()
		live := LiveAddresses(250, 72, 744, 744) // keeps [178..250]

		doomed := Purge(store, live)

		assert.Equal(t, []domain.Address{100, 150}, doomed)
		assert.Equal(t, 2, store.Len())
		assert.True(t, store.Exists(200))
		assert.True(t, store.Exists(250))
	})

	t.Run("idempotent", func(t *testing.T) {
		store := buildStore()
		live := LiveAddresses(250, 72, 744, 744)

		first := Purge(store, live)
		require.NotEmpty(t, first)
		lenAfter := store.Len()

		second := Purge(store, live)
		assert.Empty(t, second)
		assert.Equal(t, lenAfter, store.Len())
	})

	t.Run("empty store", func(t *testing.T) {
		store := NewStore()
		assert.Empty(t, Purge(store, LiveAddresses(10, 48, 744, 744)))
	})
}

func TestExpiredCounterpart(t *testing.T) {
	tests := []struct {
		name              string
		current           domain.Address
		retentionHours    int
		maxHoursLastMonth int
		expected          domain.Address
	}{
		{"inside month", 200, 72, 744, 128},
		{"straddle into 31-day month", 10, 72, 744, 682},
		{"straddle into short february", 5, 72, 672, 605},
		{"exact window boundary", 72, 72, 744, 744},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpiredCounterpart(tt.current, tt.retentionHours, tt.maxHoursLastMonth)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpiredCounterpartTrailsLiveSet(t *testing.T) {
	// At the straddle the single-slot form reaches one slot further back
	// than the bulk planner keeps; the bulk purge reconciles the difference.
	live := LiveAddresses(10, 72, 696, 744)
	expired := ExpiredCounterpart(10, 72, 744)

	assert.Equal(t, domain.Address(682), expired)
	assert.False(t, live.Contains(expired))
	assert.True(t, live.Contains(expired+1), "the slot above the expired one starts the live tail")
}
