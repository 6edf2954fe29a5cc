package history

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/precip-history-service/internal/domain"
)

func insertAt(t *testing.T, store *Store, ref domain.HourRef, obs domain.Observation) {
	t.Helper()
	obs.Year, obs.Month = ref.Year, ref.Month
	obs.DayOfMonth, obs.HourOfDay = ref.Day, ref.Hour
	require.True(t, store.InsertIfAbsent(ref.Address(), obs))
}

func TestRound3(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"exact", 0.035, 0.035},
		{"rounds up", 0.0355, 0.036},
		{"rounds down", 0.0354, 0.035},
		{"float drift collapses", 0.1 + 0.2, 0.3},
		{"negative", -0.0015, -0.002},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Round3(tt.input))
		})
	}
}

func TestRollingSumEmptyStore(t *testing.T) {
	store := NewStore()
	newest := domain.HourRef{Year: 2025, Month: time.March, Day: 15, Hour: 14}

	for _, window := range []int{1, 3, 6, 12, 24} {
		assert.Zero(t, RollingSum(store, newest, window, FieldPrecip))
	}
}

func TestRollingSumConsecutiveHours(t *testing.T) {
	store := NewStore()
	newest := domain.HourRef{Year: 2025, Month: time.March, Day: 15, Hour: 14}

	insertAt(t, store, newest.Back(2), domain.Observation{PrecipIn: 0.010})
	insertAt(t, store, newest.Back(1), domain.Observation{PrecipIn: 0.020})
	insertAt(t, store, newest, domain.Observation{PrecipIn: 0.005})

	assert.Equal(t, 0.005, RollingSum(store, newest, 1, FieldPrecip))
	assert.Equal(t, 0.035, RollingSum(store, newest, 3, FieldPrecip))
	assert.Equal(t, 0.035, RollingSum(store, newest, 24, FieldPrecip), "gaps beyond the records contribute zero")
}

func TestRollingSumRoundsEachStep(t *testing.T) {
	store := NewStore()
	newest := domain.HourRef{Year: 2025, Month: time.March, Day: 15, Hour: 14}

	// Each increment rounds to zero before the next is added, so amounts
	// below the rounding grain never accumulate.
	for k := 0; k < 3; k++ {
		insertAt(t, store, newest.Back(k), domain.Observation{PrecipIn: 0.0004})
	}

	assert.Zero(t, RollingSum(store, newest, 3, FieldPrecip))
}

func TestRollingSumStraddlesMonthBoundary(t *testing.T) {
	store := NewStore()
	newest := domain.HourRef{Year: 2025, Month: time.March, Day: 1, Hour: 1}

	// Mar 1 01:00 and 00:00 at addresses 1 and 0, then Feb 28 23:00 and
	// 22:00 at the previous month's addresses 671 and 670.
	insertAt(t, store, newest, domain.Observation{PrecipIn: 0.2})
	insertAt(t, store, newest.Back(1), domain.Observation{PrecipIn: 0.1})
	insertAt(t, store, newest.Back(2), domain.Observation{PrecipIn: 0.3})
	insertAt(t, store, newest.Back(3), domain.Observation{PrecipIn: 0.4})

	assert.Equal(t, domain.Address(671), newest.Back(2).Address())
	assert.Equal(t, 1.0, RollingSum(store, newest, 24, FieldPrecip))
	assert.Equal(t, 0.3, RollingSum(store, newest, 2, FieldPrecip), "two-hour window stops at the boundary")
}

func TestRollingSumSkipsStaleMonth(t *testing.T) {
	store := NewStore()
	newest := domain.HourRef{Year: 2025, Month: time.March, Day: 1, Hour: 1}

	// A February leftover parked at address 1, the slot the walk expects
	// March 1 01:00 to occupy, must contribute nothing.
	stale := domain.Observation{
		Year: 2025, Month: time.February, DayOfMonth: 1, HourOfDay: 1, PrecipIn: 5,
	}
	require.True(t, store.InsertIfAbsent(domain.Address(1), stale))

	assert.Zero(t, RollingSum(store, newest, 3, FieldPrecip))
}

func TestWindowAverage(t *testing.T) {
	newest := domain.HourRef{Year: 2025, Month: time.March, Day: 15, Hour: 14}

	t.Run("divides by window length not record count", func(t *testing.T) {
		store := NewStore()
		// 12 of 24 hours present at 100% humidity: the average halves.
		for k := 0; k < 12; k++ {
			insertAt(t, store, newest.Back(k), domain.Observation{HumidityPct: 100})
		}
		assert.Equal(t, 50, WindowAverage(store, newest, 24, FieldHumidity))
	})

	t.Run("truncates toward zero", func(t *testing.T) {
		store := NewStore()
		for k := 0; k < 24; k++ {
			insertAt(t, store, newest.Back(k), domain.Observation{TemperatureF: 65.9})
		}
		assert.Equal(t, 65, WindowAverage(store, newest, 24, FieldTemperature))
	})

	t.Run("negative average truncates toward zero", func(t *testing.T) {
		store := NewStore()
		for k := 0; k < 24; k++ {
			insertAt(t, store, newest.Back(k), domain.Observation{TemperatureF: -10.5})
		}
		assert.Equal(t, -10, WindowAverage(store, newest, 24, FieldTemperature))
	})

	t.Run("empty store", func(t *testing.T) {
		assert.Zero(t, WindowAverage(NewStore(), newest, 24, FieldTemperature))
	})
}

func TestDayTotal(t *testing.T) {
	store := NewStore()
	ten := domain.HourRef{Year: 2025, Month: time.March, Day: 5, Hour: 10}
	eleven := domain.HourRef{Year: 2025, Month: time.March, Day: 5, Hour: 11}
	insertAt(t, store, ten, domain.Observation{PrecipIn: 0.25})
	insertAt(t, store, eleven, domain.Observation{PrecipIn: 0.5})

	t.Run("sums matching day inside the live set", func(t *testing.T) {
		live := AddressSet{ten.Address(): {}, eleven.Address(): {}}
		assert.Equal(t, 0.75, DayTotal(store, live, 5))
	})

	t.Run("addresses outside the live set contribute nothing", func(t *testing.T) {
		live := AddressSet{eleven.Address(): {}}
		assert.Equal(t, 0.5, DayTotal(store, live, 5))
	})

	t.Run("other days contribute nothing", func(t *testing.T) {
		live := AddressSet{ten.Address(): {}, eleven.Address(): {}}
		assert.Zero(t, DayTotal(store, live, 6))
	})
}

func TestSummarize(t *testing.T) {
	// Saturday March 15 2025, 14:30 station time.
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	defer domain.SetClock(nil)

	newest := domain.HourRef{Year: 2025, Month: time.March, Day: 15, Hour: 14}

	store := NewStore()
	insertAt(t, store, newest.Back(2), domain.Observation{PrecipIn: 0.010, TemperatureF: 60, HumidityPct: 50})
	insertAt(t, store, newest.Back(1), domain.Observation{PrecipIn: 0.020, TemperatureF: 62, HumidityPct: 50})
	insertAt(t, store, newest, domain.Observation{PrecipIn: 0.005, TemperatureF: 64, HumidityPct: 50})
	// Friday evening, inside the 24-hour window.
	friday := domain.HourRef{Year: 2025, Month: time.March, Day: 14, Hour: 20}
	insertAt(t, store, friday, domain.Observation{PrecipIn: 0.5, TemperatureF: 58, HumidityPct: 50})

	live := LiveAddresses(domain.HourOfMonth(now), 96, 744, 672)
	s := Summarize(store, live, newest, time.UTC)

	assert.Equal(t, domain.Address(350), s.NewestAddress)
	assert.Equal(t, 4, s.RecordCount)

	assert.Equal(t, 0.005, s.Precip1Hr)
	assert.Equal(t, 0.035, s.Precip3Hr)
	assert.Equal(t, 0.035, s.Precip6Hr)
	assert.Equal(t, 0.035, s.Precip12Hr)
	assert.Equal(t, 0.535, s.Precip24Hr)

	assert.Equal(t, 0.035, s.PrecipToday)
	assert.Equal(t, 0.5, s.PrecipYesterday)

	require.Len(t, s.PrecipByWeekday, 7)
	assert.Equal(t, 0.035, s.PrecipByWeekday["Saturday"])
	assert.Equal(t, 0.5, s.PrecipByWeekday["Friday"])
	assert.Zero(t, s.PrecipByWeekday["Monday"])

	// (60+62+64+58)/24 and (4*50)/24, truncated.
	assert.Equal(t, 10, s.Temperature24HrAvg)
	assert.Equal(t, 8, s.Humidity24HrAvg)

	assert.True(t, s.CapturedAt.IsZero(), "the tracker stamps capture time")
}

func TestSummarizeEmptyStore(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	newest := domain.HourRef{Year: 2025, Month: time.March, Day: 15, Hour: 14}
	live := LiveAddresses(350, 96, 744, 672)

	s := Summarize(NewStore(), live, newest, time.UTC)

	assert.Zero(t, s.RecordCount)
	assert.Zero(t, s.Precip24Hr)
	assert.Zero(t, s.PrecipToday)
	assert.Zero(t, s.Temperature24HrAvg)
	require.Len(t, s.PrecipByWeekday, 7)
	for day, total := range s.PrecipByWeekday {
		assert.Zero(t, total, day)
	}
}
