package history

import (
	"math"
	"time"

	"github.com/couchcryptid/precip-history-service/internal/domain"
)

// Field selects which observation quantity an aggregation reads.
type Field int

const (
	FieldPrecip Field = iota
	FieldHumidity
	FieldTemperature
)

func fieldValue(obs domain.Observation, f Field) float64 {
	switch f {
	case FieldHumidity:
		return obs.HumidityPct
	case FieldTemperature:
		return obs.TemperatureF
	default:
		return obs.PrecipIn
	}
}

// Round3 rounds to three decimal places. Precipitation sums apply it after
// every accumulation step, not once at the end, so a published total never
// drifts from the value a consumer gets by re-adding the rounded parts.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// RollingSum sums field over the windowHours most recent hours ending at
// newest, inclusive. The walk steps back through calendar time, so from
// early-month hours it lands in the previous month's high addresses. An hour
// contributes zero when its slot is empty or when the stored record's month
// tag does not match the walked hour: a leftover from last month parked at
// the right address is not this window's data.
func RollingSum(store *Store, newest domain.HourRef, windowHours int, field Field) float64 {
	var sum float64
	for k := 0; k < windowHours; k++ {
		ref := newest.Back(k)
		obs, ok := store.Get(ref.Address())
		if !ok || !ref.Matches(obs) {
			continue
		}
		if field == FieldPrecip {
			sum = Round3(sum + obs.PrecipIn)
			continue
		}
		sum += fieldValue(obs, field)
	}
	return sum
}

// WindowAverage divides a rolling sum by the full window length, not the
// count of hours that actually hold records, and truncates toward zero.
// Missing hours therefore drag the average down; consumers treat it as
// "average over the window" rather than "average of what we saw".
func WindowAverage(store *Store, newest domain.HourRef, windowHours int, field Field) int {
	if windowHours <= 0 {
		return 0
	}
	return int(RollingSum(store, newest, windowHours, field) / float64(windowHours))
}

// DayTotal sums precipitation over the live addresses whose record falls on
// dayOfMonth. Scanning the live set rather than the whole store keeps a
// day's total consistent with retention: slots that have aged out of the
// window contribute nothing even if a purge has not collected them yet.
func DayTotal(store *Store, live AddressSet, dayOfMonth int) float64 {
	var sum float64
	for addr := range live {
		obs, ok := store.Get(addr)
		if !ok || obs.DayOfMonth != dayOfMonth {
			continue
		}
		sum = Round3(sum + obs.PrecipIn)
	}
	return sum
}

// Summarize computes the full published attribute set from the retained
// records. newest anchors the rolling windows, live bounds the calendar-day
// scans, and loc fixes which date "today" is. An empty store yields all-zero
// aggregates with RecordCount 0 so callers can tell "no data yet" from a
// genuinely dry day. CapturedAt is left for the caller to stamp.
func Summarize(store *Store, live AddressSet, newest domain.HourRef, loc *time.Location) domain.Summary {
	s := domain.Summary{
		NewestAddress:   newest.Address(),
		RecordCount:     store.Len(),
		PrecipByWeekday: make(map[string]float64, 7),
	}

	s.Precip1Hr = RollingSum(store, newest, 1, FieldPrecip)
	s.Precip3Hr = RollingSum(store, newest, 3, FieldPrecip)
	s.Precip6Hr = RollingSum(store, newest, 6, FieldPrecip)
	s.Precip12Hr = RollingSum(store, newest, 12, FieldPrecip)
	s.Precip24Hr = RollingSum(store, newest, 24, FieldPrecip)

	s.Temperature24HrAvg = WindowAverage(store, newest, 24, FieldTemperature)
	s.Humidity24HrAvg = WindowAverage(store, newest, 24, FieldHumidity)

	today := domain.Today(loc)
	yesterday := domain.Yesterday(loc)
	s.PrecipToday = DayTotal(store, live, today.DayOfMonth)
	s.PrecipYesterday = DayTotal(store, live, yesterday.DayOfMonth)

	for _, day := range domain.RecentDays(loc, 7) {
		s.PrecipByWeekday[day.Weekday] = DayTotal(store, live, day.DayOfMonth)
	}
	return s
}
