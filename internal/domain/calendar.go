package domain

import "time"

// HourOfMonth maps an instant to its hour-of-month address. Address 0 is the
// hour beginning at midnight on the 1st; the last hour of a 31-day month is
// address 743.
func HourOfMonth(t time.Time) Address {
	return Address(t.Day()*24 + t.Hour() - 24)
}

// DaysInMonth returns the number of calendar days in t's month.
func DaysInMonth(t time.Time) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MaxHoursInMonth returns the number of hour slots in t's month: 672, 696,
// 720 or 744.
func MaxHoursInMonth(t time.Time) int { return DaysInMonth(t) * 24 }

// MaxHoursInPrevMonth returns the hour-slot capacity of the month before
// t's. January resolves to December of the prior year, and a leap-year
// February is counted at 696 when March asks.
func MaxHoursInPrevMonth(t time.Time) int {
	prev := time.Date(t.Year(), t.Month(), 0, 0, 0, 0, 0, time.UTC)
	return prev.Day() * 24
}

// DayInfo is a resolved calendar day: which month it belongs to, its
// day-of-month, and its weekday name ("Sunday".."Saturday").
type DayInfo struct {
	Month      time.Month `json:"month"`
	DayOfMonth int        `json:"day_of_month"`
	Weekday    string     `json:"weekday"`
}

// ResolveDayOfYear maps a day-of-year ordinal onto a concrete date within
// year. Ordinals past the year's end spill into the next year and ordinal 0
// resolves to December 31 of the prior year, both with the true weekday of
// the resolved date. Leap years shift every post-February ordinal by one
// day, which is why callers pass the ordinal through instead of caching
// month/day splits.
func ResolveDayOfYear(dayOfYear, year int) DayInfo {
	t := time.Date(year, time.January, dayOfYear, 0, 0, 0, 0, time.UTC)
	return DayInfo{Month: t.Month(), DayOfMonth: t.Day(), Weekday: t.Weekday().String()}
}

// Today returns the current day's calendar fields in loc, read from the
// package clock.
func Today(loc *time.Location) DayInfo {
	now := clock.Now().In(loc)
	return DayInfo{Month: now.Month(), DayOfMonth: now.Day(), Weekday: now.Weekday().String()}
}

// Yesterday returns the previous day's fields by stepping the current
// day-of-year back by one. On January 1 the ordinal underflows to 0, which
// ResolveDayOfYear normalizes to December 31 of the prior year with that
// date's true weekday.
func Yesterday(loc *time.Location) DayInfo {
	now := clock.Now().In(loc)
	return ResolveDayOfYear(now.YearDay()-1, now.Year())
}

// RecentDays returns today plus the n-1 preceding calendar days in loc,
// newest first. The weekday aggregation walks this list so a 7-day span
// covers each weekday name exactly once.
func RecentDays(loc *time.Location, n int) []DayInfo {
	now := clock.Now().In(loc)
	days := make([]DayInfo, 0, n)
	for i := 0; i < n; i++ {
		t := now.AddDate(0, 0, -i)
		days = append(days, DayInfo{Month: t.Month(), DayOfMonth: t.Day(), Weekday: t.Weekday().String()})
	}
	return days
}

// HourRefOf captures the hour containing t.
func HourRefOf(t time.Time) HourRef {
	return HourRef{Year: t.Year(), Month: t.Month(), Day: t.Day(), Hour: t.Hour()}
}

// Address returns the hour-of-month slot this reference occupies.
func (r HourRef) Address() Address {
	return Address(r.Day*24 + r.Hour - 24)
}

// Back returns the reference hours earlier, crossing day, month and year
// boundaries as needed. Arithmetic runs in UTC so wall-clock transitions in
// the station's zone cannot skip or repeat hours.
func (r HourRef) Back(hours int) HourRef {
	t := time.Date(r.Year, r.Month, r.Day, r.Hour, 0, 0, 0, time.UTC)
	return HourRefOf(t.Add(-time.Duration(hours) * time.Hour))
}

// Matches reports whether the stored observation occupies exactly this
// calendar hour. A record parked at the right address but tagged with a
// different month is last month's leftover, not this hour's data.
func (r HourRef) Matches(o Observation) bool {
	return o.Year == r.Year && o.Month == r.Month && o.DayOfMonth == r.Day && o.HourOfDay == r.Hour
}

// ObservedRef resolves a reported (day, hour) pair against the current
// instant. History tables span the month boundary, so a reported day greater
// than today's day-of-month belongs to the previous month.
func ObservedRef(now time.Time, day, hour int) HourRef {
	ref := HourRef{Year: now.Year(), Month: now.Month(), Day: day, Hour: hour}
	if day > now.Day() {
		prev := time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, time.UTC)
		ref.Year, ref.Month = prev.Year(), prev.Month()
	}
	return ref
}
