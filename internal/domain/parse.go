package domain

import (
	"strconv"
	"strings"
)

// ParseRow converts one raw history row into an Observation. ok is false
// when the row lacks the minimum viable fields (a parseable day-of-month
// and clock time) and such rows are skipped by the caller. Numeric fields
// that fail to parse degrade to zero rather than failing the row, because a
// station reporting "M" or "NA" for humidity still has usable precipitation.
//
// Month and year tags are left zero; the caller resolves them against the
// current instant (see ObservedRef) before insert.
func ParseRow(row RawRow, detail DetailLevel) (Observation, bool) {
	day, ok := parseDay(row.Day)
	if !ok {
		return Observation{}, false
	}
	hour, ok := parseClockHour(row.Time)
	if !ok {
		return Observation{}, false
	}

	obs := Observation{
		DayOfMonth:   day,
		HourOfDay:    hour,
		PrecipIn:     parseFloatOrZero(row.PrecipIn),
		HumidityPct:  parseFloatOrZero(row.HumidityPct),
		TemperatureF: parseFloatOrZero(row.TemperatureF),
	}
	// Trace amounts sometimes come through as -0.01 sentinel values.
	if obs.PrecipIn < 0 {
		obs.PrecipIn = 0
	}

	if detail >= DetailExtended {
		obs.DewpointF = parseFloatOrZero(row.DewpointF)
		obs.PressureInHg = parseFloatOrZero(row.PressureInHg)
		obs.WindMph = parseFloatOrZero(row.WindMph)
	}
	if detail >= DetailFull {
		obs.VisibilityMi = parseFloatOrZero(row.VisibilityMi)
		obs.Weather = strings.TrimSpace(row.Weather)
		obs.Sky = strings.TrimSpace(row.Sky)
	}
	return obs, true
}

// parseDay parses a day-of-month column, accepting 1..31.
func parseDay(s string) (int, bool) {
	s = strings.TrimSpace(s)
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

// parseClockHour extracts the hour from an "HH:MM" (or "H:MM") 24-hour
// clock string. Minutes are validated but discarded: records bucket to the
// hour that contains them.
func parseClockHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, errH := strconv.Atoi(parts[0])
	mins, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || mins < 0 || mins > 59 {
		return 0, false
	}
	return hour, true
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
