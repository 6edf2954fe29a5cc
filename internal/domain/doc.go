// Package domain models hourly surface observations for a single weather
// station and the calendar arithmetic that addresses them.
//
// # Data Source
//
// Observations originate from a station's rolling observation-history table
// (the NWS /stations/{id}/observations feed, or any source shaped like it).
// The table covers roughly the last three days, newest first, and each row
// reports its day-of-month and station-local clock time but not its month or
// year. Near the start of a month the same table therefore mixes rows from
// two different months.
//
// # Hour-of-Month Addressing
//
// Every retained record is keyed by its hour-of-month address:
//
//	address = dayOfMonth*24 + hourOfDay - 24
//
// Address 0 is the hour beginning at midnight on the 1st; the last hour of a
// 31-day month is 743. A month has 672, 696, 720 or 744 slots depending on
// its length. Addresses repeat every month (slot 100 exists in March and
// again in April), so each stored record also carries the month and year it
// was observed in, and [HourRef.Matches] is how aggregation tells this
// month's record from last month's leftover at the same slot.
//
// Published identifiers use the zero-padded string form ("007", "743") so
// they sort lexically; see [Address.String].
//
// # Row Conventions
//
// Day format:
//
//	Day-of-month as a bare integer, "1".."31". No month or year column;
//	a reported day greater than today's day-of-month is resolved to the
//	previous month by [ObservedRef].
//
// Time format:
//
//	"HH:MM" in 24-hour station-local notation. Minutes are validated and
//	then discarded: records bucket to the hour containing them.
//
// Missing values:
//
//	Stations report "M", "NA" or an empty string for unmeasured fields.
//	All of these degrade to zero during parsing; only an unparseable day
//	or time rejects the whole row.
//
// Precipitation:
//
//	The precip column is the one-hour increment in inches, not a running
//	total. Negative sentinel values (trace amounts encoded as -0.01) are
//	clamped to zero.
//
// # Relative Days
//
// Today and Yesterday resolve through day-of-year arithmetic against the
// package clock. Stepping back from January 1 underflows the ordinal to 0,
// which [ResolveDayOfYear] normalizes to December 31 of the prior year with
// that date's true weekday, the straddle that naive "same year" handling
// gets wrong exactly once a year.
package domain
