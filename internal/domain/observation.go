package domain

import (
	"fmt"
	"strconv"
	"time"
)

// DetailLevel controls how many optional observation fields are parsed and
// retained. Higher levels cost memory per record; stations that only care
// about precipitation run at DetailBasic.
type DetailLevel int

const (
	DetailBasic    DetailLevel = 1 // precipitation, humidity, temperature
	DetailExtended DetailLevel = 2 // + dewpoint, pressure, wind
	DetailFull     DetailLevel = 3 // + visibility, weather and sky text
)

// RawRow is one flat observation-history row as produced by a fetch adapter.
// Every field is string-typed exactly as it appears in the station's history
// table; empty and junk values are tolerated, ParseRow decides what survives.
type RawRow struct {
	Day          string `json:"day"`  // day of month, "1".."31"
	Time         string `json:"time"` // reported clock time, "HH:MM" station-local
	TemperatureF string `json:"temperature_f"`
	DewpointF    string `json:"dewpoint_f"`
	HumidityPct  string `json:"humidity_pct"`
	WindMph      string `json:"wind_mph"`
	PressureInHg string `json:"pressure_inhg"`
	VisibilityMi string `json:"visibility_mi"`
	Weather      string `json:"weather"`
	Sky          string `json:"sky"`
	PrecipIn     string `json:"precip_in"` // one-hour increment, not cumulative
}

// Observation is a single stored hourly record. Records are immutable once
// inserted; the store enforces first-write-wins per address, so re-fetched
// rows never overwrite what an earlier cycle captured.
type Observation struct {
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	DayOfMonth int        `json:"day_of_month"`
	HourOfDay  int        `json:"hour_of_day"`

	PrecipIn     float64 `json:"precip_in"`
	HumidityPct  float64 `json:"humidity_pct"`
	TemperatureF float64 `json:"temperature_f"`

	// Extended fields, populated at DetailExtended and up.
	DewpointF    float64 `json:"dewpoint_f,omitempty"`
	PressureInHg float64 `json:"pressure_inhg,omitempty"`
	WindMph      float64 `json:"wind_mph,omitempty"`

	// Full-detail fields.
	VisibilityMi float64 `json:"visibility_mi,omitempty"`
	Weather      string  `json:"weather,omitempty"`
	Sky          string  `json:"sky,omitempty"`
}

// Address identifies the hour-of-month slot a record occupies:
// dayOfMonth*24 + hourOfDay - 24. Values repeat every month, so liveness
// rather than numeric identity separates this month's entries from last
// month's.
type Address int

// String renders the zero-padded form used in published envelopes and logs,
// e.g. Address(7) -> "007".
func (a Address) String() string { return fmt.Sprintf("%03d", int(a)) }

// HourRef pins an observation hour to a real calendar instant, removing the
// month ambiguity of a bare Address.
type HourRef struct {
	Year  int
	Month time.Month
	Day   int
	Hour  int
}

// Attribute names published after every cycle. These are a wire contract;
// downstream consumers key dashboards and automations off them.
const (
	AttrPrecip1Hr          = "Precip1Hr"
	AttrPrecip3Hr          = "Precip3Hr"
	AttrPrecip6Hr          = "Precip6Hr"
	AttrPrecip12Hr         = "Precip12Hr"
	AttrPrecip24Hr         = "Precip24Hr"
	AttrPrecipToday        = "Precip-Today"
	AttrPrecipYesterday    = "Precip-Yesterday"
	AttrTemperature24HrAvg = "Temperature24HrAvg"
	AttrHumidity24HrAvg    = "Humidity24HrAvg"
	AttrWater              = "Water"
)

// WeekdayAttr returns the per-weekday precipitation attribute name for a
// weekday name, e.g. "Monday" -> "Precip-Monday".
func WeekdayAttr(weekday string) string { return "Precip-" + weekday }

// WaterState is the wet/dry classification produced by the threshold check.
type WaterState string

const (
	WaterWet WaterState = "wet"
	WaterDry WaterState = "dry"
)

// Summary is the full derived attribute set computed from the retained
// records after a cycle. A zero RecordCount distinguishes "no data yet"
// from genuinely dry hours.
type Summary struct {
	CapturedAt    time.Time `json:"captured_at"`
	NewestAddress Address   `json:"newest_address"`
	RecordCount   int       `json:"record_count"`

	Precip1Hr  float64 `json:"precip_1hr"`
	Precip3Hr  float64 `json:"precip_3hr"`
	Precip6Hr  float64 `json:"precip_6hr"`
	Precip12Hr float64 `json:"precip_12hr"`
	Precip24Hr float64 `json:"precip_24hr"`

	PrecipToday     float64 `json:"precip_today"`
	PrecipYesterday float64 `json:"precip_yesterday"`

	// PrecipByWeekday maps weekday names (Sunday..Saturday) to that day's
	// retained precipitation total.
	PrecipByWeekday map[string]float64 `json:"precip_by_weekday"`

	Temperature24HrAvg int `json:"temperature_24hr_avg"`
	Humidity24HrAvg    int `json:"humidity_24hr_avg"`
}

// Attribute is one published name/value pair. Values are pre-formatted
// strings so every consumer sees identical rendering regardless of locale
// or float quirks.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// weekdayOrder fixes the publish order of per-weekday attributes.
var weekdayOrder = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// Attributes flattens the summary into an ordered list of publishable
// name/value pairs. Precipitation renders with three decimals to match the
// rounding applied during accumulation; averages render as whole numbers.
func (s Summary) Attributes() []Attribute {
	attrs := make([]Attribute, 0, 16)
	attrs = append(attrs,
		Attribute{Name: AttrPrecip1Hr, Value: formatInches(s.Precip1Hr)},
		Attribute{Name: AttrPrecip3Hr, Value: formatInches(s.Precip3Hr)},
		Attribute{Name: AttrPrecip6Hr, Value: formatInches(s.Precip6Hr)},
		Attribute{Name: AttrPrecip12Hr, Value: formatInches(s.Precip12Hr)},
		Attribute{Name: AttrPrecip24Hr, Value: formatInches(s.Precip24Hr)},
		Attribute{Name: AttrPrecipToday, Value: formatInches(s.PrecipToday)},
		Attribute{Name: AttrPrecipYesterday, Value: formatInches(s.PrecipYesterday)},
	)
	for _, day := range weekdayOrder {
		attrs = append(attrs, Attribute{
			Name:  WeekdayAttr(day),
			Value: formatInches(s.PrecipByWeekday[day]),
		})
	}
	attrs = append(attrs,
		Attribute{Name: AttrTemperature24HrAvg, Value: strconv.Itoa(s.Temperature24HrAvg)},
		Attribute{Name: AttrHumidity24HrAvg, Value: strconv.Itoa(s.Humidity24HrAvg)},
	)
	return attrs
}

// formatInches renders a precipitation total with fixed three-decimal
// precision, e.g. 0.035 -> "0.035".
func formatInches(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
