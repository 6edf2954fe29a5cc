package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/precip-history-service/internal/domain"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// observation tracker.
type Metrics struct {
	RowsFetched          prometheus.Counter
	RowsSkipped          prometheus.Counter
	ObservationsInserted prometheus.Counter
	DuplicateRows        prometheus.Counter
	ObservationsPurged   prometheus.Counter
	RecordsRetained      prometheus.Gauge
	TrackerReady         prometheus.Gauge

	// Cycle metrics.
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	FetchDuration prometheus.Histogram
	FetchFailures prometheus.Counter

	// Publish metrics.
	AttributesPublished prometheus.Counter
	PublishFailures     prometheus.Counter

	// Derived-attribute gauges exported for dashboards.
	PrecipWindow   *prometheus.GaugeVec // labels: window={1h,3h,6h,12h,24h,today,yesterday}
	PrecipWeekday  *prometheus.GaugeVec // labels: weekday={Sunday..Saturday}
	Temperature24h prometheus.Gauge
	Humidity24h    prometheus.Gauge
	WaterWet       prometheus.Gauge
}

// NewMetrics creates and registers all tracker metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "rows_fetched_total",
			Help:      "Total raw rows received from the observation source.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "rows_skipped_total",
			Help:      "Total rows rejected for missing a parseable day or time.",
		}),
		ObservationsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "observations_inserted_total",
			Help:      "Total records inserted into previously empty slots.",
		}),
		DuplicateRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "duplicate_rows_total",
			Help:      "Total rows skipped because their slot was already occupied.",
		}),
		ObservationsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "observations_purged_total",
			Help:      "Total records removed by retention.",
		}),
		RecordsRetained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_history",
			Name:      "records_retained",
			Help:      "Records currently held in the store.",
		}),
		TrackerReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_history",
			Name:      "tracker_ready",
			Help:      "1 once the tracker has completed a cycle, 0 before.",
		}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "cycles_total",
			Help:      "Total fetch-ingest-aggregate cycles executed.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_history",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-ingest-aggregate cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_history",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream observation fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "fetch_failures_total",
			Help:      "Total upstream fetch failures (cycles degrade to zero rows).",
		}),
		AttributesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "attributes_published_total",
			Help:      "Total attribute events written to the sink topic.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_history",
			Name:      "publish_failures_total",
			Help:      "Total attribute publish failures.",
		}),
		PrecipWindow: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "precip_history",
			Name:      "precip_inches",
			Help:      "Precipitation totals by rolling window or relative day.",
		}, []string{"window"}),
		PrecipWeekday: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "precip_history",
			Name:      "precip_weekday_inches",
			Help:      "Per-weekday precipitation totals over the retained records.",
		}, []string{"weekday"}),
		Temperature24h: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_history",
			Name:      "temperature_24h_avg_f",
			Help:      "Truncated 24-hour average temperature in Fahrenheit.",
		}),
		Humidity24h: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_history",
			Name:      "humidity_24h_avg_pct",
			Help:      "Truncated 24-hour average relative humidity.",
		}),
		WaterWet: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_history",
			Name:      "water_wet",
			Help:      "1 when the last threshold check classified wet, 0 for dry.",
		}),
	}

	prometheus.MustRegister(
		m.RowsFetched,
		m.RowsSkipped,
		m.ObservationsInserted,
		m.DuplicateRows,
		m.ObservationsPurged,
		m.RecordsRetained,
		m.TrackerReady,
		m.CyclesTotal,
		m.CycleDuration,
		m.FetchDuration,
		m.FetchFailures,
		m.AttributesPublished,
		m.PublishFailures,
		m.PrecipWindow,
		m.PrecipWeekday,
		m.Temperature24h,
		m.Humidity24h,
		m.WaterWet,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsFetched:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "rows_fetched_total"}),
		RowsSkipped:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "rows_skipped_total"}),
		ObservationsInserted: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "observations_inserted_total"}),
		DuplicateRows:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "duplicate_rows_total"}),
		ObservationsPurged:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "observations_purged_total"}),
		RecordsRetained:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_history", Name: "records_retained"}),
		TrackerReady:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_history", Name: "tracker_ready"}),
		CyclesTotal:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "cycles_total"}),
		CycleDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "precip_history", Name: "cycle_duration_seconds"}),
		FetchDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "precip_history", Name: "fetch_duration_seconds"}),
		FetchFailures:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "fetch_failures_total"}),
		AttributesPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "attributes_published_total"}),
		PublishFailures:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_history", Name: "publish_failures_total"}),
		PrecipWindow:         prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "precip_history", Name: "precip_inches"}, []string{"window"}),
		PrecipWeekday:        prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "precip_history", Name: "precip_weekday_inches"}, []string{"weekday"}),
		Temperature24h:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_history", Name: "temperature_24h_avg_f"}),
		Humidity24h:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_history", Name: "humidity_24h_avg_pct"}),
		WaterWet:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_history", Name: "water_wet"}),
	}
}

// ObserveSummary pushes a computed summary into the attribute gauges.
func (m *Metrics) ObserveSummary(s domain.Summary) {
	m.PrecipWindow.WithLabelValues("1h").Set(s.Precip1Hr)
	m.PrecipWindow.WithLabelValues("3h").Set(s.Precip3Hr)
	m.PrecipWindow.WithLabelValues("6h").Set(s.Precip6Hr)
	m.PrecipWindow.WithLabelValues("12h").Set(s.Precip12Hr)
	m.PrecipWindow.WithLabelValues("24h").Set(s.Precip24Hr)
	m.PrecipWindow.WithLabelValues("today").Set(s.PrecipToday)
	m.PrecipWindow.WithLabelValues("yesterday").Set(s.PrecipYesterday)
	for weekday, total := range s.PrecipByWeekday {
		m.PrecipWeekday.WithLabelValues(weekday).Set(total)
	}
	m.Temperature24h.Set(float64(s.Temperature24HrAvg))
	m.Humidity24h.Set(float64(s.Humidity24HrAvg))
	m.RecordsRetained.Set(float64(s.RecordCount))
}
