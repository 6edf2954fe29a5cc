// Package tracker orchestrates the hourly observation cycle: fetch rows from
// the station source, ingest them into the address-keyed store, purge what
// retention no longer keeps, aggregate, and publish the derived attributes.
//
// All cycle work runs under one mutex. Cycles, resets and threshold checks
// never interleave; an admin request issued mid-cycle simply waits. This
// keeps every store mutation single-writer without fine-grained locking.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/precip-history-service/internal/config"
	"github.com/couchcryptid/precip-history-service/internal/domain"
	"github.com/couchcryptid/precip-history-service/internal/history"
	"github.com/couchcryptid/precip-history-service/internal/observability"
)

// RowSource fetches the station's recent observation rows. Ingestion is
// order-independent, so newest-first and oldest-first feeds both work.
type RowSource interface {
	FetchRows(ctx context.Context) ([]domain.RawRow, error)
}

// AttributePublisher emits derived attributes to downstream consumers.
type AttributePublisher interface {
	PublishSummary(ctx context.Context, stationID, cycleID string, s domain.Summary) error
	PublishWaterState(ctx context.Context, stationID string, state domain.WaterState, precip24 float64) error
}

// Tracker owns the observation store and derives the published attribute set
// from it once per cycle.
type Tracker struct {
	source    RowSource
	publisher AttributePublisher
	store     *history.Store
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	stationID      string
	loc            *time.Location
	retentionHours int
	detail         domain.DetailLevel

	mu      sync.Mutex
	ready   atomic.Bool
	summary domain.Summary
	water   domain.WaterState
}

// New creates a Tracker. publisher may be nil when publishing is disabled;
// every other dependency is required.
func New(cfg *config.Config, store *history.Store, source RowSource, publisher AttributePublisher, logger *slog.Logger, metrics *observability.Metrics) *Tracker {
	return &Tracker{
		source:         source,
		publisher:      publisher,
		store:          store,
		logger:         logger,
		metrics:        metrics,
		clock:          clockwork.NewRealClock(),
		stationID:      cfg.StationID,
		loc:            cfg.Location,
		retentionHours: cfg.RetentionHours,
		detail:         cfg.DetailLevel,
	}
}

// SetClock swaps the cycle time source so tests can pin the current hour.
// Pass nil to reset to real time.
func (t *Tracker) SetClock(c clockwork.Clock) {
	if c == nil {
		t.clock = clockwork.NewRealClock()
		return
	}
	t.clock = c
}

// CheckReadiness returns nil once the tracker has completed at least one
// cycle, or an error describing why the service is not yet ready.
func (t *Tracker) CheckReadiness(_ context.Context) error {
	if !t.ready.Load() {
		return errors.New("tracker has not completed a cycle yet")
	}
	return nil
}

// RunCycle executes one fetch-ingest-purge-aggregate-publish pass and
// returns the resulting summary. Upstream failures degrade the cycle to zero
// rows rather than failing it: retention and aggregation still run, so
// attributes age out on schedule even when the station goes quiet.
func (t *Tracker) RunCycle(ctx context.Context) domain.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	cycleID := uuid.NewString()
	log := t.logger.With("cycle_id", cycleID, "station", t.stationID)

	rows := t.fetchRows(ctx, log)
	now := t.clock.Now().In(t.loc)
	inserted, duplicates, skipped := t.ingest(log, rows, now)

	current := domain.HourOfMonth(now)
	live := history.LiveAddresses(current, t.retentionHours, domain.MaxHoursInMonth(now), domain.MaxHoursInPrevMonth(now))
	purged := history.Purge(t.store, live)

	// Rolling windows anchor at the newest stored record; with nothing
	// stored they anchor at the current hour and come out zero.
	newest := domain.HourRefOf(now)
	if obs, ok := t.store.Newest(); ok {
		newest = domain.HourRef{Year: obs.Year, Month: obs.Month, Day: obs.DayOfMonth, Hour: obs.HourOfDay}
	}

	summary := history.Summarize(t.store, live, newest, t.loc)
	summary.CapturedAt = now
	t.summary = summary
	t.ready.Store(true)

	t.metrics.CyclesTotal.Inc()
	t.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	t.metrics.ObservationsInserted.Add(float64(inserted))
	t.metrics.DuplicateRows.Add(float64(duplicates))
	t.metrics.RowsSkipped.Add(float64(skipped))
	t.metrics.ObservationsPurged.Add(float64(len(purged)))
	t.metrics.TrackerReady.Set(1)
	t.metrics.ObserveSummary(summary)

	t.publishSummary(ctx, log, cycleID, summary)

	log.Info("cycle complete",
		"current_address", current.String(),
		"newest_address", summary.NewestAddress.String(),
		"rows", len(rows),
		"inserted", inserted,
		"duplicates", duplicates,
		"skipped", skipped,
		"purged", len(purged),
		"records", summary.RecordCount,
		"precip_24hr", summary.Precip24Hr,
		"duration", time.Since(start),
	)
	return summary
}

// Reset clears every retained record and rebroadcasts zeroed attributes so
// downstream consumers converge instead of holding the last published
// values forever.
func (t *Tracker) Reset(ctx context.Context) domain.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	cycleID := uuid.NewString()
	log := t.logger.With("cycle_id", cycleID, "station", t.stationID)

	t.store.Clear()

	now := t.clock.Now().In(t.loc)
	current := domain.HourOfMonth(now)
	live := history.LiveAddresses(current, t.retentionHours, domain.MaxHoursInMonth(now), domain.MaxHoursInPrevMonth(now))

	summary := history.Summarize(t.store, live, domain.HourRefOf(now), t.loc)
	summary.CapturedAt = now
	t.summary = summary

	t.metrics.ObserveSummary(summary)
	t.publishSummary(ctx, log, cycleID, summary)

	log.Info("history reset")
	return summary
}

// CheckThreshold classifies the last cycle's 24-hour total against
// thresholdIn. The comparison is strict: a total exactly at the threshold
// stays dry. The classification is published and retained for WaterState.
func (t *Tracker) CheckThreshold(ctx context.Context, thresholdIn float64) (domain.WaterState, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	precip24 := t.summary.Precip24Hr
	state := domain.WaterDry
	if precip24 > thresholdIn {
		state = domain.WaterWet
	}
	t.water = state

	if state == domain.WaterWet {
		t.metrics.WaterWet.Set(1)
	} else {
		t.metrics.WaterWet.Set(0)
	}

	if t.publisher != nil {
		if err := t.publisher.PublishWaterState(ctx, t.stationID, state, precip24); err != nil {
			t.metrics.PublishFailures.Inc()
			t.logger.Warn("publish water state failed", "station", t.stationID, "error", err)
		}
	}

	t.logger.Info("threshold check",
		"station", t.stationID,
		"state", string(state),
		"precip_24hr", precip24,
		"threshold_in", thresholdIn,
	)
	return state, precip24
}

// Summary returns the most recent cycle's derived attributes. Before the
// first cycle it is the zero summary with RecordCount 0.
func (t *Tracker) Summary() domain.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary
}

// WaterState returns the last threshold classification, defaulting to dry
// before the first check.
func (t *Tracker) WaterState() domain.WaterState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.water == "" {
		return domain.WaterDry
	}
	return t.water
}

// fetchRows pulls one batch from the source. Failures log a warning and
// return nil; the cycle continues with whatever is already stored.
func (t *Tracker) fetchRows(ctx context.Context, log *slog.Logger) []domain.RawRow {
	fetchStart := time.Now()
	rows, err := t.source.FetchRows(ctx)
	t.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		t.metrics.FetchFailures.Inc()
		log.Warn("fetch failed, cycle degrades to zero rows", "error", err)
		return nil
	}
	t.metrics.RowsFetched.Add(float64(len(rows)))
	return rows
}

// ingest parses each row, resolves its month against now, and inserts it
// unless the slot is already occupied.
func (t *Tracker) ingest(log *slog.Logger, rows []domain.RawRow, now time.Time) (inserted, duplicates, skipped int) {
	for _, row := range rows {
		obs, ok := domain.ParseRow(row, t.detail)
		if !ok {
			skipped++
			log.Debug("row skipped, no parseable day or time", "day", row.Day, "time", row.Time)
			continue
		}

		ref := domain.ObservedRef(now, obs.DayOfMonth, obs.HourOfDay)
		obs.Year, obs.Month = ref.Year, ref.Month

		if t.store.InsertIfAbsent(ref.Address(), obs) {
			inserted++
		} else {
			duplicates++
		}
	}
	return inserted, duplicates, skipped
}

// publishSummary emits the cycle's attributes when a publisher is wired.
// Publish failures degrade to a warning; the cycle's stored state stands.
func (t *Tracker) publishSummary(ctx context.Context, log *slog.Logger, cycleID string, summary domain.Summary) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishSummary(ctx, t.stationID, cycleID, summary); err != nil {
		t.metrics.PublishFailures.Inc()
		log.Warn("publish summary failed", "error", err)
		return
	}
	t.metrics.AttributesPublished.Inc()
}
