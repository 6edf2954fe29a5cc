// Command precipcheck runs one fetch-ingest-purge-aggregate cycle against a
// live station and prints the derived attribute set without publishing
// anywhere. It is the field diagnostic for addressing and retention: point it
// at a station and compare the printed attributes against the station's own
// observation history page.
//
// Usage:
//
//	go run ./cmd/precipcheck -station KPWM
//	go run ./cmd/precipcheck -station KSEA -timezone America/Los_Angeles -retention 72
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/precip-history-service/internal/adapter/nws"
	"github.com/couchcryptid/precip-history-service/internal/config"
	"github.com/couchcryptid/precip-history-service/internal/domain"
	"github.com/couchcryptid/precip-history-service/internal/history"
	"github.com/couchcryptid/precip-history-service/internal/observability"
	"github.com/couchcryptid/precip-history-service/internal/tracker"
)

func main() {
	station := flag.String("station", "", "station identifier, e.g. KPWM (overrides STATION_ID)")
	timezone := flag.String("timezone", "", "IANA timezone for day bucketing (overrides TIMEZONE)")
	retention := flag.Int("retention", 0, "retention window in hours, 48-168 (overrides RETENTION_HOURS)")
	detail := flag.Int("detail", 0, "detail level 1-3 (overrides DETAIL_LEVEL)")
	threshold := flag.Float64("threshold", -1, "rain threshold in inches (overrides RAIN_THRESHOLD_IN)")
	verbose := flag.Bool("v", false, "log cycle detail to stderr")
	flag.Parse()

	if code := run(*station, *timezone, *retention, *detail, *threshold, *verbose); code != 0 {
		os.Exit(code)
	}
}

// check tracks pass/fail for one integrity check.
type check struct {
	name   string
	errors []string
}

func (c *check) errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *check) passed() bool { return len(c.errors) == 0 }

// fixedRows feeds pre-fetched rows into the tracker, so the upstream fetch
// happens exactly once and its errors stay visible instead of being absorbed
// by the cycle.
type fixedRows []domain.RawRow

func (r fixedRows) FetchRows(_ context.Context) ([]domain.RawRow, error) { return r, nil }

func run(station, timezone string, retention, detail int, threshold float64, verbose bool) int {
	// Flags override the environment so the tool works standalone.
	if station != "" {
		os.Setenv("STATION_ID", station)
	}
	if timezone != "" {
		os.Setenv("TIMEZONE", timezone)
	}
	if retention > 0 {
		os.Setenv("RETENTION_HOURS", strconv.Itoa(retention))
	}
	if detail > 0 {
		os.Setenv("DETAIL_LEVEL", strconv.Itoa(detail))
	}
	if threshold >= 0 {
		os.Setenv("RAIN_THRESHOLD_IN", strconv.FormatFloat(threshold, 'f', -1, 64))
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// ── Fetch ──
	fmt.Println("=== Station Precipitation History Check ===")
	fmt.Println()

	rows, err := nws.NewClient(cfg, logger).FetchRows(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: fetch observations: %v\n", err)
		return 1
	}

	fmt.Printf("  %-24s %s\n", "station", cfg.StationID)
	fmt.Printf("  %-24s %s\n", "timezone", cfg.Timezone)
	fmt.Printf("  %-24s %dh\n", "retention window", cfg.RetentionHours)
	fmt.Printf("  %-24s %d\n", "detail level", cfg.DetailLevel)
	fmt.Printf("  %-24s %d\n", "fetched rows", len(rows))
	fmt.Println()

	// ── Run one cycle ──
	// One-shot run: nothing scrapes these collectors, so keep them out of the
	// default registry.
	metrics := observability.NewMetricsForTesting()
	store := history.NewStore()
	trk := tracker.New(cfg, store, fixedRows(rows), nil, logger, metrics)

	s := trk.RunCycle(ctx)

	fmt.Printf("  %-24s %s\n", "captured at", s.CapturedAt.Format(time.RFC3339))
	fmt.Printf("  %-24s %s\n", "newest address", s.NewestAddress)
	fmt.Printf("  %-24s %d\n", "records retained", s.RecordCount)
	fmt.Println()

	for _, attr := range s.Attributes() {
		fmt.Printf("  %-24s %s\n", attr.Name, attr.Value)
	}

	state, precip24 := trk.CheckThreshold(ctx, cfg.RainThresholdIn)
	fmt.Println()
	fmt.Printf("  %-24s %s (24h %.3f in vs threshold %.3f in)\n", "water state", state, precip24, cfg.RainThresholdIn)

	// ── Integrity checks ──
	checks := []*check{
		checkRetention(store, cfg),
		checkAddressing(store, cfg),
		checkAttributes(s),
	}

	fmt.Println()
	allPassed := true
	for _, c := range checks {
		status := "\033[32mPASS\033[0m"
		if !c.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(c.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", c.name, status)
	}

	for _, c := range checks {
		if c.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", c.name)
		for i, e := range c.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if s.RecordCount == 0 {
		fmt.Println("\nNo rows ingested; check the station ID or upstream availability.")
		return 1
	}
	if !allPassed {
		fmt.Println("\nCheck FAILED.")
		return 1
	}
	fmt.Println("\nAll checks passed.")
	return 0
}

// checkRetention verifies the store never holds more than the window allows.
func checkRetention(store *history.Store, cfg *config.Config) *check {
	c := &check{name: "Retention: record count within window"}
	if n := store.Len(); n > cfg.RetentionHours+1 {
		c.errorf("store holds %d records, window allows at most %d", n, cfg.RetentionHours+1)
	}
	return c
}

// checkAddressing verifies every retained record sits inside the live
// address set for the current hour.
func checkAddressing(store *history.Store, cfg *config.Config) *check {
	c := &check{name: "Addressing: retained records in live set"}

	now := time.Now().In(cfg.Location)
	live := history.LiveAddresses(
		domain.HourOfMonth(now),
		cfg.RetentionHours,
		domain.MaxHoursInMonth(now),
		domain.MaxHoursInPrevMonth(now),
	)

	for _, addr := range store.AllAddresses() {
		if !live.Contains(addr) {
			c.errorf("address %s survives outside the live set", addr)
		}
	}
	return c
}

// checkAttributes verifies the full attribute set rendered with values.
func checkAttributes(s domain.Summary) *check {
	c := &check{name: "Attributes: full set rendered"}

	attrs := s.Attributes()
	if len(attrs) != 16 {
		c.errorf("expected 16 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Value == "" {
			c.errorf("attribute %s rendered empty", attr.Name)
		}
	}
	return c
}
