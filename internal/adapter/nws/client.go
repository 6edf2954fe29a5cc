// Package nws fetches station observations from the National Weather
// Service API and flattens them into raw history rows.
package nws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/precip-history-service/internal/config"
	"github.com/couchcryptid/precip-history-service/internal/domain"
)

// api.weather.gov rejects anonymous clients, so every request carries an
// identifying User-Agent.
const userAgent = "precip-history-service/1.0 (github.com/couchcryptid/precip-history-service)"

// Client fetches recent observations for a single station. Calls go through a
// circuit breaker so a flapping upstream degrades to fast failures instead of
// a pile of timed-out cycles.
type Client struct {
	httpClient *http.Client
	baseURL    string
	stationID  string
	limit      int
	loc        *time.Location
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates an NWS API client for the configured station.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nws-observations",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.NWSTimeout},
		baseURL:    strings.TrimRight(cfg.NWSBaseURL, "/"),
		stationID:  cfg.StationID,
		limit:      cfg.FetchLimit,
		loc:        cfg.Location,
		breaker:    cb,
		logger:     logger,
	}
}

// FetchRows retrieves the station's most recent observations, newest first,
// flattened into raw rows. It implements tracker.RowSource.
func (c *Client) FetchRows(ctx context.Context) ([]domain.RawRow, error) {
	endpoint := fmt.Sprintf("%s/stations/%s/observations", c.baseURL, url.PathEscape(c.stationID))
	params := url.Values{"limit": []string{strconv.Itoa(c.limit)}}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, endpoint+"?"+params.Encode())
	})
	if err != nil {
		return nil, err
	}
	payload := result.(*observationResponse)

	rows := make([]domain.RawRow, 0, len(payload.Features))
	for _, feature := range payload.Features {
		row, ok := c.flattenFeature(feature)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	c.logger.Debug("fetched observations",
		"station", c.stationID,
		"features", len(payload.Features),
		"rows", len(rows),
	)
	return rows, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (*observationResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("observations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nws api error: status %d: %s", resp.StatusCode, string(body))
	}

	var payload observationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &payload, nil
}

// flattenFeature converts one observation into the raw row shape the tracker
// ingests. Features without a parseable timestamp are dropped; any other
// missing value becomes an empty string, which the row parser reads as zero.
func (c *Client) flattenFeature(feature observationFeature) (domain.RawRow, bool) {
	props := feature.Properties

	observed, err := time.Parse(time.RFC3339, props.Timestamp)
	if err != nil {
		c.logger.Debug("dropping observation with bad timestamp",
			"station", c.stationID,
			"timestamp", props.Timestamp,
		)
		return domain.RawRow{}, false
	}
	local := observed.In(c.loc)

	return domain.RawRow{
		Day:          strconv.Itoa(local.Day()),
		Time:         local.Format("15:04"),
		TemperatureF: formatMeasurement(props.Temperature, celsiusToFahrenheit, 1),
		DewpointF:    formatMeasurement(props.Dewpoint, celsiusToFahrenheit, 1),
		HumidityPct:  formatMeasurement(props.RelativeHumidity, nil, 0),
		WindMph:      formatMeasurement(props.WindSpeed, kmhToMph, 1),
		PressureInHg: formatMeasurement(props.BarometricPressure, pascalsToInHg, 2),
		VisibilityMi: formatMeasurement(props.Visibility, metersToMiles, 2),
		Weather:      props.TextDescription,
		Sky:          skyCover(props.CloudLayers),
		PrecipIn:     formatMeasurement(props.PrecipitationLastHour, mmToInches, 3),
	}, true
}

// formatMeasurement renders a possibly-null API value as a fixed-precision
// string, applying conv first when the API unit differs from the row unit.
func formatMeasurement(m measurement, conv func(float64) float64, precision int) string {
	if m.Value == nil {
		return ""
	}
	v := *m.Value
	if conv != nil {
		v = conv(v)
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// skyCover renders cloud layers the way observation history tables do:
// coverage codes joined low to high, e.g. "FEW SCT OVC".
func skyCover(layers []cloudLayer) string {
	parts := make([]string, 0, len(layers))
	for _, layer := range layers {
		if layer.Amount != "" {
			parts = append(parts, layer.Amount)
		}
	}
	return strings.Join(parts, " ")
}

// The API reports SI units; rows carry the units the observation tables use.

func celsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }

func kmhToMph(v float64) float64 { return v / 1.609344 }

func pascalsToInHg(v float64) float64 { return v / 3386.389 }

func metersToMiles(v float64) float64 { return v / 1609.344 }

func mmToInches(v float64) float64 { return v / 25.4 }

// NWS API response types. Numeric properties arrive as {unitCode, value}
// pairs where value is null for quantities the station did not measure.

type observationResponse struct {
	Features []observationFeature `json:"features"`
}

type observationFeature struct {
	Properties observationProperties `json:"properties"`
}

type observationProperties struct {
	Timestamp             string       `json:"timestamp"`
	TextDescription       string       `json:"textDescription"`
	Temperature           measurement  `json:"temperature"`
	Dewpoint              measurement  `json:"dewpoint"`
	RelativeHumidity      measurement  `json:"relativeHumidity"`
	WindSpeed             measurement  `json:"windSpeed"`
	BarometricPressure    measurement  `json:"barometricPressure"`
	Visibility            measurement  `json:"visibility"`
	PrecipitationLastHour measurement  `json:"precipitationLastHour"`
	CloudLayers           []cloudLayer `json:"cloudLayers"`
}

type measurement struct {
	UnitCode string   `json:"unitCode"`
	Value    *float64 `json:"value"`
}

type cloudLayer struct {
	Amount string `json:"amount"`
}
