package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/precip-history-service/internal/config"
	"github.com/couchcryptid/precip-history-service/internal/domain"
)

// Values of the event_type message header.
const (
	EventTypeSummary    = "summary"
	EventTypeWaterState = "water-state"
)

// Publisher produces attribute events to the station attribute topic.
// It implements tracker.AttributePublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured attribute topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishSummary serializes and publishes one cycle's attribute set. Messages
// are keyed by station ID so consumers see each station's attribute history
// in publication order.
func (p *Publisher) PublishSummary(ctx context.Context, stationID, cycleID string, s domain.Summary) error {
	msg, err := serializeSummary(stationID, cycleID, s)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// PublishWaterState publishes the wet or dry classification produced by the
// daily threshold check.
func (p *Publisher) PublishWaterState(ctx context.Context, stationID string, state domain.WaterState, precip24 float64) error {
	msg, err := serializeWaterState(stationID, state, precip24)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// summaryEnvelope is the wire form of a per-cycle attribute set. The newest
// address uses the zero-padded published form.
type summaryEnvelope struct {
	StationID     string             `json:"station_id"`
	CycleID       string             `json:"cycle_id"`
	CapturedAt    time.Time          `json:"captured_at"`
	NewestAddress string             `json:"newest_address"`
	RecordCount   int                `json:"record_count"`
	Attributes    []domain.Attribute `json:"attributes"`
}

// waterEnvelope is the wire form of a threshold-check classification.
type waterEnvelope struct {
	StationID  string            `json:"station_id"`
	State      domain.WaterState `json:"state"`
	Precip24Hr float64           `json:"precip_24hr"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// serializeSummary marshals a cycle summary into a Kafka message.
func serializeSummary(stationID, cycleID string, s domain.Summary) (kafkago.Message, error) {
	data, err := json.Marshal(summaryEnvelope{
		StationID:     stationID,
		CycleID:       cycleID,
		CapturedAt:    s.CapturedAt,
		NewestAddress: s.NewestAddress.String(),
		RecordCount:   s.RecordCount,
		Attributes:    s.Attributes(),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize summary event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(stationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypeSummary)},
			{Key: "captured_at", Value: []byte(s.CapturedAt.Format(time.RFC3339))},
		},
	}, nil
}

// serializeWaterState marshals a threshold classification into a Kafka message.
func serializeWaterState(stationID string, state domain.WaterState, precip24 float64) (kafkago.Message, error) {
	checkedAt := time.Now().UTC()
	data, err := json.Marshal(waterEnvelope{
		StationID:  stationID,
		State:      state,
		Precip24Hr: precip24,
		CheckedAt:  checkedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize water state event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(stationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypeWaterState)},
			{Key: "checked_at", Value: []byte(checkedAt.Format(time.RFC3339))},
		},
	}, nil
}
