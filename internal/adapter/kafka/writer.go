package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/montreal-aqi/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces station readings to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the readings of one poll cycle in a
// single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, payloads []domain.StationPayload) error {
	if len(payloads) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(payloads))
	for i := range payloads {
		msg, err := serializeToMessage(payloads[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d readings: %w", len(msgs), err)
	}
	w.logger.Debug("published readings", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a station payload into a Kafka message keyed by
// station so that readings of one station stay on one partition.
func serializeToMessage(p domain.StationPayload) (kafkago.Message, error) {
	observedAt, err := observationTimestamp(p)
	if err != nil {
		return kafkago.Message{}, err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station reading: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(p.StationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "main_pollutant", Value: []byte(p.MainPollutant)},
			{Key: "observed_at", Value: []byte(observedAt.Format(time.RFC3339))},
		},
	}, nil
}

func observationTimestamp(p domain.StationPayload) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, p.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("station %s: parse date: %w", p.StationID, err)
	}
	return day.Add(time.Duration(p.Hour) * time.Hour), nil
}
