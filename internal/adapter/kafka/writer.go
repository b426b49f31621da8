package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces one message per unit of work to a topic named after the unit.
// It implements dispatch.Client.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
	now    func() time.Time
}

// NewWriter creates a Kafka producer. Topics are set per message, so one
// writer serves every unit.
func NewWriter(brokers []string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger, now: time.Now}
}

// Submit publishes payload to the unit's topic. The submission is accepted
// once every in-sync replica has acknowledged the write.
func (w *Writer) Submit(ctx context.Context, unit string, payload []byte) (dispatch.Ack, error) {
	msg, err := buildMessage(unit, payload, w.now())
	if err != nil {
		return dispatch.Ack{}, err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return dispatch.Ack{}, fmt.Errorf("publish %s: %w", unit, err)
	}
	w.logger.Debug("unit published", "topic", unit, "key", string(msg.Key))
	return dispatch.Ack{}, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// buildMessage keys the message by location_id so every unit of work for one
// location lands on the same partition.
func buildMessage(unit string, payload []byte, at time.Time) (kafkago.Message, error) {
	var key struct {
		LocationID *int64 `json:"location_id"`
	}
	if err := json.Unmarshal(payload, &key); err != nil {
		return kafkago.Message{}, fmt.Errorf("decode %s payload: %w", unit, err)
	}
	msg := kafkago.Message{
		Topic: unit,
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "unit", Value: []byte(unit)},
			{Key: "submitted_at", Value: []byte(at.UTC().Format(time.RFC3339))},
		},
	}
	if key.LocationID != nil {
		msg.Key = []byte(strconv.FormatInt(*key.LocationID, 10))
	}
	return msg, nil
}
