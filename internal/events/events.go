// Package events publishes pricing run notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// RunCompleted is emitted after a pricing run is persisted.
type RunCompleted struct {
	RunID         string    `json:"run_id"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	SourceFile    string    `json:"source_file"`
	ConfigVersion int64     `json:"config_version"`
	Currency      string    `json:"currency"`
	RowCount      int       `json:"row_count"`
	ErrorCount    int       `json:"error_count"`
}

type Publisher interface {
	PublishRunCompleted(ctx context.Context, ev RunCompleted) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON messages keyed by run id.
type Kafka struct {
	writer messageWriter
}

// NewKafkaWriter returns a writer for topic on the given brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafka(w messageWriter) *Kafka {
	return &Kafka{writer: w}
}

func (k *Kafka) PublishRunCompleted(ctx context.Context, ev RunCompleted) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode run event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte("run-" + ev.RunID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("pricing.run.completed")},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Noop discards events; it is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishRunCompleted(context.Context, RunCompleted) error { return nil }

func (Noop) Close() error { return nil }
