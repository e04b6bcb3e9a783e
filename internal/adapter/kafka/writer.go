package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/config"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes conversion manifest rows to a Kafka topic.
// It implements pipeline.ManifestLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured manifest topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaManifestTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one manifest row and writes it to the manifest
// topic, keyed by input file name so rows for the same file land on the
// same partition.
func (w *Writer) Publish(ctx context.Context, result domain.ConversionResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ConversionResult into a Kafka message.
func serializeToMessage(result domain.ConversionResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize manifest row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(filepath.Base(result.InputFile)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(result.Status)},
			{Key: "processed_at", Value: []byte(result.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
