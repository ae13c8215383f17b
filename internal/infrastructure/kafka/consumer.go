package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/honeynil/BookStoreTochka/internal/models"
	"github.com/honeynil/BookStoreTochka/internal/repository"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// Consumer stores purchase and download usage events read from Kafka.
type Consumer struct {
	reader    *kafka.Reader
	usageRepo repository.UsageRepository
}

func NewConsumer(brokers, topics []string, groupID string, usageRepo repository.UsageRepository) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			GroupTopics: topics,
			GroupID:     groupID,
			MinBytes:    10e3,
			MaxBytes:    10e6,
		}),
		usageRepo: usageRepo,
	}
}

// Consume reads until ctx is cancelled. Malformed messages are logged and
// skipped; the offset is committed either way.
func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Kafka consumer stopped")
				return
			}
			slog.Error("failed to read Kafka message", "error", err)
			continue
		}

		if err := c.handleMessage(ctx, msg); err != nil {
			slog.Error("failed to handle usage event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.UsageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal usage event: %w", err)
	}

	switch event.Type {
	case models.UsagePurchaseCompleted, models.UsageDownload:
	default:
		return fmt.Errorf("%w: unknown usage event type %q", pkgerrors.ErrInvalidInput, event.Type)
	}
	if event.EventID == "" || event.BuyerID == 0 || event.BookID == 0 {
		return fmt.Errorf("%w: usage event missing event_id, buyer_id or book_id", pkgerrors.ErrInvalidInput)
	}

	stored, err := c.usageRepo.Record(ctx, &event)
	if err != nil {
		return err
	}
	slog.Info("usage event processed", "topic", msg.Topic, "event_id", event.EventID, "type", event.Type, "stored", stored)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
