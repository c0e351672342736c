package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/storage"
	"booking-platform/internal/utils"
)

// AuditConsumer tails every booking/payment topic and persists one audit
// record per event. It is best-effort by design: a failed write is logged
// and the message skipped, never replayed against the originating state.
type AuditConsumer struct {
	consumer sarama.ConsumerGroup
	topics   []string
	store    storage.Store
	log      *logger.Logger
}

func NewAuditConsumer(brokers []string, groupID string, store storage.Store, log *logger.Logger) (*AuditConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	topics := []string{
		"booking-created", "booking-confirmed", "booking-cancelled",
		"payment-success", "payment-failed", "payment-refunded",
	}

	return &AuditConsumer{consumer: consumer, topics: topics, store: store, log: log}, nil
}

func (c *AuditConsumer) Consume(ctx context.Context) error {
	handler := &AuditConsumerHandler{Store: c.store, Log: c.log}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consumer.Consume(ctx, c.topics, handler); err != nil {
				c.log.Error("KAFKA", fmt.Sprintf("Consumer error: %v", err))
				return err
			}
		}
	}
}

func (c *AuditConsumer) Close() error {
	return c.consumer.Close()
}

// AuditConsumerHandler is exported so tests can drive ConsumeClaim directly.
type AuditConsumerHandler struct {
	Store storage.Store
	Log   *logger.Logger
}

func (h *AuditConsumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *AuditConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *AuditConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event models.BookingEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			h.Log.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal event: %v", err))
			session.MarkMessage(message, "")
			continue
		}

		if err := h.Record(session.Context(), &event); err != nil {
			h.Log.Error("KAFKA", fmt.Sprintf("Failed to record audit entry for %s: %v", event.BookingID, err))
			continue
		}

		session.MarkMessage(message, "")
	}
	return nil
}

// Record persists the audit row for one event.
func (h *AuditConsumerHandler) Record(ctx context.Context, event *models.BookingEvent) error {
	entity := "booking:" + event.BookingID
	if event.PaymentID != "" {
		entity = "payment:" + event.PaymentID
	}

	rec := &models.AuditRecord{
		AuditID:    utils.GenerateUUID(),
		Actor:      event.Actor,
		Action:     event.Type,
		Entity:     entity,
		OldValue:   event.OldValue,
		NewValue:   event.NewValue,
		RecordedAt: event.Timestamp,
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	if rec.Actor == "" {
		rec.Actor = "system"
	}
	return h.Store.SaveAuditRecord(ctx, rec)
}
