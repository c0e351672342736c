package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-platform/internal/kafka"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/storage"
)

func newHandler(t *testing.T) (*kafka.AuditConsumerHandler, *storage.InMemoryStore) {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })
	store := storage.NewInMemoryStore()
	return &kafka.AuditConsumerHandler{Store: store, Log: log}, store
}

func TestRecordPersistsBookingEvent(t *testing.T) {
	handler, store := newHandler(t)

	stamp := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	err := handler.Record(context.Background(), &models.BookingEvent{
		Type:      models.EventBookingCancelled,
		BookingID: "bk-1",
		Actor:     "user-1",
		OldValue:  "confirmed",
		NewValue:  "cancelled",
		Timestamp: stamp,
	})
	require.NoError(t, err)

	records := store.AuditRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "booking:bk-1", records[0].Entity)
	assert.Equal(t, "user-1", records[0].Actor)
	assert.Equal(t, models.EventBookingCancelled, records[0].Action)
	assert.Equal(t, "confirmed", records[0].OldValue)
	assert.Equal(t, "cancelled", records[0].NewValue)
	assert.Equal(t, stamp, records[0].RecordedAt)
}

func TestRecordPrefersPaymentEntity(t *testing.T) {
	handler, store := newHandler(t)

	err := handler.Record(context.Background(), &models.BookingEvent{
		Type:      models.EventPaymentSuccess,
		BookingID: "bk-1",
		PaymentID: "pay-1",
		NewValue:  "success",
	})
	require.NoError(t, err)

	records := store.AuditRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "payment:pay-1", records[0].Entity)
	// Missing actor and timestamp get safe defaults.
	assert.Equal(t, "system", records[0].Actor)
	assert.False(t, records[0].RecordedAt.IsZero())
}

func TestMockProducerSwallowsPublishes(t *testing.T) {
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)
	defer producer.Close()

	err = producer.PublishBookingEvent(&models.BookingEvent{
		Type:      models.EventBookingCreated,
		BookingID: "bk-1",
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)
}
