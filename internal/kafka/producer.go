package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"booking-platform/internal/logger"
	"booking-platform/internal/models"
)

// Producer publishes booking and payment events. Delivery is fire-and-
// forget from the caller's point of view: a publish failure is logged and
// never rolls back the state change that produced the event.
type Producer struct {
	producer sarama.SyncProducer
	mockMode bool
	log      *logger.Logger
}

func NewProducer(brokers []string, mockMode bool, log *logger.Logger) (*Producer, error) {
	if mockMode {
		log.LogKafka("MOCK_MODE", "producer", "Running in mock mode - no actual Kafka connection")
		return &Producer{mockMode: true, log: log}, nil
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	log.LogKafka("CONNECTED", "producer", fmt.Sprintf("Connected to Kafka brokers: %v", brokers))
	return &Producer{producer: producer, log: log}, nil
}

func (p *Producer) PublishBookingEvent(event *models.BookingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := topicForEvent(event.Type)

	if p.mockMode {
		p.log.LogKafka("MOCK_PUBLISH", topic, fmt.Sprintf("Mock publishing %s for booking %s", event.Type, event.BookingID))
		return nil
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.BookingID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error("KAFKA", fmt.Sprintf("Failed to send message to topic %s: %v", topic, err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.log.LogKafka("PUBLISHED", topic, fmt.Sprintf("Message sent to partition %d at offset %d for booking %s", partition, offset, event.BookingID))
	return nil
}

func topicForEvent(eventType string) string {
	switch eventType {
	case models.EventBookingCreated:
		return "booking-created"
	case models.EventBookingConfirmed:
		return "booking-confirmed"
	case models.EventBookingCancelled:
		return "booking-cancelled"
	case models.EventPaymentSuccess:
		return "payment-success"
	case models.EventPaymentFailed:
		return "payment-failed"
	case models.EventPaymentRefunded:
		return "payment-refunded"
	default:
		return "booking-events"
	}
}

func (p *Producer) Close() error {
	if p.mockMode {
		p.log.LogKafka("MOCK_CLOSE", "producer", "Mock producer closed")
		return nil
	}
	if p.producer != nil {
		p.log.LogKafka("CLOSING", "producer", "Closing Kafka producer connection")
		return p.producer.Close()
	}
	return nil
}
