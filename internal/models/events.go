package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentSuccess   = "payment.success"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
)

// BookingEvent is the fire-and-forget envelope published to Kafka for
// notification fan-out and the audit consumer. Delivery failure never
// rolls back the state change that produced it.
type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	PaymentID string    `json:"payment_id,omitempty"`
	Actor     string    `json:"actor"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditRecord is one state mutation as seen by the audit trail.
type AuditRecord struct {
	bun.BaseModel `bun:"table:audit_records"`

	AuditID    string    `json:"audit_id" bun:"audit_id,pk"`
	Actor      string    `json:"actor" bun:"actor"`
	Action     string    `json:"action" bun:"action"`
	Entity     string    `json:"entity" bun:"entity"`
	OldValue   string    `json:"old_value" bun:"old_value"`
	NewValue   string    `json:"new_value" bun:"new_value"`
	RecordedAt time.Time `json:"recorded_at" bun:"recorded_at"`
}
