package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusSuccess    PaymentStatus = "success"
	StatusFailed     PaymentStatus = "failed"
	StatusRefunded   PaymentStatus = "refunded"
	StatusCancelled  PaymentStatus = "cancelled"
)

// IsTerminal reports whether no further transition is legal from s,
// the explicit Success -> Refunded exception aside.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	PaymentID     string        `json:"payment_id" bun:"payment_id,pk"`
	BookingID     string        `json:"booking_id" bun:"booking_id"`
	Amount        float64       `json:"amount" bun:"amount"`
	Method        string        `json:"method" bun:"method"`
	Status        PaymentStatus `json:"status" bun:"status"`
	TransactionID string        `json:"transaction_id,omitempty" bun:"transaction_id"`
	RefundID      string        `json:"refund_id,omitempty" bun:"refund_id"`
	URL           string        `json:"url,omitempty" bun:"url"`
	CreatedDate   time.Time     `json:"created_date" bun:"created_date"`
	UpdatedDate   time.Time     `json:"updated_date" bun:"updated_date"`
}

type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Method    string `json:"method" binding:"required"`
	ReturnURL string `json:"return_url"`
}

type RefundRequest struct {
	PaymentID string `json:"payment_id"`
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}
