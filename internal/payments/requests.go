package payments

import (
	"context"

	"booking-platform/internal/models"
	"booking-platform/internal/pipeline"
)

// Pipeline request wrappers for the payment operations. None of them cache:
// payment state is exactly what must never be served stale.

type InitiateCommand struct {
	Req *models.InitiatePaymentRequest
}

func (InitiateCommand) Name() string { return "payment.initiate" }

type RefundCommand struct {
	Req *models.RefundRequest
}

func (RefundCommand) Name() string { return "payment.refund" }

type CallbackCommand struct {
	Payload   []byte
	Signature string
}

func (CallbackCommand) Name() string { return "payment.callback" }

type GetQuery struct {
	PaymentID string
}

func (GetQuery) Name() string { return "payment.get" }

// InitiateRules validates the initiate request shape.
func InitiateRules() []pipeline.Rule {
	return []pipeline.Rule{
		func(_ context.Context, req pipeline.Request) []pipeline.Violation {
			cmd, ok := req.(InitiateCommand)
			if !ok {
				return nil
			}
			var violations []pipeline.Violation
			if cmd.Req.BookingID == "" {
				violations = append(violations, pipeline.Violation{Field: "booking_id", Message: "booking id is required"})
			}
			if cmd.Req.Method == "" {
				violations = append(violations, pipeline.Violation{Field: "method", Message: "payment method is required"})
			}
			return violations
		},
	}
}

// RefundRules validates that the refund request identifies a payment.
func RefundRules() []pipeline.Rule {
	return []pipeline.Rule{
		func(_ context.Context, req pipeline.Request) []pipeline.Violation {
			cmd, ok := req.(RefundCommand)
			if !ok {
				return nil
			}
			if cmd.Req.PaymentID == "" && cmd.Req.BookingID == "" {
				return []pipeline.Violation{{Field: "payment_id", Message: "payment id or booking id is required"}}
			}
			return nil
		},
	}
}
