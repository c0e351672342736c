package gateway

import (
	"context"
	"errors"
)

var (
	// ErrGatewayUnavailable means the external call failed or timed out and
	// no state should be assumed; the whole operation is safe to retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrInvalidSignature means the callback payload cannot be trusted.
	ErrInvalidSignature = errors.New("invalid callback signature")

	// ErrAlreadyRefunded is a refund retry hitting a transaction the
	// gateway already reversed; callers treat it as success.
	ErrAlreadyRefunded = errors.New("transaction already refunded")
)

// CallbackResult is the verified content of a gateway webhook.
type CallbackResult struct {
	Succeeded     bool
	PaymentID     string
	TransactionID string
	Amount        float64
	FailureReason string
}

// PaymentGateway is the external settlement collaborator. Every call takes
// the caller's context; a deadline expiry leaves gateway state unknown and
// local state untouched.
type PaymentGateway interface {
	// CreatePaymentURL registers the charge and returns the redirect URL
	// plus the gateway's correlation id for it.
	CreatePaymentURL(ctx context.Context, paymentID string, amount float64, description, returnURL string) (url, transactionID string, err error)

	// VerifyCallback authenticates a webhook payload before any field of
	// it is trusted.
	VerifyCallback(payload []byte, signature string) (*CallbackResult, error)

	// Refund reverses a settled transaction and returns the refund id.
	Refund(ctx context.Context, transactionID string, amount float64, reason string) (string, error)
}
