package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"booking-platform/internal/logger"
)

// StripeGateway settles through Stripe Checkout: CreatePaymentURL opens a
// Checkout Session and hands back its redirect URL, callbacks arrive as
// signed webhook events, refunds go through the Refunds API.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	log           *logger.Logger
}

func NewStripeGateway(apiKey, webhookSecret string, log *logger.Logger) (*StripeGateway, error) {
	if apiKey == "" {
		return nil, errors.New("stripe API key not configured")
	}
	sc := client.New(apiKey, nil)
	log.Info("STRIPE", "Stripe client initialized")
	return &StripeGateway{client: sc, webhookSecret: webhookSecret, log: log}, nil
}

func (g *StripeGateway) CreatePaymentURL(ctx context.Context, paymentID string, amount float64, description, returnURL string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(returnURL),
		CancelURL:         stripe.String(returnURL),
		ClientReferenceID: stripe.String(paymentID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(int64(amount * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("payment_id", paymentID)

	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session for %s: %v", paymentID, err))
		return "", "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	g.log.LogPayment("CHECKOUT", paymentID, fmt.Sprintf("Checkout session %s created", session.ID))
	return session.URL, session.ID, nil
}

func (g *StripeGateway) VerifyCallback(payload []byte, signature string) (*CallbackResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload", ErrInvalidSignature)
	}

	result := &CallbackResult{
		PaymentID:     session.ClientReferenceID,
		TransactionID: session.ID,
		Amount:        float64(session.AmountTotal) / 100,
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		result.Succeeded = true
	case "checkout.session.async_payment_failed", "checkout.session.expired":
		result.Succeeded = false
		result.FailureReason = string(event.Type)
	default:
		return nil, fmt.Errorf("%w: unhandled event type %s", ErrInvalidSignature, event.Type)
	}

	return result, nil
}

func (g *StripeGateway) Refund(ctx context.Context, transactionID string, amount float64, reason string) (string, error) {
	session, err := g.client.CheckoutSessions.Get(transactionID, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if session.PaymentIntent == nil {
		return "", fmt.Errorf("%w: session %s has no payment intent", ErrGatewayUnavailable, transactionID)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(session.PaymentIntent.ID),
		Amount:        stripe.Int64(int64(amount * 100)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx

	refund, err := g.client.Refunds.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			g.log.LogPayment("REFUND", transactionID, "Charge already refunded at gateway")
			return "", ErrAlreadyRefunded
		}
		g.log.Error("STRIPE", fmt.Sprintf("Refund failed for %s: %v", transactionID, err))
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	g.log.LogPayment("REFUND", transactionID, fmt.Sprintf("Refund %s created (%s)", refund.ID, reason))
	return refund.ID, nil
}
