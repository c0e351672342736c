package gateway_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-platform/internal/gateway"
	"booking-platform/internal/logger"
)

func newLocal(t *testing.T) *gateway.LocalGateway {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })
	return gateway.NewLocalGateway("secret", log)
}

func TestVerifyCallbackRoundTrip(t *testing.T) {
	gw := newLocal(t)

	payload, err := json.Marshal(gateway.LocalCallback{
		PaymentID:     "pay-1",
		TransactionID: "txn-1",
		Amount:        99.5,
		Success:       true,
	})
	require.NoError(t, err)

	result, err := gw.VerifyCallback(payload, gw.Sign(payload))
	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, "pay-1", result.PaymentID)
	assert.Equal(t, "txn-1", result.TransactionID)
	assert.Equal(t, 99.5, result.Amount)
}

func TestVerifyCallbackRejectsTampering(t *testing.T) {
	gw := newLocal(t)

	payload := []byte(`{"payment_id":"pay-1","success":true}`)
	signature := gw.Sign(payload)

	tampered := []byte(`{"payment_id":"pay-1","success":false}`)
	_, err := gw.VerifyCallback(tampered, signature)
	assert.ErrorIs(t, err, gateway.ErrInvalidSignature)

	_, err = gw.VerifyCallback(payload, "not-hex!")
	assert.ErrorIs(t, err, gateway.ErrInvalidSignature)
}

func TestRefundIsIdempotentPerTransaction(t *testing.T) {
	gw := newLocal(t)
	ctx := context.Background()

	refundID, err := gw.Refund(ctx, "txn-1", 50, "test")
	require.NoError(t, err)
	assert.NotEmpty(t, refundID)

	_, err = gw.Refund(ctx, "txn-1", 50, "again")
	assert.ErrorIs(t, err, gateway.ErrAlreadyRefunded)
}

func TestCreatePaymentURLHonorsContext(t *testing.T) {
	gw := newLocal(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := gw.CreatePaymentURL(ctx, "pay-1", 10, "desc", "")
	assert.ErrorIs(t, err, gateway.ErrGatewayUnavailable)
}
