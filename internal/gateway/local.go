package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"booking-platform/internal/logger"
	"booking-platform/internal/utils"
)

// LocalGateway is the in-process gateway used in dev and tests. Callbacks
// are HMAC-SHA256 signed with a shared secret, so the verify-before-trust
// path is exercised the same way as with the real gateway.
type LocalGateway struct {
	secret []byte
	log    *logger.Logger

	mutex    sync.Mutex
	refunded map[string]string // transactionID -> refundID
}

func NewLocalGateway(secret string, log *logger.Logger) *LocalGateway {
	return &LocalGateway{
		secret:   []byte(secret),
		log:      log,
		refunded: make(map[string]string),
	}
}

// LocalCallback is the wire shape a local callback payload carries.
type LocalCallback struct {
	PaymentID     string  `json:"payment_id"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Success       bool    `json:"success"`
	Reason        string  `json:"reason,omitempty"`
}

func (g *LocalGateway) CreatePaymentURL(ctx context.Context, paymentID string, amount float64, description, returnURL string) (string, string, error) {
	select {
	case <-ctx.Done():
		return "", "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, ctx.Err())
	default:
	}

	transactionID := utils.GenerateTransactionID()
	url := fmt.Sprintf("https://pay.local/checkout/%s?txn=%s", paymentID, transactionID)
	g.log.LogPayment("CHECKOUT", paymentID, fmt.Sprintf("Local checkout %s issued", transactionID))
	return url, transactionID, nil
}

// Sign computes the signature a caller must attach to payload. Exposed so
// tests and the dev checkout page can produce valid callbacks.
func (g *LocalGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *LocalGateway) VerifyCallback(payload []byte, signature string) (*CallbackResult, error) {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed signature", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, g.secret)
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return nil, ErrInvalidSignature
	}

	var cb LocalCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", ErrInvalidSignature)
	}

	return &CallbackResult{
		Succeeded:     cb.Success,
		PaymentID:     cb.PaymentID,
		TransactionID: cb.TransactionID,
		Amount:        cb.Amount,
		FailureReason: cb.Reason,
	}, nil
}

func (g *LocalGateway) Refund(ctx context.Context, transactionID string, amount float64, reason string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, ctx.Err())
	default:
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, done := g.refunded[transactionID]; done {
		return "", ErrAlreadyRefunded
	}
	refundID := utils.GenerateID("ref")
	g.refunded[transactionID] = refundID
	g.log.LogPayment("REFUND", transactionID, fmt.Sprintf("Local refund %s (%s)", refundID, reason))
	return refundID, nil
}
