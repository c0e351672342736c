package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-platform/internal/gateway"
	"booking-platform/internal/kafka"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/storage"
	"booking-platform/internal/utils"
)

// ConfirmFunc is the hook a successful callback fires exactly once per
// payment; main wires it to the booking orchestrator.
type ConfirmFunc func(ctx context.Context, bookingID string) error

// Service drives payments along the state machine. Every status move is a
// compare-and-set in the store, which is what makes duplicate and
// out-of-order gateway callbacks safe.
type Service struct {
	store    storage.Store
	gw       gateway.PaymentGateway
	producer *kafka.Producer
	log      *logger.Logger
	timeout  time.Duration
	confirm  ConfirmFunc
}

func NewService(store storage.Store, gw gateway.PaymentGateway, producer *kafka.Producer, log *logger.Logger, timeout time.Duration) *Service {
	return &Service{
		store:    store,
		gw:       gw,
		producer: producer,
		log:      log,
		timeout:  timeout,
	}
}

// SetConfirmHook installs the booking-confirmed trigger. Set once at wiring
// time, before any callback can arrive.
func (s *Service) SetConfirmHook(confirm ConfirmFunc) {
	s.confirm = confirm
}

// Initiate creates (or resumes) the payment for a booking and obtains the
// gateway redirect URL. A gateway failure leaves the payment Pending and
// the whole call safe to retry.
func (s *Service) Initiate(ctx context.Context, bookingID string, amount float64, method, returnURL string) (*models.Payment, error) {
	payment, err := s.store.GetPaymentByBookingID(ctx, bookingID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}

	if payment != nil {
		switch payment.Status {
		case models.StatusPending:
			s.log.LogPayment("RESUME", payment.PaymentID, "Retrying gateway call for pending payment")
		case models.StatusProcessing:
			s.log.LogPayment("RESUME", payment.PaymentID, "Payment already processing, returning existing URL")
			return payment, nil
		case models.StatusFailed, models.StatusCancelled:
			// A dead attempt does not block the booking; open a new one.
			s.log.LogPayment("RETRY", payment.PaymentID, fmt.Sprintf("Prior attempt %s, opening a fresh payment", payment.Status))
			payment = nil
		default:
			s.log.LogPayment("REJECTED", payment.PaymentID, fmt.Sprintf("Cannot initiate from status %s", payment.Status))
			return nil, ErrIllegalTransition
		}
	}
	if payment == nil {
		payment = &models.Payment{
			PaymentID:   utils.GenerateUUID(),
			BookingID:   bookingID,
			Amount:      amount,
			Method:      method,
			Status:      models.StatusPending,
			CreatedDate: time.Now(),
			UpdatedDate: time.Now(),
		}
		if err := s.store.SavePayment(ctx, payment); err != nil {
			return nil, fmt.Errorf("failed to save payment: %w", err)
		}
		s.log.LogPayment("CREATE", payment.PaymentID, fmt.Sprintf("Payment created for booking %s, amount %.2f", bookingID, amount))
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url, txnID, err := s.gw.CreatePaymentURL(gwCtx, payment.PaymentID, amount, "Booking "+bookingID, returnURL)
	if err != nil {
		// State unchanged; the caller may retry the whole operation.
		s.log.LogPayment("GATEWAY_DOWN", payment.PaymentID, err.Error())
		return nil, fmt.Errorf("%w: %v", gateway.ErrGatewayUnavailable, err)
	}

	payment.URL = url
	payment.TransactionID = txnID
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to store gateway reference: %w", err)
	}

	if err := s.store.UpdatePaymentStatus(ctx, payment.PaymentID, models.StatusPending, models.StatusProcessing); err != nil {
		if !errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("failed to mark payment processing: %w", err)
		}
		// A callback can land before we get here; that's fine as long as
		// the payment has moved forward, not sideways.
		current, readErr := s.store.GetPayment(ctx, payment.PaymentID)
		if readErr != nil {
			return nil, readErr
		}
		payment.Status = current.Status
	} else {
		payment.Status = models.StatusProcessing
	}

	s.log.LogPayment("INITIATED", payment.PaymentID, "Redirect URL issued")
	return payment, nil
}

// HandleCallback verifies and applies one gateway callback. Duplicates are
// success no-ops returning the original outcome; unknown or contradictory
// callbacks are rejected, never silently accepted.
func (s *Service) HandleCallback(ctx context.Context, payload []byte, signature string) (bool, error) {
	result, err := s.gw.VerifyCallback(payload, signature)
	if err != nil {
		s.log.LogSecurity("CALLBACK_REJECTED", fmt.Sprintf("Signature verification failed: %v", err))
		return false, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}

	payment, err := s.lookupPayment(ctx, result)
	if err != nil {
		// A store outage is retryable and must not look like a forged
		// callback; only a genuine miss is rejected.
		if !errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("failed to look up payment for callback: %w", err)
		}
		s.log.LogSecurity("CALLBACK_REJECTED", fmt.Sprintf("No payment matches callback (payment=%s txn=%s)", result.PaymentID, result.TransactionID))
		return false, fmt.Errorf("%w: unknown payment", ErrInvalidCallback)
	}

	target := models.StatusFailed
	if result.Succeeded {
		target = models.StatusSuccess
	}

	// Duplicate delivery of an already-applied outcome.
	if payment.Status == target || (target == models.StatusSuccess && payment.Status == models.StatusRefunded) {
		s.log.LogPayment("CALLBACK_DUP", payment.PaymentID, fmt.Sprintf("Already %s, no-op", payment.Status))
		return result.Succeeded, nil
	}
	if payment.Status.IsTerminal() {
		s.log.LogSecurity("CALLBACK_REJECTED", fmt.Sprintf("Payment %s is %s, callback says %s", payment.PaymentID, payment.Status, target))
		return false, fmt.Errorf("%w: payment already %s", ErrInvalidCallback, payment.Status)
	}

	// A callback can outrun Initiate's own Pending -> Processing move.
	if payment.Status == models.StatusPending {
		if err := s.store.UpdatePaymentStatus(ctx, payment.PaymentID, models.StatusPending, models.StatusProcessing); err != nil && !errors.Is(err, storage.ErrConflict) {
			return false, fmt.Errorf("failed to promote payment: %w", err)
		}
	}

	if err := s.store.UpdatePaymentStatus(ctx, payment.PaymentID, models.StatusProcessing, target); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost the race to a concurrent duplicate; re-read and echo
			// its outcome if it matches ours.
			current, readErr := s.store.GetPayment(ctx, payment.PaymentID)
			if readErr == nil && current.Status == target {
				return result.Succeeded, nil
			}
			return false, fmt.Errorf("%w: conflicting transition", ErrInvalidCallback)
		}
		return false, fmt.Errorf("failed to apply callback: %w", err)
	}

	if payment.TransactionID == "" && result.TransactionID != "" {
		payment.TransactionID = result.TransactionID
		if err := s.store.UpdatePayment(ctx, payment); err != nil {
			s.log.Warn("PAYMENT", fmt.Sprintf("Failed to store transaction id for %s: %v", payment.PaymentID, err))
		}
	}

	if target == models.StatusSuccess {
		s.log.LogPayment("SUCCESS", payment.PaymentID, fmt.Sprintf("Settled %.2f for booking %s", payment.Amount, payment.BookingID))
		s.publishEvent(models.EventPaymentSuccess, payment, string(models.StatusProcessing), string(target))

		// This call rides on the one CAS winner, so duplicates can never
		// confirm twice.
		if s.confirm != nil {
			if err := s.confirm(ctx, payment.BookingID); err != nil {
				s.log.Error("PAYMENT", fmt.Sprintf("ALERT: payment %s settled but booking %s confirmation failed: %v", payment.PaymentID, payment.BookingID, err))
			}
		}
		return true, nil
	}

	s.log.LogPayment("FAILED", payment.PaymentID, "Gateway reported failure: "+result.FailureReason)
	s.publishEvent(models.EventPaymentFailed, payment, string(models.StatusProcessing), string(target))
	return false, nil
}

// Refund reverses a settled payment. Legal only from Success; the local
// status flips only after the gateway confirms, so an aborted gateway call
// leaves the payment refundable.
func (s *Service) Refund(ctx context.Context, paymentID, reason string) (string, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrPaymentNotFound
		}
		return "", fmt.Errorf("failed to load payment: %w", err)
	}

	if payment.Status == models.StatusRefunded {
		s.log.LogPayment("REFUND_DUP", paymentID, "Already refunded, no-op")
		return payment.RefundID, nil
	}
	if !CanTransition(payment.Status, models.StatusRefunded) {
		s.log.LogPayment("REFUND_REJECTED", paymentID, fmt.Sprintf("Cannot refund from status %s", payment.Status))
		return "", ErrIllegalTransition
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	refundID, err := s.gw.Refund(gwCtx, payment.TransactionID, payment.Amount, reason)
	if err != nil {
		if !errors.Is(err, gateway.ErrAlreadyRefunded) {
			// Payment stays Success; the refund may be retried.
			s.log.LogPayment("REFUND_RETRYABLE", paymentID, err.Error())
			return "", fmt.Errorf("%w: %v", gateway.ErrGatewayUnavailable, err)
		}
		s.log.LogPayment("REFUND", paymentID, "Gateway reports already refunded, treating as success")
	}

	if err := s.store.UpdatePaymentStatus(ctx, paymentID, models.StatusSuccess, models.StatusRefunded); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			current, readErr := s.store.GetPayment(ctx, paymentID)
			if readErr == nil && current.Status == models.StatusRefunded {
				return current.RefundID, nil
			}
		}
		return "", fmt.Errorf("failed to mark payment refunded: %w", err)
	}

	if refundID != "" {
		payment.RefundID = refundID
		if err := s.store.UpdatePayment(ctx, payment); err != nil {
			s.log.Warn("PAYMENT", fmt.Sprintf("Failed to store refund id for %s: %v", paymentID, err))
		}
	}

	s.log.LogPayment("REFUNDED", paymentID, "Refund completed: "+reason)
	s.publishEvent(models.EventPaymentRefunded, payment, string(models.StatusSuccess), string(models.StatusRefunded))
	return refundID, nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *Service) GetPaymentByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	payment, err := s.store.GetPaymentByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *Service) lookupPayment(ctx context.Context, result *gateway.CallbackResult) (*models.Payment, error) {
	if result.PaymentID != "" {
		payment, err := s.store.GetPayment(ctx, result.PaymentID)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}
	if result.TransactionID != "" {
		return s.store.GetPaymentByTransactionID(ctx, result.TransactionID)
	}
	return nil, storage.ErrNotFound
}

func (s *Service) publishEvent(eventType string, payment *models.Payment, oldValue, newValue string) {
	event := &models.BookingEvent{
		Type:      eventType,
		BookingID: payment.BookingID,
		PaymentID: payment.PaymentID,
		Actor:     "gateway",
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: time.Now(),
	}
	if err := s.producer.PublishBookingEvent(event); err != nil {
		s.log.Error("KAFKA", fmt.Sprintf("Failed to publish %s for payment %s: %v", eventType, payment.PaymentID, err))
	}
}
