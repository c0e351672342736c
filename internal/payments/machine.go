package payments

import (
	"errors"

	"booking-platform/internal/models"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrIllegalTransition is a programming or integration error: the
	// requested move is not in the transition table. It is surfaced and
	// logged, never auto-corrected.
	ErrIllegalTransition = errors.New("illegal payment state transition")

	// ErrInvalidCallback is untrusted or unrecognized gateway input,
	// rejected and logged as a security event.
	ErrInvalidCallback = errors.New("invalid payment callback")
)

// transitions is the complete set of legal moves. Refunded, Failed and
// Cancelled are terminal; Success admits only the refund edge.
var transitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.StatusPending:    {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing: {models.StatusSuccess, models.StatusFailed},
	models.StatusSuccess:    {models.StatusRefunded},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to models.PaymentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
