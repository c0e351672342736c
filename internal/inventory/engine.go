package inventory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/storage"
	"booking-platform/internal/utils"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidDateRange = errors.New("check-out must be after check-in")
)

const (
	maxAttempts = 3
	backoffBase = 25 * time.Millisecond
)

// Engine holds and releases room inventory. The capacity check rides inside
// the storage layer's conditional write; the engine adds date expansion,
// bounded retry on transient conflicts, and the reservation token lifecycle.
type Engine struct {
	store storage.Store
	log   *logger.Logger
}

func NewEngine(store storage.Store, log *logger.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Reserve commits qty units of roomTypeID for every night in
// [checkIn, checkOut) as a single unit and returns the reservation token.
func (e *Engine) Reserve(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time, qty int) (*models.Reservation, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	// Covers reversed ranges and same-calendar-day stays alike: both
	// expand to zero nights.
	dates := models.StayDates(checkIn, checkOut)
	if len(dates) == 0 {
		return nil, ErrInvalidDateRange
	}
	e.log.LogInventory("RESERVE", roomTypeID, fmt.Sprintf("Holding %d units for %d nights", qty, len(dates)))

	if err := e.withRetry(ctx, roomTypeID, func() error {
		return e.store.ReserveInventory(ctx, roomTypeID, dates, qty)
	}); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Retries exhausted; surface the business failure.
			return nil, fmt.Errorf("%w: retries exhausted", storage.ErrInsufficientInventory)
		}
		return nil, err
	}

	reservation := &models.Reservation{
		Token:       utils.GenerateUUID(),
		RoomTypeID:  roomTypeID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Quantity:    qty,
		Status:      models.ReservationHeld,
		CreatedDate: time.Now(),
	}
	if err := e.store.SaveReservation(ctx, reservation); err != nil {
		// The hold is already committed; undo it rather than leak capacity.
		if relErr := e.store.ReleaseInventory(ctx, roomTypeID, dates, qty); relErr != nil {
			e.log.Error("INVENTORY", fmt.Sprintf("ALERT: failed to undo hold on %s after token save failure: %v", roomTypeID, relErr))
		}
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	e.log.LogInventory("HELD", roomTypeID, fmt.Sprintf("Reservation %s holds %d units", reservation.Token, qty))
	return reservation, nil
}

// Release returns a reservation's inventory. Releasing a token that was
// already released is a no-op.
func (e *Engine) Release(ctx context.Context, token string) error {
	reservation, err := e.store.GetReservation(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to load reservation %s: %w", token, err)
	}

	won, err := e.store.MarkReservationReleased(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to release reservation %s: %w", token, err)
	}
	if !won {
		e.log.LogInventory("RELEASE", reservation.RoomTypeID, fmt.Sprintf("Reservation %s already released", token))
		return nil
	}

	if err := e.withRetry(ctx, reservation.RoomTypeID, func() error {
		return e.store.ReleaseInventory(ctx, reservation.RoomTypeID, reservation.StayDates(), reservation.Quantity)
	}); err != nil {
		// Held capacity that never comes back is a correctness bug, not
		// an ignorable error.
		e.log.Error("INVENTORY", fmt.Sprintf("ALERT: reservation %s marked released but inventory decrement failed: %v", token, err))
		return fmt.Errorf("failed to release inventory for %s: %w", token, err)
	}

	e.log.LogInventory("RELEASED", reservation.RoomTypeID, fmt.Sprintf("Reservation %s returned %d units", token, reservation.Quantity))
	return nil
}

// withRetry reruns fn on transient storage conflicts, up to maxAttempts,
// with jittered backoff between attempts.
func (e *Engine) withRetry(ctx context.Context, roomTypeID string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		e.log.LogInventory("RETRY", roomTypeID, fmt.Sprintf("Conflict on attempt %d/%d", attempt, maxAttempts))

		if attempt < maxAttempts {
			backoff := time.Duration(attempt)*backoffBase + time.Duration(rand.Int63n(int64(backoffBase)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return err
}
