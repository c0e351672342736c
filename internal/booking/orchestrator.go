package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-platform/internal/cache"
	"booking-platform/internal/gateway"
	"booking-platform/internal/inventory"
	"booking-platform/internal/kafka"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/payments"
	"booking-platform/internal/storage"
	"booking-platform/internal/utils"
	"booking-platform/internal/voucher"
)

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotPending means confirmation was attempted on a booking that
	// already left Pending.
	ErrNotPending = errors.New("booking is not pending")

	// ErrCancellationNotAllowed rejects cancelling an already-cancelled or
	// completed booking; that is an error, not a no-op.
	ErrCancellationNotAllowed = errors.New("booking cannot be cancelled")
)

const releaseAttempts = 3

// Orchestrator composes the inventory, voucher and payment engines into the
// booking use cases and owns the consistency contract between them.
type Orchestrator struct {
	store     storage.Store
	inventory *inventory.Engine
	vouchers  *voucher.Engine
	payments  *payments.Service
	producer  *kafka.Producer
	cache     cache.Cache
	log       *logger.Logger
}

func NewOrchestrator(
	store storage.Store,
	inv *inventory.Engine,
	vouchers *voucher.Engine,
	pay *payments.Service,
	producer *kafka.Producer,
	c cache.Cache,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		inventory: inv,
		vouchers:  vouchers,
		payments:  pay,
		producer:  producer,
		cache:     c,
		log:       log,
	}
}

// CreateBooking reserves inventory for every requested room type, prices the
// stay, optionally applies a voucher and persists the booking as Pending.
// Any failure along the way compensates everything already taken: no held
// inventory and no spent voucher slot survives a failed creation.
func (o *Orchestrator) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	bookingID := utils.GenerateUUID()
	o.log.LogBooking("CREATE", bookingID, fmt.Sprintf("User %s booking %s, %d room types", req.UserID, req.PropertyID, len(req.Rooms)))

	// Billed nights and held nights come from the same expansion, so
	// intraday check-in/check-out times can never skew the price.
	nights := len(models.StayDates(req.CheckIn, req.CheckOut))

	var (
		reservations []*models.Reservation
		details      []*models.BookingDetail
		totalPrice   float64
		roomTypeIDs  []string
	)

	releaseAll := func() {
		for _, r := range reservations {
			if err := o.inventory.Release(ctx, r.Token); err != nil {
				o.log.Error("BOOKING", fmt.Sprintf("ALERT: failed to compensate reservation %s: %v", r.Token, err))
			}
		}
	}

	for _, room := range req.Rooms {
		reservation, err := o.inventory.Reserve(ctx, room.RoomTypeID, req.CheckIn, req.CheckOut, room.Quantity)
		if err != nil {
			o.log.LogBooking("REJECTED", bookingID, fmt.Sprintf("Reservation failed for %s: %v", room.RoomTypeID, err))
			releaseAll()
			return nil, err
		}
		reservations = append(reservations, reservation)
		roomTypeIDs = append(roomTypeIDs, room.RoomTypeID)

		details = append(details, &models.BookingDetail{
			DetailID:      utils.GenerateUUID(),
			BookingID:     bookingID,
			RoomTypeID:    room.RoomTypeID,
			Quantity:      room.Quantity,
			PricePerNight: room.PricePerNight,
		})
		totalPrice += room.PricePerNight * float64(room.Quantity) * float64(nights)
	}

	var (
		discount float64
		usageID  string
	)
	if req.VoucherCode != "" {
		scope := models.OrderScope{
			PropertyID:  req.PropertyID,
			RoomTypeIDs: roomTypeIDs,
		}
		application, err := o.vouchers.Apply(ctx, req.VoucherCode, req.UserID, totalPrice, scope)
		if err != nil {
			o.log.LogBooking("REJECTED", bookingID, fmt.Sprintf("Voucher %s failed: %v", req.VoucherCode, err))
			releaseAll()
			return nil, err
		}
		discount = application.Discount
		usageID = application.UsageID
	}

	now := time.Now()
	booking := &models.Booking{
		BookingID:      bookingID,
		PropertyID:     req.PropertyID,
		UserID:         req.UserID,
		GuestCount:     req.GuestCount,
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		Status:         models.BookingPending,
		TotalPrice:     totalPrice - discount,
		VoucherCode:    req.VoucherCode,
		DiscountAmount: discount,
		Details:        details,
		CreatedDate:    now,
		UpdatedDate:    now,
	}

	if err := o.store.SaveBooking(ctx, booking); err != nil {
		o.log.Error("BOOKING", fmt.Sprintf("Failed to persist booking %s: %v", bookingID, err))
		releaseAll()
		if usageID != "" {
			if rbErr := o.vouchers.Rollback(ctx, usageID); rbErr != nil {
				o.log.Error("BOOKING", fmt.Sprintf("ALERT: failed to roll back voucher usage %s: %v", usageID, rbErr))
			}
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	for _, r := range reservations {
		if err := o.store.AttachReservation(ctx, r.Token, bookingID); err != nil {
			o.log.Warn("BOOKING", fmt.Sprintf("Failed to attach reservation %s to %s: %v", r.Token, bookingID, err))
		}
	}

	o.publishEvent(models.EventBookingCreated, booking, req.UserID, "", string(models.BookingPending))
	o.invalidate(ctx, booking)

	o.log.LogBooking("CREATED", bookingID, fmt.Sprintf("Total %.2f (discount %.2f), status pending", booking.TotalPrice, discount))
	return booking, nil
}

// ConfirmBooking moves Pending -> Confirmed. It is invoked by the payment
// success transition, which fires at most once per payment.
func (o *Orchestrator) ConfirmBooking(ctx context.Context, bookingID string) error {
	if err := o.store.UpdateBookingStatus(ctx, bookingID, models.BookingPending, models.BookingConfirmed, ""); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrBookingNotFound
		}
		if errors.Is(err, storage.ErrConflict) {
			o.log.Warn("BOOKING", fmt.Sprintf("Cannot confirm booking %s: not pending", bookingID))
			return ErrNotPending
		}
		return fmt.Errorf("failed to confirm booking: %w", err)
	}

	booking, err := o.store.GetBooking(ctx, bookingID)
	if err == nil {
		o.publishEvent(models.EventBookingConfirmed, booking, "system", string(models.BookingPending), string(models.BookingConfirmed))
		o.invalidate(ctx, booking)
	}

	o.log.LogBooking("CONFIRMED", bookingID, "Booking confirmed")
	return nil
}

// CancelBooking cancels a pending or confirmed booking, releases its held
// inventory and refunds its payment if one settled. Release and refund are
// each retried independently; a final failure is escalated in the logs, not
// swallowed.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	booking, err := o.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	switch booking.Status {
	case models.BookingPending, models.BookingConfirmed:
	default:
		o.log.LogBooking("CANCEL_REJECTED", bookingID, fmt.Sprintf("Cannot cancel from status %s", booking.Status))
		return nil, ErrCancellationNotAllowed
	}

	if err := o.store.UpdateBookingStatus(ctx, bookingID, booking.Status, models.BookingCancelled, reason); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrCancellationNotAllowed
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	oldStatus := booking.Status
	booking.Status = models.BookingCancelled
	booking.CancellationReason = reason

	o.releaseHeldInventory(ctx, bookingID)
	o.refundIfSettled(ctx, bookingID, reason)

	o.publishEvent(models.EventBookingCancelled, booking, booking.UserID, string(oldStatus), string(models.BookingCancelled))
	o.invalidate(ctx, booking)

	o.log.LogBooking("CANCELLED", bookingID, "Reason: "+reason)
	return booking, nil
}

func (o *Orchestrator) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := o.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (o *Orchestrator) releaseHeldInventory(ctx context.Context, bookingID string) {
	reservations, err := o.store.ListReservationsByBooking(ctx, bookingID)
	if err != nil {
		o.log.Error("BOOKING", fmt.Sprintf("ALERT: cannot list reservations for cancelled booking %s: %v", bookingID, err))
		return
	}

	for _, r := range reservations {
		var relErr error
		for attempt := 1; attempt <= releaseAttempts; attempt++ {
			if relErr = o.inventory.Release(ctx, r.Token); relErr == nil {
				break
			}
		}
		if relErr != nil {
			// Unreleased inventory after a cancellation is a correctness
			// bug; escalate rather than ignore.
			o.log.Error("BOOKING", fmt.Sprintf("ALERT: reservation %s not released after cancelling %s: %v", r.Token, bookingID, relErr))
		}
	}
}

func (o *Orchestrator) refundIfSettled(ctx context.Context, bookingID, reason string) {
	payment, err := o.payments.GetPaymentByBookingID(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, payments.ErrPaymentNotFound) {
			o.log.Error("BOOKING", fmt.Sprintf("ALERT: cannot look up payment for cancelled booking %s: %v", bookingID, err))
		}
		return
	}
	if payment.Status != models.StatusSuccess {
		return
	}

	if _, err := o.payments.Refund(ctx, payment.PaymentID, "booking cancelled: "+reason); err != nil {
		if errors.Is(err, gateway.ErrGatewayUnavailable) {
			o.log.Error("BOOKING", fmt.Sprintf("ALERT: refund for cancelled booking %s must be retried: %v", bookingID, err))
			return
		}
		o.log.Error("BOOKING", fmt.Sprintf("ALERT: refund for cancelled booking %s failed: %v", bookingID, err))
	}
}

func (o *Orchestrator) publishEvent(eventType string, booking *models.Booking, actor, oldValue, newValue string) {
	event := &models.BookingEvent{
		Type:      eventType,
		BookingID: booking.BookingID,
		Actor:     actor,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: time.Now(),
	}
	if err := o.producer.PublishBookingEvent(event); err != nil {
		// Notification delivery never rolls back the state change.
		o.log.Error("KAFKA", fmt.Sprintf("Failed to publish %s for booking %s: %v", eventType, booking.BookingID, err))
	}
}

// invalidate drops every cache key this booking can appear under. The cache
// is advisory, so failures only log.
func (o *Orchestrator) invalidate(ctx context.Context, booking *models.Booking) {
	keys := []string{"booking:" + booking.BookingID}
	for _, d := range booking.Details {
		keys = append(keys, "availability:"+d.RoomTypeID)
	}
	for _, key := range keys {
		if err := o.cache.Remove(ctx, key); err != nil {
			o.log.Warn("CACHE", fmt.Sprintf("Failed to invalidate %s: %v", key, err))
		}
	}
}
