package storage

import (
	"context"
	"errors"
	"time"

	"booking-platform/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrConflict is transient storage contention (deadlock, serialization
	// failure, lost CAS race). Callers retry up to a bound, then surface
	// the underlying business failure.
	ErrConflict = errors.New("concurrent update conflict")

	ErrInsufficientInventory    = errors.New("insufficient inventory")
	ErrVoucherLimitExceeded     = errors.New("voucher usage limit exceeded")
	ErrVoucherUserLimitExceeded = errors.New("voucher per-user limit exceeded")
)

// Store is the storage collaborator: per-entity operations with
// compare-and-set semantics baked into every status or counter write.
type Store interface {
	// Bookings
	SaveBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	// UpdateBookingStatus moves a booking from -> to atomically and fails
	// with ErrConflict if the booking is no longer in the from status.
	UpdateBookingStatus(ctx context.Context, bookingID string, from, to models.BookingStatus, reason string) error

	// Room inventory
	UpsertRoomInventory(ctx context.Context, inv *models.RoomInventory) error
	GetRoomInventory(ctx context.Context, roomTypeID string, date time.Time) (*models.RoomInventory, error)
	// ReserveInventory increments committed for every date as one unit,
	// each increment conditional on committed+qty <= total. Any date that
	// fails the condition aborts the whole reservation.
	ReserveInventory(ctx context.Context, roomTypeID string, dates []time.Time, qty int) error
	// ReleaseInventory performs the inverse decrement, floored at zero.
	ReleaseInventory(ctx context.Context, roomTypeID string, dates []time.Time, qty int) error

	// Reservation tokens
	SaveReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, token string) (*models.Reservation, error)
	ListReservationsByBooking(ctx context.Context, bookingID string) ([]*models.Reservation, error)
	AttachReservation(ctx context.Context, token, bookingID string) error
	// MarkReservationReleased flips held -> released exactly once and
	// reports whether this call won the flip.
	MarkReservationReleased(ctx context.Context, token string) (bool, error)

	// Vouchers
	SaveVoucher(ctx context.Context, v *models.Voucher) error
	GetVoucherByCode(ctx context.Context, code string) (*models.Voucher, error)
	CountVoucherUsages(ctx context.Context, voucherID, userID string) (int, error)
	// RedeemVoucher increments used_count conditional on the global limit
	// and records the usage row, enforcing the per-user limit, all in one
	// transaction.
	RedeemVoucher(ctx context.Context, usage *models.VoucherUsage, usageLimit, perUserLimit int) error
	// RollbackVoucherUsage undoes a redemption when the surrounding
	// booking failed to persist.
	RollbackVoucherUsage(ctx context.Context, usageID string) error

	// Payments
	SavePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	GetPaymentByBookingID(ctx context.Context, bookingID string) (*models.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, txnID string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment) error
	// UpdatePaymentStatus moves a payment from -> to atomically; fails
	// with ErrConflict if the payment already left the from status.
	UpdatePaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus) error

	// Audit trail
	SaveAuditRecord(ctx context.Context, rec *models.AuditRecord) error
	ListAuditRecords(ctx context.Context, entity string) ([]*models.AuditRecord, error)

	HealthCheck() error
	Close() error
}
