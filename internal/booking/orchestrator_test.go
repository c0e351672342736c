package booking_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-platform/internal/booking"
	"booking-platform/internal/cache"
	"booking-platform/internal/gateway"
	"booking-platform/internal/inventory"
	"booking-platform/internal/kafka"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/payments"
	"booking-platform/internal/storage"
	"booking-platform/internal/voucher"
)

type fixture struct {
	orchestrator *booking.Orchestrator
	payments     *payments.Service
	store        *storage.InMemoryStore
	gw           *gateway.LocalGateway
	checkIn      time.Time
	checkOut     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	store := storage.NewInMemoryStore()
	gw := gateway.NewLocalGateway("test-secret", log)
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)

	inventoryEngine := inventory.NewEngine(store, log)
	voucherEngine := voucher.NewEngine(store, log)
	paymentService := payments.NewService(store, gw, producer, log, 5*time.Second)
	orchestrator := booking.NewOrchestrator(store, inventoryEngine, voucherEngine, paymentService, producer, cache.NewMemory(), log)
	paymentService.SetConfirmHook(orchestrator.ConfirmBooking)

	checkIn := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	f := &fixture{
		orchestrator: orchestrator,
		payments:     paymentService,
		store:        store,
		gw:           gw,
		checkIn:      checkIn,
		checkOut:     checkIn.AddDate(0, 0, 2),
	}
	f.seedInventory(t, "rt-1", 5)
	return f
}

func (f *fixture) seedInventory(t *testing.T, roomTypeID string, total int) {
	t.Helper()
	for _, date := range models.StayDates(f.checkIn, f.checkOut) {
		err := f.store.UpsertRoomInventory(context.Background(), &models.RoomInventory{
			RoomTypeID: roomTypeID,
			StayDate:   date,
			Total:      total,
		})
		require.NoError(t, err)
	}
}

func (f *fixture) createRequest() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		PropertyID: "prop-1",
		UserID:     "user-1",
		GuestCount: 2,
		CheckIn:    f.checkIn,
		CheckOut:   f.checkOut,
		Rooms: []models.CreateBookingRoomItem{
			{RoomTypeID: "rt-1", Quantity: 1, PricePerNight: 100},
		},
	}
}

func (f *fixture) committed(t *testing.T, roomTypeID string) int {
	t.Helper()
	inv, err := f.store.GetRoomInventory(context.Background(), roomTypeID, f.checkIn)
	require.NoError(t, err)
	return inv.Committed
}

func TestCreateBookingHoldsInventoryAndPrices(t *testing.T) {
	f := newFixture(t)

	created, err := f.orchestrator.CreateBooking(context.Background(), f.createRequest())
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, created.Status)
	assert.Equal(t, 200.0, created.TotalPrice) // 1 room x 100/night x 2 nights
	assert.Equal(t, 1, f.committed(t, "rt-1"))

	reservations, err := f.store.ListReservationsByBooking(context.Background(), created.BookingID)
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, models.ReservationHeld, reservations[0].Status)
}

func TestCreateBookingBillsEveryHeldNight(t *testing.T) {
	f := newFixture(t)

	// Hotel-style times: arriving 20:00 and leaving 10:00 the next morning
	// is one night held and one night billed, not zero.
	req := f.createRequest()
	req.CheckIn = f.checkIn.Add(20 * time.Hour)
	req.CheckOut = f.checkIn.AddDate(0, 0, 1).Add(10 * time.Hour)

	created, err := f.orchestrator.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 100.0, created.TotalPrice)
	assert.Equal(t, 1, f.committed(t, "rt-1"))

	// A 15:00 to 11:00 stay spanning two nights bills both.
	req = f.createRequest()
	req.CheckIn = f.checkIn.Add(15 * time.Hour)
	req.CheckOut = f.checkOut.Add(11 * time.Hour)

	created, err = f.orchestrator.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200.0, created.TotalPrice)
}

func TestCreateBookingAppliesVoucher(t *testing.T) {
	f := newFixture(t)

	now := time.Now()
	require.NoError(t, f.store.SaveVoucher(context.Background(), &models.Voucher{
		VoucherID:     "v-1",
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		StartDate:     now.AddDate(0, 0, -1),
		EndDate:       now.AddDate(0, 1, 0),
		Status:        models.VoucherActive,
		Targets:       []*models.VoucherTarget{{TargetID: "t-1", VoucherID: "v-1", Type: models.TargetGlobal}},
	}))

	req := f.createRequest()
	req.VoucherCode = "SAVE10"

	created, err := f.orchestrator.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 20.0, created.DiscountAmount)
	assert.Equal(t, 180.0, created.TotalPrice)
}

func TestCreateBookingCompensatesWhenLaterRoomFails(t *testing.T) {
	f := newFixture(t)
	f.seedInventory(t, "rt-2", 0) // nothing available

	req := f.createRequest()
	req.Rooms = append(req.Rooms, models.CreateBookingRoomItem{RoomTypeID: "rt-2", Quantity: 1, PricePerNight: 50})

	_, err := f.orchestrator.CreateBooking(context.Background(), req)
	require.ErrorIs(t, err, storage.ErrInsufficientInventory)

	// The first room's hold was given back.
	assert.Equal(t, 0, f.committed(t, "rt-1"))
}

func TestCreateBookingReleasesHoldsWhenVoucherFails(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.VoucherCode = "NOPE"

	_, err := f.orchestrator.CreateBooking(context.Background(), req)
	require.ErrorIs(t, err, voucher.ErrVoucherNotFound)
	assert.Equal(t, 0, f.committed(t, "rt-1"))
}

func TestSettledPaymentConfirmsBooking(t *testing.T) {
	f := newFixture(t)

	created, err := f.orchestrator.CreateBooking(context.Background(), f.createRequest())
	require.NoError(t, err)

	payment, err := f.payments.Initiate(context.Background(), created.BookingID, created.TotalPrice, "card", "")
	require.NoError(t, err)

	payload, err := json.Marshal(gateway.LocalCallback{
		PaymentID:     payment.PaymentID,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Success:       true,
	})
	require.NoError(t, err)

	succeeded, err := f.payments.HandleCallback(context.Background(), payload, f.gw.Sign(payload))
	require.NoError(t, err)
	assert.True(t, succeeded)

	confirmed, err := f.orchestrator.GetBooking(context.Background(), created.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)
}

func TestCancelReleasesInventoryAndRefunds(t *testing.T) {
	f := newFixture(t)

	created, err := f.orchestrator.CreateBooking(context.Background(), f.createRequest())
	require.NoError(t, err)

	payment, err := f.payments.Initiate(context.Background(), created.BookingID, created.TotalPrice, "card", "")
	require.NoError(t, err)

	payload, err := json.Marshal(gateway.LocalCallback{
		PaymentID:     payment.PaymentID,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Success:       true,
	})
	require.NoError(t, err)
	_, err = f.payments.HandleCallback(context.Background(), payload, f.gw.Sign(payload))
	require.NoError(t, err)

	cancelled, err := f.orchestrator.CancelBooking(context.Background(), created.BookingID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, "change of plans", cancelled.CancellationReason)

	// Inventory went back and the settled payment was refunded.
	assert.Equal(t, 0, f.committed(t, "rt-1"))

	refunded, err := f.payments.GetPayment(context.Background(), payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefunded, refunded.Status)
}

func TestCancelPendingBookingSkipsRefund(t *testing.T) {
	f := newFixture(t)

	created, err := f.orchestrator.CreateBooking(context.Background(), f.createRequest())
	require.NoError(t, err)

	cancelled, err := f.orchestrator.CancelBooking(context.Background(), created.BookingID, "never paid")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, 0, f.committed(t, "rt-1"))
}

func TestCancelRejectsTerminalBooking(t *testing.T) {
	f := newFixture(t)

	created, err := f.orchestrator.CreateBooking(context.Background(), f.createRequest())
	require.NoError(t, err)

	_, err = f.orchestrator.CancelBooking(context.Background(), created.BookingID, "first")
	require.NoError(t, err)

	_, err = f.orchestrator.CancelBooking(context.Background(), created.BookingID, "second")
	assert.ErrorIs(t, err, booking.ErrCancellationNotAllowed)

	_, err = f.orchestrator.CancelBooking(context.Background(), "no-such-booking", "x")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestConfirmRequiresPendingBooking(t *testing.T) {
	f := newFixture(t)

	created, err := f.orchestrator.CreateBooking(context.Background(), f.createRequest())
	require.NoError(t, err)

	require.NoError(t, f.orchestrator.ConfirmBooking(context.Background(), created.BookingID))
	assert.ErrorIs(t, f.orchestrator.ConfirmBooking(context.Background(), created.BookingID), booking.ErrNotPending)
	assert.ErrorIs(t, f.orchestrator.ConfirmBooking(context.Background(), "missing"), booking.ErrBookingNotFound)
}
