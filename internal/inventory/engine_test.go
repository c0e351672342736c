package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-platform/internal/inventory"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/storage"
)

func seedInventory(t *testing.T, store storage.Store, roomTypeID string, checkIn, checkOut time.Time, total int) {
	t.Helper()
	for _, date := range models.StayDates(checkIn, checkOut) {
		err := store.UpsertRoomInventory(context.Background(), &models.RoomInventory{
			RoomTypeID: roomTypeID,
			StayDate:   date,
			Total:      total,
		})
		require.NoError(t, err)
	}
}

func newEngine(t *testing.T) (*inventory.Engine, *storage.InMemoryStore) {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })
	store := storage.NewInMemoryStore()
	return inventory.NewEngine(store, log), store
}

func stay() (time.Time, time.Time) {
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	return checkIn, checkIn.AddDate(0, 0, 3)
}

func TestReserveHoldsEveryNight(t *testing.T) {
	engine, store := newEngine(t)
	checkIn, checkOut := stay()
	seedInventory(t, store, "rt-1", checkIn, checkOut, 5)

	reservation, err := engine.Reserve(context.Background(), "rt-1", checkIn, checkOut, 2)
	require.NoError(t, err)
	require.NotEmpty(t, reservation.Token)
	assert.Equal(t, models.ReservationHeld, reservation.Status)

	for _, date := range models.StayDates(checkIn, checkOut) {
		inv, err := store.GetRoomInventory(context.Background(), "rt-1", date)
		require.NoError(t, err)
		assert.Equal(t, 2, inv.Committed)
	}
}

func TestReserveRejectsBadArguments(t *testing.T) {
	engine, _ := newEngine(t)
	checkIn, checkOut := stay()

	_, err := engine.Reserve(context.Background(), "rt-1", checkIn, checkOut, 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = engine.Reserve(context.Background(), "rt-1", checkOut, checkIn, 1)
	assert.ErrorIs(t, err, inventory.ErrInvalidDateRange)

	// A same-calendar-day stay covers no night at all.
	_, err = engine.Reserve(context.Background(), "rt-1", checkIn.Add(10*time.Hour), checkIn.Add(18*time.Hour), 1)
	assert.ErrorIs(t, err, inventory.ErrInvalidDateRange)
}

func TestReserveIsAllOrNothingAcrossDates(t *testing.T) {
	engine, store := newEngine(t)
	checkIn, checkOut := stay()
	seedInventory(t, store, "rt-1", checkIn, checkOut, 5)

	// Drain the middle night so the range cannot be satisfied.
	middle := checkIn.AddDate(0, 0, 1)
	require.NoError(t, store.ReserveInventory(context.Background(), "rt-1", []time.Time{middle}, 5))

	_, err := engine.Reserve(context.Background(), "rt-1", checkIn, checkOut, 1)
	require.ErrorIs(t, err, storage.ErrInsufficientInventory)

	// The nights around the full one are untouched.
	first, err := store.GetRoomInventory(context.Background(), "rt-1", checkIn)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Committed)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	engine, store := newEngine(t)
	checkIn, checkOut := stay()
	seedInventory(t, store, "rt-1", checkIn, checkOut, 2)

	// Two units left, two concurrent requests for two units each: exactly
	// one wins.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Reserve(context.Background(), "rt-1", checkIn, checkOut, 2)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, storage.ErrInsufficientInventory)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	inv, err := store.GetRoomInventory(context.Background(), "rt-1", checkIn)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Committed)
}

func TestReleaseReturnsInventoryOnce(t *testing.T) {
	engine, store := newEngine(t)
	checkIn, checkOut := stay()
	seedInventory(t, store, "rt-1", checkIn, checkOut, 5)

	reservation, err := engine.Reserve(context.Background(), "rt-1", checkIn, checkOut, 3)
	require.NoError(t, err)

	require.NoError(t, engine.Release(context.Background(), reservation.Token))

	inv, err := store.GetRoomInventory(context.Background(), "rt-1", checkIn)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Committed)

	// A second release of the same token is a no-op, not a double credit.
	require.NoError(t, engine.Release(context.Background(), reservation.Token))
	inv, err = store.GetRoomInventory(context.Background(), "rt-1", checkIn)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Committed)
}

func TestReleaseUnknownTokenFails(t *testing.T) {
	engine, _ := newEngine(t)
	err := engine.Release(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
