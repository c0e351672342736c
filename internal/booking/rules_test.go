package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-platform/internal/booking"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/pipeline"
	"booking-platform/internal/storage"
)

func validatedPipeline(t *testing.T, store storage.Store) *pipeline.Pipeline {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	validation := pipeline.NewValidationBehavior()
	validation.Register(booking.CreateCommand{}.Name(), booking.CreateRules(store)...)
	return pipeline.New(log, validation)
}

func passThrough(ctx context.Context, req pipeline.Request) *pipeline.Result {
	return pipeline.Ok("reached handler")
}

func TestCreateRulesRejectBadRequest(t *testing.T) {
	store := storage.NewInMemoryStore()
	pipe := validatedPipeline(t, store)

	checkIn := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	cmd := booking.CreateCommand{Req: &models.CreateBookingRequest{
		PropertyID: "prop-1",
		UserID:     "user-1",
		GuestCount: 0,
		CheckIn:    checkIn,
		CheckOut:   checkIn, // zero nights
		Rooms: []models.CreateBookingRoomItem{
			{RoomTypeID: "rt-unknown", Quantity: 0, PricePerNight: -1},
		},
	}}

	res := pipe.Execute(context.Background(), cmd, passThrough)
	require.False(t, res.Success)
	assert.Equal(t, pipeline.CodeValidationFailed, res.Code)

	fields := make(map[string]bool)
	for _, v := range res.Violations {
		fields[v.Field] = true
	}
	assert.True(t, fields["check_out"])
	assert.True(t, fields["guest_count"])
	assert.True(t, fields["rooms[0].quantity"])
	assert.True(t, fields["rooms[0].price_per_night"])
	assert.True(t, fields["rooms[0].room_type_id"])
}

func TestCreateRulesAcceptValidRequest(t *testing.T) {
	store := storage.NewInMemoryStore()
	pipe := validatedPipeline(t, store)

	checkIn := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertRoomInventory(context.Background(), &models.RoomInventory{
		RoomTypeID: "rt-1", StayDate: checkIn, Total: 5,
	}))

	cmd := booking.CreateCommand{Req: &models.CreateBookingRequest{
		PropertyID: "prop-1",
		UserID:     "user-1",
		GuestCount: 2,
		CheckIn:    checkIn,
		CheckOut:   checkIn.AddDate(0, 0, 2),
		Rooms: []models.CreateBookingRoomItem{
			{RoomTypeID: "rt-1", Quantity: 1, PricePerNight: 100},
		},
	}}

	res := pipe.Execute(context.Background(), cmd, passThrough)
	require.True(t, res.Success)
	assert.Equal(t, "reached handler", res.Data)
}
