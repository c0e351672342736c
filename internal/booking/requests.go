package booking

import (
	"time"

	"booking-platform/internal/models"
)

// Pipeline request wrappers for the booking use cases. Commands are never
// cacheable; the read-side query opts into caching via the Cacheable
// interface.

type CreateCommand struct {
	Req *models.CreateBookingRequest
}

func (CreateCommand) Name() string { return "booking.create" }

type CancelCommand struct {
	BookingID string
	Reason    string
}

func (CancelCommand) Name() string { return "booking.cancel" }

type GetQuery struct {
	BookingID string
}

func (GetQuery) Name() string { return "booking.get" }

func (q GetQuery) CacheKey() string { return "booking:" + q.BookingID }

func (GetQuery) CacheTTL() time.Duration { return 5 * time.Minute }

func (GetQuery) NewCacheValue() interface{} { return &models.Booking{} }
