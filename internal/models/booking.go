package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingCheckedIn  BookingStatus = "checked_in"
	BookingCheckedOut BookingStatus = "checked_out"
	BookingCancelled  BookingStatus = "cancelled"
	BookingCompleted  BookingStatus = "completed"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID          string           `json:"booking_id" bun:"booking_id,pk"`
	PropertyID         string           `json:"property_id" bun:"property_id"`
	UserID             string           `json:"user_id" bun:"user_id"`
	GuestCount         int              `json:"guest_count" bun:"guest_count"`
	CheckIn            time.Time        `json:"check_in" bun:"check_in"`
	CheckOut           time.Time        `json:"check_out" bun:"check_out"`
	Status             BookingStatus    `json:"status" bun:"status"`
	TotalPrice         float64          `json:"total_price" bun:"total_price"`
	VoucherCode        string           `json:"voucher_code,omitempty" bun:"voucher_code"`
	DiscountAmount     float64          `json:"discount_amount" bun:"discount_amount"`
	CancellationReason string           `json:"cancellation_reason,omitempty" bun:"cancellation_reason"`
	Details            []*BookingDetail `json:"details" bun:"rel:has-many,join:booking_id=booking_id"`
	CreatedDate        time.Time        `json:"created_date" bun:"created_date"`
	UpdatedDate        time.Time        `json:"updated_date" bun:"updated_date"`
}

type BookingDetail struct {
	bun.BaseModel `bun:"table:booking_details"`

	DetailID      string  `json:"detail_id" bun:"detail_id,pk"`
	BookingID     string  `json:"booking_id" bun:"booking_id"`
	RoomTypeID    string  `json:"room_type_id" bun:"room_type_id"`
	Quantity      int     `json:"quantity" bun:"quantity"`
	PricePerNight float64 `json:"price_per_night" bun:"price_per_night"`
	Discount      float64 `json:"discount" bun:"discount"`
}

// Nights returns the number of billable nights, check-out day excluded.
// Counted as started nights, so a 20:00 check-in against a 10:00 next-day
// check-out is still one night, matching the inventory hold.
func (b *Booking) Nights() int {
	return len(StayDates(b.CheckIn, b.CheckOut))
}

type CreateBookingRequest struct {
	PropertyID  string                  `json:"property_id" binding:"required"`
	UserID      string                  `json:"user_id" binding:"required"`
	GuestCount  int                     `json:"guest_count" binding:"required"`
	CheckIn     time.Time               `json:"check_in" binding:"required"`
	CheckOut    time.Time               `json:"check_out" binding:"required"`
	VoucherCode string                  `json:"voucher_code,omitempty"`
	Rooms       []CreateBookingRoomItem `json:"rooms" binding:"required"`
}

type CreateBookingRoomItem struct {
	RoomTypeID    string  `json:"room_type_id" binding:"required"`
	Quantity      int     `json:"quantity" binding:"required"`
	PricePerNight float64 `json:"price_per_night"`
}

type CancelBookingRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Reason    string `json:"reason"`
}
