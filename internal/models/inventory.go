package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RoomInventory is the per-date availability ledger for one room type.
// Invariant: 0 <= Committed <= Total under all concurrent writers.
type RoomInventory struct {
	bun.BaseModel `bun:"table:room_inventory"`

	RoomTypeID string    `json:"room_type_id" bun:"room_type_id,pk"`
	StayDate   time.Time `json:"stay_date" bun:"stay_date,pk"`
	Total      int       `json:"total" bun:"total"`
	Committed  int       `json:"committed" bun:"committed"`
}

type ReservationStatus string

const (
	ReservationHeld     ReservationStatus = "held"
	ReservationReleased ReservationStatus = "released"
)

// Reservation is the opaque token handed back by a successful hold.
// Releasing flips Status exactly once; a second release is a no-op.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	Token       string            `json:"token" bun:"token,pk"`
	BookingID   string            `json:"booking_id,omitempty" bun:"booking_id"`
	RoomTypeID  string            `json:"room_type_id" bun:"room_type_id"`
	CheckIn     time.Time         `json:"check_in" bun:"check_in"`
	CheckOut    time.Time         `json:"check_out" bun:"check_out"`
	Quantity    int               `json:"quantity" bun:"quantity"`
	Status      ReservationStatus `json:"status" bun:"status"`
	CreatedDate time.Time         `json:"created_date" bun:"created_date"`
}

// StayDates expands [CheckIn, CheckOut) into the nights the hold covers.
func (r *Reservation) StayDates() []time.Time {
	return StayDates(r.CheckIn, r.CheckOut)
}

// StayDates reduces both timestamps to their calendar date and returns one
// entry per night, check-out day excluded. A 20:00 arrival with a 10:00
// departure the next morning is one night, keyed at midnight so it matches
// the per-date inventory ledger.
func StayDates(checkIn, checkOut time.Time) []time.Time {
	var dates []time.Time
	for d := dateOnly(checkIn); d.Before(dateOnly(checkOut)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
