package booking

import (
	"context"
	"errors"
	"fmt"

	"booking-platform/internal/models"
	"booking-platform/internal/pipeline"
	"booking-platform/internal/storage"
)

// CreateRules returns the validation rule set for booking creation. The
// room-type existence check hits the store, so it runs as its own rule and
// overlaps with the cheap structural checks.
func CreateRules(store storage.Store) []pipeline.Rule {
	return []pipeline.Rule{
		ruleDates,
		ruleGuests,
		ruleRooms,
		ruleRoomTypesExist(store),
	}
}

func ruleDates(_ context.Context, req pipeline.Request) []pipeline.Violation {
	cmd, ok := req.(CreateCommand)
	if !ok {
		return nil
	}
	var violations []pipeline.Violation
	if !cmd.Req.CheckOut.After(cmd.Req.CheckIn) {
		violations = append(violations, pipeline.Violation{
			Field:   "check_out",
			Message: "check-out must be after check-in",
		})
	} else if len(models.StayDates(cmd.Req.CheckIn, cmd.Req.CheckOut)) == 0 {
		// Same calendar day: no night to hold or bill.
		violations = append(violations, pipeline.Violation{
			Field:   "check_out",
			Message: "stay must cover at least one night",
		})
	}
	return violations
}

func ruleGuests(_ context.Context, req pipeline.Request) []pipeline.Violation {
	cmd, ok := req.(CreateCommand)
	if !ok {
		return nil
	}
	if cmd.Req.GuestCount < 1 {
		return []pipeline.Violation{{
			Field:   "guest_count",
			Message: "guest count must be at least 1",
		}}
	}
	return nil
}

func ruleRooms(_ context.Context, req pipeline.Request) []pipeline.Violation {
	cmd, ok := req.(CreateCommand)
	if !ok {
		return nil
	}
	if len(cmd.Req.Rooms) == 0 {
		return []pipeline.Violation{{
			Field:   "rooms",
			Message: "at least one room type is required",
		}}
	}
	var violations []pipeline.Violation
	for i, room := range cmd.Req.Rooms {
		if room.RoomTypeID == "" {
			violations = append(violations, pipeline.Violation{
				Field:   fmt.Sprintf("rooms[%d].room_type_id", i),
				Message: "room type id is required",
			})
		}
		if room.Quantity < 1 {
			violations = append(violations, pipeline.Violation{
				Field:   fmt.Sprintf("rooms[%d].quantity", i),
				Message: "quantity must be at least 1",
			})
		}
		if room.PricePerNight < 0 {
			violations = append(violations, pipeline.Violation{
				Field:   fmt.Sprintf("rooms[%d].price_per_night", i),
				Message: "price per night cannot be negative",
			})
		}
	}
	return violations
}

// ruleRoomTypesExist verifies every requested room type has an inventory
// calendar entry for the first stay night. It catches typos before the
// reservation engine burns a retry cycle on them.
func ruleRoomTypesExist(store storage.Store) pipeline.Rule {
	return func(ctx context.Context, req pipeline.Request) []pipeline.Violation {
		cmd, ok := req.(CreateCommand)
		if !ok {
			return nil
		}
		nights := models.StayDates(cmd.Req.CheckIn, cmd.Req.CheckOut)
		if len(nights) == 0 {
			// The date rule reports this; nothing to look up.
			return nil
		}
		var violations []pipeline.Violation
		for i, room := range cmd.Req.Rooms {
			if room.RoomTypeID == "" {
				continue
			}
			_, err := store.GetRoomInventory(ctx, room.RoomTypeID, nights[0])
			if errors.Is(err, storage.ErrNotFound) {
				violations = append(violations, pipeline.Violation{
					Field:   fmt.Sprintf("rooms[%d].room_type_id", i),
					Message: "no inventory calendar for room type " + room.RoomTypeID,
				})
			}
		}
		return violations
	}
}
