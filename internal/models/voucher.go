package models

import (
	"time"

	"github.com/uptrace/bun"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type VoucherStatus string

const (
	VoucherActive   VoucherStatus = "active"
	VoucherDisabled VoucherStatus = "disabled"
)

type VoucherTargetType string

const (
	TargetGlobal   VoucherTargetType = "global"
	TargetPartner  VoucherTargetType = "partner"
	TargetProperty VoucherTargetType = "property"
	TargetRoomType VoucherTargetType = "room_type"
)

type Voucher struct {
	bun.BaseModel `bun:"table:vouchers"`

	VoucherID          string           `json:"voucher_id" bun:"voucher_id,pk"`
	Code               string           `json:"code" bun:"code,unique"`
	DiscountType       DiscountType     `json:"discount_type" bun:"discount_type"`
	DiscountValue      float64          `json:"discount_value" bun:"discount_value"`
	StartDate          time.Time        `json:"start_date" bun:"start_date"`
	EndDate            time.Time        `json:"end_date" bun:"end_date"`
	MinimumOrderAmount float64          `json:"minimum_order_amount" bun:"minimum_order_amount"`
	MaximumDiscount    float64          `json:"maximum_discount" bun:"maximum_discount"`
	UsageLimit         int              `json:"usage_limit" bun:"usage_limit"`
	PerUserLimit       int              `json:"per_user_limit" bun:"per_user_limit"`
	UsedCount          int              `json:"used_count" bun:"used_count"`
	Status             VoucherStatus    `json:"status" bun:"status"`
	Targets            []*VoucherTarget `json:"targets" bun:"rel:has-many,join:voucher_id=voucher_id"`
}

// VoucherTarget scopes a voucher. Exactly one reference is populated
// according to the target type; global targets carry none.
type VoucherTarget struct {
	bun.BaseModel `bun:"table:voucher_targets"`

	TargetID   string            `json:"target_id" bun:"target_id,pk"`
	VoucherID  string            `json:"voucher_id" bun:"voucher_id"`
	Type       VoucherTargetType `json:"type" bun:"type"`
	PartnerID  string            `json:"partner_id,omitempty" bun:"partner_id"`
	PropertyID string            `json:"property_id,omitempty" bun:"property_id"`
	RoomTypeID string            `json:"room_type_id,omitempty" bun:"room_type_id"`
}

type VoucherUsage struct {
	bun.BaseModel `bun:"table:voucher_usages"`

	UsageID   string    `json:"usage_id" bun:"usage_id,pk"`
	VoucherID string    `json:"voucher_id" bun:"voucher_id"`
	UserID    string    `json:"user_id" bun:"user_id"`
	BookingID string    `json:"booking_id,omitempty" bun:"booking_id"`
	Discount  float64   `json:"discount" bun:"discount"`
	AppliedAt time.Time `json:"applied_at" bun:"applied_at"`
}

// OrderScope describes what a booking touches, matched against voucher targets.
type OrderScope struct {
	PartnerID   string   `json:"partner_id,omitempty"`
	PropertyID  string   `json:"property_id,omitempty"`
	RoomTypeIDs []string `json:"room_type_ids,omitempty"`
}
