package voucher

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/storage"
	"booking-platform/internal/utils"
)

var (
	ErrVoucherNotFound    = errors.New("voucher not found")
	ErrVoucherInactive    = errors.New("voucher is not active")
	ErrVoucherExpired     = errors.New("voucher is outside its validity window")
	ErrMinimumOrderAmount = errors.New("order amount below voucher minimum")
	ErrScopeMismatch      = errors.New("voucher does not apply to this order")
)

const (
	maxAttempts = 3
	backoffBase = 25 * time.Millisecond
)

// Application is the outcome of a successful voucher redemption.
type Application struct {
	UsageID     string  `json:"usage_id"`
	VoucherID   string  `json:"voucher_id"`
	Code        string  `json:"code"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"final_amount"`
}

// Engine validates and redeems vouchers. The usage-cap race is closed in
// the storage layer: RedeemVoucher's increment is conditional on the limit,
// so the checks here only fail fast.
type Engine struct {
	store storage.Store
	log   *logger.Logger
}

func NewEngine(store storage.Store, log *logger.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Apply runs the precondition chain, computes the discount and atomically
// reserves one usage slot. First failure wins; nothing is partially applied.
func (e *Engine) Apply(ctx context.Context, code, userID string, orderAmount float64, scope models.OrderScope) (*Application, error) {
	e.log.LogVoucher("APPLY", code, fmt.Sprintf("User %s, order amount %.2f", userID, orderAmount))

	v, err := e.store.GetVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}

	now := time.Now()
	if v.Status != models.VoucherActive {
		return nil, ErrVoucherInactive
	}
	if now.Before(v.StartDate) || now.After(v.EndDate) {
		return nil, ErrVoucherExpired
	}
	if v.MinimumOrderAmount > 0 && orderAmount < v.MinimumOrderAmount {
		return nil, ErrMinimumOrderAmount
	}
	if !matchesScope(v.Targets, scope) {
		return nil, ErrScopeMismatch
	}
	if v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit {
		return nil, storage.ErrVoucherLimitExceeded
	}
	if v.PerUserLimit > 0 {
		used, err := e.store.CountVoucherUsages(ctx, v.VoucherID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count prior usages: %w", err)
		}
		if used >= v.PerUserLimit {
			return nil, storage.ErrVoucherUserLimitExceeded
		}
	}

	discount := computeDiscount(v, orderAmount)
	usage := &models.VoucherUsage{
		UsageID:   utils.GenerateUUID(),
		VoucherID: v.VoucherID,
		UserID:    userID,
		Discount:  discount,
		AppliedAt: now,
	}

	if err := e.redeemWithRetry(ctx, code, usage, v.UsageLimit, v.PerUserLimit); err != nil {
		e.log.LogVoucher("REJECTED", code, err.Error())
		return nil, err
	}

	app := &Application{
		UsageID:     usage.UsageID,
		VoucherID:   v.VoucherID,
		Code:        v.Code,
		Discount:    discount,
		FinalAmount: orderAmount - discount,
	}
	e.log.LogVoucher("APPLIED", code, fmt.Sprintf("Discount %.2f, final amount %.2f", app.Discount, app.FinalAmount))
	return app, nil
}

// Preview runs the same precondition chain as Apply but never spends a
// usage slot. The number it returns is advisory; the caps are re-checked
// atomically at redemption time.
func (e *Engine) Preview(ctx context.Context, code, userID string, orderAmount float64, scope models.OrderScope) (*Application, error) {
	v, err := e.store.GetVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}

	now := time.Now()
	if v.Status != models.VoucherActive {
		return nil, ErrVoucherInactive
	}
	if now.Before(v.StartDate) || now.After(v.EndDate) {
		return nil, ErrVoucherExpired
	}
	if v.MinimumOrderAmount > 0 && orderAmount < v.MinimumOrderAmount {
		return nil, ErrMinimumOrderAmount
	}
	if !matchesScope(v.Targets, scope) {
		return nil, ErrScopeMismatch
	}
	if v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit {
		return nil, storage.ErrVoucherLimitExceeded
	}
	if v.PerUserLimit > 0 && userID != "" {
		used, err := e.store.CountVoucherUsages(ctx, v.VoucherID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count prior usages: %w", err)
		}
		if used >= v.PerUserLimit {
			return nil, storage.ErrVoucherUserLimitExceeded
		}
	}

	discount := computeDiscount(v, orderAmount)
	return &Application{
		VoucherID:   v.VoucherID,
		Code:        v.Code,
		Discount:    discount,
		FinalAmount: orderAmount - discount,
	}, nil
}

// redeemWithRetry reruns the atomic redemption on transient storage
// conflicts, up to maxAttempts, with jittered backoff between attempts.
// Limit violations are final and never retried.
func (e *Engine) redeemWithRetry(ctx context.Context, code string, usage *models.VoucherUsage, usageLimit, perUserLimit int) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = e.store.RedeemVoucher(ctx, usage, usageLimit, perUserLimit)
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		e.log.LogVoucher("RETRY", code, fmt.Sprintf("Conflict on attempt %d/%d", attempt, maxAttempts))

		if attempt < maxAttempts {
			backoff := time.Duration(attempt)*backoffBase + time.Duration(rand.Int63n(int64(backoffBase)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return err
}

// Rollback undoes a redemption when the booking around it failed to persist.
func (e *Engine) Rollback(ctx context.Context, usageID string) error {
	e.log.LogVoucher("ROLLBACK", usageID, "Undoing redemption")
	return e.store.RollbackVoucherUsage(ctx, usageID)
}

func computeDiscount(v *models.Voucher, orderAmount float64) float64 {
	var discount float64
	switch v.DiscountType {
	case models.DiscountPercentage:
		discount = orderAmount * v.DiscountValue / 100
		if v.MaximumDiscount > 0 && discount > v.MaximumDiscount {
			discount = v.MaximumDiscount
		}
	case models.DiscountFixed:
		discount = v.DiscountValue
	}
	// The discount never pushes the total below zero.
	if discount > orderAmount {
		discount = orderAmount
	}
	return discount
}

func matchesScope(targets []*models.VoucherTarget, scope models.OrderScope) bool {
	for _, t := range targets {
		switch t.Type {
		case models.TargetGlobal:
			return true
		case models.TargetPartner:
			if t.PartnerID != "" && t.PartnerID == scope.PartnerID {
				return true
			}
		case models.TargetProperty:
			if t.PropertyID != "" && t.PropertyID == scope.PropertyID {
				return true
			}
		case models.TargetRoomType:
			for _, roomTypeID := range scope.RoomTypeIDs {
				if t.RoomTypeID != "" && t.RoomTypeID == roomTypeID {
					return true
				}
			}
		}
	}
	return false
}
