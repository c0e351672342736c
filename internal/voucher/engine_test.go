package voucher_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/storage"
	"booking-platform/internal/voucher"
)

func newEngine(t *testing.T) (*voucher.Engine, *storage.InMemoryStore) {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })
	store := storage.NewInMemoryStore()
	return voucher.NewEngine(store, log), store
}

func activeVoucher(code string) *models.Voucher {
	now := time.Now()
	return &models.Voucher{
		VoucherID:     "v-" + code,
		Code:          code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		StartDate:     now.AddDate(0, 0, -1),
		EndDate:       now.AddDate(0, 0, 30),
		Status:        models.VoucherActive,
		Targets: []*models.VoucherTarget{
			{TargetID: "t-" + code, VoucherID: "v-" + code, Type: models.TargetGlobal},
		},
	}
}

func globalScope() models.OrderScope {
	return models.OrderScope{PropertyID: "prop-1", RoomTypeIDs: []string{"rt-1"}}
}

func TestPercentageDiscountIsCapped(t *testing.T) {
	engine, store := newEngine(t)

	v := activeVoucher("SAVE10")
	v.MaximumDiscount = 5
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	app, err := engine.Apply(context.Background(), "SAVE10", "user-1", 100, globalScope())
	require.NoError(t, err)
	assert.Equal(t, 5.0, app.Discount)
	assert.Equal(t, 95.0, app.FinalAmount)
	require.NotEmpty(t, app.UsageID)
}

func TestFixedDiscountNeverExceedsOrder(t *testing.T) {
	engine, store := newEngine(t)

	v := activeVoucher("FLAT50")
	v.DiscountType = models.DiscountFixed
	v.DiscountValue = 50
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	app, err := engine.Apply(context.Background(), "FLAT50", "user-1", 30, globalScope())
	require.NoError(t, err)
	assert.Equal(t, 30.0, app.Discount)
	assert.Equal(t, 0.0, app.FinalAmount)
}

func TestApplyRejectsExpiredAndInactive(t *testing.T) {
	engine, store := newEngine(t)

	expired := activeVoucher("OLD")
	expired.EndDate = time.Now().AddDate(0, 0, -1)
	require.NoError(t, store.SaveVoucher(context.Background(), expired))

	disabled := activeVoucher("OFF")
	disabled.Status = models.VoucherDisabled
	require.NoError(t, store.SaveVoucher(context.Background(), disabled))

	_, err := engine.Apply(context.Background(), "OLD", "user-1", 100, globalScope())
	assert.ErrorIs(t, err, voucher.ErrVoucherExpired)

	_, err = engine.Apply(context.Background(), "OFF", "user-1", 100, globalScope())
	assert.ErrorIs(t, err, voucher.ErrVoucherInactive)

	_, err = engine.Apply(context.Background(), "MISSING", "user-1", 100, globalScope())
	assert.ErrorIs(t, err, voucher.ErrVoucherNotFound)
}

func TestApplyEnforcesMinimumOrderAmount(t *testing.T) {
	engine, store := newEngine(t)

	v := activeVoucher("MIN100")
	v.MinimumOrderAmount = 100
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	_, err := engine.Apply(context.Background(), "MIN100", "user-1", 99.99, globalScope())
	assert.ErrorIs(t, err, voucher.ErrMinimumOrderAmount)
}

func TestApplyEnforcesScope(t *testing.T) {
	engine, store := newEngine(t)

	v := activeVoucher("PROP")
	v.Targets = []*models.VoucherTarget{
		{TargetID: "t-prop", VoucherID: v.VoucherID, Type: models.TargetProperty, PropertyID: "prop-other"},
	}
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	_, err := engine.Apply(context.Background(), "PROP", "user-1", 100, globalScope())
	assert.ErrorIs(t, err, voucher.ErrScopeMismatch)

	v.Targets[0].PropertyID = "prop-1"
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	_, err = engine.Apply(context.Background(), "PROP", "user-1", 100, globalScope())
	assert.NoError(t, err)
}

func TestLastUsageSlotGoesToExactlyOneCaller(t *testing.T) {
	engine, store := newEngine(t)

	v := activeVoucher("LAST1")
	v.UsageLimit = 1
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := string(rune('a' + i))
			_, errs[i] = engine.Apply(context.Background(), "LAST1", "user-"+user, 100, globalScope())
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, storage.ErrVoucherLimitExceeded)
		}
	}
	assert.Equal(t, 1, won)

	stored, err := store.GetVoucherByCode(context.Background(), "LAST1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestPerUserLimitBlocksRepeatUse(t *testing.T) {
	engine, store := newEngine(t)

	v := activeVoucher("ONCE")
	v.PerUserLimit = 1
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	_, err := engine.Apply(context.Background(), "ONCE", "user-1", 100, globalScope())
	require.NoError(t, err)

	_, err = engine.Apply(context.Background(), "ONCE", "user-1", 100, globalScope())
	assert.ErrorIs(t, err, storage.ErrVoucherUserLimitExceeded)

	// A different user still gets through.
	_, err = engine.Apply(context.Background(), "ONCE", "user-2", 100, globalScope())
	assert.NoError(t, err)
}

// conflictingStore fails the first n redemptions with a transient conflict.
type conflictingStore struct {
	*storage.InMemoryStore
	conflicts int32
	attempts  int32
}

func (s *conflictingStore) RedeemVoucher(ctx context.Context, usage *models.VoucherUsage, usageLimit, perUserLimit int) error {
	if atomic.AddInt32(&s.attempts, 1) <= s.conflicts {
		return storage.ErrConflict
	}
	return s.InMemoryStore.RedeemVoucher(ctx, usage, usageLimit, perUserLimit)
}

func TestApplyRetriesTransientRedeemConflicts(t *testing.T) {
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	store := &conflictingStore{InMemoryStore: storage.NewInMemoryStore(), conflicts: 2}
	engine := voucher.NewEngine(store, log)
	require.NoError(t, store.SaveVoucher(context.Background(), activeVoucher("BUSY")))

	// Two deadlock victims, then success; the caller never sees a conflict.
	app, err := engine.Apply(context.Background(), "BUSY", "user-1", 100, globalScope())
	require.NoError(t, err)
	assert.Equal(t, 10.0, app.Discount)
	assert.Equal(t, int32(3), atomic.LoadInt32(&store.attempts))
}

func TestApplySurfacesConflictPastRetryBound(t *testing.T) {
	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	store := &conflictingStore{InMemoryStore: storage.NewInMemoryStore(), conflicts: 10}
	engine := voucher.NewEngine(store, log)
	require.NoError(t, store.SaveVoucher(context.Background(), activeVoucher("JAM")))

	_, err := engine.Apply(context.Background(), "JAM", "user-1", 100, globalScope())
	assert.ErrorIs(t, err, storage.ErrConflict)
	assert.Equal(t, int32(3), atomic.LoadInt32(&store.attempts))
}

func TestRollbackFreesTheSlot(t *testing.T) {
	engine, store := newEngine(t)

	v := activeVoucher("RB")
	v.UsageLimit = 1
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	app, err := engine.Apply(context.Background(), "RB", "user-1", 100, globalScope())
	require.NoError(t, err)

	require.NoError(t, engine.Rollback(context.Background(), app.UsageID))

	// The slot is available again.
	_, err = engine.Apply(context.Background(), "RB", "user-2", 100, globalScope())
	assert.NoError(t, err)
}

func TestPreviewDoesNotSpendASlot(t *testing.T) {
	engine, store := newEngine(t)

	v := activeVoucher("PEEK")
	v.UsageLimit = 1
	require.NoError(t, store.SaveVoucher(context.Background(), v))

	app, err := engine.Preview(context.Background(), "PEEK", "user-1", 200, globalScope())
	require.NoError(t, err)
	assert.Equal(t, 20.0, app.Discount)
	assert.Empty(t, app.UsageID)

	stored, err := store.GetVoucherByCode(context.Background(), "PEEK")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UsedCount)
}
