package voucher

import (
	"fmt"
	"strings"
	"time"

	"booking-platform/internal/models"
)

// PreviewQuery asks what a voucher would be worth against an order without
// redeeming it. Previews are cacheable: a slightly stale answer is harmless
// because the caps are re-checked atomically at redemption time.
type PreviewQuery struct {
	Code        string
	UserID      string
	Amount      float64
	PropertyID  string
	RoomTypeIDs []string
}

func (PreviewQuery) Name() string { return "voucher.preview" }

func (q PreviewQuery) CacheKey() string {
	return fmt.Sprintf("voucher:preview:%s:%s:%.2f:%s:%s",
		q.Code, q.UserID, q.Amount, q.PropertyID, strings.Join(q.RoomTypeIDs, ","))
}

func (PreviewQuery) CacheTTL() time.Duration { return time.Minute }

func (PreviewQuery) NewCacheValue() interface{} { return &Application{} }

func (q PreviewQuery) Scope() models.OrderScope {
	return models.OrderScope{PropertyID: q.PropertyID, RoomTypeIDs: q.RoomTypeIDs}
}
