package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"booking-platform/internal/cache"
	"booking-platform/internal/logger"
)

// CachingBehavior is the outermost behavior: a hit returns immediately and
// nothing downstream (validation, logging, handler) runs. Cache failures
// never fail the request; they degrade to a live call.
type CachingBehavior struct {
	cache cache.Cache
	log   *logger.Logger
}

func NewCachingBehavior(c cache.Cache, log *logger.Logger) *CachingBehavior {
	return &CachingBehavior{cache: c, log: log}
}

func (b *CachingBehavior) Handle(ctx context.Context, req Request, next HandlerFunc) *Result {
	cacheable, ok := req.(Cacheable)
	if !ok {
		return next(ctx, req)
	}

	key := cacheable.CacheKey()
	payload, hit, err := b.cache.Get(ctx, key)
	if err != nil {
		b.log.Warn("CACHE", fmt.Sprintf("Read failed for %s, falling through: %v", key, err))
	} else if hit {
		value := cacheable.NewCacheValue()
		if err := json.Unmarshal(payload, value); err != nil {
			b.log.Warn("CACHE", fmt.Sprintf("Corrupt entry for %s, falling through: %v", key, err))
		} else {
			b.log.LogCache("HIT", key, req.Name())
			return &Result{Success: true, Data: value, FromCache: true}
		}
	}

	res := next(ctx, req)

	if res.Success && cacheable.CacheTTL() > 0 {
		if payload, err := json.Marshal(res.Data); err != nil {
			b.log.Warn("CACHE", fmt.Sprintf("Marshal failed for %s: %v", key, err))
		} else if err := b.cache.Set(ctx, key, payload, cacheable.CacheTTL()); err != nil {
			b.log.Warn("CACHE", fmt.Sprintf("Write failed for %s: %v", key, err))
		} else {
			b.log.LogCache("STORE", key, req.Name())
		}
	}

	return res
}
