package pipeline_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-platform/internal/cache"
	"booking-platform/internal/logger"
	"booking-platform/internal/pipeline"
)

type plainCommand struct{}

func (plainCommand) Name() string { return "test.command" }

type cachedQuery struct {
	ID  string
	TTL time.Duration
}

func (cachedQuery) Name() string { return "test.query" }

func (q cachedQuery) CacheKey() string { return "test:" + q.ID }

func (q cachedQuery) CacheTTL() time.Duration { return q.TTL }

func (cachedQuery) NewCacheValue() interface{} { return &queryPayload{} }

type queryPayload struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

// recorder notes the order behaviors and the handler run in.
type recorder struct {
	name  string
	calls *[]string
}

func (r *recorder) Handle(ctx context.Context, req pipeline.Request, next pipeline.HandlerFunc) *pipeline.Result {
	*r.calls = append(*r.calls, r.name)
	return next(ctx, req)
}

func TestBehaviorsRunInRegistrationOrder(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	var calls []string
	pipe := pipeline.New(log,
		&recorder{name: "first", calls: &calls},
		&recorder{name: "second", calls: &calls},
		&recorder{name: "third", calls: &calls},
	)

	res := pipe.Execute(context.Background(), plainCommand{}, func(ctx context.Context, req pipeline.Request) *pipeline.Result {
		calls = append(calls, "handler")
		return pipeline.Ok("done")
	})

	require.True(t, res.Success)
	assert.Equal(t, []string{"first", "second", "third", "handler"}, calls)
}

func TestCacheHitSkipsEverythingDownstream(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	var handlerCalls, validationCalls int32

	validation := pipeline.NewValidationBehavior()
	validation.Register("test.query", func(ctx context.Context, req pipeline.Request) []pipeline.Violation {
		atomic.AddInt32(&validationCalls, 1)
		return nil
	})

	pipe := pipeline.New(log,
		pipeline.NewCachingBehavior(cache.NewMemory(), log),
		validation,
		pipeline.NewLoggingBehavior(log),
	)

	query := cachedQuery{ID: "q1", TTL: time.Minute}
	terminal := func(ctx context.Context, req pipeline.Request) *pipeline.Result {
		atomic.AddInt32(&handlerCalls, 1)
		return pipeline.Ok(&queryPayload{ID: "q1", Value: 42})
	}

	first := pipe.Execute(context.Background(), query, terminal)
	require.True(t, first.Success)
	assert.False(t, first.FromCache)

	second := pipe.Execute(context.Background(), query, terminal)
	require.True(t, second.Success)
	assert.True(t, second.FromCache)

	payload, ok := second.Data.(*queryPayload)
	require.True(t, ok)
	assert.Equal(t, 42, payload.Value)

	// The hit bypassed the handler and validation alike.
	assert.Equal(t, int32(1), atomic.LoadInt32(&handlerCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&validationCalls))
}

func TestCacheEntryExpires(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	var handlerCalls int32
	pipe := pipeline.New(log, pipeline.NewCachingBehavior(cache.NewMemory(), log))

	query := cachedQuery{ID: "q2", TTL: 20 * time.Millisecond}
	terminal := func(ctx context.Context, req pipeline.Request) *pipeline.Result {
		atomic.AddInt32(&handlerCalls, 1)
		return pipeline.Ok(&queryPayload{ID: "q2", Value: 7})
	}

	pipe.Execute(context.Background(), query, terminal)
	time.Sleep(40 * time.Millisecond)
	res := pipe.Execute(context.Background(), query, terminal)

	require.True(t, res.Success)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(2), atomic.LoadInt32(&handlerCalls))
}

func TestFailedResultsAreNotCached(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	var handlerCalls int32
	pipe := pipeline.New(log, pipeline.NewCachingBehavior(cache.NewMemory(), log))

	query := cachedQuery{ID: "q3", TTL: time.Minute}
	terminal := func(ctx context.Context, req pipeline.Request) *pipeline.Result {
		atomic.AddInt32(&handlerCalls, 1)
		return pipeline.Fail(pipeline.CodeNotFound, "missing")
	}

	pipe.Execute(context.Background(), query, terminal)
	res := pipe.Execute(context.Background(), query, terminal)

	assert.False(t, res.Success)
	assert.Equal(t, int32(2), atomic.LoadInt32(&handlerCalls))
}

func TestValidationShortCircuits(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	validation := pipeline.NewValidationBehavior()
	validation.Register("test.command",
		func(ctx context.Context, req pipeline.Request) []pipeline.Violation {
			return []pipeline.Violation{{Field: "b", Message: "b is bad"}}
		},
		func(ctx context.Context, req pipeline.Request) []pipeline.Violation {
			return []pipeline.Violation{{Field: "a", Message: "a is bad"}}
		},
	)

	pipe := pipeline.New(log, validation)

	handlerRan := false
	res := pipe.Execute(context.Background(), plainCommand{}, func(ctx context.Context, req pipeline.Request) *pipeline.Result {
		handlerRan = true
		return pipeline.Ok(nil)
	})

	require.False(t, res.Success)
	assert.Equal(t, pipeline.CodeValidationFailed, res.Code)
	assert.False(t, handlerRan)

	// Violations come back sorted regardless of rule finish order.
	require.Len(t, res.Violations, 2)
	assert.Equal(t, "a", res.Violations[0].Field)
	assert.Equal(t, "b", res.Violations[1].Field)
}

func TestUnregisteredRequestPassesValidation(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	pipe := pipeline.New(log, pipeline.NewValidationBehavior())

	res := pipe.Execute(context.Background(), plainCommand{}, func(ctx context.Context, req pipeline.Request) *pipeline.Result {
		return pipeline.Ok("through")
	})

	require.True(t, res.Success)
	assert.Equal(t, "through", res.Data)
}

func TestPanicBecomesInternalFailure(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	pipe := pipeline.New(log, pipeline.NewLoggingBehavior(log))

	res := pipe.Execute(context.Background(), plainCommand{}, func(ctx context.Context, req pipeline.Request) *pipeline.Result {
		panic("boom")
	})

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, pipeline.CodeInternal, res.Code)
}
