package pipeline

import (
	"context"
	"fmt"
	"time"

	"booking-platform/internal/logger"
)

// Request is anything that can travel through the pipeline. Name keys
// validation rule sets and shows up in logs.
type Request interface {
	Name() string
}

// Cacheable requests opt into the caching behavior. A zero TTL means the
// result is served from cache when present but never persisted.
type Cacheable interface {
	Request
	CacheKey() string
	CacheTTL() time.Duration
	// NewCacheValue returns a fresh value a cached payload is decoded into.
	NewCacheValue() interface{}
}

// Result codes, the error taxonomy crossing the pipeline boundary.
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	CodeVoucherLimitExceeded  = "VOUCHER_LIMIT_EXCEEDED"
	CodeInvalidCallback       = "INVALID_CALLBACK"
	CodeGatewayUnavailable    = "GATEWAY_UNAVAILABLE"
	CodeIllegalTransition     = "ILLEGAL_STATE_TRANSITION"
	CodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
	CodeNotFound              = "NOT_FOUND"
	CodeInternal              = "INTERNAL_ERROR"
)

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Code       string      `json:"code,omitempty"`
	Error      string      `json:"error,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
	FromCache  bool        `json:"-"`
}

func Ok(data interface{}) *Result {
	return &Result{Success: true, Data: data}
}

func Fail(code, message string) *Result {
	return &Result{Success: false, Code: code, Error: message}
}

func Invalid(violations []Violation) *Result {
	return &Result{Success: false, Code: CodeValidationFailed, Error: "validation failed", Violations: violations}
}

// HandlerFunc is the terminal handler or the rest of the chain.
type HandlerFunc func(ctx context.Context, req Request) *Result

// Behavior wraps the rest of the chain and may short-circuit it.
type Behavior interface {
	Handle(ctx context.Context, req Request, next HandlerFunc) *Result
}

// Pipeline executes behaviors in registration order: the first behavior is
// the outermost wrapper at runtime.
type Pipeline struct {
	behaviors []Behavior
	log       *logger.Logger
}

func New(log *logger.Logger, behaviors ...Behavior) *Pipeline {
	return &Pipeline{behaviors: behaviors, log: log}
}

// Execute folds the behaviors around the terminal handler. Panics anywhere
// inside the chain become internal failure results; one request blowing up
// never takes down its neighbours.
func (p *Pipeline) Execute(ctx context.Context, req Request, terminal HandlerFunc) *Result {
	chain := terminal
	for i := len(p.behaviors) - 1; i >= 0; i-- {
		behavior := p.behaviors[i]
		next := chain
		chain = func(ctx context.Context, req Request) *Result {
			return behavior.Handle(ctx, req, next)
		}
	}
	return p.safeCall(ctx, req, chain)
}

func (p *Pipeline) safeCall(ctx context.Context, req Request, fn HandlerFunc) (res *Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			p.log.Error("PIPELINE", fmt.Sprintf("Recovered from panic in %s: %v", req.Name(), recovered))
			res = Fail(CodeInternal, "internal error")
		}
	}()
	return fn(ctx, req)
}
