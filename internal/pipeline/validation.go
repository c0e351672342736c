package pipeline

import (
	"context"
	"sort"
	"sync"
)

// Rule inspects a request and reports field violations. Rules that need a
// data-store lookup are just slower rules; the behavior runs every rule in
// its own goroutine so they never serialize behind each other.
type Rule func(ctx context.Context, req Request) []Violation

// ValidationBehavior short-circuits with the aggregated violation list when
// any registered rule for the request's name fails. Requests with no
// registered rules pass straight through.
type ValidationBehavior struct {
	mutex sync.RWMutex
	rules map[string][]Rule
}

func NewValidationBehavior() *ValidationBehavior {
	return &ValidationBehavior{rules: make(map[string][]Rule)}
}

func (b *ValidationBehavior) Register(requestName string, rules ...Rule) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.rules[requestName] = append(b.rules[requestName], rules...)
}

func (b *ValidationBehavior) Handle(ctx context.Context, req Request, next HandlerFunc) *Result {
	b.mutex.RLock()
	rules := b.rules[req.Name()]
	b.mutex.RUnlock()

	if len(rules) == 0 {
		return next(ctx, req)
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		violations []Violation
	)
	for _, rule := range rules {
		wg.Add(1)
		go func(rule Rule) {
			defer wg.Done()
			if found := rule(ctx, req); len(found) > 0 {
				mu.Lock()
				violations = append(violations, found...)
				mu.Unlock()
			}
		}(rule)
	}
	wg.Wait()

	if len(violations) > 0 {
		// Stable order for callers and tests; goroutine finish order isn't.
		sort.Slice(violations, func(i, j int) bool {
			if violations[i].Field != violations[j].Field {
				return violations[i].Field < violations[j].Field
			}
			return violations[i].Message < violations[j].Message
		})
		return Invalid(violations)
	}

	return next(ctx, req)
}
