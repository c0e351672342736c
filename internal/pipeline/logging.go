package pipeline

import (
	"context"
	"fmt"
	"time"

	"booking-platform/internal/logger"
)

// LoggingBehavior times the handler execution path. It sits inside caching
// and validation on purpose: a cache hit or a validation short-circuit is
// not handler work and is not timed here.
type LoggingBehavior struct {
	log *logger.Logger
}

func NewLoggingBehavior(log *logger.Logger) *LoggingBehavior {
	return &LoggingBehavior{log: log}
}

func (b *LoggingBehavior) Handle(ctx context.Context, req Request, next HandlerFunc) *Result {
	start := time.Now()
	b.log.Debug("PIPELINE", fmt.Sprintf("Handling %s", req.Name()))

	res := next(ctx, req)

	elapsed := time.Since(start)
	if res.Success {
		b.log.Info("PIPELINE", fmt.Sprintf("%s completed in %s", req.Name(), elapsed))
	} else {
		b.log.Warn("PIPELINE", fmt.Sprintf("%s failed in %s: [%s] %s", req.Name(), elapsed, res.Code, res.Error))
	}
	return res
}
