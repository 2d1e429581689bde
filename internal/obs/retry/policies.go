package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// SinkPolicy is used for best-effort side outputs of a pass (event bus,
// archive database). A cancelled pass is never retried.
func SinkPolicy(name string, log *zap.Logger) Policy {
	return Policy{
		Name:     name,
		Attempts: 4,
		Backoff:  ExpoJitter{Base: 250 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("sink retry", zap.String("sink", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("sink retries exhausted", zap.String("sink", name), zap.Error(err))
			}
		},
	}
}
