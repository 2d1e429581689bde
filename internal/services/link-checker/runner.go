package link_checker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/Linkerus/internal/obs"
)

// Runner triggers a pass right away and then on every tick.
type Runner struct {
	Log  *zap.Logger
	UC   Pass
	Tick time.Duration
}

func NewRunner(log *zap.Logger, uc Pass, tick time.Duration) *Runner {
	return &Runner{Log: obs.Component(log, "runner"), UC: uc, Tick: tick}
}

func (r *Runner) tick(ctx context.Context) {
	rep, err := r.UC.Run(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		r.Log.Debug("tick skipped; pass in progress")
	case err != nil:
		r.Log.Warn("tick error", zap.Error(err))
	default:
		r.Log.Debug("tick done", zap.String("run_id", rep.RunID), zap.Duration("took", rep.Duration))
	}
}

func (r *Runner) Run(ctx context.Context) error {
	tick := r.Tick
	if tick <= 0 {
		tick = time.Hour
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
