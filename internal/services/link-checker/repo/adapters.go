package repo

import (
	"context"

	"go.uber.org/zap"

	"github.com/NordCoder/Linkerus/internal/domain/events"
	"github.com/NordCoder/Linkerus/internal/domain/run"
	"github.com/NordCoder/Linkerus/internal/obs/retry"
)

// Events publishes pass results with retries. A nil publisher disables it.
type Events struct {
	P   events.RunEvents
	Log *zap.Logger
}

func (e Events) Enabled() bool { return e.P != nil }

func (e Events) PublishRunCompleted(ctx context.Context, ev events.RunCompleted) error {
	if e.P == nil {
		return nil
	}
	return retry.Do(ctx, func(ctx context.Context) error {
		return e.P.PublishRunCompleted(ctx, ev)
	}, retry.SinkPolicy("kafka.run_completed", e.Log))
}

// Archive stores finished runs with retries. A nil repo disables it.
type Archive struct {
	R   run.Repo
	Log *zap.Logger
}

func (a Archive) Enabled() bool { return a.R != nil }

func (a Archive) Insert(ctx context.Context, r *run.Run) error {
	if a.R == nil {
		return nil
	}
	return retry.Do(ctx, func(ctx context.Context) error {
		return a.R.Insert(ctx, r)
	}, retry.SinkPolicy("postgres.link_runs", a.Log))
}
