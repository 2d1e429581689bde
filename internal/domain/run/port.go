package run

import (
	"context"
	"time"
)

type Repo interface {
	Insert(ctx context.Context, r *Run) error
	ListRecent(ctx context.Context, limit int) ([]*Run, error)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
