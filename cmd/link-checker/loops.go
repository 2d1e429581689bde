package main

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

type loop struct {
	name string
	run  func(ctx context.Context) error
}

// runLoops runs every loop until ctx ends or one of them fails, then waits
// for all of them to return. A pass in flight finishes its snapshot, event
// and archive writes before the caller closes the sinks.
func runLoops(ctx context.Context, l *zap.Logger, loops ...loop) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    conc.WaitGroup
		once  sync.Once
		first error
	)
	for _, lp := range loops {
		wg.Go(func() {
			err := lp.run(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				l.Info("loop stopped", zap.String("loop", lp.name))
				return
			}
			l.Error("loop failed", zap.String("loop", lp.name), zap.Error(err))
			once.Do(func() {
				first = err
				cancel()
			})
		})
	}
	wg.Wait()
	return first
}
