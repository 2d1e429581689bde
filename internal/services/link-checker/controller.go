package link_checker

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	kafkax "github.com/NordCoder/Linkerus/internal/repository/kafka"
)

type Subscriber interface {
	Consume(ctx context.Context, h kafkax.Handler) error
}

// Controller starts a pass for every run request read from the bus. Requests
// arriving during a pass are folded into it.
type Controller struct {
	Log *zap.Logger
	Sub Subscriber
	UC  Pass
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.ProtoHandler(
		func() *structpb.Struct { return &structpb.Struct{} },
		func(ctx context.Context, _ []byte, msg *structpb.Struct) error {
			req := kafkax.DecodeRunRequest(msg)
			c.Log.Info("run requested", zap.String("reason", req.Reason), zap.Time("requested_at", req.RequestedAt))

			rep, err := c.UC.Run(ctx)
			switch {
			case errors.Is(err, ErrRunInProgress):
				runRequests.WithLabelValues("coalesced").Inc()
				c.Log.Info("run request coalesced into running pass")
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				runRequests.WithLabelValues("failed").Inc()
				c.Log.Warn("requested pass failed", zap.Error(err))
			default:
				runRequests.WithLabelValues("done").Inc()
				c.Log.Info("requested pass done", zap.String("run_id", rep.RunID))
			}
			return nil
		},
	)
	return c.Sub.Consume(ctx, handler)
}
