package events

import "context"

type RunEvents interface {
	PublishRunCompleted(ctx context.Context, ev RunCompleted) error
}

type RunRequests interface {
	PublishRunRequest(ctx context.Context, req RunRequest) error
}
