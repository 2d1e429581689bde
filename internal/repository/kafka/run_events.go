package kafka

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/Linkerus/internal/domain/events"
)

type RunEventsKafka struct {
	p *Producer
}

func NewRunEventsKafka(p *Producer) *RunEventsKafka { return &RunEventsKafka{p: p} }

var _ events.RunEvents = (*RunEventsKafka)(nil)

func (e *RunEventsKafka) PublishRunCompleted(ctx context.Context, ev events.RunCompleted) error {
	msg, err := EncodeRunCompleted(ev)
	if err != nil {
		return err
	}
	return e.p.PublishProto(ctx, ev.RunID, msg)
}

type RunRequestsKafka struct {
	p *Producer
}

func NewRunRequestsKafka(p *Producer) *RunRequestsKafka { return &RunRequestsKafka{p: p} }

var _ events.RunRequests = (*RunRequestsKafka)(nil)

func (r *RunRequestsKafka) PublishRunRequest(ctx context.Context, req events.RunRequest) error {
	msg, err := EncodeRunRequest(req)
	if err != nil {
		return err
	}
	return r.p.PublishProto(ctx, req.Reason, msg)
}

func EncodeRunCompleted(ev events.RunCompleted) (*structpb.Struct, error) {
	dist := make(map[string]any, len(ev.ErrorDistribution))
	for k, v := range ev.ErrorDistribution {
		dist[k] = v
	}
	s, err := structpb.NewStruct(map[string]any{
		"runId":             ev.RunID,
		"lastUpdated":       ev.LastUpdated.UTC().Format(time.RFC3339Nano),
		"totalUrls":         ev.TotalURLs,
		"brokenLinks":       ev.BrokenLinks,
		"successRate":       ev.SuccessRate,
		"totalRuns":         ev.TotalRuns,
		"errorDistribution": dist,
	})
	if err != nil {
		return nil, fmt.Errorf("encode run completed: %w", err)
	}
	return s, nil
}

func DecodeRunCompleted(s *structpb.Struct) (events.RunCompleted, error) {
	f := s.GetFields()
	ev := events.RunCompleted{
		RunID:             f["runId"].GetStringValue(),
		TotalURLs:         int(f["totalUrls"].GetNumberValue()),
		BrokenLinks:       int(f["brokenLinks"].GetNumberValue()),
		SuccessRate:       f["successRate"].GetNumberValue(),
		TotalRuns:         int(f["totalRuns"].GetNumberValue()),
		ErrorDistribution: map[string]int{},
	}
	if ev.RunID == "" {
		return ev, fmt.Errorf("%w: run completed without runId", ErrBadMessage)
	}
	ts, err := time.Parse(time.RFC3339Nano, f["lastUpdated"].GetStringValue())
	if err != nil {
		return ev, fmt.Errorf("%w: lastUpdated: %v", ErrBadMessage, err)
	}
	ev.LastUpdated = ts
	for k, v := range f["errorDistribution"].GetStructValue().GetFields() {
		ev.ErrorDistribution[k] = int(v.GetNumberValue())
	}
	return ev, nil
}

func EncodeRunRequest(req events.RunRequest) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"reason":      req.Reason,
		"requestedAt": req.RequestedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode run request: %w", err)
	}
	return s, nil
}

// DecodeRunRequest tolerates a missing or unparsable timestamp.
func DecodeRunRequest(s *structpb.Struct) events.RunRequest {
	f := s.GetFields()
	req := events.RunRequest{Reason: f["reason"].GetStringValue()}
	if ts, err := time.Parse(time.RFC3339Nano, f["requestedAt"].GetStringValue()); err == nil {
		req.RequestedAt = ts
	}
	return req
}
