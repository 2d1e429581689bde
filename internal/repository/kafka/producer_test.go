package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/Linkerus/internal/domain/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestRunEvents_PublishRunCompleted(t *testing.T) {
	w := &fakeWriter{}
	pub := NewRunEventsKafka(newProducer(w, "runs"))

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := events.RunCompleted{
		RunID:             "run-1",
		LastUpdated:       ts,
		TotalURLs:         120,
		BrokenLinks:       3,
		SuccessRate:       97.5,
		TotalRuns:         8,
		ErrorDistribution: map[string]int{"404": 2, "Timeout": 1},
	}
	require.NoError(t, pub.PublishRunCompleted(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "run-1", string(w.msgs[0].Key))

	var s structpb.Struct
	require.NoError(t, proto.Unmarshal(w.msgs[0].Value, &s))
	got, err := DecodeRunCompleted(&s)
	require.NoError(t, err)
	assert.Equal(t, ev.RunID, got.RunID)
	assert.True(t, ts.Equal(got.LastUpdated))
	assert.Equal(t, ev.TotalURLs, got.TotalURLs)
	assert.Equal(t, ev.BrokenLinks, got.BrokenLinks)
	assert.InDelta(t, ev.SuccessRate, got.SuccessRate, 1e-9)
	assert.Equal(t, ev.ErrorDistribution, got.ErrorDistribution)
}

func TestProducer_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	pub := NewRunEventsKafka(newProducer(&fakeWriter{err: boom}, "runs"))
	err := pub.PublishRunCompleted(context.Background(), events.RunCompleted{RunID: "x"})
	require.ErrorIs(t, err, boom)
}

func TestDecodeRunCompleted_Malformed(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"totalUrls": 3})
	require.NoError(t, err)
	_, err = DecodeRunCompleted(s)
	require.ErrorIs(t, err, ErrBadMessage)
}

func TestRunRequest_RoundTrip(t *testing.T) {
	w := &fakeWriter{}
	pub := NewRunRequestsKafka(newProducer(w, "requests"))
	at := time.Date(2025, 3, 2, 8, 30, 0, 0, time.UTC)
	require.NoError(t, pub.PublishRunRequest(context.Background(), events.RunRequest{Reason: "manual", RequestedAt: at}))
	require.Len(t, w.msgs, 1)

	var got events.RunRequest
	h := ProtoHandler(func() *structpb.Struct { return &structpb.Struct{} },
		func(_ context.Context, _ []byte, s *structpb.Struct) error {
			got = DecodeRunRequest(s)
			return nil
		})
	require.NoError(t, h(context.Background(), w.msgs[0].Key, w.msgs[0].Value))
	assert.Equal(t, "manual", got.Reason)
	assert.True(t, at.Equal(got.RequestedAt))
}

func TestProtoHandler_BadPayload(t *testing.T) {
	h := ProtoHandler(func() *structpb.Struct { return &structpb.Struct{} },
		func(context.Context, []byte, *structpb.Struct) error { return nil })
	err := h(context.Background(), nil, []byte{0xff, 0xff, 0xff})
	require.ErrorIs(t, err, ErrBadMessage)
}

func TestHeaderCarrier(t *testing.T) {
	var hs []kafka.Header
	c := headerCarrier{headers: &hs}
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("baggage", "k=v")
	assert.Equal(t, "b", c.Get("traceparent"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
	assert.Len(t, hs, 2)
}
