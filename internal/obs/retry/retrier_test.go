package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	}, Policy{Name: "test", Attempts: 5, Backoff: ExpoJitter{Base: time.Millisecond}})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls, exhausted := 0, 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	}, Policy{
		Attempts:  5,
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
		OnExhaust: func(error) { exhausted++ },
	})
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, exhausted)
}

func TestDo_HonorsContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := Do(ctx, func(context.Context) error { return errors.New("down") },
		Policy{Attempts: 10, Backoff: ExpoJitter{Base: time.Second}})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExpoJitter(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, 100*time.Millisecond, b.Next(0))
	assert.Equal(t, 400*time.Millisecond, b.Next(2))
	assert.Equal(t, time.Second, b.Next(10))
	assert.Zero(t, ExpoJitter{}.Next(3))

	j := ExpoJitter{Base: 100 * time.Millisecond, Jitter: 0.5}
	for i := 0; i < 50; i++ {
		d := j.Next(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestSinkPolicy_DoesNotRetryCancel(t *testing.T) {
	p := SinkPolicy("sink", nil)
	assert.False(t, p.Retryable(context.Canceled))
	assert.True(t, p.Retryable(errors.New("broker down")))
	assert.Equal(t, 4, p.Attempts)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	require.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}
