package link_checker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottler_Classify(t *testing.T) {
	th := NewThrottler("www.example.com", ThrottleLimits{Internal: 1, External: 1})
	cases := map[string]Origin{
		"https://www.example.com/a":     OriginInternal,
		"https://WWW.EXAMPLE.COM/a":     OriginInternal,
		"https://cdn.www.example.com/x": OriginInternal,
		"http://www.example.com:8080/":  OriginInternal,
		"https://example.com/":          OriginExternal,
		"https://notwww.example.com/":   OriginExternal,
		"https://www.example.com.evil/": OriginExternal,
		"https://twitter.com/example":   OriginExternal,
		"::not a url":                   OriginExternal,
	}
	for u, want := range cases {
		assert.Equal(t, want, th.Classify(u), u)
	}
}

func TestThrottler_Ceilings(t *testing.T) {
	const internalLimit, externalLimit = 3, 2
	th := NewThrottler("www.example.com", ThrottleLimits{Internal: internalLimit, External: externalLimit})

	var curIn, maxIn, curEx, maxEx atomic.Int32
	bump := func(cur, peak *atomic.Int32) {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				return
			}
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		u, cur, peak := "https://www.example.com/p", &curIn, &maxIn
		if i%2 == 1 {
			u, cur, peak = "https://ext.test/p", &curEx, &maxEx
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := th.Acquire(context.Background(), u)
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			bump(cur, peak)
			time.Sleep(5 * time.Millisecond)
			cur.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxIn.Load(), int32(internalLimit))
	assert.LessOrEqual(t, maxEx.Load(), int32(externalLimit))
	assert.Equal(t, int32(internalLimit), maxIn.Load())
}

func TestThrottler_ExternalSaturationDoesNotBlockInternal(t *testing.T) {
	th := NewThrottler("www.example.com", ThrottleLimits{Internal: 1, External: 1})

	hold, err := th.Acquire(context.Background(), "https://slow.test/")
	require.NoError(t, err)
	defer hold()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	release, err := th.Acquire(ctx, "https://www.example.com/")
	require.NoError(t, err)
	release()

	blocked, cancel2 := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel2()
	_, err = th.Acquire(blocked, "https://another.test/")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThrottler_ReleaseIsIdempotent(t *testing.T) {
	th := NewThrottler("www.example.com", ThrottleLimits{Internal: 1, External: 1})
	release, err := th.Acquire(context.Background(), "https://www.example.com/")
	require.NoError(t, err)
	release()
	release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r2, err := th.Acquire(ctx, "https://www.example.com/")
	require.NoError(t, err)
	r2()
}

func TestThrottler_ExternalPacing(t *testing.T) {
	th := NewThrottler("www.example.com", ThrottleLimits{Internal: 4, External: 1, ExternalRPS: 20})
	start := time.Now()
	for i := 0; i < 4; i++ {
		release, err := th.Acquire(context.Background(), "https://ext.test/")
		require.NoError(t, err)
		release()
	}
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestShareOf(t *testing.T) {
	assert.Equal(t, 25, ShareOf(100, 4))
	assert.Equal(t, 34, ShareOf(100, 3))
	assert.Equal(t, 1, ShareOf(2, 8))
	assert.Equal(t, 1, ShareOf(0, 4))
	assert.Equal(t, 10, ShareOf(10, 0))

	l := ThrottleLimits{Internal: 100, External: 20, ExternalRPS: 8}.Share(4)
	assert.Equal(t, ThrottleLimits{Internal: 25, External: 5, ExternalRPS: 2}, l)
}
