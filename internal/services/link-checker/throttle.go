package link_checker

import (
	"context"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type Origin string

const (
	OriginInternal Origin = "internal"
	OriginExternal Origin = "external"
)

type ThrottleLimits struct {
	Internal    int
	External    int
	ExternalRPS float64
}

// Throttler bounds in-flight probes separately for the site under test and
// for every other host. Waiters are served in arrival order.
type Throttler struct {
	domain   string
	internal *semaphore.Weighted
	external *semaphore.Weighted
	pace     *rate.Limiter
	limits   ThrottleLimits
}

func NewThrottler(domain string, l ThrottleLimits) *Throttler {
	if l.Internal < 1 {
		l.Internal = 1
	}
	if l.External < 1 {
		l.External = 1
	}
	t := &Throttler{
		domain:   strings.ToLower(strings.TrimSpace(domain)),
		internal: semaphore.NewWeighted(int64(l.Internal)),
		external: semaphore.NewWeighted(int64(l.External)),
		limits:   l,
	}
	if l.ExternalRPS > 0 {
		burst := l.External
		t.pace = rate.NewLimiter(rate.Limit(l.ExternalRPS), burst)
	}
	return t
}

func (t *Throttler) Limits() ThrottleLimits { return t.limits }

// Classify reports whether rawURL targets the site under test. Subdomains of
// the site count as internal.
func (t *Throttler) Classify(rawURL string) Origin {
	if t.domain == "" {
		return OriginExternal
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return OriginExternal
	}
	host := strings.ToLower(u.Hostname())
	if host == t.domain || strings.HasSuffix(host, "."+t.domain) {
		return OriginInternal
	}
	return OriginExternal
}

// Acquire blocks until a slot for rawURL's origin is free. The returned
// release must be called exactly once.
func (t *Throttler) Acquire(ctx context.Context, rawURL string) (func(), error) {
	origin := t.Classify(rawURL)
	sem := t.external
	if origin == OriginInternal {
		sem = t.internal
	}

	start := time.Now()
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if origin == OriginExternal && t.pace != nil {
		if err := t.pace.Wait(ctx); err != nil {
			sem.Release(1)
			return nil, err
		}
	}
	throttleWait.WithLabelValues(string(origin)).Observe(time.Since(start).Seconds())
	inFlight.WithLabelValues(string(origin)).Inc()

	released := false
	return func() {
		if released {
			return
		}
		released = true
		inFlight.WithLabelValues(string(origin)).Dec()
		sem.Release(1)
	}, nil
}

// ShareOf splits a global ceiling across n execution contexts, rounding up
// so that every context gets at least one slot.
func ShareOf(global, n int) int {
	if n < 1 {
		n = 1
	}
	if global < 1 {
		return 1
	}
	return (global + n - 1) / n
}

func (l ThrottleLimits) Share(n int) ThrottleLimits {
	out := ThrottleLimits{
		Internal: ShareOf(l.Internal, n),
		External: ShareOf(l.External, n),
	}
	if l.ExternalRPS > 0 && n > 0 {
		out.ExternalRPS = l.ExternalRPS / float64(n)
	}
	return out
}
