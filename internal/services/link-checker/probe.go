package link_checker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/NordCoder/Linkerus/internal/domain/outcome"
	"github.com/NordCoder/Linkerus/internal/domain/run"
	"github.com/NordCoder/Linkerus/internal/domain/target"
	"github.com/NordCoder/Linkerus/internal/obs"
	"github.com/NordCoder/Linkerus/internal/obs/retry"
)

type ProbeConfig struct {
	Timeout       time.Duration
	MaxAttempts   int
	TimeoutGrowth float64
	RetryBackoff  time.Duration
	MaxRedirects  int
	UserAgent     string
	VerifyTLS     bool
}

// drainLimit caps how much of a GET body is read before the connection is
// handed back to the pool.
const drainLimit = 64 << 10

var ErrTooManyRedirects = errors.New("too many redirects")

// NewHTTPClient builds the client of one execution context. It has no
// client-wide timeout; every request carries its own deadline.
func NewHTTPClient(cfg ProbeConfig, base http.RoundTripper) *http.Client {
	if base == nil {
		base = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          200,
			MaxIdleConnsPerHost:   64,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !cfg.VerifyTLS,
				MinVersion:         tls.VersionTLS12,
			},
		}
	}
	maxRedirects := cfg.MaxRedirects
	return &http.Client{
		Transport: otelhttp.NewTransport(base),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if maxRedirects == 0 {
				return http.ErrUseLastResponse
			}
			if len(via) >= maxRedirects {
				return fmt.Errorf("%w: %d", ErrTooManyRedirects, maxRedirects)
			}
			return nil
		},
	}
}

// Prober checks one target at a time: HEAD first, GET when HEAD is not
// trustworthy, bounded retries with a growing budget.
type Prober struct {
	client   *http.Client
	headers  http.Header
	cfg      ProbeConfig
	throttle *Throttler
	backoff  retry.Backoff
	clock    run.Clock
	log      *zap.Logger
}

func NewProber(cfg ProbeConfig, client *http.Client, throttle *Throttler, log *zap.Logger) *Prober {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.TimeoutGrowth <= 1 {
		cfg.TimeoutGrowth = 2
	}
	if client == nil {
		client = NewHTTPClient(cfg, nil)
	}
	h := http.Header{}
	h.Set("Accept", "*/*")
	if cfg.UserAgent != "" {
		h.Set("User-Agent", cfg.UserAgent)
	}
	return &Prober{
		client:   client,
		headers:  h,
		cfg:      cfg,
		throttle: throttle,
		backoff:  retry.ExpoJitter{Base: cfg.RetryBackoff, Max: 10 * cfg.RetryBackoff, Jitter: 0.2},
		clock:    run.SystemClock{},
		log:      obs.Component(log, "probe"),
	}
}

func (p *Prober) WithClock(c run.Clock) *Prober {
	cp := *p
	cp.clock = c
	return &cp
}

// Probe returns nil for a healthy or skipped target and an Outcome for an
// unhealthy one. An error is returned only when ctx ends first.
func (p *Prober) Probe(ctx context.Context, t target.CheckTarget) (*outcome.Outcome, error) {
	if !hasHTTPScheme(t.URL) {
		skippedTargets.Inc()
		p.log.Debug("skip non-http target", zap.String("url", t.URL))
		return nil, nil
	}

	if p.throttle != nil {
		release, err := p.throttle.Acquire(ctx, t.URL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	start := time.Now()
	budget := p.cfg.Timeout
	var lastErr error
	for i := 0; i < p.cfg.MaxAttempts; i++ {
		if i > 0 {
			budget = time.Duration(float64(budget) * p.cfg.TimeoutGrowth)
			if err := retry.Sleep(ctx, p.backoff.Next(i-1)); err != nil {
				return nil, err
			}
		}
		probeAttempts.Inc()

		code, err := p.attempt(ctx, t.URL, budget)
		if err == nil {
			return p.verdict(t, code, time.Since(start)), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		p.log.Debug("probe attempt failed",
			zap.String("url", t.URL),
			zap.Int("attempt", i+1),
			zap.Duration("budget", budget),
			zap.Error(err),
		)
	}
	return p.failure(t, lastErr, budget, time.Since(start)), nil
}

// attempt runs HEAD and, when needed, the GET fallback under one budget per
// request.
func (p *Prober) attempt(ctx context.Context, url string, budget time.Duration) (int, error) {
	code, err := p.do(ctx, http.MethodHead, url, budget)
	if err != nil {
		if isTimeout(err) || ctx.Err() != nil {
			return 0, err
		}
		probeFallbacks.WithLabelValues("transport").Inc()
		return p.do(ctx, http.MethodGet, url, budget)
	}
	if !headUnreliable(code) {
		return code, nil
	}

	probeFallbacks.WithLabelValues(strconv.Itoa(code)).Inc()
	getCode, gerr := p.do(ctx, http.MethodGet, url, budget)
	if gerr != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		p.log.Debug("GET fallback failed; keeping HEAD status",
			zap.String("url", url), zap.Int("head_status", code), zap.Error(gerr))
		return code, nil
	}
	return getCode, nil
}

func (p *Prober) do(ctx context.Context, method, url string, budget time.Duration) (int, error) {
	rctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header = p.headers.Clone()

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	return resp.StatusCode, nil
}

func (p *Prober) verdict(t target.CheckTarget, code int, elapsed time.Duration) *outcome.Outcome {
	cls := outcome.Classify(code)
	probesTotal.WithLabelValues(cls.String()).Inc()
	probeLatency.Observe(elapsed.Seconds())
	if cls == outcome.ClassHealthy {
		p.log.Debug("healthy", zap.String("url", t.URL), zap.Int("status", code))
		return nil
	}
	p.log.Debug("broken", zap.String("url", t.URL), zap.Int("status", code), zap.String("class", cls.String()))
	return p.record(t, outcome.HTTPStatus(code), cls.ErrorType(), millis(elapsed))
}

func (p *Prober) failure(t target.CheckTarget, err error, budget, elapsed time.Duration) *outcome.Outcome {
	probeLatency.Observe(elapsed.Seconds())
	if isTimeout(err) {
		probesTotal.WithLabelValues("timeout").Inc()
		p.log.Debug("timed out", zap.String("url", t.URL), zap.Duration("budget", budget))
		return p.record(t, outcome.TimeoutStatus(), outcome.TimeoutError, float64(budget.Milliseconds()))
	}
	probesTotal.WithLabelValues("network_error").Inc()
	p.log.Debug("network error", zap.String("url", t.URL), zap.Error(err))
	return p.record(t, outcome.ErrorStatus(), outcome.NetworkError, millis(elapsed))
}

func (p *Prober) record(t target.CheckTarget, sc outcome.StatusCode, et outcome.ErrorType, latency float64) *outcome.Outcome {
	return &outcome.Outcome{
		URL:         t.URL,
		Locale:      t.Locale,
		StatusCode:  sc,
		ErrorType:   et,
		LastChecked: p.clock.Now(),
		Latency:     latency,
		IsDeepCheck: t.IsDeepCheck,
		Source:      t.Source,
		Text:        t.Text,
	}
}

// headUnreliable lists HEAD statuses that are confirmed with a GET.
func headUnreliable(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusMethodNotAllowed:
		return true
	}
	return code >= 500
}

func hasHTTPScheme(u string) bool {
	l := strings.ToLower(u)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func millis(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Millisecond)*100) / 100
}
