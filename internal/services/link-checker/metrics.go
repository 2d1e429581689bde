package link_checker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkcheck_probes_total", Help: "Probed targets by verdict",
	}, []string{"verdict"})
	probeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkcheck_probe_latency_seconds",
		Help:    "Wall-clock time from first attempt to verdict",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 20, 40},
	})
	probeAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcheck_probe_attempts_total", Help: "Probe attempts including retries",
	})
	probeFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkcheck_get_fallbacks_total", Help: "GET requests issued after HEAD",
	}, []string{"reason"})
	skippedTargets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcheck_skipped_targets_total", Help: "Targets without an http(s) scheme",
	})

	throttleWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkcheck_throttle_wait_seconds",
		Help:    "Time spent waiting for a throttle slot",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
	}, []string{"origin"})
	inFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linkcheck_in_flight", Help: "Probes holding a throttle slot",
	}, []string{"origin"})

	partitionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcheck_partitions_failed_total", Help: "Partitions that crashed or were cut short",
	})
	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkcheck_pass_duration_seconds",
		Help:    "Duration of a full check pass",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	passErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcheck_pass_errors_total", Help: "Passes that failed before the snapshot was written",
	})
	lastSuccessRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkcheck_last_success_rate", Help: "Success rate of the last finished pass",
	})
	lastBroken = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkcheck_last_broken_links", Help: "Broken links of the last finished pass",
	})
	sinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkcheck_sink_errors_total", Help: "Failed event or archive writes",
	}, []string{"sink"})
	runRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkcheck_run_requests_total", Help: "Run requests received from the bus",
	}, []string{"result"})
)
