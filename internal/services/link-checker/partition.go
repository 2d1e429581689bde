package link_checker

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/NordCoder/Linkerus/internal/domain/outcome"
	"github.com/NordCoder/Linkerus/internal/domain/target"
	"github.com/NordCoder/Linkerus/internal/obs"
)

// PartitionConfig is everything an execution context needs. It is copied
// into each partition when it is spawned.
type PartitionConfig struct {
	Index      int
	SiteDomain string
	Probe      ProbeConfig
	Limits     ThrottleLimits
	Transport  http.RoundTripper
}

type Executor interface {
	Probe(ctx context.Context, t target.CheckTarget) (*outcome.Outcome, error)
}

type ExecutorFactory func(cfg PartitionConfig, log *zap.Logger) Executor

// NewPartitionExecutor gives a partition its own connection pool, header set
// and throttler.
func NewPartitionExecutor(cfg PartitionConfig, log *zap.Logger) Executor {
	th := NewThrottler(cfg.SiteDomain, cfg.Limits)
	return NewProber(cfg.Probe, NewHTTPClient(cfg.Probe, cfg.Transport), th, log)
}

type PartitionResult struct {
	Index    int
	Size     int
	Checked  []target.CheckTarget
	Outcomes []outcome.Outcome
}

// PartitionFailure describes a partition that crashed or did not finish.
// Its completed probes, if any, are still part of the result.
type PartitionFailure struct {
	Index int
	Size  int
	Err   error
}

func (f PartitionFailure) Error() string {
	return fmt.Sprintf("partition %d (%d targets): %v", f.Index, f.Size, f.Err)
}

func (f PartitionFailure) Unwrap() error { return f.Err }

type RunResult struct {
	Outcomes   []outcome.Outcome
	Checked    []target.CheckTarget
	Partitions []PartitionResult
	Failures   []PartitionFailure
}

func (r RunResult) Unchecked(total int) int { return total - len(r.Checked) }

type PartitionedRunner struct {
	Partitions int
	Deadline   time.Duration
	Base       PartitionConfig
	Global     ThrottleLimits
	Factory    ExecutorFactory

	log *zap.Logger
}

func NewPartitionedRunner(partitions int, deadline time.Duration, base PartitionConfig, global ThrottleLimits, log *zap.Logger) *PartitionedRunner {
	return &PartitionedRunner{
		Partitions: partitions,
		Deadline:   deadline,
		Base:       base,
		Global:     global,
		Factory:    NewPartitionExecutor,
		log:        obs.Component(log, "partitions"),
	}
}

func (r *PartitionedRunner) partitionCount(total int) int {
	n := r.Partitions
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run probes targets across independent partitions and merges what they
// produced. It never fails as a whole.
func (r *PartitionedRunner) Run(ctx context.Context, targets []target.CheckTarget) RunResult {
	if len(targets) == 0 {
		return RunResult{}
	}
	if r.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Deadline)
		defer cancel()
	}

	parts := Split(targets, r.partitionCount(len(targets)))
	limits := r.Global.Share(len(parts))
	results := make([]PartitionResult, len(parts))
	failures := make([]*PartitionFailure, len(parts))

	r.log.Info("partitions spawned",
		zap.Int("partitions", len(parts)),
		zap.Int("targets", len(targets)),
		zap.Int("internal_limit", limits.Internal),
		zap.Int("external_limit", limits.External),
	)

	var wg conc.WaitGroup
	for i, part := range parts {
		cfg := r.Base
		cfg.Index = i
		cfg.Limits = limits
		wg.Go(func() {
			results[i], failures[i] = r.runPartition(ctx, cfg, part)
		})
	}
	wg.Wait()

	var out RunResult
	out.Partitions = results
	for i, res := range results {
		out.Outcomes = append(out.Outcomes, res.Outcomes...)
		out.Checked = append(out.Checked, res.Checked...)
		if failures[i] != nil {
			out.Failures = append(out.Failures, *failures[i])
		}
	}
	return out
}

func (r *PartitionedRunner) runPartition(ctx context.Context, cfg PartitionConfig, part []target.CheckTarget) (PartitionResult, *PartitionFailure) {
	ctx, span := otel.Tracer("link-checker.partition").Start(ctx, "linkcheck.partition")
	defer span.End()
	span.SetAttributes(attribute.Int("partition.index", cfg.Index), attribute.Int("partition.size", len(part)))

	log := r.log.With(zap.Int("partition", cfg.Index))
	res := PartitionResult{Index: cfg.Index, Size: len(part)}
	started := time.Now()

	var pc panics.Catcher
	pc.Try(func() {
		factory := r.Factory
		if factory == nil {
			factory = NewPartitionExecutor
		}
		res.Checked, res.Outcomes = probeAll(ctx, factory(cfg, log), part)
	})

	var fail *PartitionFailure
	switch rec := pc.Recovered(); {
	case rec != nil:
		res.Checked, res.Outcomes = nil, nil
		fail = &PartitionFailure{Index: cfg.Index, Size: len(part), Err: rec.AsError()}
		log.Error("partition crashed", zap.Error(fail.Err), zap.String("stack", string(rec.Stack)))
	case len(res.Checked) < len(part):
		fail = &PartitionFailure{Index: cfg.Index, Size: len(part), Err: fmt.Errorf("cut short after %d of %d targets: %w", len(res.Checked), len(part), context.Cause(ctx))}
		log.Warn("partition cut short", zap.Int("checked", len(res.Checked)), zap.Error(fail.Err))
	default:
		log.Info("partition done",
			zap.Int("checked", len(res.Checked)),
			zap.Int("broken", len(res.Outcomes)),
			zap.Duration("took", time.Since(started)),
		)
	}
	if fail != nil {
		partitionsFailed.Inc()
		span.RecordError(fail.Err)
		span.SetStatus(codes.Error, "partition failed")
	}
	return res, fail
}

type probeResult struct {
	target  target.CheckTarget
	outcome *outcome.Outcome
	err     error
}

// probeAll runs every target of one partition concurrently. The throttler
// inside exec bounds how many requests are in flight.
func probeAll(ctx context.Context, exec Executor, part []target.CheckTarget) ([]target.CheckTarget, []outcome.Outcome) {
	p := pool.NewWithResults[probeResult]()
	for _, t := range part {
		p.Go(func() probeResult {
			o, err := exec.Probe(ctx, t)
			return probeResult{target: t, outcome: o, err: err}
		})
	}

	checked := make([]target.CheckTarget, 0, len(part))
	var outcomes []outcome.Outcome
	for _, pr := range p.Wait() {
		if pr.err != nil {
			continue
		}
		checked = append(checked, pr.target)
		if pr.outcome != nil {
			outcomes = append(outcomes, *pr.outcome)
		}
	}
	return checked, outcomes
}

// Split cuts targets into n contiguous chunks whose sizes differ by at most one.
func Split(targets []target.CheckTarget, n int) [][]target.CheckTarget {
	if n < 1 {
		n = 1
	}
	if n > len(targets) {
		n = len(targets)
	}
	out := make([][]target.CheckTarget, 0, n)
	size, rest := len(targets)/max(n, 1), len(targets)%max(n, 1)
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rest {
			end++
		}
		out = append(out, targets[start:end])
		start = end
	}
	return out
}
