package link_checker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/NordCoder/Linkerus/internal/domain/events"
	"github.com/NordCoder/Linkerus/internal/domain/run"
	"github.com/NordCoder/Linkerus/internal/domain/snapshot"
	"github.com/NordCoder/Linkerus/internal/domain/target"
	"github.com/NordCoder/Linkerus/internal/obs"
	"github.com/NordCoder/Linkerus/internal/services/link-checker/repo"
)

var (
	ErrRunInProgress = errors.New("check pass already in progress")
	// ErrNothingChecked means targets existed but none got a verdict. The
	// previous snapshot is left untouched.
	ErrNothingChecked = errors.New("no target was checked")
)

type Site struct {
	Domain        string
	DefaultLocale string
}

type Report struct {
	RunID     string
	Snapshot  *snapshot.RunSnapshot
	Checked   int
	Unchecked int
	Failures  []PartitionFailure
	Duration  time.Duration
}

// Pass is one full check pass. Runner and Controller trigger it.
type Pass interface {
	Run(ctx context.Context) (*Report, error)
}

type Usecase struct {
	Inputs         target.Source
	Store          snapshot.Store
	Runner         *PartitionedRunner
	Events         repo.Events
	Archive        repo.Archive
	Clock          run.Clock
	Site           Site
	SpikeThreshold int
	Log            *zap.Logger

	mu sync.Mutex

	stateMu sync.RWMutex
	lastErr error
	last    *Report
}

var _ Pass = (*Usecase)(nil)

// Run executes a pass. Concurrent calls get ErrRunInProgress. Probe and
// partition failures end up in the report. Input errors, a snapshot write
// error, cancellation before probing and a pass that checked nothing fail it.
func (u *Usecase) Run(ctx context.Context) (rep *Report, err error) {
	if !u.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer u.mu.Unlock()

	clock := u.Clock
	if clock == nil {
		clock = run.SystemClock{}
	}
	runID := uuid.NewString()
	startedAt := clock.Now()
	started := time.Now()

	ctx, span := otel.Tracer("link-checker.uc").Start(ctx, "linkcheck.pass")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID))
	log := obs.WithTrace(ctx, obs.Component(u.Log, "pass")).With(zap.String("run_id", runID))

	defer func() {
		passDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			passErrors.Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "pass failed")
		}
		u.stateMu.Lock()
		u.lastErr = err
		if rep != nil {
			u.last = rep
		}
		u.stateMu.Unlock()
	}()

	targets, err := u.loadTargets(ctx, log)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("targets", len(targets)))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pass cancelled before probing: %w", err)
	}

	res := u.Runner.Run(ctx, targets)
	for _, f := range res.Failures {
		log.Error("partition failed", zap.Int("partition", f.Index), zap.Int("size", f.Size), zap.Error(f.Err))
	}
	if len(targets) > 0 && len(res.Checked) == 0 {
		cause := context.Cause(ctx)
		if cause == nil && len(res.Failures) > 0 {
			cause = res.Failures[0]
		}
		log.Warn("nothing checked; snapshot kept", zap.Int("targets", len(targets)), zap.NamedError("cause", cause))
		if cause != nil {
			return nil, fmt.Errorf("%w: %d targets: %w", ErrNothingChecked, len(targets), cause)
		}
		return nil, fmt.Errorf("%w: %d targets", ErrNothingChecked, len(targets))
	}

	// Collected results are persisted even after ctx is cancelled.
	persistCtx := context.WithoutCancel(ctx)

	prev, lerr := u.Store.Load(persistCtx)
	if lerr != nil {
		log.Warn("previous snapshot unreadable; starting history over", zap.Error(lerr))
		prev = nil
	}

	finishedAt := clock.Now()
	snap := Aggregate(AggregateInput{
		Previous:       prev,
		Outcomes:       res.Outcomes,
		Targets:        res.Checked,
		Now:            finishedAt,
		SpikeThreshold: u.SpikeThreshold,
	})
	if err := u.Store.Save(persistCtx, &snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	lastSuccessRate.Set(snap.SuccessRate)
	lastBroken.Set(float64(snap.BrokenLinks))

	rep = &Report{
		RunID:     runID,
		Snapshot:  &snap,
		Checked:   len(res.Checked),
		Unchecked: res.Unchecked(len(targets)),
		Failures:  res.Failures,
		Duration:  time.Since(started),
	}
	log.Info("pass finished",
		zap.Int("total", snap.TotalURLs),
		zap.Int("broken", snap.BrokenLinks),
		zap.Float64("success_rate", snap.SuccessRate),
		zap.Int("unchecked", rep.Unchecked),
		zap.Int("failed_partitions", len(rep.Failures)),
		zap.Duration("took", rep.Duration),
	)

	u.publish(persistCtx, log, runID, &snap)
	u.archive(persistCtx, log, &run.Run{
		ID:          runID,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		TotalURLs:   snap.TotalURLs,
		BrokenLinks: snap.BrokenLinks,
		SuccessRate: snap.SuccessRate,
		TotalRuns:   snap.TotalRuns,
		Outcomes:    snap.BrokenLinksList,
	})
	return rep, nil
}

func (u *Usecase) loadTargets(ctx context.Context, log *zap.Logger) ([]target.CheckTarget, error) {
	links, err := u.Inputs.DeepLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load deep links: %w", err)
	}
	surfaces, err := u.Inputs.LocaleMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load locale map: %w", err)
	}
	prefixes, err := u.Inputs.LocalePrefixes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load locale prefixes: %w", err)
	}

	targets := Targets(Deduplicate(DedupInput{
		DeepLinks:     links,
		Surfaces:      surfaces,
		Prefixes:      prefixes,
		SiteDomain:    u.Site.Domain,
		DefaultLocale: u.Site.DefaultLocale,
	}))
	log.Info("targets deduplicated",
		zap.Int("deep_links", len(links)),
		zap.Int("locales", len(surfaces)),
		zap.Int("unique", len(targets)),
	)
	return targets, nil
}

func (u *Usecase) publish(ctx context.Context, log *zap.Logger, runID string, snap *snapshot.RunSnapshot) {
	if !u.Events.Enabled() {
		return
	}
	err := u.Events.PublishRunCompleted(ctx, events.RunCompleted{
		RunID:             runID,
		LastUpdated:       snap.LastUpdated,
		TotalURLs:         snap.TotalURLs,
		BrokenLinks:       snap.BrokenLinks,
		SuccessRate:       snap.SuccessRate,
		TotalRuns:         snap.TotalRuns,
		ErrorDistribution: snap.ErrorDistribution,
	})
	if err != nil {
		sinkErrors.WithLabelValues("kafka").Inc()
		log.Warn("run completed event not published", zap.Error(err))
	}
}

func (u *Usecase) archive(ctx context.Context, log *zap.Logger, r *run.Run) {
	if !u.Archive.Enabled() {
		return
	}
	if err := u.Archive.Insert(ctx, r); err != nil {
		sinkErrors.WithLabelValues("postgres").Inc()
		log.Warn("run not archived", zap.Error(err))
	}
}

// Health reports the error of the last finished pass, nil before the first.
func (u *Usecase) Health(context.Context) error {
	u.stateMu.RLock()
	defer u.stateMu.RUnlock()
	return u.lastErr
}

func (u *Usecase) LastReport() *Report {
	u.stateMu.RLock()
	defer u.stateMu.RUnlock()
	return u.last
}
