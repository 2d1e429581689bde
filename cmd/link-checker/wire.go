package main

import (
	"go.uber.org/zap"

	config "github.com/NordCoder/Linkerus/internal/config/link-checker"
	"github.com/NordCoder/Linkerus/internal/domain/run"
	"github.com/NordCoder/Linkerus/internal/repository/file"
	"github.com/NordCoder/Linkerus/internal/repository/kafka"
	pg "github.com/NordCoder/Linkerus/internal/repository/postgres"
	linkchecker "github.com/NordCoder/Linkerus/internal/services/link-checker"
	"github.com/NordCoder/Linkerus/internal/services/link-checker/repo"
)

func wire(cfg *config.Config, prod *kafka.Producer, runs *pg.RunRepoImpl, l *zap.Logger) *linkchecker.Usecase {
	probe := linkchecker.ProbeConfig{
		Timeout:       cfg.Probe.Timeout,
		MaxAttempts:   cfg.Probe.MaxAttempts,
		TimeoutGrowth: cfg.Probe.TimeoutGrowth,
		RetryBackoff:  cfg.Probe.RetryBackoff,
		MaxRedirects:  cfg.Probe.MaxRedirects,
		UserAgent:     cfg.Probe.UserAgent,
		VerifyTLS:     cfg.Probe.VerifyTLS,
	}
	runner := linkchecker.NewPartitionedRunner(
		cfg.Runner.Partitions,
		cfg.Runner.Deadline,
		linkchecker.PartitionConfig{SiteDomain: cfg.Site.Domain, Probe: probe},
		linkchecker.ThrottleLimits{
			Internal:    cfg.Throttle.InternalLimit,
			External:    cfg.Throttle.ExternalLimit,
			ExternalRPS: cfg.Throttle.ExternalRPS,
		},
		l,
	)

	uc := &linkchecker.Usecase{
		Inputs:         file.NewInputSource(cfg.Inputs.DeepLinks, cfg.Inputs.LocaleMap, cfg.Inputs.LocalePrefixes, l),
		Store:          file.NewSnapshotStore(cfg.Output.Snapshot, cfg.Output.Mirrors, l),
		Runner:         runner,
		Clock:          run.SystemClock{},
		Site:           linkchecker.Site{Domain: cfg.Site.Domain, DefaultLocale: cfg.Site.DefaultLocale},
		SpikeThreshold: cfg.Output.SpikeThreshold,
		Log:            l,
	}
	if prod != nil {
		uc.Events = repo.Events{P: kafka.NewRunEventsKafka(prod), Log: l}
	}
	if runs != nil {
		uc.Archive = repo.Archive{R: runs, Log: l}
	}
	return uc
}
