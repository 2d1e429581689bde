package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/NordCoder/Linkerus/internal/config/link-checker"
	"github.com/NordCoder/Linkerus/internal/domain/events"
	"github.com/NordCoder/Linkerus/internal/obs"
	"github.com/NordCoder/Linkerus/internal/repository/kafka"
	linkchecker "github.com/NordCoder/Linkerus/internal/services/link-checker"
)

var errBrokenLinks = errors.New("broken links found")

type app struct {
	cfgPath string
	cfg     *config.Config
	log     *zap.Logger
}

func main() {
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(root); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "link-checker",
		Short:        "Checks site links across locales and keeps a run snapshot",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			l, err := initLogger(cfg)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", os.Getenv("LINKCHECKER_CONFIG"), "path to a YAML config file")

	cmd.AddCommand(a.runCmd(), a.serveCmd(), a.requestCmd(), a.historyCmd(), a.topicsCmd())
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var failOnBroken bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one check pass and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, l := a.cfg, a.log

			otelShutdown, err := initOTel(ctx, cfg)
			if err != nil {
				return fmt.Errorf("otel init: %w", err)
			}
			defer func() { _ = otelShutdown(context.Background()) }()

			db, runs, err := initArchive(ctx, cfg, l)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			if db != nil {
				defer db.Close()
			}

			prod := initEventsProducer(ctx, cfg, l)
			if prod != nil {
				defer func() { _ = prod.Close() }()
			}

			rep, err := wire(cfg, prod, runs, l).Run(ctx)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), rep)
			if failOnBroken && rep.Snapshot.BrokenLinks > 0 {
				return errBrokenLinks
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnBroken, "fail-on-broken", false, "exit non-zero when any broken link is found")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run passes on a schedule and on requests from the bus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, l := a.cfg, a.log
			l.Info("starting link-checker", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

			otelShutdown, err := initOTel(ctx, cfg)
			if err != nil {
				return fmt.Errorf("otel init: %w", err)
			}
			defer func() { _ = otelShutdown(context.Background()) }()

			db, runs, err := initArchive(ctx, cfg, l)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			if db != nil {
				defer db.Close()
			}

			prod := initEventsProducer(ctx, cfg, l)
			if prod != nil {
				defer func() { _ = prod.Close() }()
			}

			uc := wire(cfg, prod, runs, l)
			ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, uc.Health, l)
			defer obs.ShutdownMetricsServer(ms, 3*time.Second)

			loops := []loop{{name: "runner", run: linkchecker.NewRunner(l, uc, cfg.Sched.Tick).Run}}
			if cons := initRequestsConsumer(ctx, cfg, l); cons != nil {
				defer func() { _ = cons.Close() }()
				ctrl := &linkchecker.Controller{Log: obs.Component(l, "controller"), Sub: cons, UC: uc}
				loops = append(loops, loop{name: "controller", run: ctrl.Run})
			}

			if err := runLoops(ctx, l, loops...); err != nil {
				return err
			}
			l.Info("bye")
			return nil
		},
	}
}

func (a *app) requestCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Ask serving checkers to start a pass now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if !cfg.Kafka.Enable {
				return errors.New("kafka.enable is off")
			}
			prod := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.RequestsTopic).WithLogger(a.log)
			defer func() { _ = prod.Close() }()

			req := events.RunRequest{Reason: reason, RequestedAt: time.Now().UTC()}
			if err := kafka.NewRunRequestsKafka(prod).PublishRunRequest(cmd.Context(), req); err != nil {
				return fmt.Errorf("publish run request: %w", err)
			}
			_, _ = okColor.Fprintf(cmd.OutOrStdout(), "run requested on %s\n", cfg.Kafka.RequestsTopic)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual", "free-form reason stored with the request")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, runs, err := initArchive(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			if db == nil {
				return errors.New("db.enable is off")
			}
			defer db.Close()

			list, err := runs.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func (a *app) topicsCmd() *cobra.Command {
	var partitions, rf int
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Create the kafka topics used by the checker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			for _, topic := range []string{cfg.Kafka.EventsTopic, cfg.Kafka.RequestsTopic} {
				if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, kafka.TopicSpec{
					Name:              topic,
					NumPartitions:     partitions,
					ReplicationFactor: rf,
					MaxWait:           10 * time.Second,
				}, a.log); err != nil {
					return fmt.Errorf("ensure topic %q: %w", topic, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&partitions, "partitions", 1, "partitions per topic")
	cmd.Flags().IntVar(&rf, "replication-factor", 1, "replication factor")
	return cmd
}
