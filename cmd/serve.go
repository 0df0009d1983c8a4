package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"autopost/internal/metrics"
	"autopost/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Collect and post on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		sets, err := selectSets(cfg, "")
		if err != nil {
			return err
		}
		store, rdb := openStore(cfg)
		defer rdb.Close()
		m := metrics.New()

		collector, err := newCollector(cfg, store, m)
		if err != nil {
			return err
		}
		pipeline, err := newPipeline(cfg, store, m, false)
		if err != nil {
			return err
		}

		cron := &worker.CronWorker{
			Name:       "autopost",
			Expr:       cfg.Schedule.Cron,
			Location:   location(cfg),
			RunOnStart: cfg.Schedule.RunOnStart,
			Job: func(ctx context.Context) {
				collector.CollectAll(ctx, sets)
				pipeline.RunAll(ctx, sets)
			},
		}
		ws := []worker.Worker{cron}
		if cfg.Metrics.Addr != "" {
			ws = append(ws, &worker.MetricsServer{Addr: cfg.Metrics.Addr, Handler: m.Handler()})
		}

		// Signal handling for systemd
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		slog.Info("serve: started", "cron", cfg.Schedule.Cron, "sets", len(sets), "metrics", cfg.Metrics.Addr)
		err = worker.NewManager(ws...).Start(ctx)
		slog.Info("serve: stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
