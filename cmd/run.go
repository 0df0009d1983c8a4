package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"autopost/internal/metrics"

	"github.com/spf13/cobra"
)

var (
	runSet     string
	runDryRun  bool
	runCollect bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Select, draft and publish posts for account sets once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		sets, err := selectSets(cfg, runSet)
		if err != nil {
			return err
		}
		store, rdb := openStore(cfg)
		defer rdb.Close()
		m := metrics.New()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if runCollect {
			c, err := newCollector(cfg, store, m)
			if err != nil {
				return err
			}
			n := c.CollectAll(ctx, sets)
			fmt.Fprintf(cmd.OutOrStdout(), "collected %d new topics\n", n)
		}

		p, err := newPipeline(cfg, store, m, runDryRun)
		if err != nil {
			return err
		}
		for _, r := range p.RunAll(ctx, sets) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: pool=%d selected=%d drafted=%d failed=%d published=%d\n",
				r.Set, r.Pool, r.Selected, r.Drafted, r.Failed, r.Published)
			for _, path := range r.Previews {
				fmt.Fprintf(cmd.OutOrStdout(), "  preview %s\n", path)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSet, "set", "", "account set to run (default: all)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "write previews but do not publish")
	runCmd.Flags().BoolVar(&runCollect, "collect", false, "collect topics before running")
	rootCmd.AddCommand(runCmd)
}
