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

var collectSet string

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect candidate topics from news, Reddit and trends",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		sets, err := selectSets(cfg, collectSet)
		if err != nil {
			return err
		}
		store, rdb := openStore(cfg)
		defer rdb.Close()
		c, err := newCollector(cfg, store, metrics.New())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		for _, set := range sets {
			n, err := c.CollectSet(ctx, set)
			if err != nil {
				return fmt.Errorf("collect %s: %w", set.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new topics\n", set.Name, n)
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectSet, "set", "", "account set to collect for (default: all)")
	rootCmd.AddCommand(collectCmd)
}
