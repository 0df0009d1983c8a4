package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	topicsSet    string
	topicsUnused bool
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List stored topics of an account set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if _, ok := cfg.AccountSet(topicsSet); !ok {
			return fmt.Errorf("unknown account set %q", topicsSet)
		}
		store, rdb := openStore(cfg)
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		list := store.ListTopics
		if topicsUnused {
			list = store.FetchUnused
		}
		topics, err := list(ctx, topicsSet)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSOURCE\tUSED\tTITLE")
		for _, t := range topics {
			used := t.Used
			if used == "" {
				used = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.OriginIndex+1, t.Source, used, t.Title)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d topics\n", len(topics))
		return nil
	},
}

func init() {
	topicsCmd.Flags().StringVar(&topicsSet, "set", "", "account set (required)")
	topicsCmd.Flags().BoolVar(&topicsUnused, "unused", false, "only topics not yet used")
	_ = topicsCmd.MarkFlagRequired("set")
	rootCmd.AddCommand(topicsCmd)
}
