package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"autopost/internal/interpret"

	"github.com/spf13/cobra"
)

var (
	parseKind          string
	parseCandidates    int
	parseCount         int
	parseFallbackTitle string
)

var debugParseCmd = &cobra.Command{
	Use:   "debug-parse <response_path>",
	Short: "Debug: interpret a saved model response and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch parseKind {
		case "selection":
			idx, tier := interpret.Selection(string(raw), parseCandidates, parseCount)
			numbers := make([]int, len(idx))
			for i, n := range idx {
				numbers[i] = n + 1
			}
			fmt.Fprintf(out, "tier: %s\n", tier)
			fmt.Fprintf(out, "selected: %v\n", numbers)
		case "post":
			post, tier, ok := interpret.Post(string(raw), parseFallbackTitle)
			fmt.Fprintf(out, "tier: %s\n", tier)
			if !ok {
				fmt.Fprintln(out, "no usable post")
				return nil
			}
			b, err := json.MarshalIndent(post, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		default:
			return fmt.Errorf("unknown --kind %q (selection|post)", parseKind)
		}
		return nil
	},
}

func init() {
	debugParseCmd.Flags().StringVar(&parseKind, "kind", "selection", "response kind: selection or post")
	debugParseCmd.Flags().IntVar(&parseCandidates, "candidates", 50, "number of candidates shown to the model")
	debugParseCmd.Flags().IntVar(&parseCount, "count", 3, "number of topics requested")
	debugParseCmd.Flags().StringVar(&parseFallbackTitle, "fallback-title", "", "title used when the response has none")
	rootCmd.AddCommand(debugParseCmd)
}
