package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/variant-research/internal/history"
	"github.com/pdiddy/variant-research/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [rsid]",
	Short: "List recent research runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")
	var key string
	if len(args) == 1 {
		key = args[0]
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), key, limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRSID\tGENE\tSTATE\tOK\tDEGRADED\tFAILED\tREPORT")
	for _, r := range runs {
		var ok, degraded, failed int
		for _, s := range r.Sources {
			switch s.Status {
			case types.StatusOK:
				ok++
			case types.StatusPartial:
				degraded++
			default:
				failed++
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.QueryKey, r.GeneSymbol, r.State,
			ok, degraded, failed, r.ReportPath)
	}
	return tw.Flush()
}
