package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/history"
	"github.com/pdiddy/variant-research/internal/metrics"
	"github.com/pdiddy/variant-research/internal/pipeline"
	"github.com/pdiddy/variant-research/internal/report"
	"github.com/pdiddy/variant-research/internal/resolve"
	"github.com/pdiddy/variant-research/internal/snapshot"
	"github.com/pdiddy/variant-research/internal/source"
	"github.com/pdiddy/variant-research/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research <rsid>",
	Short: "Resolve a variant, query all sources and render the report",
	Long: `Research resolves the rsID to its gene, queries every source concurrently,
snapshots each result in the reports directory and renders
<reports-dir>/<rsid>_report.html. The report path is printed on success.

Exit status is non-zero when the rsID cannot be resolved or the report
cannot be written. Failed or degraded sources do not affect the exit status.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringP("output", "o", "", "report path (default <reports-dir>/<rsid>_report.html)")
	researchCmd.Flags().Bool("resume", false, "reuse valid snapshots instead of querying their sources again")
	researchCmd.Flags().StringSlice("sources", nil, "only query these sources (comma-separated)")
	researchCmd.Flags().String("template", "", "custom report template")
	researchCmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	output, _ := cmd.Flags().GetString("output")
	only, _ := cmd.Flags().GetStringSlice("sources")

	renderer, err := newRenderer(cfg.TemplatePath)
	if err != nil {
		return err
	}

	client := httpClient(cfg)
	clients := source.All(source.Options{HTTP: client, Config: cfg.Sources, Logger: logger})
	if len(only) > 0 {
		if err := checkSources(only); err != nil {
			return err
		}
		clients = source.Filter(clients, only)
	}

	store := snapshot.New(cfg.ReportsDir)
	m := metrics.New()
	agg, err := pipeline.NewAggregator(resolve.New(client, cfg.Sources.HTTPConfig, logger), clients, pipeline.Options{
		Store:    store,
		Resume:   cfg.Resume,
		Recorder: m,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	opts := pipeline.RunnerOptions{ReportPath: store.ReportPath, Observer: m, Logger: logger}
	if h, err := history.Open(cfg.HistoryPath); err != nil {
		logger.Warn("run history disabled", zap.Error(err))
	} else {
		defer h.Close()
		opts.History = h
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	out := pipeline.NewRunner(agg, renderer, opts).Execute(ctx, args[0], output)

	printSummary(cmd.ErrOrStderr(), out)
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("writing metrics", zap.Error(err))
		}
	}
	if out.Err != nil {
		return out.Err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.ReportPath)
	return nil
}

func newRenderer(templatePath string) (*report.Renderer, error) {
	if templatePath != "" {
		return report.NewFromFile(templatePath)
	}
	return report.New()
}

func checkSources(names []string) error {
	known := source.Names()
	for _, n := range names {
		found := false
		for _, k := range known {
			if n == k {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown source %q (available: %s)", n, strings.Join(known, ", "))
		}
	}
	return nil
}

// printSummary writes the end-of-run counts and per-source lines.
func printSummary(w io.Writer, out pipeline.Outcome) {
	fmt.Fprintf(w, "run %s: %s\n", out.RunID, out.State)
	if out.State == pipeline.StateAborted {
		return
	}
	for _, name := range out.Sources {
		r := out.Record.Source(name)
		fmt.Fprintf(w, "  %-13s %-8s %4d records", name, r.Status, r.Count())
		if len(r.Errors) > 0 {
			fmt.Fprintf(w, "  (%d messages)", len(r.Errors))
		}
		fmt.Fprintln(w)
		if r.Status != types.StatusOK {
			for _, e := range r.Errors {
				fmt.Fprintf(w, "      %s\n", e)
			}
		}
	}
	s := out.Summary
	fmt.Fprintf(w, "sources: %d ok, %d degraded, %d failed\n", s.OK, s.Degraded, s.Failed)
}
