package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/snapshot"
	"github.com/pdiddy/variant-research/internal/source"
	"github.com/pdiddy/variant-research/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render <rsid>",
	Short: "Re-render a report from saved snapshots",
	Long: `Render rebuilds the report from the snapshots of an earlier research run
without any network access. A source whose snapshot is missing or invalid
is shown as unavailable. The subject snapshot must exist.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "report path (default <reports-dir>/<rsid>_report.html)")
	renderCmd.Flags().String("template", "", "custom report template")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	output, _ := cmd.Flags().GetString("output")

	store := snapshot.New(cfg.ReportsDir)
	rec, err := store.LoadRecord(args[0], source.Names())
	if err != nil {
		return err
	}
	if output == "" {
		output = store.ReportPath(rec.Subject.QueryKey)
	}

	renderer, err := newRenderer(cfg.TemplatePath)
	if err != nil {
		return err
	}
	if err := renderer.WriteFile(output, rec, time.Now()); err != nil {
		return &types.PipelineAbortedError{Phase: types.PhaseRender, Err: err}
	}

	sum := rec.Summary()
	logger.Info("report rendered from snapshots",
		zap.String("report", output), zap.Int("ok", sum.OK),
		zap.Int("degraded", sum.Degraded), zap.Int("failed", sum.Failed))
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
