package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/variant-research/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <rsid>",
	Short: "Resolve an rsID to its gene and print the subject as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		subj, err := resolve.New(httpClient(cfg), cfg.Sources.HTTPConfig, logger).Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(subj, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding subject: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
