// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the variant-research CLI. It resolves
// a dbSNP rsID to its gene, gathers literature, patent, clinical, protein
// and drug target data concurrently, and renders one HTML report.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/logging"
	"github.com/pdiddy/variant-research/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from the secrets directory at startup.
	loadedSecrets = secrets.Secrets{}

	// logger is configured from --log-format and --verbose before any command runs.
	logger = zap.NewNop()
)

// rootCmd is the base command for the variant-research CLI.
var rootCmd = &cobra.Command{
	Use:   "variant-research",
	Short: "Research report generator for genetic variants",
	Long: `variant-research resolves a dbSNP rsID (e.g. rs699) to its gene and
queries public biomedical sources concurrently: PubMed, PatentsView,
ClinVar, ClinicalTrials.gov, the GWAS Catalog, STRING, the Human Protein
Atlas, IntAct, BioPlex, BioGRID and Open Targets. The merged results are
rendered as one self-contained HTML report.

A source that fails or lacks credentials never stops the run; its report
section shows a placeholder instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(viper.GetString("log.format"), viper.GetBool("log.verbose"))
		if err != nil {
			return err
		}
		logger = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, func(name string, err error) {
			logger.Warn("skipping unreadable secret", zap.String("name", name), zap.Error(err))
		})
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			logger.Info("loaded secrets", zap.Strings("names", names))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./variant-research.yaml or ~/.config/variant-research/variant-research.yaml)")
	rootCmd.PersistentFlags().String("reports-dir", defaultReportsDir, "directory for snapshots, reports and run history")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of one-file-per-key credentials")
	rootCmd.PersistentFlags().String("log-format", logging.FormatJSON, "log format: json or console")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("variant-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "variant-research"))
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindConfig()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
