package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/variant-research/internal/history"
	"github.com/pdiddy/variant-research/internal/secrets"
	"github.com/pdiddy/variant-research/internal/source"
	"github.com/pdiddy/variant-research/pkg/types"
)

const (
	envPrefix         = "VARIANT_RESEARCH"
	defaultReportsDir = "reports"
	defaultUserAgent  = "variant-research/0.1"
	redacted          = "[redacted]"
)

// credentialEnv lists the bare environment variables that also set each
// credential key, in addition to the VARIANT_RESEARCH_ prefixed form.
var credentialEnv = map[string][]string{
	"sources.patentsview_api_key": {"PATENTSVIEW_API_KEY", "API_KEY_SOURCE_B"},
	"sources.biogrid_api_key":     {"BIOGRID_API_KEY", "API_KEY_SOURCE_A"},
	"sources.ncbi.api_key":        {"NCBI_API_KEY", "RATE_LIMIT_BOOST_KEY"},
	"sources.ncbi.tool":           {"NCBI_TOOL"},
	"sources.ncbi.email":          {"NCBI_EMAIL"},
}

// bindConfig registers defaults, persistent flags and credential variables
// with viper. It runs on every command execution.
func bindConfig() {
	viper.SetDefault("reports_dir", defaultReportsDir)
	viper.SetDefault("log.format", "json")
	viper.SetDefault("sources.timeout", source.DefaultTimeout)
	viper.SetDefault("sources.user_agent", defaultUserAgent)
	viper.SetDefault("sources.patentsview_interval", source.DefaultPatentsViewInterval)
	viper.SetDefault("sources.default_interval", source.DefaultInterval)
	viper.SetDefault("sources.download_timeout", source.DefaultDownloadTimeout)
	viper.SetDefault("sources.ncbi.tool", source.DefaultNCBITool)
	viper.SetDefault("sources.ncbi.email", source.DefaultNCBIEmail)

	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("reports_dir", flags.Lookup("reports-dir"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("log.verbose", flags.Lookup("verbose"))

	for key, vars := range credentialEnv {
		_ = viper.BindEnv(append([]string{key, envPrefix + "_" + envName(key)}, vars...)...)
	}
}

// envName maps a dotted viper key to its environment form.
func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// loadConfig builds the pipeline configuration. Precedence, highest first:
// command flags, environment, config file, the secrets directory, defaults.
func loadConfig(cmd *cobra.Command) types.PipelineConfig {
	reportsDir := viper.GetString("reports_dir")
	cfg := types.PipelineConfig{
		Sources: types.SourcesConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("sources.timeout"),
				UserAgent: viper.GetString("sources.user_agent"),
			},
			NCBI: types.NCBIConfig{
				Tool:   viper.GetString("sources.ncbi.tool"),
				Email:  secretOr(secrets.NCBIEmail, "sources.ncbi.email"),
				APIKey: secretOr(secrets.NCBIAPIKey, "sources.ncbi.api_key"),
			},
			PatentsViewAPIKey:   secretOr(secrets.PatentsViewAPIKey, "sources.patentsview_api_key"),
			BioGRIDAPIKey:       secretOr(secrets.BioGRIDAPIKey, "sources.biogrid_api_key"),
			PatentsViewInterval: viper.GetDuration("sources.patentsview_interval"),
			DefaultInterval:     viper.GetDuration("sources.default_interval"),
			DownloadTimeout:     viper.GetDuration("sources.download_timeout"),
			CacheDir:            viper.GetString("sources.cache_dir"),
		},
		ReportsDir:   reportsDir,
		Resume:       viper.GetBool("resume"),
		TemplatePath: viper.GetString("template_path"),
		HistoryPath:  viper.GetString("history_path"),
		MetricsFile:  viper.GetString("metrics_file"),
	}

	flags := cmd.Flags()
	if changed(flags, "resume") {
		cfg.Resume, _ = flags.GetBool("resume")
	}
	if changed(flags, "template") {
		cfg.TemplatePath, _ = flags.GetString("template")
	}
	if changed(flags, "metrics-file") {
		cfg.MetricsFile, _ = flags.GetString("metrics-file")
	}

	if cfg.Sources.CacheDir == "" {
		cfg.Sources.CacheDir = filepath.Join(reportsDir, ".cache")
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = filepath.Join(reportsDir, history.DefaultFile)
	}
	return cfg
}

// secretOr returns the configured value for key, falling back to the
// secrets directory entry name.
func secretOr(name, key string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return loadedSecrets[name]
}

func changed(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// httpClient returns the client shared by the resolver and the sources.
func httpClient(cfg types.PipelineConfig) *http.Client {
	return &http.Client{Timeout: cfg.Sources.Timeout}
}

// redact returns cfg with credential values replaced.
func redact(cfg types.PipelineConfig) types.PipelineConfig {
	mask := func(v *string) {
		if *v != "" {
			*v = redacted
		}
	}
	mask(&cfg.Sources.PatentsViewAPIKey)
	mask(&cfg.Sources.BioGRIDAPIKey)
	mask(&cfg.Sources.NCBI.APIKey)
	return cfg
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config prints the configuration a research run would use after merging
flags, environment, config file and the secrets directory. Credential values
are redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(redact(loadConfig(cmd)))
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
