package types

import "time"

// HTTPConfig holds shared HTTP settings used by every component that makes
// network requests.
type HTTPConfig struct {
	// Timeout bounds each outbound request (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "variant-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// NCBIConfig holds the parameters NCBI E-utilities requires on every request.
type NCBIConfig struct {
	Tool  string `json:"tool" yaml:"tool"`
	Email string `json:"email" yaml:"email"`

	// APIKey raises the E-utilities ceiling from 3 to 10 requests per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// MinInterval returns the pacing delay between consecutive E-utilities calls.
func (c NCBIConfig) MinInterval() time.Duration {
	if c.APIKey != "" {
		return 110 * time.Millisecond
	}
	return 340 * time.Millisecond
}

// SourcesConfig holds settings shared by the source clients. Credentials are
// passed here explicitly so no client reads the environment itself.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	NCBI NCBIConfig `json:"ncbi" yaml:"ncbi"`

	// PatentsViewAPIKey is required by the patents source. Without it the
	// source reports a degraded, empty result.
	PatentsViewAPIKey string `json:"patentsview_api_key,omitempty" yaml:"patentsview_api_key,omitempty"`

	// BioGRIDAPIKey enables the BioGRID part of the protein source.
	BioGRIDAPIKey string `json:"biogrid_api_key,omitempty" yaml:"biogrid_api_key,omitempty"`

	// PatentsViewInterval is the delay between PatentsView requests (default 1.5s).
	PatentsViewInterval time.Duration `json:"patentsview_interval" yaml:"patentsview_interval"`

	// DefaultInterval is the delay between requests to other services (default 200ms).
	DefaultInterval time.Duration `json:"default_interval" yaml:"default_interval"`

	// DownloadTimeout bounds the BioPlex network file download (default 60s).
	DownloadTimeout time.Duration `json:"download_timeout" yaml:"download_timeout"`

	// CacheDir holds downloaded reference files such as the BioPlex network.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
}

// PipelineConfig groups the settings for one research run.
type PipelineConfig struct {
	Sources SourcesConfig `json:"sources" yaml:"sources"`

	// ReportsDir receives snapshots and the rendered report.
	ReportsDir string `json:"reports_dir" yaml:"reports_dir"`

	// Resume reuses valid snapshots instead of re-querying their sources.
	Resume bool `json:"resume" yaml:"resume"`

	// TemplatePath overrides the embedded report template when non-empty.
	TemplatePath string `json:"template_path,omitempty" yaml:"template_path,omitempty"`

	// HistoryPath is the SQLite database recording past runs.
	HistoryPath string `json:"history_path" yaml:"history_path"`

	// MetricsFile, when set, receives a Prometheus text-format dump after each run.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}
