// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunRecord is the persisted outcome of one pipeline run.
type RunRecord struct {
	ID         string          `json:"id" yaml:"id"`
	QueryKey   string          `json:"query_key" yaml:"query_key"`
	GeneSymbol string          `json:"gene_symbol,omitempty" yaml:"gene_symbol,omitempty"`
	State      string          `json:"state" yaml:"state"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
	ReportPath string          `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
	Sources    []SourceOutcome `json:"sources" yaml:"sources"`
}

// SourceOutcome is the per-source line of a RunRecord.
type SourceOutcome struct {
	Source  string `json:"source" yaml:"source"`
	Status  Status `json:"status" yaml:"status"`
	Records int    `json:"records" yaml:"records"`
	Errors  int    `json:"errors" yaml:"errors"`
}
