// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the variant-research pipeline:
// the resolved subject, per-source results and their payloads, the aggregate
// record handed to the report assembler, configuration, and the error taxonomy.
package types

import "strings"

// NormalizeQueryKey returns the canonical form of a user-supplied query key:
// surrounding whitespace trimmed and lower-cased ("  RS699 " becomes "rs699").
func NormalizeQueryKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Subject holds the canonical identifiers resolved from a query key. It is
// produced once per run by the resolver and never modified afterwards.
type Subject struct {
	// QueryKey is the normalized rsID the run was started with.
	QueryKey string `json:"rsid" yaml:"rsid"`

	// GeneSymbol is the canonical gene name (e.g. "AGT"). Always non-empty
	// for a resolved subject.
	GeneSymbol string `json:"gene_symbol" yaml:"gene_symbol"`

	// GeneName is the full gene name (e.g. "angiotensinogen"), when known.
	GeneName string `json:"gene_name,omitempty" yaml:"gene_name,omitempty"`

	// EnsemblGeneID is the Ensembl registry identifier (e.g. "ENSG00000135744").
	EnsemblGeneID string `json:"ensembl_gene_id,omitempty" yaml:"ensembl_gene_id,omitempty"`

	Chromosome          string `json:"chromosome,omitempty" yaml:"chromosome,omitempty"`
	Position            int64  `json:"position,omitempty" yaml:"position,omitempty"`
	Alleles             string `json:"alleles,omitempty" yaml:"alleles,omitempty"`
	Consequence         string `json:"consequence,omitempty" yaml:"consequence,omitempty"`
	ClinVarSignificance string `json:"clinvar_significance,omitempty" yaml:"clinvar_significance,omitempty"`
	ProteinChange       string `json:"protein_change,omitempty" yaml:"protein_change,omitempty"`

	// Errors records soft failures during resolution (e.g. the gene name
	// lookup failing) that did not prevent resolution.
	Errors []string `json:"errors" yaml:"errors"`
}

// Validate reports whether the subject carries the attributes every source
// client depends on.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.GeneSymbol) == "" {
		return &UnresolvedSubjectError{QueryKey: s.QueryKey, Reason: "no gene symbol"}
	}
	return nil
}
