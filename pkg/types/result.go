// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status tags the outcome of one source client run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// Source names. Each registered client uses one of these, and snapshot files
// are namespaced by them.
const (
	SourceLiterature  = "literature"
	SourcePatents     = "patents"
	SourceClinical    = "clinical"
	SourceProtein     = "protein"
	SourceDrugTargets = "drug_targets"
)

// SourceResult is the normalized outcome of one source client for one run.
// Exactly one payload pointer matching Source is set on success; an error
// result may carry none. Values are never mutated after creation.
type SourceResult struct {
	Source string   `json:"source" yaml:"source"`
	Status Status   `json:"status" yaml:"status"`
	Errors []string `json:"errors" yaml:"errors"`

	Literature  *LiteraturePayload `json:"literature,omitempty" yaml:"literature,omitempty"`
	Patents     *PatentPayload     `json:"patents,omitempty" yaml:"patents,omitempty"`
	Clinical    *ClinicalPayload   `json:"clinical,omitempty" yaml:"clinical,omitempty"`
	Protein     *ProteinPayload    `json:"protein,omitempty" yaml:"protein,omitempty"`
	DrugTargets *DrugTargetPayload `json:"drug_targets,omitempty" yaml:"drug_targets,omitempty"`
}

// ErrorResult returns a failed result with an empty payload.
func ErrorResult(source string, errs ...string) SourceResult {
	return SourceResult{
		Source: source,
		Status: StatusError,
		Errors: append([]string{}, errs...),
	}
}

// Count returns the number of normalized records across the payload.
func (r SourceResult) Count() int {
	n := 0
	if r.Literature != nil {
		n += len(r.Literature.Articles)
	}
	if r.Patents != nil {
		n += len(r.Patents.Patents)
	}
	if r.Clinical != nil {
		n += len(r.Clinical.ClinVar) + len(r.Clinical.Trials) + len(r.Clinical.GWAS)
	}
	if r.Protein != nil {
		p := r.Protein
		n += len(p.STRING) + len(p.IntAct) + len(p.BioPlex) + len(p.BioGRID)
		if !p.Expression.IsZero() {
			n++
		}
	}
	if r.DrugTargets != nil {
		d := r.DrugTargets
		n += len(d.KnownDrugs) + len(d.Diseases)
		if d.Target.Description != "" || d.Target.ProteinClass != "" {
			n++
		}
	}
	return n
}

// HasPayload reports whether the payload pointer matching Source is set.
func (r SourceResult) HasPayload() bool {
	switch r.Source {
	case SourceLiterature:
		return r.Literature != nil
	case SourcePatents:
		return r.Patents != nil
	case SourceClinical:
		return r.Clinical != nil
	case SourceProtein:
		return r.Protein != nil
	case SourceDrugTargets:
		return r.DrugTargets != nil
	}
	return false
}

// ValidStatus reports whether s is one of the three result statuses.
func ValidStatus(s Status) bool {
	return s == StatusOK || s == StatusPartial || s == StatusError
}

// Unavailable reports whether the report should show the placeholder for
// this source: it failed outright or produced no records.
func (r SourceResult) Unavailable() bool {
	return r.Status == StatusError || r.Count() == 0
}

// AggregateRecord is the merged outcome of one run: the resolved subject
// and exactly one SourceResult per registered client.
type AggregateRecord struct {
	Subject Subject                 `json:"subject" yaml:"subject"`
	Sources map[string]SourceResult `json:"sources" yaml:"sources"`
}

// Source returns the result for name. A missing entry is reported as an
// error result so callers never special-case an absent source.
func (a AggregateRecord) Source(name string) SourceResult {
	if r, ok := a.Sources[name]; ok {
		return r
	}
	return ErrorResult(name, name+": no result recorded")
}

// Summary counts results by status.
func (a AggregateRecord) Summary() RunSummary {
	var s RunSummary
	for _, r := range a.Sources {
		s.Total++
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusPartial:
			s.Degraded++
		default:
			s.Failed++
		}
	}
	return s
}

// RunSummary is the end-of-run count of source outcomes.
type RunSummary struct {
	Total    int `json:"total"`
	OK       int `json:"ok"`
	Degraded int `json:"degraded"`
	Failed   int `json:"failed"`
}
