// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQueryKey(t *testing.T) {
	assert.Equal(t, "rs699", NormalizeQueryKey("  RS699 \n"))
	assert.Equal(t, "", NormalizeQueryKey("   "))
}

func TestSubjectValidate(t *testing.T) {
	require.NoError(t, Subject{QueryKey: "rs699", GeneSymbol: "AGT"}.Validate())

	err := Subject{QueryKey: "rs699", GeneSymbol: "  "}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedSubject)
	var ue *UnresolvedSubjectError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "rs699", ue.QueryKey)
}

func TestSourceResultCount(t *testing.T) {
	conf := 0.5
	tests := []struct {
		name string
		res  SourceResult
		want int
	}{
		{"empty", SourceResult{Source: SourceLiterature, Status: StatusOK}, 0},
		{"literature", SourceResult{Literature: &LiteraturePayload{Articles: []Article{{PMID: "1"}, {PMID: "2"}}}}, 2},
		{"patents", SourceResult{Patents: &PatentPayload{Patents: []Patent{{Number: "US1"}}}}, 1},
		{"clinical", SourceResult{Clinical: &ClinicalPayload{
			ClinVar: []ClinVarEntry{{VariantID: "VCV1"}},
			Trials:  []ClinicalTrial{{NCTID: "NCT1"}, {NCTID: "NCT2"}},
			GWAS:    []GWASAssociation{{Trait: "hypertension"}},
		}}, 4},
		{"protein with expression", SourceResult{Protein: &ProteinPayload{
			STRING:     []StringInteraction{{Partner: "REN"}},
			Expression: Expression{ProteinClass: "Plasma proteins"},
			IntAct:     []IntActInteraction{{InteractorA: "AGT", InteractorB: "REN", Confidence: &conf}},
		}}, 3},
		{"protein without expression", SourceResult{Protein: &ProteinPayload{
			BioPlex: []BioPlexInteraction{{SymbolA: "AGT", SymbolB: "REN"}},
			BioGRID: []BioGRIDInteraction{{ID: "1"}},
		}}, 2},
		{"drug targets", SourceResult{DrugTargets: &DrugTargetPayload{
			Target:     TargetInfo{Description: "Essential component of the renin-angiotensin system"},
			KnownDrugs: []KnownDrug{{Name: "ALISKIREN"}},
			Diseases:   []DiseaseAssociation{{Disease: "hypertension"}, {Disease: "preeclampsia"}},
		}}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.Count())
		})
	}
}

func TestSourceResultUnavailable(t *testing.T) {
	assert.True(t, ErrorResult(SourcePatents, "boom").Unavailable())
	assert.True(t, SourceResult{Source: SourcePatents, Status: StatusPartial, Patents: &PatentPayload{}}.Unavailable())
	assert.False(t, SourceResult{
		Source: SourcePatents, Status: StatusPartial,
		Patents: &PatentPayload{Patents: []Patent{{Number: "US1"}}},
	}.Unavailable())
}

func TestSourceResultHasPayload(t *testing.T) {
	assert.True(t, SourceResult{Source: SourcePatents, Patents: &PatentPayload{}}.HasPayload())
	assert.False(t, SourceResult{Source: SourcePatents, Literature: &LiteraturePayload{}}.HasPayload())
	assert.False(t, SourceResult{Source: "unknown", Protein: &ProteinPayload{}}.HasPayload())
	assert.False(t, ErrorResult(SourceClinical).HasPayload())
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusOK, StatusPartial, StatusError} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("done"))
	assert.False(t, ValidStatus(""))
}

func TestErrorResultCopiesErrors(t *testing.T) {
	errs := []string{"a"}
	r := ErrorResult(SourceClinical, errs...)
	errs[0] = "changed"
	assert.Equal(t, []string{"a"}, r.Errors)
	assert.Equal(t, StatusError, r.Status)

	assert.NotNil(t, ErrorResult(SourceClinical).Errors)
}

func TestAggregateRecordSource(t *testing.T) {
	rec := AggregateRecord{
		Subject: Subject{QueryKey: "rs699", GeneSymbol: "AGT"},
		Sources: map[string]SourceResult{
			SourceLiterature: {Source: SourceLiterature, Status: StatusOK},
		},
	}
	assert.Equal(t, StatusOK, rec.Source(SourceLiterature).Status)

	missing := rec.Source(SourceProtein)
	assert.Equal(t, StatusError, missing.Status)
	assert.Equal(t, SourceProtein, missing.Source)
	assert.Equal(t, []string{"protein: no result recorded"}, missing.Errors)
}

func TestAggregateRecordSummary(t *testing.T) {
	rec := AggregateRecord{Sources: map[string]SourceResult{
		SourceLiterature:  {Status: StatusOK},
		SourcePatents:     {Status: StatusPartial},
		SourceClinical:    {Status: StatusOK},
		SourceProtein:     {Status: StatusError},
		SourceDrugTargets: {Status: StatusPartial},
	}}
	assert.Equal(t, RunSummary{Total: 5, OK: 2, Degraded: 2, Failed: 1}, rec.Summary())
	assert.Equal(t, RunSummary{}, AggregateRecord{}.Summary())
}

func TestSourceResultJSONShape(t *testing.T) {
	r := SourceResult{
		Source: SourceLiterature,
		Status: StatusOK,
		Errors: []string{},
		Literature: &LiteraturePayload{
			Queries:  []string{"AGT AND rs699"},
			Articles: []Article{{PMID: "123", Title: "t"}},
		},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "literature", raw["source"])
	assert.Equal(t, "ok", raw["status"])
	assert.NotContains(t, raw, "patents")

	lit, ok := raw["literature"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, lit, "search_queries_used")
	assert.Contains(t, lit, "pubmed_articles")
}
