// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/variant-research/pkg/types"
)

func TestFileKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"rs699", "rs699"},
		{" RS699 ", "rs699"},
		{"drug_targets", "drug_targets"},
		{"../etc/passwd", "___etc_passwd"},
		{"", "_"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileKey(tt.in), tt.in)
	}
}

func TestPaths(t *testing.T) {
	s := New("/reports")
	assert.Equal(t, "/reports/rs699_variant.json", s.SubjectPath("RS699"))
	assert.Equal(t, "/reports/rs699_drug_targets.json", s.ResultPath("rs699", types.SourceDrugTargets))
	assert.Equal(t, "/reports/rs699_report.html", s.ReportPath("rs699"))
}

func TestSubjectRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "reports"))
	subj := types.Subject{
		QueryKey:      "rs699",
		GeneSymbol:    "AGT",
		GeneName:      "angiotensinogen",
		EnsemblGeneID: "ENSG00000135744",
		Position:      230845794,
		Errors:        []string{"gene name lookup: timeout"},
	}
	require.NoError(t, s.SaveSubject(subj))

	got, err := s.LoadSubject("RS699")
	require.NoError(t, err)
	if diff := cmp.Diff(subj, got); diff != "" {
		t.Errorf("subject mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")
}

func TestLoadSubjectFailuresAreUnresolved(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	_, err := s.LoadSubject("rs699")
	assert.ErrorIs(t, err, types.ErrUnresolvedSubject)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(s.SubjectPath("rs1"), []byte("{not json"), 0o644))
	_, err = s.LoadSubject("rs1")
	assert.ErrorIs(t, err, types.ErrUnresolvedSubject)

	require.NoError(t, os.WriteFile(s.SubjectPath("rs2"), []byte(`{"rsid": "rs2", "gene_symbol": ""}`), 0o644))
	_, err = s.LoadSubject("rs2")
	assert.ErrorIs(t, err, types.ErrUnresolvedSubject)
}

func TestLoadSubjectIgnoresUnknownFields(t *testing.T) {
	s := New(t.TempDir())
	data := `{"rsid": "rs699", "gene_symbol": "AGT", "mygene_raw": {"x": 1}, "fetched_by": "script"}`
	require.NoError(t, os.WriteFile(s.SubjectPath("rs699"), []byte(data), 0o644))

	got, err := s.LoadSubject("rs699")
	require.NoError(t, err)
	assert.Equal(t, "AGT", got.GeneSymbol)
	assert.Equal(t, []string{}, got.Errors)
}

func TestResultRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	r := types.SourceResult{
		Source: types.SourceLiterature,
		Status: types.StatusPartial,
		Errors: []string{"literature pubmed efetch: HTTP 502"},
		Literature: &types.LiteraturePayload{
			Queries:  []string{"AGT AND rs699"},
			Articles: []types.Article{{PMID: "1", Title: "<b>AGT</b>"}},
		},
	}
	require.NoError(t, s.SaveResult("rs699", r))

	got, err := s.LoadResult("rs699", types.SourceLiterature)
	require.NoError(t, err)
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadResultValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed", `{"source": `, "parsing snapshot"},
		{"wrong source", `{"source": "patents", "status": "ok", "patents": {}}`, "does not match"},
		{"unknown status", `{"source": "clinical", "status": "done", "clinical": {}}`, "unknown status"},
		{"missing payload", `{"source": "clinical", "status": "ok"}`, "missing clinical payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(t.TempDir())
			require.NoError(t, os.WriteFile(s.ResultPath("rs699", types.SourceClinical), []byte(tt.body), 0o644))
			_, err := s.LoadResult("rs699", types.SourceClinical)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadResultErrorWithoutPayload(t *testing.T) {
	s := New(t.TempDir())
	body := `{"source": "clinical", "status": "error", "extra": true}`
	require.NoError(t, os.WriteFile(s.ResultPath("rs699", types.SourceClinical), []byte(body), 0o644))

	got, err := s.LoadResult("rs699", types.SourceClinical)
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, got.Status)
	assert.Equal(t, []string{}, got.Errors)
}

func TestLoadRecord(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.SaveSubject(types.Subject{QueryKey: "rs699", GeneSymbol: "AGT", Errors: []string{}}))
	require.NoError(t, s.SaveResult("rs699", types.SourceResult{
		Source: types.SourcePatents, Status: types.StatusOK, Errors: []string{},
		Patents: &types.PatentPayload{Queries: []string{"AGT"}, Patents: []types.Patent{{Number: "US1"}}},
	}))

	rec, err := s.LoadRecord("rs699", []string{types.SourcePatents, types.SourceProtein})
	require.NoError(t, err)
	require.Len(t, rec.Sources, 2)
	assert.Equal(t, types.StatusOK, rec.Sources[types.SourcePatents].Status)

	missing := rec.Sources[types.SourceProtein]
	assert.Equal(t, types.StatusError, missing.Status)
	require.Len(t, missing.Errors, 1)
	assert.Contains(t, missing.Errors[0], "snapshot not found")
}

func TestLoadRecordWithoutSubject(t *testing.T) {
	_, err := New(t.TempDir()).LoadRecord("rs699", []string{types.SourcePatents})
	assert.ErrorIs(t, err, types.ErrUnresolvedSubject)
}
