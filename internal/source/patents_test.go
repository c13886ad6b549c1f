// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/variant-research/pkg/types"
)

// patentQueryText extracts the abstract search text from a PatentsView q parameter.
func patentQueryText(t *testing.T, r *http.Request) string {
	t.Helper()
	var q struct {
		TextAll struct {
			Abstract string `json:"patent_abstract"`
		} `json:"_text_all"`
	}
	if err := json.Unmarshal([]byte(r.URL.Query().Get("q")), &q); err != nil {
		t.Errorf("bad q parameter: %v", err)
	}
	return q.TextAll.Abstract
}

func TestPatents_NoAPIKeyIsDegraded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()
	override(t, &patentsViewSearchBase, srv.URL+"/")

	res := NewPatents(testOptions(types.SourcesConfig{})).Fetch(context.Background(), agt)

	assert.Equal(t, types.StatusPartial, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "PATENTSVIEW_API_KEY")
	require.NotNil(t, res.Patents)
	assert.Empty(t, res.Patents.Patents)
	assert.Equal(t, int32(0), calls.Load(), "no request is made without a key")
}

func TestPatents_SearchesAndDeduplicates(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pv-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, `{"size":15}`, r.URL.Query().Get("o"))
		text := patentQueryText(t, r)
		texts = append(texts, text)

		var patents []map[string]any
		switch text {
		case "AGT":
			patents = []map[string]any{
				{"patent_id": "10123456", "patent_title": "AGT inhibitor compound", "patent_abstract": "A drug.",
					"patent_date": "2020-01-01", "assignees": []map[string]string{{"assignee_organization": "Ionis"}}},
				{"patent_id": "9999999", "patent_title": "Assay", "patent_abstract": "biomarker detection kit",
					"patent_date": "2019-01-01"},
			}
		case "AGT drug therapeutic inhibitor":
			patents = []map[string]any{
				{"patent_id": "10,123,456", "patent_title": "duplicate"},
				{"patent_id": "11000000", "patent_title": "Treatment", "patent_abstract": "method of treating disease",
					"assignees": []map[string]string{{"assignee_individual_name_first": "Ada", "assignee_individual_name_last": "Byron"}}},
			}
		case "AGT diagnostic biomarker":
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"patents": patents})
	}))
	defer srv.Close()
	override(t, &patentsViewSearchBase, srv.URL+"/")

	cfg := types.SourcesConfig{PatentsViewAPIKey: "pv-key"}
	subject := agt
	subject.GeneName = "angiotensin converting enzyme"
	res := NewPatents(testOptions(cfg)).Fetch(context.Background(), subject)

	assert.Equal(t, []string{
		"AGT",
		"AGT drug therapeutic inhibitor",
		"AGT diagnostic biomarker",
		"AGT angiotensin converting enzyme",
		"angiotensin converting enzyme antisense siRNA oligonucleotide",
	}, texts)
	assert.Equal(t, texts, res.Patents.Queries)
	assert.Equal(t, types.StatusPartial, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "HTTP 502")

	got := res.Patents.Patents
	require.Len(t, got, 3)
	assert.Equal(t, types.Patent{
		Number:          "10123456",
		Title:           "AGT inhibitor compound",
		Assignee:        "Ionis",
		Date:            "2020-01-01",
		AbstractSnippet: "A drug.",
		Classification:  types.PatentDrug,
	}, got[0])
	assert.Equal(t, "Unknown", got[1].Assignee)
	assert.Equal(t, types.PatentDiagnostic, got[1].Classification)
	assert.Equal(t, "Ada Byron", got[2].Assignee)
	assert.Equal(t, types.PatentTherapeutic, got[2].Classification)
}

func TestPatents_CapsTotal(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batch := n.Add(1)
		var patents []map[string]any
		for i := 0; i < patentsPerQuery; i++ {
			patents = append(patents, map[string]any{"patent_id": fmt.Sprintf("%d%03d", batch, i)})
		}
		json.NewEncoder(w).Encode(map[string]any{"patents": patents})
	}))
	defer srv.Close()
	override(t, &patentsViewSearchBase, srv.URL+"/")

	res := NewPatents(testOptions(types.SourcesConfig{PatentsViewAPIKey: "k"})).Fetch(context.Background(), agt)

	assert.Equal(t, types.StatusOK, res.Status)
	assert.Len(t, res.Patents.Patents, patentsMax)
	assert.Len(t, res.Patents.Queries, 4, "single-word gene name adds one query")

	seen := map[string]bool{}
	for _, p := range res.Patents.Patents {
		k := normalizePatentNumber(p.Number)
		assert.False(t, seen[k], "duplicate patent %s", p.Number)
		seen[k] = true
	}
}

func TestPatentQueriesWithoutName(t *testing.T) {
	s := types.Subject{QueryKey: "rs1", GeneSymbol: "REN"}
	assert.Equal(t, []string{"REN", "REN drug therapeutic inhibitor", "REN diagnostic biomarker"}, patentQueries(s))
}
