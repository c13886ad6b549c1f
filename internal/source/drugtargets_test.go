// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/variant-research/pkg/types"
)

// openTargetsServer answers each GraphQL operation with the body registered
// under its operation name.
func openTargetsServer(t *testing.T, bodies map[string]string) *atomic.Int32 {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, agt.EnsemblGeneID, req.Variables["ensemblId"])

		for name, body := range bodies {
			if strings.HasPrefix(req.Query, "query "+name+"(") {
				w.Write([]byte(body))
				return
			}
		}
		http.Error(w, "unknown operation", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	override(t, &openTargetsGraphQL, srv.URL)
	return calls
}

var openTargetsBodies = map[string]string{
	"TargetInfo": `{"data": {"target": {
		"id": "ENSG00000135744",
		"approvedSymbol": "AGT",
		"functionDescriptions": ["Essential component of the renin-angiotensin system.", "Second."],
		"targetClass": [{"id": 1, "label": "Secreted protein"}, {"id": 2, "label": ""}],
		"tractability": [
			{"label": "Approved Drug", "modality": "SM", "value": true},
			{"label": "High-Quality Pocket", "modality": "SM", "value": false},
			{"label": "UniProt loc high conf", "modality": "AB", "value": true},
			{"label": "Literature", "modality": "PR", "value": true}
		]
	}}}`,
	"KnownDrugs": `{"data": {"target": {"knownDrugs": {"rows": [
		{"drug": {"name": "ZILEBESIRAN", "drugType": "Oligonucleotide", "maximumClinicalTrialPhase": 2,
		          "mechanismsOfAction": {"rows": [{"mechanismOfAction": "Angiotensinogen inhibitor"}]}},
		 "disease": {"name": "hypertension"}, "phase": 2},
		{"drug": {"name": "zilebesiran", "drugType": "Oligonucleotide", "maximumClinicalTrialPhase": 2},
		 "disease": {"name": "essential hypertension"}, "phase": 2},
		{"drug": {"name": "ALISKIREN", "drugType": "Small molecule", "maximumClinicalTrialPhase": 4,
		          "mechanismsOfAction": {"rows": []}},
		 "disease": {"name": "hypertension"}, "phase": 4},
		{"drug": {"name": "", "drugType": "Unknown"}, "disease": {"name": "x"}, "phase": 1},
		{"drug": {"name": "EXPERIMENTAL", "drugType": "Protein"}, "disease": {"name": "x"}, "phase": "Early Phase 1"}
	]}}}}`,
	"DiseaseAssociations": `{"data": {"target": {"associatedDiseases": {"rows": [
		{"disease": {"id": "EFO_0000537", "name": "hypertension"}, "score": 0.71,
		 "datasourceScores": [{"id": "gwas_credible_sets", "score": 0.9}, {"id": "europepmc", "score": 0}, {"id": "chembl", "score": 0.5}]},
		{"disease": {"id": "EFO_0000537", "name": "hypertension"}, "score": 0.7, "datasourceScores": []},
		{"disease": {"id": "MONDO_1", "name": "preeclampsia"}, "score": 0.4, "datasourceScores": []}
	]}}}}`,
}

func TestDrugTargets_AllQueries(t *testing.T) {
	calls := openTargetsServer(t, openTargetsBodies)

	res := NewDrugTargets(testOptions(types.SourcesConfig{})).Fetch(context.Background(), agt)

	assert.Equal(t, types.StatusOK, res.Status)
	assert.Empty(t, res.Errors)
	assert.Equal(t, int32(3), calls.Load())
	d := res.DrugTargets
	require.NotNil(t, d)

	assert.Equal(t, "ENSG00000135744", d.EnsemblGeneID)
	assert.Equal(t, "https://platform.opentargets.org/target/ENSG00000135744", d.OpenTargetsURL)
	assert.Equal(t, types.TargetInfo{
		Description:  "Essential component of the renin-angiotensin system.",
		ProteinClass: "Secreted protein",
	}, d.Target)
	assert.Equal(t, types.Tractability{
		SmallMolecule:   []string{"Approved Drug"},
		Antibody:        []string{"UniProt loc high conf"},
		OtherModalities: []string{"Literature (PR)"},
	}, d.Tractability)

	require.Len(t, d.KnownDrugs, 3, "drug names are unique case-insensitively and nameless rows dropped")
	assert.Equal(t, types.KnownDrug{
		Name:       "ZILEBESIRAN",
		Type:       "Oligonucleotide",
		Mechanism:  "Angiotensinogen inhibitor",
		Phase:      "Phase 2",
		Indication: "hypertension",
	}, d.KnownDrugs[0])
	assert.Equal(t, "Phase 4", d.KnownDrugs[1].Phase)
	assert.Empty(t, d.KnownDrugs[1].Mechanism)
	assert.Equal(t, "Early Phase 1", d.KnownDrugs[2].Phase, "raw phase is kept without a max phase")

	require.Len(t, d.Diseases, 2)
	assert.Equal(t, types.DiseaseAssociation{
		Disease: "hypertension", Score: 0.71, DataTypes: "gwas_credible_sets, chembl",
	}, d.Diseases[0])
	assert.Equal(t, "preeclampsia", d.Diseases[1].Disease)
}

func TestDrugTargets_NoEnsemblID(t *testing.T) {
	calls := openTargetsServer(t, openTargetsBodies)
	s := agt
	s.EnsemblGeneID = ""

	res := NewDrugTargets(testOptions(types.SourcesConfig{})).Fetch(context.Background(), s)

	assert.Equal(t, types.StatusPartial, res.Status)
	assert.Equal(t, []string{noEnsemblIDNote}, res.Errors)
	assert.Equal(t, int32(0), calls.Load())
	require.NotNil(t, res.DrugTargets)
	assert.Empty(t, res.DrugTargets.KnownDrugs)
	assert.NotNil(t, res.DrugTargets.Tractability.SmallMolecule)
}

func TestDrugTargets_GraphQLErrors(t *testing.T) {
	bodies := map[string]string{
		"TargetInfo":          `{"data": {"target": null}}`,
		"KnownDrugs":          `{"errors": [{"message": "size too large"}, {"message": "retry later"}]}`,
		"DiseaseAssociations": openTargetsBodies["DiseaseAssociations"],
	}
	openTargetsServer(t, bodies)

	res := NewDrugTargets(testOptions(types.SourcesConfig{})).Fetch(context.Background(), agt)

	assert.Equal(t, types.StatusPartial, res.Status)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "target not found in Open Targets")
	assert.Contains(t, res.Errors[1], "Open Targets GraphQL: size too large; retry later")
	assert.Empty(t, res.DrugTargets.KnownDrugs)
	assert.Len(t, res.DrugTargets.Diseases, 2)
}

func TestDrugTargets_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	override(t, &openTargetsGraphQL, srv.URL)

	res := NewDrugTargets(testOptions(types.SourcesConfig{})).Fetch(context.Background(), agt)

	assert.Equal(t, types.StatusError, res.Status)
	assert.Len(t, res.Errors, 3)
	require.NotNil(t, res.DrugTargets, "failed sources still carry an empty payload")
	assert.Empty(t, res.DrugTargets.Diseases)
}
