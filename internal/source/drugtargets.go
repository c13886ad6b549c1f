// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/httputil"
	"github.com/pdiddy/variant-research/pkg/types"
)

// Endpoints. Declared as vars so tests can substitute an httptest server.
var (
	openTargetsGraphQL   = "https://api.platform.opentargets.org/api/v4/graphql"
	openTargetsTargetURL = "https://platform.opentargets.org/target/"
)

const (
	knownDrugsMax     = 25
	diseasesMax       = 15
	noEnsemblIDNote   = "no Ensembl gene id available; cannot query Open Targets"
	openTargetsSource = "Open Targets"
)

const targetInfoQuery = `query TargetInfo($ensemblId: String!) {
  target(ensemblId: $ensemblId) {
    id
    approvedSymbol
    functionDescriptions
    targetClass { id label }
    tractability { label modality value }
  }
}`

const knownDrugsQuery = `query KnownDrugs($ensemblId: String!, $size: Int!) {
  target(ensemblId: $ensemblId) {
    knownDrugs(size: $size) {
      rows {
        drug {
          name
          drugType
          maximumClinicalTrialPhase
          mechanismsOfAction { rows { mechanismOfAction } }
        }
        disease { name }
        phase
      }
    }
  }
}`

const diseaseAssociationsQuery = `query DiseaseAssociations($ensemblId: String!, $size: Int!) {
  target(ensemblId: $ensemblId) {
    associatedDiseases(page: {size: $size, index: 0}) {
      rows {
        disease { id name }
        score
        datasourceScores { id score }
      }
    }
  }
}`

// DrugTargets queries the Open Targets Platform for the gene's target
// profile, known drugs and associated diseases.
type DrugTargets struct {
	fetcher
	logger *zap.Logger
}

// NewDrugTargets returns the drug targets client.
func NewDrugTargets(opts Options) *DrugTargets {
	opts = opts.withDefaults()
	return &DrugTargets{
		fetcher: newFetcher(opts, httputil.NewPacer(opts.Config.DefaultInterval)),
		logger:  opts.Logger.Named(types.SourceDrugTargets),
	}
}

// Name returns "drug_targets".
func (c *DrugTargets) Name() string { return types.SourceDrugTargets }

// Fetch runs the three Open Targets queries. A subject without an Ensembl
// gene id yields an empty partial result.
func (c *DrugTargets) Fetch(ctx context.Context, s types.Subject) types.SourceResult {
	out := newOutcome(c.Name())
	payload := &types.DrugTargetPayload{
		EnsemblGeneID: s.EnsemblGeneID,
		Tractability: types.Tractability{
			SmallMolecule:   []string{},
			Antibody:        []string{},
			OtherModalities: []string{},
		},
		KnownDrugs: []types.KnownDrug{},
		Diseases:   []types.DiseaseAssociation{},
	}

	if s.EnsemblGeneID == "" {
		out.note(noEnsemblIDNote)
		res := out.result()
		res.DrugTargets = payload
		return res
	}
	payload.OpenTargetsURL = openTargetsTargetURL + s.EnsemblGeneID

	out.record("open targets target info", c.targetInfo(ctx, s.EnsemblGeneID, payload))

	drugs, err := c.knownDrugs(ctx, s.EnsemblGeneID)
	if out.record("open targets known drugs", err) {
		payload.KnownDrugs = dedupe(drugs, func(d types.KnownDrug) string {
			return strings.ToLower(d.Name)
		}, knownDrugsMax)
	}

	diseases, err := c.diseases(ctx, s.EnsemblGeneID)
	if out.record("open targets disease associations", err) {
		payload.Diseases = dedupe(diseases, func(d types.DiseaseAssociation) string {
			return d.Disease
		}, diseasesMax)
	}

	c.logger.Debug("drug targets fetched",
		zap.Int("drugs", len(payload.KnownDrugs)), zap.Int("diseases", len(payload.Diseases)))
	res := out.result()
	res.DrugTargets = payload
	return res
}

// graphql posts query with the Ensembl id and decodes data.target into v.
func (c *DrugTargets) graphql(ctx context.Context, query string, vars map[string]any, v any) error {
	var resp struct {
		Data struct {
			Target json.RawMessage `json:"target"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	body := map[string]any{"query": query, "variables": vars}
	if err := c.postJSON(ctx, openTargetsSource, openTargetsGraphQL, body, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%s GraphQL: %s", openTargetsSource, strings.Join(msgs, "; "))
	}
	if len(resp.Data.Target) == 0 || string(resp.Data.Target) == "null" {
		return errTargetNotFound
	}
	if err := json.Unmarshal(resp.Data.Target, v); err != nil {
		return fmt.Errorf("parsing %s response: %w", openTargetsSource, err)
	}
	return nil
}

var errTargetNotFound = errors.New("target not found in Open Targets")

func (c *DrugTargets) targetInfo(ctx context.Context, id string, p *types.DrugTargetPayload) error {
	var target struct {
		FunctionDescriptions []string `json:"functionDescriptions"`
		TargetClass          []struct {
			Label string `json:"label"`
		} `json:"targetClass"`
		Tractability []struct {
			Label    string `json:"label"`
			Modality string `json:"modality"`
			Value    bool   `json:"value"`
		} `json:"tractability"`
	}
	if err := c.graphql(ctx, targetInfoQuery, map[string]any{"ensemblId": id}, &target); err != nil {
		return err
	}

	if len(target.FunctionDescriptions) > 0 {
		p.Target.Description = target.FunctionDescriptions[0]
	}
	classes := make([]string, 0, len(target.TargetClass))
	for _, tc := range target.TargetClass {
		if tc.Label != "" {
			classes = append(classes, tc.Label)
		}
	}
	p.Target.ProteinClass = strings.Join(classes, ", ")

	for _, t := range target.Tractability {
		if !t.Value {
			continue
		}
		switch t.Modality {
		case "SM":
			p.Tractability.SmallMolecule = append(p.Tractability.SmallMolecule, t.Label)
		case "AB":
			p.Tractability.Antibody = append(p.Tractability.Antibody, t.Label)
		default:
			p.Tractability.OtherModalities = append(p.Tractability.OtherModalities,
				fmt.Sprintf("%s (%s)", t.Label, t.Modality))
		}
	}
	return nil
}

func (c *DrugTargets) knownDrugs(ctx context.Context, id string) ([]types.KnownDrug, error) {
	var target struct {
		KnownDrugs struct {
			Rows []struct {
				Drug struct {
					Name       string   `json:"name"`
					DrugType   string   `json:"drugType"`
					MaxPhase   *float64 `json:"maximumClinicalTrialPhase"`
					Mechanisms struct {
						Rows []struct {
							MechanismOfAction string `json:"mechanismOfAction"`
						} `json:"rows"`
					} `json:"mechanismsOfAction"`
				} `json:"drug"`
				Disease struct {
					Name string `json:"name"`
				} `json:"disease"`
				Phase json.RawMessage `json:"phase"`
			} `json:"rows"`
		} `json:"knownDrugs"`
	}
	vars := map[string]any{"ensemblId": id, "size": knownDrugsMax}
	if err := c.graphql(ctx, knownDrugsQuery, vars, &target); err != nil {
		return nil, err
	}

	drugs := make([]types.KnownDrug, 0, len(target.KnownDrugs.Rows))
	for _, row := range target.KnownDrugs.Rows {
		d := row.Drug
		if d.Name == "" {
			continue
		}
		var moa string
		if len(d.Mechanisms.Rows) > 0 {
			moa = d.Mechanisms.Rows[0].MechanismOfAction
		}
		phase := rawScalar(row.Phase)
		if d.MaxPhase != nil && *d.MaxPhase > 0 {
			phase = "Phase " + formatFloat(*d.MaxPhase)
		}
		drugs = append(drugs, types.KnownDrug{
			Name:       d.Name,
			Type:       d.DrugType,
			Mechanism:  moa,
			Phase:      phase,
			Indication: row.Disease.Name,
		})
	}
	return drugs, nil
}

func (c *DrugTargets) diseases(ctx context.Context, id string) ([]types.DiseaseAssociation, error) {
	var target struct {
		AssociatedDiseases struct {
			Rows []struct {
				Disease struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"disease"`
				Score            float64 `json:"score"`
				DatasourceScores []struct {
					ID    string  `json:"id"`
					Score float64 `json:"score"`
				} `json:"datasourceScores"`
			} `json:"rows"`
		} `json:"associatedDiseases"`
	}
	vars := map[string]any{"ensemblId": id, "size": diseasesMax}
	if err := c.graphql(ctx, diseaseAssociationsQuery, vars, &target); err != nil {
		return nil, err
	}

	out := make([]types.DiseaseAssociation, 0, len(target.AssociatedDiseases.Rows))
	for _, row := range target.AssociatedDiseases.Rows {
		var dataTypes []string
		for _, ds := range row.DatasourceScores {
			if ds.Score > 0 {
				dataTypes = append(dataTypes, ds.ID)
			}
		}
		out = append(out, types.DiseaseAssociation{
			Disease:   row.Disease.Name,
			Score:     row.Score,
			DataTypes: strings.Join(dataTypes, ", "),
		})
	}
	return out, nil
}
