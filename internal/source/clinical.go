// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/httputil"
	"github.com/pdiddy/variant-research/pkg/types"
)

// Endpoints. Declared as vars so tests can substitute an httptest server.
var (
	clinicalTrialsBase = "https://clinicaltrials.gov/api/v2/studies"
	gwasCatalogBase    = "https://www.ebi.ac.uk/gwas/rest/api"
)

const (
	clinvarMax           = 20
	trialsMax            = 20
	gwasMax              = 30
	interventionDescLen  = 150
	phaseNotSpecified    = "Not specified"
	clinicalServiceTrial = "ClinicalTrials.gov"
	clinicalServiceGWAS  = "GWAS Catalog"
)

// Clinical gathers ClinVar classifications, clinical trials and GWAS
// associations for the variant.
type Clinical struct {
	eutils eutils
	web    fetcher
	logger *zap.Logger
}

// NewClinical returns the clinical client. ClinVar calls share the NCBI
// pacer in opts; ClinicalTrials.gov and GWAS Catalog use their own.
func NewClinical(opts Options) *Clinical {
	opts = opts.withDefaults()
	return &Clinical{
		eutils: newEutils(opts),
		web:    newFetcher(opts, httputil.NewPacer(opts.Config.DefaultInterval)),
		logger: opts.Logger.Named(types.SourceClinical),
	}
}

// Name returns "clinical".
func (c *Clinical) Name() string { return types.SourceClinical }

// Fetch queries the three clinical services in turn. Each one failing is
// recorded without affecting the others.
func (c *Clinical) Fetch(ctx context.Context, s types.Subject) types.SourceResult {
	out := newOutcome(c.Name())
	payload := &types.ClinicalPayload{
		ClinVar: []types.ClinVarEntry{},
		Trials:  []types.ClinicalTrial{},
		GWAS:    []types.GWASAssociation{},
	}

	entries, err := c.clinVar(ctx, s.QueryKey)
	if out.record("clinvar", err) {
		payload.ClinVar = dedupe(entries, func(e types.ClinVarEntry) string { return e.VariantID }, clinvarMax)
	}

	// Variant-specific trials first so they survive the ceiling.
	seen := map[string]bool{}
	for _, term := range []string{s.QueryKey, s.GeneSymbol} {
		trials, err := c.trials(ctx, term)
		if !out.record(fmt.Sprintf("clinicaltrials search %q", term), err) {
			continue
		}
		payload.Trials = appendUnique(payload.Trials, seen, trials,
			func(t types.ClinicalTrial) string { return t.NCTID }, trialsMax)
	}

	assocs, err := c.gwas(ctx, s.QueryKey)
	if out.record("gwas catalog", err) {
		payload.GWAS = dedupe(assocs, func(a types.GWASAssociation) string {
			return strings.Join([]string{a.Trait, a.RiskAllele, a.PValue}, "|")
		}, gwasMax)
	}

	c.logger.Debug("clinical fetched",
		zap.Int("clinvar", len(payload.ClinVar)),
		zap.Int("trials", len(payload.Trials)),
		zap.Int("gwas", len(payload.GWAS)))
	res := out.result()
	res.Clinical = payload
	return res
}

func (c *Clinical) clinVar(ctx context.Context, rsid string) ([]types.ClinVarEntry, error) {
	ids, err := c.eutils.search(ctx, "clinvar", rsid, clinvarMax, "")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.eutils.summary(ctx, "clinvar", ids, &resp); err != nil {
		return nil, err
	}

	entries := make([]types.ClinVarEntry, 0, len(ids))
	for _, uid := range ids {
		raw, ok := resp.Result[uid]
		if !ok {
			continue
		}
		var doc clinVarSummary
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		entries = append(entries, doc.toEntry(uid))
	}
	return entries, nil
}

// ClinVar esummary JSON structures.
type clinVarSummary struct {
	Accession string `json:"accession"`
	Title     string `json:"title"`
	Germline  struct {
		Description   string `json:"description"`
		ReviewStatus  string `json:"review_status"`
		LastEvaluated string `json:"last_evaluated"`
		TraitSet      []struct {
			TraitName string `json:"trait_name"`
		} `json:"trait_set"`
	} `json:"germline_classification"`
}

func (d clinVarSummary) toEntry(uid string) types.ClinVarEntry {
	var conditions []string
	for _, t := range d.Germline.TraitSet {
		if t.TraitName != "" {
			conditions = append(conditions, t.TraitName)
		}
	}
	id := d.Accession
	if id == "" {
		id = uid
	}
	return types.ClinVarEntry{
		VariantID:            id,
		Title:                d.Title,
		ClinicalSignificance: d.Germline.Description,
		Conditions:           strings.Join(conditions, "; "),
		ReviewStatus:         d.Germline.ReviewStatus,
		LastEvaluated:        d.Germline.LastEvaluated,
	}
}

func (c *Clinical) trials(ctx context.Context, term string) ([]types.ClinicalTrial, error) {
	params := url.Values{
		"query.term": {term},
		"pageSize":   {strconv.Itoa(trialsMax)},
		"format":     {"json"},
	}
	var resp struct {
		Studies []ctStudy `json:"studies"`
	}
	if err := c.web.getJSON(ctx, clinicalServiceTrial, clinicalTrialsBase+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	trials := make([]types.ClinicalTrial, 0, len(resp.Studies))
	for _, st := range resp.Studies {
		trials = append(trials, st.toTrial())
	}
	return trials, nil
}

// ClinicalTrials.gov v2 JSON structures.
type ctStudy struct {
	Protocol struct {
		Identification struct {
			NCTID         string `json:"nctId"`
			OfficialTitle string `json:"officialTitle"`
			BriefTitle    string `json:"briefTitle"`
		} `json:"identificationModule"`
		Status struct {
			Overall string `json:"overallStatus"`
		} `json:"statusModule"`
		Design struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		Sponsors struct {
			Lead struct {
				Name string `json:"name"`
			} `json:"leadSponsor"`
		} `json:"sponsorCollaboratorsModule"`
		Conditions struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
		Arms struct {
			Interventions []struct {
				Name        string `json:"name"`
				Type        string `json:"type"`
				Description string `json:"description"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
	} `json:"protocolSection"`
}

func (st ctStudy) toTrial() types.ClinicalTrial {
	p := st.Protocol
	title := p.Identification.OfficialTitle
	if title == "" {
		title = p.Identification.BriefTitle
	}
	phase := strings.Join(p.Design.Phases, ", ")
	if phase == "" {
		phase = phaseNotSpecified
	}

	var interventions []string
	for _, in := range p.Arms.Interventions {
		if in.Name == "" {
			continue
		}
		entry := in.Name
		if in.Type != "" {
			entry += " (" + in.Type + ")"
		}
		if d := strings.TrimSpace(in.Description); d != "" {
			r := []rune(d)
			if len(r) > interventionDescLen {
				d = string(r[:interventionDescLen])
			}
			entry += " - " + d
		}
		interventions = append(interventions, entry)
	}

	return types.ClinicalTrial{
		NCTID:         p.Identification.NCTID,
		Title:         title,
		Phase:         phase,
		Status:        p.Status.Overall,
		Sponsor:       p.Sponsors.Lead.Name,
		Conditions:    strings.Join(p.Conditions.Conditions, "; "),
		Interventions: strings.Join(interventions, "; "),
	}
}

func (c *Clinical) gwas(ctx context.Context, rsid string) ([]types.GWASAssociation, error) {
	reqURL := fmt.Sprintf("%s/singleNucleotidePolymorphisms/%s/associations?projection=associationBySnp",
		gwasCatalogBase, url.PathEscape(rsid))
	header := http.Header{"Accept": {"application/json"}}

	var resp struct {
		Embedded struct {
			Associations []gwasAssociation `json:"associations"`
		} `json:"_embedded"`
	}
	err := c.web.getJSON(ctx, clinicalServiceGWAS, reqURL, header, &resp)
	var se *httputil.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		// Unknown SNP: no associations.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pmids := map[string]string{}
	assocs := make([]types.GWASAssociation, 0, len(resp.Embedded.Associations))
	for _, a := range resp.Embedded.Associations {
		out := a.toAssociation()
		if link := a.Links.Study.Href; link != "" {
			pmid, ok := pmids[link]
			if !ok {
				pmid = c.studyPMID(ctx, link)
				pmids[link] = pmid
			}
			out.PMID = pmid
		}
		assocs = append(assocs, out)
	}
	return assocs, nil
}

// studyPMID looks up the publication of a GWAS study. Failures leave the
// PMID empty.
func (c *Clinical) studyPMID(ctx context.Context, link string) string {
	var study struct {
		Publication struct {
			PubmedID json.RawMessage `json:"pubmedId"`
		} `json:"publicationInfo"`
	}
	header := http.Header{"Accept": {"application/json"}}
	if err := c.web.getJSON(ctx, clinicalServiceGWAS, link, header, &study); err != nil {
		c.logger.Debug("gwas study lookup failed", zap.String("study", link), zap.Error(err))
		return ""
	}
	return rawScalar(study.Publication.PubmedID)
}

// GWAS Catalog JSON structures.
type gwasAssociation struct {
	PValue         *float64 `json:"pvalue"`
	PValueMantissa *float64 `json:"pvalueMantissa"`
	PValueExponent *int     `json:"pvalueExponent"`
	BetaNum        *float64 `json:"betaNum"`
	BetaUnit       string   `json:"betaUnit"`
	BetaDirection  string   `json:"betaDirection"`
	OR             *float64 `json:"orPerCopyNum"`
	Range          string   `json:"range"`
	EFOTraits      []struct {
		Trait string `json:"trait"`
	} `json:"efoTraits"`
	Loci []struct {
		StrongestRiskAlleles []struct {
			RiskAlleleName string `json:"riskAlleleName"`
		} `json:"strongestRiskAlleles"`
	} `json:"loci"`
	Links struct {
		Study struct {
			Href string `json:"href"`
		} `json:"study"`
	} `json:"_links"`
}

func (a gwasAssociation) toAssociation() types.GWASAssociation {
	var out types.GWASAssociation
	for _, t := range a.EFOTraits {
		if t.Trait != "" {
			out.Trait = t.Trait
			break
		}
	}

	switch {
	case a.PValueMantissa != nil && a.PValueExponent != nil:
		out.PValue = formatFloat(*a.PValueMantissa) + "e" + strconv.Itoa(*a.PValueExponent)
	case a.PValue != nil:
		out.PValue = strconv.FormatFloat(*a.PValue, 'g', -1, 64)
	}

	switch {
	case a.BetaNum != nil:
		out.EffectSize = "beta=" + formatFloat(*a.BetaNum)
		if a.BetaUnit != "" {
			out.EffectSize += " " + a.BetaUnit
		}
		if a.BetaDirection != "" {
			out.EffectSize += " (" + a.BetaDirection + ")"
		}
	case a.OR != nil:
		out.EffectSize = "OR=" + formatFloat(*a.OR)
		if a.Range != "" {
			out.EffectSize += " " + a.Range
		}
	}

loci:
	for _, l := range a.Loci {
		for _, r := range l.StrongestRiskAlleles {
			if r.RiskAlleleName != "" {
				out.RiskAllele = r.RiskAlleleName
				break loci
			}
		}
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// rawScalar renders a JSON string or number as text.
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
