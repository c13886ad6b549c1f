// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/httputil"
	"github.com/pdiddy/variant-research/pkg/types"
)

// Endpoints. Declared as vars so tests can substitute an httptest server.
var (
	stringAPIBase  = "https://string-db.org/api/json"
	hpaSearchURL   = "https://www.proteinatlas.org/api/search_download.php"
	intactSearch   = "https://www.ebi.ac.uk/Tools/webservices/psicquic/intact/webservices/current/search/interactor"
	bioplexDataURL = "https://bioplex.hms.harvard.edu/data/BioPlex_293T_Network_10K_Dec_2019.tsv"
	biogridAPIURL  = "https://webservice.thebiogrid.org/interactions/"
)

const (
	humanTaxID         = "9606"
	stringMinScore     = 400
	stringMax          = 25
	interactionsMax    = 50
	bioplexCacheFile   = "bioplex_293t.tsv"
	biogridKeyHint     = "BIOGRID_API_KEY not set; BioGRID interactions skipped (free key at https://wiki.thebiogrid.org/doku.php/biogridrest)"
	defaultCacheSubdir = "variant-research-cache"
)

// Protein gathers interaction partners and expression data for the gene
// product from STRING, the Human Protein Atlas, IntAct, BioPlex and BioGRID.
type Protein struct {
	fetcher
	download   fetcher
	cacheDir   string
	biogridKey string
	logger     *zap.Logger
}

// NewProtein returns the protein client. Without a BioGRID key the other
// four services are still queried and a note is recorded.
func NewProtein(opts Options) *Protein {
	opts = opts.withDefaults()
	pacer := httputil.NewPacer(opts.Config.DefaultInterval)

	dl := newFetcher(opts, pacer)
	dl.client = &http.Client{Timeout: opts.Config.DownloadTimeout, Transport: opts.HTTP.Transport}

	cacheDir := opts.Config.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), defaultCacheSubdir)
	}
	return &Protein{
		fetcher:    newFetcher(opts, pacer),
		download:   dl,
		cacheDir:   cacheDir,
		biogridKey: opts.Config.BioGRIDAPIKey,
		logger:     opts.Logger.Named(types.SourceProtein),
	}
}

// Name returns "protein".
func (c *Protein) Name() string { return types.SourceProtein }

// Fetch queries the five services in turn.
func (c *Protein) Fetch(ctx context.Context, s types.Subject) types.SourceResult {
	out := newOutcome(c.Name())
	gene := s.GeneSymbol
	payload := &types.ProteinPayload{
		STRING:  []types.StringInteraction{},
		IntAct:  []types.IntActInteraction{},
		BioPlex: []types.BioPlexInteraction{},
		BioGRID: []types.BioGRIDInteraction{},
	}

	if partners, err := c.stringNetwork(ctx, gene); out.record("string network", err) {
		payload.STRING = dedupe(partners, func(i types.StringInteraction) string {
			return strings.ToUpper(i.Partner)
		}, stringMax)
	}

	if expr, err := c.hpaExpression(ctx, gene); out.record("protein atlas", err) {
		payload.Expression = expr
	}

	if rows, err := c.intact(ctx, gene); out.record("intact", err) {
		payload.IntAct = dedupe(rows, func(i types.IntActInteraction) string {
			return pairKey(i.InteractorA, i.InteractorB, i.PMID, i.DetectionMethod)
		}, interactionsMax)
	}

	if rows, err := c.bioplex(ctx, gene); out.record("bioplex", err) {
		payload.BioPlex = dedupe(rows, func(i types.BioPlexInteraction) string {
			return pairKey(i.SymbolA, i.SymbolB)
		}, interactionsMax)
	}

	if c.biogridKey == "" {
		out.note(biogridKeyHint)
	} else if rows, err := c.biogrid(ctx, gene); out.record("biogrid", err) {
		payload.BioGRID = dedupe(rows, func(i types.BioGRIDInteraction) string { return i.ID }, interactionsMax)
	}

	c.logger.Debug("protein fetched",
		zap.Int("string", len(payload.STRING)),
		zap.Int("intact", len(payload.IntAct)),
		zap.Int("bioplex", len(payload.BioPlex)),
		zap.Int("biogrid", len(payload.BioGRID)))
	res := out.result()
	res.Protein = payload
	return res
}

// stringNetwork confirms the gene is known to STRING, then fetches its
// functional partners above a medium confidence score.
func (c *Protein) stringNetwork(ctx context.Context, gene string) ([]types.StringInteraction, error) {
	params := url.Values{
		"identifiers": {gene},
		"species":     {humanTaxID},
		"limit":       {"1"},
	}
	var ids []struct {
		StringID string `json:"stringId"`
	}
	if err := c.getJSON(ctx, "STRING", stringAPIBase+"/get_string_ids?"+params.Encode(), nil, &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("could not resolve %s in STRING", gene)
	}

	params = url.Values{
		"identifiers":    {gene},
		"species":        {humanTaxID},
		"required_score": {strconv.Itoa(stringMinScore)},
		"network_type":   {"functional"},
		"limit":          {strconv.Itoa(stringMax)},
	}
	var edges []stringEdge
	if err := c.getJSON(ctx, "STRING", stringAPIBase+"/network?"+params.Encode(), nil, &edges); err != nil {
		return nil, err
	}

	out := make([]types.StringInteraction, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.toInteraction())
	}
	return out, nil
}

// STRING network JSON structure.
type stringEdge struct {
	PreferredNameA string  `json:"preferredName_A"`
	PreferredNameB string  `json:"preferredName_B"`
	Score          float64 `json:"score"`
	NScore         float64 `json:"nscore"`
	FScore         float64 `json:"fscore"`
	PScore         float64 `json:"pscore"`
	AScore         float64 `json:"ascore"`
	EScore         float64 `json:"escore"`
	DScore         float64 `json:"dscore"`
	TScore         float64 `json:"tscore"`
}

func (e stringEdge) toInteraction() types.StringInteraction {
	channels := []struct {
		name  string
		score float64
	}{
		{"neighborhood", e.NScore},
		{"fusion", e.FScore},
		{"cooccurrence", e.PScore},
		{"coexpression", e.AScore},
		{"experimental", e.EScore},
		{"database", e.DScore},
		{"textmining", e.TScore},
	}
	var sources []string
	for _, ch := range channels {
		if ch.score > 0 {
			sources = append(sources, ch.name)
		}
	}
	return types.StringInteraction{
		ProteinA: e.PreferredNameA,
		Partner:  e.PreferredNameB,
		Score:    e.Score,
		Sources:  strings.Join(sources, ", "),
	}
}

// hpaExpression returns the Protein Atlas entry whose Gene column matches
// the symbol, or the first entry when none matches exactly.
func (c *Protein) hpaExpression(ctx context.Context, gene string) (types.Expression, error) {
	params := url.Values{
		"search":   {gene},
		"format":   {"json"},
		"columns":  {"g,gs,up,t,scl,pc,re"},
		"compress": {"no"},
	}
	var entries []map[string]json.RawMessage
	if err := c.getJSON(ctx, "Human Protein Atlas", hpaSearchURL+"?"+params.Encode(), nil, &entries); err != nil {
		return types.Expression{}, err
	}
	if len(entries) == 0 {
		return types.Expression{}, fmt.Errorf("no Human Protein Atlas entry for %s", gene)
	}

	entry := entries[0]
	for _, e := range entries {
		if strings.EqualFold(hpaString(e["Gene"]), gene) {
			entry = e
			break
		}
	}

	expr := types.Expression{
		ProteinClass:        hpaString(entry["Protein class"]),
		SubcellularLocation: hpaString(entry["Subcellular location"]),
		TissueExpression:    hpaString(entry["Tissue expression"]),
		RNAExpression:       hpaString(entry["RNA expression"]),
	}
	if expr.TissueExpression == "" {
		expr.TissueExpression = hpaString(entry["RNA tissue specificity"])
	}
	if expr.RNAExpression == "" {
		expr.RNAExpression = hpaString(entry["RNA tissue specific nTPM"])
	}
	return expr, nil
}

// hpaString renders a Protein Atlas cell, which may be a string, number,
// list or object, as display text.
func hpaString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if s := rawScalar(raw); s != "" {
		return s
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := hpaString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+hpaString(obj[k]))
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func (c *Protein) biogrid(ctx context.Context, gene string) ([]types.BioGRIDInteraction, error) {
	params := url.Values{
		"accesskey":                     {c.biogridKey},
		"format":                        {"json"},
		"searchNames":                   {"true"},
		"geneList":                      {gene},
		"organism":                      {humanTaxID},
		"start":                         {"0"},
		"max":                           {strconv.Itoa(interactionsMax)},
		"includeInteractors":            {"true"},
		"includeInteractorInteractions": {"false"},
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "BioGRID", biogridAPIURL+"?"+params.Encode(), nil, &raw); err != nil {
		return nil, err
	}
	// An empty result set comes back as a JSON list.
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		return nil, nil
	}

	var records map[string]biogridRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing BioGRID response: %w", err)
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessNumeric(ids[i], ids[j]) })

	out := make([]types.BioGRIDInteraction, 0, len(ids))
	for _, id := range ids {
		r := records[id]
		out = append(out, types.BioGRIDInteraction{
			ID:                 id,
			GeneA:              r.SymbolA,
			GeneB:              r.SymbolB,
			ExperimentalSystem: r.System,
			Throughput:         r.Throughput,
			PMID:               rawScalar(r.PubmedID),
		})
	}
	return out, nil
}

// BioGRID REST JSON structure.
type biogridRecord struct {
	SymbolA    string          `json:"OFFICIAL_SYMBOL_A"`
	SymbolB    string          `json:"OFFICIAL_SYMBOL_B"`
	System     string          `json:"EXPERIMENTAL_SYSTEM"`
	Throughput string          `json:"THROUGHPUT"`
	PubmedID   json.RawMessage `json:"PUBMED_ID"`
}

// lessNumeric orders numeric ids by value and falls back to string order.
func lessNumeric(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
