// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps a dbSNP rsID to the gene and variant attributes every
// source client depends on, using MyVariant.info and MyGene.info.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/httputil"
	"github.com/pdiddy/variant-research/pkg/types"
)

// Endpoints. Declared as vars so tests can substitute an httptest server.
var (
	myVariantQueryURL = "https://myvariant.info/v1/query"
	myGeneQueryURL    = "https://mygene.info/v3/query"
)

// RetryDelay is the wait before the single retry of a transient failure.
// Tests override this to avoid real sleeps.
var RetryDelay = 5 * time.Second

const myVariantFields = "dbsnp,cadd.gene,clinvar,snpeff,dbnsfp.genename,dbnsfp.ensembl.geneid,dbnsfp.uniprot"

// Resolver resolves query keys. It is safe for concurrent use.
type Resolver struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// New returns a Resolver. A nil logger disables logging.
func New(client *http.Client, cfg types.HTTPConfig, logger *zap.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{client: client, userAgent: cfg.UserAgent, logger: logger}
}

// Resolve returns the Subject for queryKey. Every failure is reported as a
// *types.UnresolvedSubjectError. Transient failures (network errors,
// timeouts, HTTP 429 and 5xx) are retried exactly once; an empty hit list or
// a hit without a gene symbol is a definitive answer and is not retried.
func (r *Resolver) Resolve(ctx context.Context, queryKey string) (types.Subject, error) {
	key := types.NormalizeQueryKey(queryKey)
	if !strings.HasPrefix(key, "rs") || len(key) == 2 {
		return types.Subject{}, &types.UnresolvedSubjectError{
			QueryKey: key,
			Reason:   "invalid rsID format, expected e.g. rs12345",
		}
	}

	var (
		hits []myVariantHit
		err  error
	)
	for attempt := 0; ; attempt++ {
		hits, err = r.queryVariant(ctx, key)
		if err == nil || attempt == 1 || !httputil.IsTransient(err) {
			break
		}
		r.logger.Warn("variant lookup failed, retrying",
			zap.String("rsid", key), zap.Duration("delay", RetryDelay), zap.Error(err))
		select {
		case <-ctx.Done():
			return types.Subject{}, &types.UnresolvedSubjectError{QueryKey: key, Reason: "variant lookup cancelled", Err: ctx.Err()}
		case <-time.After(RetryDelay):
		}
	}
	if err != nil {
		return types.Subject{}, &types.UnresolvedSubjectError{QueryKey: key, Reason: "variant lookup failed", Err: err}
	}
	if len(hits) == 0 {
		return types.Subject{}, &types.UnresolvedSubjectError{QueryKey: key, Reason: "no hits found"}
	}

	subject := subjectFromHit(key, hits[0])
	if err := subject.Validate(); err != nil {
		return types.Subject{}, &types.UnresolvedSubjectError{QueryKey: key, Reason: "no gene symbol in variant annotation"}
	}

	name, err := r.lookupGeneName(ctx, subject.GeneSymbol)
	if err != nil {
		subject.Errors = append(subject.Errors, fmt.Sprintf("gene name lookup: %v", err))
	}
	subject.GeneName = name

	r.logger.Info("variant resolved",
		zap.String("rsid", key),
		zap.String("gene", subject.GeneSymbol),
		zap.String("ensembl", subject.EnsemblGeneID))
	return subject, nil
}

func (r *Resolver) queryVariant(ctx context.Context, key string) ([]myVariantHit, error) {
	params := url.Values{
		"q":      {key},
		"scopes": {"dbsnp.rsid"},
		"fields": {myVariantFields},
		"size":   {"1"},
	}
	var resp struct {
		Hits []myVariantHit `json:"hits"`
	}
	if err := r.getJSON(ctx, "MyVariant.info", myVariantQueryURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

func (r *Resolver) lookupGeneName(ctx context.Context, symbol string) (string, error) {
	params := url.Values{
		"q":      {symbol},
		"fields": {"name"},
		"size":   {"1"},
	}
	var resp struct {
		Hits []struct {
			Name string `json:"name"`
		} `json:"hits"`
	}
	if err := r.getJSON(ctx, "MyGene.info", myGeneQueryURL+"?"+params.Encode(), &resp); err != nil {
		return "", err
	}
	if len(resp.Hits) == 0 {
		return "", nil
	}
	return resp.Hits[0].Name, nil
}

func (r *Resolver) getJSON(ctx context.Context, service, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(service, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	return nil
}

// MyVariant.info JSON structures. Many annotation fields are either an
// object or a list of objects depending on the variant, so they are kept raw
// and decoded with firstObject.
type myVariantHit struct {
	DBSNP   json.RawMessage `json:"dbsnp"`
	CADD    json.RawMessage `json:"cadd"`
	DBNSFP  json.RawMessage `json:"dbnsfp"`
	SnpEff  json.RawMessage `json:"snpeff"`
	ClinVar json.RawMessage `json:"clinvar"`
}

type dbsnpRecord struct {
	Chrom string          `json:"chrom"`
	Ref   string          `json:"ref"`
	Alt   string          `json:"alt"`
	HG19  json.RawMessage `json:"hg19"`
	Gene  json.RawMessage `json:"gene"`
}

type genomicRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type dbnsfpRecord struct {
	GeneName json.RawMessage `json:"genename"`
	Ensembl  json.RawMessage `json:"ensembl"`
}

func subjectFromHit(key string, hit myVariantHit) types.Subject {
	s := types.Subject{QueryKey: key, Errors: []string{}}

	var dbsnp dbsnpRecord
	firstObject(hit.DBSNP, &dbsnp)
	s.Chromosome = dbsnp.Chrom
	var hg19 genomicRange
	if firstObject(dbsnp.HG19, &hg19) {
		s.Position = hg19.Start
		if s.Position == 0 {
			s.Position = hg19.End
		}
	}
	if dbsnp.Ref != "" && dbsnp.Alt != "" {
		s.Alleles = dbsnp.Ref + ">" + dbsnp.Alt
	}

	var dbnsfp dbnsfpRecord
	firstObject(hit.DBNSFP, &dbnsfp)

	// Gene symbol fallback chain: dbNSFP, then CADD, then dbSNP.
	s.GeneSymbol = firstString(dbnsfp.GeneName)
	if s.GeneSymbol == "" {
		var cadd struct {
			Gene json.RawMessage `json:"gene"`
		}
		var caddGene struct {
			GeneName string `json:"genename"`
		}
		if firstObject(hit.CADD, &cadd) && firstObject(cadd.Gene, &caddGene) {
			s.GeneSymbol = caddGene.GeneName
		}
	}
	if s.GeneSymbol == "" {
		var gene struct {
			Symbol string `json:"symbol"`
		}
		if firstObject(dbsnp.Gene, &gene) {
			s.GeneSymbol = gene.Symbol
		}
	}
	s.GeneSymbol = strings.TrimSpace(s.GeneSymbol)

	var ensembl struct {
		GeneID json.RawMessage `json:"geneid"`
	}
	if firstObject(dbnsfp.Ensembl, &ensembl) {
		s.EnsemblGeneID = firstString(ensembl.GeneID)
	}

	var snpeff struct {
		Ann json.RawMessage `json:"ann"`
	}
	var ann struct {
		Effect string `json:"effect"`
		HGVSP  string `json:"hgvs_p"`
	}
	if firstObject(hit.SnpEff, &snpeff) && firstObject(snpeff.Ann, &ann) {
		s.Consequence = ann.Effect
		s.ProteinChange = ann.HGVSP
	}

	var clinvar struct {
		RCV json.RawMessage `json:"rcv"`
	}
	var rcv struct {
		ClinicalSignificance string `json:"clinical_significance"`
	}
	if firstObject(hit.ClinVar, &clinvar) && firstObject(clinvar.RCV, &rcv) {
		s.ClinVarSignificance = rcv.ClinicalSignificance
	}
	return s
}

// firstObject decodes raw into v when raw is an object, or decodes its first
// element when raw is a non-empty list. It reports whether anything was decoded.
func firstObject(raw json.RawMessage, v any) bool {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return false
		}
		raw = list[0]
	}
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// firstString returns raw as a string, or its first element when raw is a
// list of strings.
func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
