// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/httputil"
	"github.com/pdiddy/variant-research/pkg/types"
)

// patentsViewSearchBase is the PatentsView patent search endpoint. Declared
// as a var so tests can substitute an httptest server.
var patentsViewSearchBase = "https://search.patentsview.org/api/v1/patent/"

// patentsViewFields lists the fields requested from the API.
const patentsViewFields = `["patent_id","patent_title","patent_abstract","patent_date","assignees"]`

const (
	patentsPerQuery     = 15
	patentsMax          = 30
	patentSnippetLen    = 250
	patentsViewKeyHint  = "PATENTSVIEW_API_KEY not set; get a free key at https://patentsview.org/apis/keyrequest"
	unknownAssigneeName = "Unknown"
)

// Patents searches PatentsView for patents mentioning the gene.
type Patents struct {
	fetcher
	apiKey string
	logger *zap.Logger
}

// NewPatents returns the patents client. Without a PatentsView API key the
// client runs in degraded mode and returns an empty partial result.
func NewPatents(opts Options) *Patents {
	opts = opts.withDefaults()
	return &Patents{
		fetcher: newFetcher(opts, httputil.NewPacer(opts.Config.PatentsViewInterval)),
		apiKey:  opts.Config.PatentsViewAPIKey,
		logger:  opts.Logger.Named(types.SourcePatents),
	}
}

// Name returns "patents".
func (c *Patents) Name() string { return types.SourcePatents }

// Fetch runs up to five abstract searches and merges them by patent number.
func (c *Patents) Fetch(ctx context.Context, s types.Subject) types.SourceResult {
	out := newOutcome(c.Name())
	payload := &types.PatentPayload{Queries: []string{}, Patents: []types.Patent{}}

	if c.apiKey == "" {
		out.note(patentsViewKeyHint)
		c.logger.Warn("patent search skipped, no API key")
		res := out.result()
		res.Patents = payload
		return res
	}

	seen := map[string]bool{}
	for _, q := range patentQueries(s) {
		payload.Queries = append(payload.Queries, q)
		patents, err := c.search(ctx, q)
		if !out.record(fmt.Sprintf("patentsview search %q", q), err) {
			continue
		}
		payload.Patents = appendUnique(payload.Patents, seen, patents,
			func(p types.Patent) string { return normalizePatentNumber(p.Number) }, patentsMax)
	}

	c.logger.Debug("patents fetched", zap.Int("patents", len(payload.Patents)))
	res := out.result()
	res.Patents = payload
	return res
}

// patentQueries returns the search texts: the gene symbol alone, combined
// with drug and diagnostic terms, and, when the full name is known, with the
// name and with oligonucleotide terms for multi-word names.
func patentQueries(s types.Subject) []string {
	queries := []string{
		s.GeneSymbol,
		s.GeneSymbol + " drug therapeutic inhibitor",
		s.GeneSymbol + " diagnostic biomarker",
	}
	if s.GeneName != "" {
		queries = append(queries, s.GeneSymbol+" "+s.GeneName)
		if len(strings.Fields(s.GeneName)) > 1 {
			queries = append(queries, s.GeneName+" antisense siRNA oligonucleotide")
		}
	}
	return queries
}

func (c *Patents) search(ctx context.Context, text string) ([]types.Patent, error) {
	q, err := json.Marshal(map[string]any{"_text_all": map[string]string{"patent_abstract": text}})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	params := url.Values{
		"q": {string(q)},
		"f": {patentsViewFields},
		"o": {fmt.Sprintf(`{"size":%d}`, patentsPerQuery)},
		"s": {`[{"patent_date":"desc"}]`},
	}
	header := http.Header{"X-Api-Key": {c.apiKey}}

	var pvr patentsViewResponse
	if err := c.getJSON(ctx, "PatentsView", patentsViewSearchBase+"?"+params.Encode(), header, &pvr); err != nil {
		return nil, err
	}

	patents := make([]types.Patent, 0, len(pvr.Patents))
	for _, p := range pvr.Patents {
		patents = append(patents, types.Patent{
			Number:          p.PatentID,
			Title:           p.PatentTitle,
			Assignee:        p.assignee(),
			Date:            p.PatentDate,
			AbstractSnippet: snippet(p.PatentAbstract, patentSnippetLen),
			Classification:  ClassifyPatent(p.PatentTitle, p.PatentAbstract),
		})
	}
	return patents, nil
}

// PatentsView API JSON structures.
type patentsViewResponse struct {
	Patents []patentsViewPatent `json:"patents"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total_hits"`
}

type patentsViewPatent struct {
	PatentID       string                `json:"patent_id"`
	PatentTitle    string                `json:"patent_title"`
	PatentAbstract string                `json:"patent_abstract"`
	PatentDate     string                `json:"patent_date"`
	Assignees      []patentsViewAssignee `json:"assignees"`
}

type patentsViewAssignee struct {
	Organization string `json:"assignee_organization"`
	FirstName    string `json:"assignee_individual_name_first"`
	LastName     string `json:"assignee_individual_name_last"`
}

// assignee returns the first assignee's organization, falling back to an
// individual's name, or "Unknown".
func (p patentsViewPatent) assignee() string {
	if len(p.Assignees) == 0 {
		return unknownAssigneeName
	}
	a := p.Assignees[0]
	if a.Organization != "" {
		return a.Organization
	}
	if name := strings.TrimSpace(a.FirstName + " " + a.LastName); name != "" {
		return name
	}
	return unknownAssigneeName
}
