// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/variant-research/pkg/types"
)

// eutils calls NCBI E-utilities. Every request carries the tool and email
// parameters NCBI requires, plus the API key when configured.
type eutils struct {
	fetcher
	cfg types.NCBIConfig
}

func newEutils(opts Options) eutils {
	return eutils{fetcher: newFetcher(opts, opts.NCBI), cfg: opts.Config.NCBI}
}

func (e eutils) endpoint(name string, params url.Values) string {
	params.Set("tool", e.cfg.Tool)
	params.Set("email", e.cfg.Email)
	if e.cfg.APIKey != "" {
		params.Set("api_key", e.cfg.APIKey)
	}
	return eutilsBase + "/" + name + "?" + params.Encode()
}

// search runs esearch and returns the matching ids.
func (e eutils) search(ctx context.Context, db, term string, retmax int, sort string) ([]string, error) {
	params := url.Values{
		"db":      {db},
		"term":    {term},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(retmax)},
	}
	if sort != "" {
		params.Set("sort", sort)
	}
	var resp struct {
		Result struct {
			IDs []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := e.getJSON(ctx, "NCBI esearch", e.endpoint("esearch.fcgi", params), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result.IDs, nil
}

// summary runs esummary in JSON mode and decodes the response into v.
func (e eutils) summary(ctx context.Context, db string, ids []string, v any) error {
	params := url.Values{
		"db":      {db},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	return e.getJSON(ctx, "NCBI esummary", e.endpoint("esummary.fcgi", params), nil, v)
}

func (e eutils) fetchXML(ctx context.Context, name string, params url.Values, v any) error {
	return e.getXML(ctx, "NCBI efetch", e.endpoint(name, params), v)
}
