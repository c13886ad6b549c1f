// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/pkg/types"
)

// eutilsBase is the NCBI E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	literatureIDsPerQuery = 10
	literatureMaxArticles = 30
	abstractSnippetLen    = 300
)

// Literature searches PubMed for articles on the gene and variant.
type Literature struct {
	eutils eutils
	logger *zap.Logger
}

// NewLiterature returns the literature client. It paces its calls on the
// shared NCBI pacer in opts.
func NewLiterature(opts Options) *Literature {
	opts = opts.withDefaults()
	return &Literature{
		eutils: newEutils(opts),
		logger: opts.Logger.Named(types.SourceLiterature),
	}
}

// Name returns "literature".
func (c *Literature) Name() string { return types.SourceLiterature }

// Fetch runs three PubMed searches, merges their PMIDs in order and fetches
// the article details for at most 30 of them.
func (c *Literature) Fetch(ctx context.Context, s types.Subject) types.SourceResult {
	out := newOutcome(c.Name())
	payload := &types.LiteraturePayload{
		Queries:  literatureQueries(s),
		Articles: []types.Article{},
	}

	var pmids []string
	seen := map[string]bool{}
	for _, q := range payload.Queries {
		ids, err := c.eutils.search(ctx, "pubmed", q, literatureIDsPerQuery, "relevance")
		if !out.record(fmt.Sprintf("pubmed search %q", q), err) {
			continue
		}
		pmids = appendUnique(pmids, seen, ids, func(id string) string { return id }, 0)
	}
	if len(pmids) > literatureMaxArticles {
		pmids = pmids[:literatureMaxArticles]
	}

	if len(pmids) > 0 {
		articles, err := c.fetchArticles(ctx, pmids)
		if out.record("pubmed efetch", err) {
			payload.Articles = dedupe(articles, func(a types.Article) string { return a.PMID }, literatureMaxArticles)
		}
	}

	c.logger.Debug("literature fetched",
		zap.Int("pmids", len(pmids)), zap.Int("articles", len(payload.Articles)))
	res := out.result()
	res.Literature = payload
	return res
}

func literatureQueries(s types.Subject) []string {
	return []string{
		fmt.Sprintf("%s AND %s", s.GeneSymbol, s.QueryKey),
		fmt.Sprintf("%s AND (drug target OR therapeutic)", s.GeneSymbol),
		fmt.Sprintf("%s AND (biomarker OR pharmacogenomics)", s.GeneSymbol),
	}
}

func (c *Literature) fetchArticles(ctx context.Context, pmids []string) ([]types.Article, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"rettype": {"xml"},
		"retmode": {"xml"},
	}
	var set pubmedArticleSet
	if err := c.eutils.fetchXML(ctx, "efetch.fcgi", params, &set); err != nil {
		return nil, err
	}

	articles := make([]types.Article, 0, len(set.Articles))
	for _, a := range set.Articles {
		if art, ok := a.toArticle(); ok {
			articles = append(articles, art)
		}
	}
	return articles, nil
}

// PubMed efetch XML structures.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article *struct {
			Title   xmlText `xml:"ArticleTitle"`
			Journal struct {
				Title   string `xml:"Title"`
				PubDate struct {
					Year        string `xml:"Year"`
					MedlineDate string `xml:"MedlineDate"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			Authors []struct {
				LastName string `xml:"LastName"`
				Initials string `xml:"Initials"`
			} `xml:"AuthorList>Author"`
			Abstract []xmlText `xml:"Abstract>AbstractText"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

func (p pubmedArticle) toArticle() (types.Article, bool) {
	art := p.Citation.Article
	if art == nil {
		return types.Article{}, false
	}

	year := strings.TrimSpace(art.Journal.PubDate.Year)
	if year == "" {
		if md := strings.TrimSpace(art.Journal.PubDate.MedlineDate); len(md) >= 4 {
			year = md[:4]
		}
	}

	var authors []string
	for _, a := range art.Authors {
		if a.LastName == "" {
			continue
		}
		name := a.LastName
		if a.Initials != "" {
			name += " " + a.Initials
		}
		authors = append(authors, name)
	}
	var byline string
	switch len(authors) {
	case 0:
	case 1:
		byline = authors[0]
	default:
		byline = authors[0] + " et al."
	}

	var abstract string
	if len(art.Abstract) > 0 {
		abstract = string(art.Abstract[0])
	}

	return types.Article{
		PMID:            strings.TrimSpace(p.Citation.PMID),
		Title:           strings.TrimSpace(string(art.Title)),
		Authors:         byline,
		Journal:         strings.TrimSpace(art.Journal.Title),
		Year:            year,
		AbstractSnippet: snippet(abstract, abstractSnippetLen),
	}, true
}

// xmlText collects all character data of an element, including text inside
// nested markup such as <i> or <sup>.
type xmlText string

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.CharData:
			b.Write(tok)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				*t = xmlText(strings.TrimSpace(b.String()))
				return nil
			}
			depth--
		}
	}
}
