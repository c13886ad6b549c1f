// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bufio"
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/variant-research/pkg/types"
)

// mitabMinColumns is the number of MITAB 2.7 columns up to and including
// the confidence column.
const mitabMinColumns = 15

// intact queries IntAct through PSICQUIC and parses the MITAB 2.7 rows.
func (c *Protein) intact(ctx context.Context, gene string) ([]types.IntActInteraction, error) {
	params := url.Values{
		"format":      {"tab27"},
		"firstResult": {"0"},
		"maxResults":  {strconv.Itoa(interactionsMax)},
	}
	data, err := c.getBytes(ctx, "IntAct", intactSearch+"/"+url.PathEscape(gene)+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	return parseMITAB(data), nil
}

// parseMITAB converts MITAB 2.7 rows to interactions. Rows with fewer than
// 15 columns are skipped.
func parseMITAB(data []byte) []types.IntActInteraction {
	var out []types.IntActInteraction
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < mitabMinColumns {
			continue
		}

		nameA := mitabAlias(f[4])
		if nameA == "" {
			nameA = mitabID(f[0])
		}
		nameB := mitabAlias(f[5])
		if nameB == "" {
			nameB = mitabID(f[1])
		}

		out = append(out, types.IntActInteraction{
			InteractorA:     nameA,
			InteractorB:     nameB,
			InteractionType: psiLabel(f[11]),
			DetectionMethod: psiLabel(f[6]),
			PMID:            mitabPubmed(f[8]),
			Confidence:      mitabMIScore(f[14]),
		})
	}
	return out
}

// mitabAlias returns the display_short alias, or the gene name alias, from
// an alias column such as "psi-mi:agt_human(display_long)|uniprotkb:AGT(gene name)".
func mitabAlias(field string) string {
	for _, want := range []string{"display_short", "gene name"} {
		for _, part := range strings.Split(field, "|") {
			if !strings.Contains(strings.ToLower(part), want) {
				continue
			}
			name, _, _ := strings.Cut(part, "(")
			if _, v, ok := strings.Cut(name, ":"); ok {
				name = v
			}
			return strings.Trim(strings.TrimSpace(name), `"`)
		}
	}
	return ""
}

// mitabID returns the accession of the first identifier in an id column.
func mitabID(field string) string {
	first, _, _ := strings.Cut(field, "|")
	if _, v, ok := strings.Cut(first, ":"); ok {
		return v
	}
	return first
}

func mitabPubmed(field string) string {
	for _, part := range strings.Split(field, "|") {
		if _, v, ok := strings.Cut(part, "pubmed:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// psiLabel extracts the label from a PSI-MI term such as
// psi-mi:"MI:0915"(physical association).
func psiLabel(field string) string {
	start := strings.Index(field, "(")
	end := strings.LastIndex(field, ")")
	if start >= 0 && end > start {
		return field[start+1 : end]
	}
	return field
}

func mitabMIScore(field string) *float64 {
	for _, part := range strings.Split(field, "|") {
		if _, v, ok := strings.Cut(part, "intact-miscore:"); ok {
			if score, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &score
			}
		}
	}
	return nil
}
