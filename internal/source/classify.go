// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"strings"

	"github.com/pdiddy/variant-research/pkg/types"
)

// classKeywords lists the keywords scored for each patent category, in
// tie-break priority order.
var classKeywords = []struct {
	class    types.PatentClass
	keywords []string
}{
	{types.PatentTherapeutic, []string{
		"treatment", "therapy", "therapeutic", "method of treating",
		"disease", "disorder",
	}},
	{types.PatentDrug, []string{
		"drug", "pharmaceutical", "compound", "inhibitor", "antagonist",
		"agonist", "antibody", "sirna", "antisense", "oligonucleotide",
		"small molecule", "formulation", "dosage",
	}},
	{types.PatentDiagnostic, []string{
		"diagnostic", "biomarker", "assay", "detection", "screening",
		"probe", "marker", "test", "kit",
	}},
}

// ClassifyPatent assigns a patent to drug, diagnostic, therapeutic or other.
// Each category scores the number of its keywords that occur in the
// lower-cased title and abstract. The highest score wins; ties go to the
// earlier category in the order therapeutic, drug, diagnostic. A patent
// matching no keyword is "other".
func ClassifyPatent(title, abstract string) types.PatentClass {
	text := strings.ToLower(title + " " + abstract)

	best, bestScore := types.PatentOther, 0
	for _, c := range classKeywords {
		score := 0
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c.class, score
		}
	}
	return best
}
