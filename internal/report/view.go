// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/variant-research/pkg/types"
)

// Placeholder is shown in place of a section whose data is unavailable.
const Placeholder = "Data unavailable"

// Section ids in document order.
var SectionIDs = []string{
	"variant-summary",
	"clinical-significance",
	"gwas",
	"literature",
	"patents",
	"protein",
	"drug-targets",
	"competitive-intel",
	"references",
}

// sourceOrder fixes the order of the status table.
var sourceOrder = []string{
	types.SourceLiterature,
	types.SourcePatents,
	types.SourceClinical,
	types.SourceProtein,
	types.SourceDrugTargets,
}

// document is the template's view of one record. Everything the template
// ranges over is a slice built in a fixed order, so output never depends on
// map iteration.
type document struct {
	Title       string
	GeneratedAt string
	Subject     types.Subject
	Summary     types.RunSummary
	Statuses    []sourceStatus

	Clinical    section
	GWAS        section
	Literature  section
	Patents     section
	Protein     section
	DrugTargets section
	Competitors section
	References  section

	ClinVar      []types.ClinVarEntry
	Trials       []types.ClinicalTrial
	Associations []types.GWASAssociation
	Articles     []types.Article
	Queries      []string
	PatentList   []types.Patent
	PatentMix    []classCount
	ProteinData  types.ProteinPayload
	Drugs        types.DrugTargetPayload
	Companies    []company
	RefList      []reference
}

type sourceStatus struct {
	Source  string
	Status  types.Status
	Records int
	Errors  int
}

// section carries the availability of one report section and the backing
// source's messages.
type section struct {
	Available bool
	Status    types.Status
	Errors    []string
}

type classCount struct {
	Class types.PatentClass
	Count int
}

// company is one organization with the patents it holds and the trials it
// sponsors, in source order.
type company struct {
	Name    string
	Patents []types.Patent
	Trials  []types.ClinicalTrial
}

type reference struct {
	PMID   string
	Label  string
	Source string
}

func newSection(r types.SourceResult, hasData bool) section {
	return section{
		Available: r.Status != types.StatusError && hasData,
		Status:    r.Status,
		Errors:    r.Errors,
	}
}

// buildDocument derives the template view from rec.
func buildDocument(rec types.AggregateRecord, generatedAt time.Time) document {
	subj := rec.Subject
	doc := document{
		Title:       strings.TrimSpace(subj.GeneSymbol + " " + subj.QueryKey),
		GeneratedAt: generatedAt.UTC().Format("2006-01-02 15:04 UTC"),
		Subject:     subj,
		Summary:     rec.Summary(),
	}

	var extra []string
	for name := range rec.Sources {
		if !contains(sourceOrder, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range append(append([]string{}, sourceOrder...), extra...) {
		r := rec.Source(name)
		doc.Statuses = append(doc.Statuses, sourceStatus{
			Source: name, Status: r.Status, Records: r.Count(), Errors: len(r.Errors),
		})
	}

	clin := rec.Source(types.SourceClinical)
	if p := clin.Clinical; p != nil {
		doc.ClinVar, doc.Trials, doc.Associations = p.ClinVar, p.Trials, p.GWAS
	}
	doc.Clinical = newSection(clin, len(doc.ClinVar)+len(doc.Trials) > 0)
	doc.GWAS = newSection(clin, len(doc.Associations) > 0)

	lit := rec.Source(types.SourceLiterature)
	if p := lit.Literature; p != nil {
		doc.Articles, doc.Queries = p.Articles, p.Queries
	}
	doc.Literature = newSection(lit, len(doc.Articles) > 0)

	pat := rec.Source(types.SourcePatents)
	if p := pat.Patents; p != nil {
		doc.PatentList = p.Patents
	}
	doc.PatentMix = patentMix(doc.PatentList)
	doc.Patents = newSection(pat, len(doc.PatentList) > 0)

	prot := rec.Source(types.SourceProtein)
	if p := prot.Protein; p != nil {
		doc.ProteinData = *p
	}
	doc.Protein = newSection(prot, prot.Count() > 0)

	dt := rec.Source(types.SourceDrugTargets)
	if p := dt.DrugTargets; p != nil {
		doc.Drugs = *p
	}
	doc.DrugTargets = newSection(dt, dt.Count() > 0)

	doc.Companies = companies(doc.PatentList, doc.Trials)
	doc.Competitors = section{Available: len(doc.Companies) > 0, Errors: joinErrors(pat, clin)}

	doc.RefList = references(doc.Articles, doc.ProteinData)
	doc.References = section{Available: len(doc.RefList) > 0, Errors: joinErrors(lit, prot)}
	return doc
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func joinErrors(results ...types.SourceResult) []string {
	var out []string
	for _, r := range results {
		if r.Status == types.StatusError {
			out = append(out, r.Errors...)
		}
	}
	return out
}

// patentMix counts patents per class in a fixed display order,
// omitting empty classes.
func patentMix(patents []types.Patent) []classCount {
	counts := map[types.PatentClass]int{}
	for _, p := range patents {
		counts[p.Classification]++
	}
	var out []classCount
	for _, c := range []types.PatentClass{types.PatentDrug, types.PatentDiagnostic, types.PatentTherapeutic, types.PatentOther} {
		if counts[c] > 0 {
			out = append(out, classCount{Class: c, Count: counts[c]})
		}
	}
	return out
}

// companies merges patent assignees and trial sponsors by case-insensitive
// name, sorted by name.
func companies(patents []types.Patent, trials []types.ClinicalTrial) []company {
	byKey := map[string]*company{}
	get := func(name string) *company {
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, "unknown") {
			return nil
		}
		key := strings.ToLower(name)
		c, ok := byKey[key]
		if !ok {
			c = &company{Name: name}
			byKey[key] = c
		}
		return c
	}
	for _, p := range patents {
		if c := get(p.Assignee); c != nil {
			c.Patents = append(c.Patents, p)
		}
	}
	for _, t := range trials {
		if c := get(t.Sponsor); c != nil {
			c.Trials = append(c.Trials, t)
		}
	}

	out := make([]company, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// references lists PubMed articles first, then PMIDs cited by IntAct and
// BioGRID evidence, each PMID once in first-seen order.
func references(articles []types.Article, p types.ProteinPayload) []reference {
	seen := map[string]bool{}
	var out []reference
	add := func(ref reference) {
		if ref.PMID == "" || ref.PMID == "-" || seen[ref.PMID] {
			return
		}
		seen[ref.PMID] = true
		out = append(out, ref)
	}
	for _, a := range articles {
		label := a.Title
		if a.Journal != "" || a.Year != "" {
			label += " " + strings.TrimSpace(a.Journal+" "+a.Year)
		}
		add(reference{PMID: a.PMID, Label: strings.TrimSpace(label), Source: "PubMed"})
	}
	for _, i := range p.IntAct {
		add(reference{PMID: i.PMID, Label: i.InteractorA + " - " + i.InteractorB, Source: "IntAct"})
	}
	for _, b := range p.BioGRID {
		add(reference{PMID: b.PMID, Label: b.GeneA + " - " + b.GeneB, Source: "BioGRID"})
	}
	return out
}
