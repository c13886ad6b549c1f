// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LiteraturePayload holds PubMed articles found for the subject.
type LiteraturePayload struct {
	// Queries lists the search terms issued, in order.
	Queries  []string  `json:"search_queries_used" yaml:"search_queries_used"`
	Articles []Article `json:"pubmed_articles" yaml:"pubmed_articles"`
}

// Article is one PubMed record.
type Article struct {
	PMID            string `json:"pmid" yaml:"pmid"`
	Title           string `json:"title" yaml:"title"`
	Authors         string `json:"authors" yaml:"authors"`
	Journal         string `json:"journal" yaml:"journal"`
	Year            string `json:"year" yaml:"year"`
	AbstractSnippet string `json:"abstract_snippet" yaml:"abstract_snippet"`
}

// PatentClass is the keyword-derived category of a patent.
type PatentClass string

const (
	PatentDrug        PatentClass = "drug"
	PatentDiagnostic  PatentClass = "diagnostic"
	PatentTherapeutic PatentClass = "therapeutic"
	PatentOther       PatentClass = "other"
)

// PatentPayload holds patents mentioning the gene.
type PatentPayload struct {
	Queries []string `json:"search_queries_used" yaml:"search_queries_used"`
	Patents []Patent `json:"patents" yaml:"patents"`
}

// Patent is one PatentsView record.
type Patent struct {
	Number          string      `json:"patent_number" yaml:"patent_number"`
	Title           string      `json:"title" yaml:"title"`
	Assignee        string      `json:"assignee" yaml:"assignee"`
	Date            string      `json:"date" yaml:"date"`
	AbstractSnippet string      `json:"abstract_snippet" yaml:"abstract_snippet"`
	Classification  PatentClass `json:"classification" yaml:"classification"`
}

// ClinicalPayload holds ClinVar entries, clinical trials and GWAS associations.
type ClinicalPayload struct {
	ClinVar []ClinVarEntry    `json:"clinvar_entries" yaml:"clinvar_entries"`
	Trials  []ClinicalTrial   `json:"clinical_trials" yaml:"clinical_trials"`
	GWAS    []GWASAssociation `json:"gwas_associations" yaml:"gwas_associations"`
}

// ClinVarEntry is one ClinVar variation summary.
type ClinVarEntry struct {
	VariantID            string `json:"variant_id" yaml:"variant_id"`
	Title                string `json:"title" yaml:"title"`
	ClinicalSignificance string `json:"clinical_significance" yaml:"clinical_significance"`
	Conditions           string `json:"conditions" yaml:"conditions"`
	ReviewStatus         string `json:"review_status" yaml:"review_status"`
	LastEvaluated        string `json:"last_evaluated" yaml:"last_evaluated"`
}

// ClinicalTrial is one ClinicalTrials.gov study.
type ClinicalTrial struct {
	NCTID         string `json:"nct_id" yaml:"nct_id"`
	Title         string `json:"title" yaml:"title"`
	Phase         string `json:"phase" yaml:"phase"`
	Status        string `json:"status" yaml:"status"`
	Sponsor       string `json:"sponsor" yaml:"sponsor"`
	Conditions    string `json:"conditions" yaml:"conditions"`
	Interventions string `json:"interventions" yaml:"interventions"`
}

// GWASAssociation is one GWAS Catalog association for the variant.
type GWASAssociation struct {
	Trait      string `json:"trait" yaml:"trait"`
	PValue     string `json:"p_value" yaml:"p_value"`
	EffectSize string `json:"effect_size" yaml:"effect_size"`
	RiskAllele string `json:"risk_allele" yaml:"risk_allele"`
	PMID       string `json:"pmid" yaml:"pmid"`
}

// ProteinPayload combines interaction and expression data from five services.
type ProteinPayload struct {
	STRING     []StringInteraction  `json:"string_interactions" yaml:"string_interactions"`
	Expression Expression           `json:"hpa_expression" yaml:"hpa_expression"`
	IntAct     []IntActInteraction  `json:"intact" yaml:"intact"`
	BioPlex    []BioPlexInteraction `json:"bioplex" yaml:"bioplex"`
	BioGRID    []BioGRIDInteraction `json:"biogrid" yaml:"biogrid"`
}

// StringInteraction is one STRING-db functional partner.
type StringInteraction struct {
	ProteinA string  `json:"protein_a" yaml:"protein_a"`
	Partner  string  `json:"partner" yaml:"partner"`
	Score    float64 `json:"score" yaml:"score"`
	// Sources lists the evidence channels with a non-zero sub-score.
	Sources string `json:"sources" yaml:"sources"`
}

// Expression is the Human Protein Atlas summary for the gene.
type Expression struct {
	ProteinClass        string `json:"protein_class" yaml:"protein_class"`
	SubcellularLocation string `json:"subcellular_location" yaml:"subcellular_location"`
	TissueExpression    string `json:"tissue_expression" yaml:"tissue_expression"`
	RNAExpression       string `json:"rna_expression" yaml:"rna_expression"`
}

// IsZero reports whether no expression field is set.
func (e Expression) IsZero() bool {
	return e == (Expression{})
}

// IntActInteraction is one IntAct evidence row.
type IntActInteraction struct {
	InteractorA     string   `json:"interactor_a" yaml:"interactor_a"`
	InteractorB     string   `json:"interactor_b" yaml:"interactor_b"`
	InteractionType string   `json:"interaction_type" yaml:"interaction_type"`
	DetectionMethod string   `json:"detection_method" yaml:"detection_method"`
	PMID            string   `json:"publication" yaml:"publication"`
	Confidence      *float64 `json:"confidence_score" yaml:"confidence_score"`
}

// BioPlexInteraction is one BioPlex 293T network edge.
type BioPlexInteraction struct {
	SymbolA      string   `json:"symbol_a" yaml:"symbol_a"`
	SymbolB      string   `json:"symbol_b" yaml:"symbol_b"`
	UniprotA     string   `json:"uniprot_a" yaml:"uniprot_a"`
	UniprotB     string   `json:"uniprot_b" yaml:"uniprot_b"`
	PInteraction *float64 `json:"p_interaction" yaml:"p_interaction"`
}

// BioGRIDInteraction is one BioGRID curated interaction.
type BioGRIDInteraction struct {
	ID                 string `json:"biogrid_id" yaml:"biogrid_id"`
	GeneA              string `json:"gene_a" yaml:"gene_a"`
	GeneB              string `json:"gene_b" yaml:"gene_b"`
	ExperimentalSystem string `json:"experimental_system" yaml:"experimental_system"`
	Throughput         string `json:"throughput" yaml:"throughput"`
	PMID               string `json:"pubmed_id" yaml:"pubmed_id"`
}

// DrugTargetPayload holds Open Targets Platform data for the gene.
type DrugTargetPayload struct {
	EnsemblGeneID  string               `json:"ensembl_gene_id" yaml:"ensembl_gene_id"`
	OpenTargetsURL string               `json:"open_targets_url" yaml:"open_targets_url"`
	Target         TargetInfo           `json:"target_info" yaml:"target_info"`
	Tractability   Tractability         `json:"tractability" yaml:"tractability"`
	KnownDrugs     []KnownDrug          `json:"known_drugs" yaml:"known_drugs"`
	Diseases       []DiseaseAssociation `json:"disease_associations" yaml:"disease_associations"`
}

// TargetInfo describes the gene product as a drug target.
type TargetInfo struct {
	Description  string `json:"description" yaml:"description"`
	ProteinClass string `json:"protein_class" yaml:"protein_class"`
}

// Tractability lists positive tractability assessments by modality.
type Tractability struct {
	SmallMolecule   []string `json:"small_molecule" yaml:"small_molecule"`
	Antibody        []string `json:"antibody" yaml:"antibody"`
	OtherModalities []string `json:"other_modalities" yaml:"other_modalities"`
}

// KnownDrug is one drug acting on the target.
type KnownDrug struct {
	Name       string `json:"drug_name" yaml:"drug_name"`
	Type       string `json:"drug_type" yaml:"drug_type"`
	Mechanism  string `json:"mechanism_of_action" yaml:"mechanism_of_action"`
	Phase      string `json:"phase" yaml:"phase"`
	Indication string `json:"indication" yaml:"indication"`
}

// DiseaseAssociation is one disease linked to the target.
type DiseaseAssociation struct {
	Disease   string  `json:"disease_name" yaml:"disease_name"`
	Score     float64 `json:"overall_score" yaml:"overall_score"`
	DataTypes string  `json:"data_types" yaml:"data_types"`
}
