// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// PeptideHit is one candidate identification of a peptide, ranked within a
// PeptideRecord. Accessions lists the proteins the peptide maps to.
type PeptideHit struct {
	Sequence   string             `json:"sequence" yaml:"sequence"`
	Score      float64            `json:"score" yaml:"score"`
	Accessions []string           `json:"accessions" yaml:"accessions"`
	MetaValues map[string]float64 `json:"meta_values,omitempty" yaml:"meta_values,omitempty"`
}

// MetaValue returns the named numeric meta value and whether it is present.
func (h PeptideHit) MetaValue(name string) (float64, bool) {
	v, ok := h.MetaValues[name]
	return v, ok
}

// PeptideRecord is a retention-time-independent peptide identification entry.
// Score type and direction apply to all hits of the record.
type PeptideRecord struct {
	// RunID links the record to a protein identification run. Cleared when
	// runs are merged.
	RunID             string       `json:"run_id" yaml:"run_id"`
	ScoreType         string       `json:"score_type" yaml:"score_type"`
	HigherScoreBetter bool         `json:"higher_score_better" yaml:"higher_score_better"`
	Hits              []PeptideHit `json:"hits" yaml:"hits"`
}

// SortHits orders the hits best-first according to the record's score
// direction. Ties keep their original order.
func (p *PeptideRecord) SortHits() {
	sort.SliceStable(p.Hits, func(i, j int) bool {
		if p.HigherScoreBetter {
			return p.Hits[i].Score > p.Hits[j].Score
		}
		return p.Hits[i].Score < p.Hits[j].Score
	})
}

// Target/decoy labels expected in ProteinHit meta values under MetaTargetDecoy.
const (
	MetaTargetDecoy = "target_decoy"
	LabelTarget     = "target"
	LabelDecoy      = "decoy"
)

// Meta value names under which the resolved solver parameters are recorded
// on a ProteinRecord after inference.
const (
	MetaProbProtein  = "Fido_prob_protein"
	MetaProbPeptide  = "Fido_prob_peptide"
	MetaProbSpurious = "Fido_prob_spurious"
)

// ProteinHit is one candidate protein of an identification run.
type ProteinHit struct {
	Accession  string            `json:"accession" yaml:"accession"`
	Score      float64           `json:"score" yaml:"score"`
	MetaValues map[string]string `json:"meta_values,omitempty" yaml:"meta_values,omitempty"`
}

// ProteinGroup is a set of proteins the solver judged indistinguishable,
// sharing one posterior probability. Accessions are sorted lexicographically.
type ProteinGroup struct {
	Probability float64  `json:"probability" yaml:"probability"`
	Accessions  []string `json:"accessions" yaml:"accessions"`
}

// Less orders groups ascending by probability, accession list as tie-break.
func (g ProteinGroup) Less(other ProteinGroup) bool {
	if g.Probability != other.Probability {
		return g.Probability < other.Probability
	}
	for i := 0; i < len(g.Accessions) && i < len(other.Accessions); i++ {
		if g.Accessions[i] != other.Accessions[i] {
			return g.Accessions[i] < other.Accessions[i]
		}
	}
	return len(g.Accessions) < len(other.Accessions)
}

// ProteinRecord is one protein identification run: its protein hits plus,
// after inference, the indistinguishable groups and solver parameter
// meta values.
type ProteinRecord struct {
	RunID             string             `json:"run_id" yaml:"run_id"`
	SearchEngine      string             `json:"search_engine,omitempty" yaml:"search_engine,omitempty"`
	ScoreType         string             `json:"score_type,omitempty" yaml:"score_type,omitempty"`
	HigherScoreBetter bool               `json:"higher_score_better" yaml:"higher_score_better"`
	Hits              []ProteinHit       `json:"hits" yaml:"hits"`
	Groups            []ProteinGroup     `json:"groups,omitempty" yaml:"groups,omitempty"`
	MetaValues        map[string]float64 `json:"meta_values,omitempty" yaml:"meta_values,omitempty"`
}

// FindHit returns a pointer to the hit with the given accession, or nil.
func (p *ProteinRecord) FindHit(accession string) *ProteinHit {
	for i := range p.Hits {
		if p.Hits[i].Accession == accession {
			return &p.Hits[i]
		}
	}
	return nil
}

// SetMetaValue records a named numeric meta value on the record.
func (p *ProteinRecord) SetMetaValue(name string, value float64) {
	if p.MetaValues == nil {
		p.MetaValues = make(map[string]float64)
	}
	p.MetaValues[name] = value
}

// IdentificationDocument is the in-memory identification data set the
// adapter operates on: one ProteinRecord per run plus the peptide records
// of all runs.
type IdentificationDocument struct {
	ProteinRuns []ProteinRecord `json:"protein_runs" yaml:"protein_runs"`
	Peptides    []PeptideRecord `json:"peptides" yaml:"peptides"`
}

// IsEmpty reports whether the document lacks protein or peptide data.
func (d *IdentificationDocument) IsEmpty() bool {
	return len(d.ProteinRuns) == 0 || len(d.Peptides) == 0
}

// SolverParameters holds the three Fido model probabilities plus the
// log2-scale bound on connected subgraph size. Either supplied by the
// caller (fixed-parameter mode) or produced by the solver's parameter
// search.
type SolverParameters struct {
	// ProteinPrior is the protein prior probability (Fido's gamma).
	ProteinPrior float64 `json:"protein_prior" yaml:"protein_prior"`
	// PeptideEmission is the peptide emission probability (alpha).
	PeptideEmission float64 `json:"peptide_emission" yaml:"peptide_emission"`
	// SpuriousMatch is the spurious identification probability (beta).
	SpuriousMatch float64 `json:"spurious_match" yaml:"spurious_match"`
	// Log2States caps connected subgraph size at 2^N states; 0 uses the
	// solver default (18).
	Log2States int `json:"log2_states" yaml:"log2_states"`
}

// ChooseParams reports whether the solver should estimate the three
// probabilities itself. All three fixed to zero means parameter search.
func (p SolverParameters) ChooseParams() bool {
	return p.ProteinPrior == 0 && p.PeptideEmission == 0 && p.SpuriousMatch == 0
}
