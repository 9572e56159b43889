// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fidoio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/fido-adapter/internal/sanitize"
	"github.com/pdiddy/fido-adapter/pkg/types"
)

// Score types whose values are posterior error probabilities (lower is
// better) and can be converted to posterior probabilities via 1-score.
const scoreTypePEP = "posterior error probability"
const scoreTypeConsensusPrefix = "consensus_"

// GraphSummary reports what a graph encoding pass produced.
type GraphSummary struct {
	// Edges is the number of peptide edges written.
	Edges int
	// Skipped counts peptide records dropped by the skip rules (no hits,
	// empty sequence, no accessions).
	Skipped int
	// Converted reports whether posterior error probabilities were
	// auto-converted to posterior probabilities.
	Converted bool
}

// graphEntry is one resolved peptide edge, validated before any output is
// written.
type graphEntry struct {
	sequence    string
	tokens      []string
	probability float64
}

// EncodeGraph writes the PSM graph for the solver: for each usable peptide
// record, an "e" line with the best hit's sequence, one "r" line per
// sanitized accession, and a "p" line with the resolved probability. When
// runID is non-empty only records of that run are used. When probParam
// names a meta value present on a hit, it is read as the probability
// instead of the score field.
//
// All scores are resolved and validated before the first byte is written;
// an out-of-range or wrongly-directed score aborts the whole encoding,
// since it signals a systematically wrong score type upstream. Hits within
// each record are sorted best-first in place.
func EncodeGraph(w io.Writer, peptides []types.PeptideRecord, accs *sanitize.Map, probParam, runID string, log io.Writer) (GraphSummary, error) {
	var summary GraphSummary
	var entries []graphEntry

	for i := range peptides {
		rec := &peptides[i]
		if runID != "" && rec.RunID != runID {
			continue
		}
		if len(rec.Hits) == 0 {
			summary.Skipped++
			continue
		}
		rec.SortHits()
		hit := rec.Hits[0]
		if hit.Sequence == "" || len(hit.Accessions) == 0 {
			summary.Skipped++
			continue
		}

		score, converted, err := resolveScore(rec, hit, probParam)
		if err != nil {
			return summary, err
		}
		if converted && !summary.Converted {
			fmt.Fprintln(log, "Warning: Scores of peptide hits seem to be posterior"+
				" error probabilities. Converting to (positive) posterior probabilities.")
			summary.Converted = true
		}

		tokens := make([]string, 0, len(hit.Accessions))
		for _, acc := range hit.Accessions {
			if acc == "" {
				continue
			}
			token, ok := accs.Token(acc)
			if !ok {
				return summary, fmt.Errorf("%w: accession %q missing from sanitizer map", ErrDataQuality, acc)
			}
			tokens = append(tokens, token)
		}
		entries = append(entries, graphEntry{
			sequence:    hit.Sequence,
			tokens:      tokens,
			probability: score,
		})
	}

	for _, e := range entries {
		fmt.Fprintf(w, "e %s\n", e.sequence)
		for _, token := range e.tokens {
			fmt.Fprintf(w, "r %s\n", token)
		}
		fmt.Fprintf(w, "p %s\n", strconv.FormatFloat(e.probability, 'g', -1, 64))
	}
	summary.Edges = len(entries)
	return summary, nil
}

// resolveScore turns a peptide hit's score into a posterior probability.
// Resolution order: the probParam meta value when present, then the score
// field when higher is better, then 1-score for known posterior-error-
// probability score types. Anything else, or a result outside [0,1], is a
// data-quality failure.
func resolveScore(rec *types.PeptideRecord, hit types.PeptideHit, probParam string) (float64, bool, error) {
	var score float64
	var converted bool

	if v, ok := hit.MetaValue(probParam); probParam != "" && ok {
		score = v
	} else {
		score = hit.Score
		if !rec.HigherScoreBetter {
			scoreType := strings.ToLower(rec.ScoreType)
			if scoreType == scoreTypePEP || strings.HasPrefix(scoreType, scoreTypeConsensusPrefix) {
				score = 1.0 - score
				converted = true
			} else {
				return 0, false, scoreError("lower scores are better")
			}
		}
	}

	if score < 0.0 {
		return 0, false, scoreError("score < 0")
	}
	if score > 1.0 {
		return 0, false, scoreError("score > 1")
	}
	return score, converted, nil
}

func scoreError(reason string) error {
	return fmt.Errorf("%w: unsuitable score type for peptide-spectrum matches (problem: %s); "+
		"the solver requires posterior probabilities as scores", ErrDataQuality, reason)
}
