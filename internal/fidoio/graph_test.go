// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fidoio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fido-adapter/internal/sanitize"
	"github.com/pdiddy/fido-adapter/pkg/types"
)

func testMap() *sanitize.Map {
	return sanitize.NewMap([]string{"A1", "B2"})
}

func TestEncodeGraph(t *testing.T) {
	peptides := []types.PeptideRecord{
		{
			HigherScoreBetter: true,
			Hits: []types.PeptideHit{
				{Sequence: "PEPTIDEA", Score: 0.9, Accessions: []string{"A1", "B2"}},
			},
		},
		{
			HigherScoreBetter: true,
			Hits: []types.PeptideHit{
				{Sequence: "PEPTIDEB", Score: 0.4, Accessions: []string{"A1"}},
			},
		},
	}

	var out, log bytes.Buffer
	summary, err := EncodeGraph(&out, peptides, testMap(), "", "", &log)
	require.NoError(t, err)

	want := "e PEPTIDEA\n" +
		"r A1_1\n" +
		"r B2_2\n" +
		"p 0.9\n" +
		"e PEPTIDEB\n" +
		"r A1_1\n" +
		"p 0.4\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, 2, summary.Edges)
	assert.False(t, summary.Converted)
	assert.Empty(t, log.String())
}

func TestEncodeGraphSkipRules(t *testing.T) {
	peptides := []types.PeptideRecord{
		{HigherScoreBetter: true}, // no hits
		{
			HigherScoreBetter: true,
			Hits:              []types.PeptideHit{{Sequence: "", Score: 0.5, Accessions: []string{"A1"}}},
		},
		{
			HigherScoreBetter: true,
			Hits:              []types.PeptideHit{{Sequence: "PEPTIDEK", Score: 0.5}},
		},
		{
			HigherScoreBetter: true,
			Hits:              []types.PeptideHit{{Sequence: "PEPTIDER", Score: 0.5, Accessions: []string{"A1"}}},
		},
	}

	var out, log bytes.Buffer
	summary, err := EncodeGraph(&out, peptides, testMap(), "", "", &log)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Edges)
	assert.Equal(t, 3, summary.Skipped)
	assert.Contains(t, out.String(), "e PEPTIDER\n")
}

func TestEncodeGraphRunFilter(t *testing.T) {
	peptides := []types.PeptideRecord{
		{
			RunID:             "run1",
			HigherScoreBetter: true,
			Hits:              []types.PeptideHit{{Sequence: "AAA", Score: 0.5, Accessions: []string{"A1"}}},
		},
		{
			RunID:             "run2",
			HigherScoreBetter: true,
			Hits:              []types.PeptideHit{{Sequence: "CCC", Score: 0.5, Accessions: []string{"B2"}}},
		},
	}

	var out, log bytes.Buffer
	summary, err := EncodeGraph(&out, peptides, testMap(), "", "run2", &log)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Edges)
	assert.Contains(t, out.String(), "e CCC\n")
	assert.NotContains(t, out.String(), "e AAA\n")
}

func TestEncodeGraphBestHitFirst(t *testing.T) {
	// Hits are ranked per the record's score direction before picking the
	// best one.
	peptides := []types.PeptideRecord{
		{
			HigherScoreBetter: true,
			Hits: []types.PeptideHit{
				{Sequence: "WORSE", Score: 0.2, Accessions: []string{"A1"}},
				{Sequence: "BEST", Score: 0.8, Accessions: []string{"B2"}},
			},
		},
	}

	var out, log bytes.Buffer
	_, err := EncodeGraph(&out, peptides, testMap(), "", "", &log)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "e BEST\n")
	assert.NotContains(t, out.String(), "e WORSE\n")
}

func TestEncodeGraphPEPConversion(t *testing.T) {
	peptides := []types.PeptideRecord{
		{
			ScoreType:         "Posterior Error Probability",
			HigherScoreBetter: false,
			Hits:              []types.PeptideHit{{Sequence: "AAA", Score: 0.25, Accessions: []string{"A1"}}},
		},
		{
			ScoreType:         "consensus_PEPMatrix",
			HigherScoreBetter: false,
			Hits:              []types.PeptideHit{{Sequence: "CCC", Score: 0.5, Accessions: []string{"B2"}}},
		},
	}

	var out, log bytes.Buffer
	summary, err := EncodeGraph(&out, peptides, testMap(), "", "", &log)
	require.NoError(t, err)

	assert.True(t, summary.Converted)
	assert.Contains(t, out.String(), "p 0.75\n")
	assert.Contains(t, out.String(), "p 0.5\n")
	// The conversion warning appears exactly once.
	assert.Equal(t, 1, strings.Count(log.String(), "Warning:"))
}

func TestEncodeGraphProbParam(t *testing.T) {
	peptides := []types.PeptideRecord{
		{
			ScoreType:         "q-value",
			HigherScoreBetter: false, // would be unusable without the meta value
			Hits: []types.PeptideHit{
				{
					Sequence:   "AAA",
					Score:      0.01,
					Accessions: []string{"A1"},
					MetaValues: map[string]float64{"Posterior Probability_score": 0.95},
				},
			},
		},
	}

	var out, log bytes.Buffer
	_, err := EncodeGraph(&out, peptides, testMap(), "Posterior Probability_score", "", &log)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "p 0.95\n")
}

func TestEncodeGraphUnsuitableScores(t *testing.T) {
	tests := []struct {
		name   string
		record types.PeptideRecord
		reason string
	}{
		{
			name: "lower is better without known score type",
			record: types.PeptideRecord{
				ScoreType:         "Mascot score",
				HigherScoreBetter: false,
				Hits:              []types.PeptideHit{{Sequence: "AAA", Score: 0.5, Accessions: []string{"A1"}}},
			},
			reason: "lower scores are better",
		},
		{
			name: "score above one",
			record: types.PeptideRecord{
				HigherScoreBetter: true,
				Hits:              []types.PeptideHit{{Sequence: "AAA", Score: 42, Accessions: []string{"A1"}}},
			},
			reason: "score > 1",
		},
		{
			name: "score below zero",
			record: types.PeptideRecord{
				HigherScoreBetter: true,
				Hits:              []types.PeptideHit{{Sequence: "AAA", Score: -0.1, Accessions: []string{"A1"}}},
			},
			reason: "score < 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A valid record before the bad one must not leak into the output:
			// validation runs before any bytes are written.
			peptides := []types.PeptideRecord{
				{
					HigherScoreBetter: true,
					Hits:              []types.PeptideHit{{Sequence: "GOOD", Score: 0.9, Accessions: []string{"A1"}}},
				},
				tt.record,
			}
			var out, log bytes.Buffer
			_, err := EncodeGraph(&out, peptides, testMap(), "", "", &log)
			require.ErrorIs(t, err, ErrDataQuality)
			assert.Contains(t, err.Error(), tt.reason)
			assert.Zero(t, out.Len(), "no bytes may be written on a data-quality failure")
		})
	}
}
