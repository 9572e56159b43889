// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fidoio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fido-adapter/internal/sanitize"
)

func TestDecodeGroups(t *testing.T) {
	accs := sanitize.NewMap([]string{"SW:TRP6_HUMAN", "GP:AJ271067_1", "GP:AJ271068_1", "A1"})
	// Sorted accession order assigns: A1 -> A1_1, GP:AJ271067_1 -> ..._2,
	// GP:AJ271068_1 -> ..._3, SW:TRP6_HUMAN -> ..._4.
	output := []byte(
		"0.6788 { SW:TRP6_HUMAN_4 , GP:AJ271067_1_2 , GP:AJ271068_1_3 }\n" +
			"0.95 { A1_1 }\n" +
			"\n")

	result, err := DecodeGroups(output, accs, false)
	require.NoError(t, err)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, 4, result.Proteins)
	assert.Zero(t, result.ZeroProteins)

	// Groups ascending by probability, accessions sorted within each group.
	assert.Equal(t, 0.6788, result.Groups[0].Probability)
	assert.Equal(t, []string{"GP:AJ271067_1", "GP:AJ271068_1", "SW:TRP6_HUMAN"}, result.Groups[0].Accessions)
	assert.Equal(t, 0.95, result.Groups[1].Probability)
	assert.Equal(t, []string{"A1"}, result.Groups[1].Accessions)
}

func TestDecodeGroupsDeterministic(t *testing.T) {
	accs := sanitize.NewMap([]string{"A1", "B2", "C3"})
	output := []byte("0.5 { B2_2 , A1_1 }\n0.5 { C3_3 }\n")

	first, err := DecodeGroups(output, accs, false)
	require.NoError(t, err)
	second, err := DecodeGroups(output, accs, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Equal probabilities tie-break on accessions.
	assert.Equal(t, []string{"A1", "B2"}, first.Groups[0].Accessions)
	assert.Equal(t, []string{"C3"}, first.Groups[1].Accessions)
}

func TestDecodeGroupsZeroProbability(t *testing.T) {
	accs := sanitize.NewMap([]string{"A1", "B2"})
	output := []byte("0 { A1_1 , B2_2 }\n")

	dropped, err := DecodeGroups(output, accs, false)
	require.NoError(t, err)
	assert.Empty(t, dropped.Groups, "zero-probability group must be dropped without retention")
	assert.Equal(t, 2, dropped.ZeroProteins, "dropped proteins still count for diagnostics")
	assert.Zero(t, dropped.Proteins)

	kept, err := DecodeGroups(output, accs, true)
	require.NoError(t, err)
	require.Len(t, kept.Groups, 1)
	assert.Zero(t, kept.Groups[0].Probability)
	assert.Equal(t, []string{"A1", "B2"}, kept.Groups[0].Accessions)
	assert.Equal(t, 2, kept.ZeroProteins)
}

func TestDecodeGroupsUnknownToken(t *testing.T) {
	accs := sanitize.NewMap([]string{"A1"})
	_, err := DecodeGroups([]byte("0.5 { BOGUS_9 }\n"), accs, false)
	require.ErrorIs(t, err, ErrDataQuality)
}

func TestDecodeParameterTrace(t *testing.T) {
	trace := []byte(`Reading graph...
Pruning graph...
Using best gamma, alpha, beta = 0.5 0.1 0.01
`)
	var log bytes.Buffer
	gamma, alpha, beta, found, err := DecodeParameterTrace(trace, &log)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.5, gamma)
	assert.Equal(t, 0.1, alpha)
	assert.Equal(t, 0.01, beta)
	assert.Contains(t, log.String(), "Using best gamma, alpha, beta = 0.5 0.1 0.01")
}

func TestDecodeParameterTraceException(t *testing.T) {
	var log bytes.Buffer
	_, _, _, _, err := DecodeParameterTrace([]byte("caught an exception: bad graph\n"), &log)
	require.ErrorIs(t, err, ErrSolverTrace)
	assert.Contains(t, err.Error(), "bad graph")
}

func TestDecodeParameterTraceWarning(t *testing.T) {
	trace := []byte("Warning: few decoys\nUsing best gamma, alpha, beta = 0.1 0.2 0.3\n")
	var log bytes.Buffer
	_, _, _, found, err := DecodeParameterTrace(trace, &log)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, log.String(), "Warning: few decoys")
}

func TestDecodeParameterTraceEmpty(t *testing.T) {
	var log bytes.Buffer
	_, _, _, found, err := DecodeParameterTrace([]byte("\n\n"), &log)
	require.NoError(t, err)
	assert.False(t, found)
}
