// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fidoio implements the solver's textual wire format: the PSM graph
// and protein-set input files, and the probability-group and parameter-trace
// output streams.
package fidoio

import "errors"

// ErrDataQuality marks input that the solver cannot process: unsuitable
// score types, missing target/decoy annotations, empty target or decoy
// sets, or unmapped accession tokens. It aborts the affected run.
var ErrDataQuality = errors.New("unsuitable identification data")
