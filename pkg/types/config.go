// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Accuracy selects the trade-off between runtime and the accuracy of the
// solver's parameter-search start values.
type Accuracy string

const (
	AccuracyDefault Accuracy = ""
	AccuracyBest    Accuracy = "best"
	AccuracyRelaxed Accuracy = "relaxed"
	AccuracySloppy  Accuracy = "sloppy"
)

// Valid reports whether the accuracy level is one of the known choices.
func (a Accuracy) Valid() bool {
	switch a {
	case AccuracyDefault, AccuracyBest, AccuracyRelaxed, AccuracySloppy:
		return true
	}
	return false
}

// SolverConfig holds settings for assembling and running the external
// inference solver.
type SolverConfig struct {
	// Exe is the solver executable: empty to look up Fido/FidoChooseParameters
	// on PATH, a directory containing both binaries, or a full path.
	Exe string `json:"exe,omitempty" yaml:"exe,omitempty"`

	// Accuracy is the start-parameter accuracy level for parameter search.
	Accuracy Accuracy `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`

	// NoCleanup omits the solver's clean-up of peptide sequences (removal of
	// non-letter characters, replacement of I with L).
	NoCleanup bool `json:"no_cleanup" yaml:"no_cleanup"`

	// AllPSMs considers all PSMs of each peptide instead of only the best one.
	AllPSMs bool `json:"all_psms" yaml:"all_psms"`

	// GroupLevel performs inference on protein group level instead of
	// individual protein level.
	GroupLevel bool `json:"group_level" yaml:"group_level"`

	// Log2StatesPrecalc is a separate subgraph-size cap for the solver's
	// precalculation phase; 0 disables it.
	Log2StatesPrecalc int `json:"log2_states_precalc" yaml:"log2_states_precalc"`

	// Timeout bounds the solver's runtime; 0 waits indefinitely.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// InferConfig holds settings for a whole adapter run.
type InferConfig struct {
	Solver SolverConfig     `yaml:",inline"`
	Params SolverParameters `yaml:",inline"`

	// ProbParam names a peptide-hit meta value to read probabilities from
	// instead of the score field, when present.
	ProbParam string `json:"prob_param,omitempty" yaml:"prob_param,omitempty"`

	// SeparateRuns processes multiple identification runs independently
	// instead of merging them.
	SeparateRuns bool `json:"separate_runs" yaml:"separate_runs"`

	// KeepZeroGroup keeps the (possibly very large) group of proteins with
	// estimated probability zero.
	KeepZeroGroup bool `json:"keep_zero_group" yaml:"keep_zero_group"`

	// KeepTemp retains the temporary solver input/output files for
	// diagnostics instead of removing them.
	KeepTemp bool `json:"keep_temp" yaml:"keep_temp"`
}
